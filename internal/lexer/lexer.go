package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"schemamap/value"
)

type scanner struct {
	src    []rune
	pos    int
	line   int
	column int
	tokens []Token
}

// Tokenize splits src into tokens. The result always ends with an EOF
// token. The only failure is an unterminated string, reported as *Error.
func Tokenize(src string) ([]Token, error) {
	s := &scanner{src: []rune(src), line: 1, column: 1}

	for {
		s.skipBlanks()

		if s.pos >= len(s.src) {
			break
		}

		if err := s.next(); err != nil {
			return nil, err
		}
	}

	s.tokens = append(s.tokens, Token{Kind: EOF, Line: s.line, Column: s.column})

	return s.tokens, nil
}

func (s *scanner) next() error {
	line, col := s.line, s.column
	c := s.src[s.pos]

	switch {
	case c == '#':
		for s.pos < len(s.src) && s.src[s.pos] != '\n' {
			s.advance()
		}
	case c == '"' || c == '\'':
		return s.readString(c, line, col)
	case isDigit(c) || (c == '-' && isDigit(s.peek(1))):
		s.readNumber(line, col)
	case c == '@':
		s.readDirective(line, col)
	case unicode.IsLetter(c) || c == '_':
		s.readIdent(line, col)
	case c == '\n':
		s.advance()
		s.emit(Newline, "\n", line, col)
	default:
		if s.pos+1 < len(s.src) {
			two := string(s.src[s.pos : s.pos+2])
			if k, ok := twoCharOps[two]; ok {
				s.advance()
				s.advance()
				s.emit(k, two, line, col)

				return nil
			}
		}

		s.advance()

		if k, ok := singleCharOps[c]; ok {
			s.emit(k, string(c), line, col)
		} else {
			s.emit(Unknown, string(c), line, col)
		}
	}

	return nil
}

func (s *scanner) emit(k Kind, text string, line, col int) {
	s.tokens = append(s.tokens, Token{Kind: k, Text: text, Line: line, Column: col})
}

func (s *scanner) emitValue(k Kind, text string, v value.Value, line, col int) {
	s.tokens = append(s.tokens, Token{Kind: k, Text: text, Value: v, Line: line, Column: col})
}

func (s *scanner) skipBlanks() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\r':
			s.advance()
		default:
			return
		}
	}
}

func (s *scanner) advance() {
	if s.pos >= len(s.src) {
		return
	}

	if s.src[s.pos] == '\n' {
		s.line++
		s.column = 1
	} else {
		s.column++
	}

	s.pos++
}

func (s *scanner) peek(offset int) rune {
	if p := s.pos + offset; p < len(s.src) {
		return s.src[p]
	}

	return 0
}

func (s *scanner) readString(quote rune, line, col int) error {
	s.advance()

	var b strings.Builder

	for s.pos < len(s.src) {
		c := s.src[s.pos]

		switch c {
		case quote:
			s.advance()
			text := b.String()
			s.emitValue(String, text, value.String(text), line, col)

			return nil
		case '\\':
			s.advance()

			if s.pos < len(s.src) {
				switch esc := s.src[s.pos]; esc {
				case 'n':
					b.WriteRune('\n')
				case 't':
					b.WriteRune('\t')
				default:
					// \\, the quote character and anything else stand for
					// themselves.
					b.WriteRune(esc)
				}

				s.advance()
			}
		default:
			b.WriteRune(c)
			s.advance()
		}
	}

	return &Error{Message: "unterminated string", Line: line, Column: col}
}

func (s *scanner) readNumber(line, col int) {
	start := s.pos

	if s.src[s.pos] == '-' {
		s.advance()
	}

	for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
		s.advance()
	}

	isFloat := false

	if s.peek(0) == '.' && isDigit(s.peek(1)) {
		isFloat = true

		s.advance()

		for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.advance()
		}
	}

	text := string(s.src[start:s.pos])

	var v value.Value

	if isFloat {
		f, _ := strconv.ParseFloat(text, 64)
		v = value.Float(f)
	} else if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		v = value.Int(i)
	} else {
		// Integer literal beyond int64.
		f, _ := strconv.ParseFloat(text, 64)
		v = value.Float(f)
	}

	s.emitValue(Number, text, v, line, col)
}

func (s *scanner) readDirective(line, col int) {
	start := s.pos
	end := start + 1

	for end < len(s.src) && isWordRune(s.src[end]) {
		end++
	}

	word := string(s.src[start+1 : end])
	if k, ok := directives[word]; ok {
		for s.pos < end {
			s.advance()
		}

		s.emit(k, "@"+word, line, col)

		return
	}

	// Not a directive: a bare '@' followed by whatever comes next.
	s.advance()
	s.emit(At, "@", line, col)
}

func (s *scanner) readIdent(line, col int) {
	start := s.pos

	for s.pos < len(s.src) && isWordRune(s.src[s.pos]) {
		s.advance()
	}

	text := string(s.src[start:s.pos])

	switch text {
	case "true":
		s.emitValue(Bool, text, value.Bool(true), line, col)
	case "false":
		s.emitValue(Bool, text, value.Bool(false), line, col)
	case "null":
		s.emitValue(Null, text, value.Null, line, col)
	default:
		s.emit(Ident, text, line, col)
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Quote renders s as a string literal the lexer reads back to s.
func Quote(s string) string {
	var b strings.Builder

	b.WriteByte('"')

	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}

	b.WriteByte('"')

	return b.String()
}

// Render joins tokens back into source text. Adjacent word-like tokens are
// separated by a space; strings are re-quoted.
func Render(toks []Token) string {
	var b strings.Builder

	prevWord := false

	for _, t := range toks {
		word := t.Kind == Ident || t.Kind == Number || t.Kind == Bool || t.Kind == Null || t.Kind.IsDirective()
		if word && prevWord {
			b.WriteByte(' ')
		}

		switch t.Kind {
		case String:
			b.WriteString(Quote(t.Text))
		case Minus:
			// Keeps "a - 1" from reading back as "a" followed by "-1".
			b.WriteString(" - ")
		case Newline:
			b.WriteByte(' ')
		case EOF:
		default:
			b.WriteString(t.Text)
		}

		prevWord = word
	}

	return b.String()
}
