package expr

import (
	"errors"
	"fmt"
	"strings"

	"schemamap/internal/fieldpath"
	"schemamap/internal/lexer"
	"schemamap/value"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("invalid expression")

type parser struct {
	toks []lexer.Token
	pos  int
}

// Parse parses src into an expression tree.
func Parse(src string) (Node, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrSyntax, src, err)
	}

	toks = trimNewlines(toks)
	if len(toks) == 0 || toks[0].Kind == lexer.EOF {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}

	p := &parser{toks: toks}

	n, err := p.parseSum()
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrSyntax, src, err)
	}

	if tok := p.peek(); tok.Kind != lexer.EOF {
		return nil, fmt.Errorf("%w %q: unexpected %s", ErrSyntax, src, tok.Describe())
	}

	return n, nil
}

// MustParse is Parse for expressions known to be valid.
func MustParse(src string) Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}

	return n
}

func trimNewlines(toks []lexer.Token) []lexer.Token {
	out := toks[:0:0]
	for _, t := range toks {
		if t.Kind != lexer.Newline {
			out = append(out, t)
		}
	}

	return out
}

func (p *parser) peek() lexer.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}

	return lexer.Token{Kind: lexer.EOF}
}

func (p *parser) next() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}

	return tok
}

func (p *parser) accept(k lexer.Kind) bool {
	if p.peek().Kind == k {
		p.pos++
		return true
	}

	return false
}

// negativeLiteral reports whether the next token is a number the lexer read
// with its sign, which after an operand means subtraction.
func (p *parser) negativeLiteral() bool {
	tok := p.peek()
	return tok.Kind == lexer.Number && strings.HasPrefix(tok.Text, "-")
}

func (p *parser) parseSum() (Node, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.accept(lexer.Plus):
			right, err := p.parseProduct()
			if err != nil {
				return nil, err
			}

			left = &Binary{Op: OpAdd, Left: left, Right: right}
		case p.accept(lexer.Minus):
			right, err := p.parseProduct()
			if err != nil {
				return nil, err
			}

			left = &Binary{Op: OpSub, Left: left, Right: right}
		case p.negativeLiteral():
			p.toks[p.pos] = unsigned(p.peek())

			right, err := p.parseProduct()
			if err != nil {
				return nil, err
			}

			left = &Binary{Op: OpSub, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

// unsigned drops the sign of a number token.
func unsigned(tok lexer.Token) lexer.Token {
	tok.Text = strings.TrimPrefix(tok.Text, "-")

	if i, ok := tok.Value.AsInt(); ok {
		tok.Value = value.Int(-i)
	} else if f, ok := tok.Value.AsFloat(); ok {
		tok.Value = value.Float(-f)
	}

	tok.Column++

	return tok
}

func (p *parser) parseProduct() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		var op Op

		switch {
		case p.accept(lexer.Star):
			op = OpMul
		case p.accept(lexer.Slash):
			op = OpDiv
		default:
			return left, nil
		}

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Node, error) {
	if p.accept(lexer.Minus) {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &Neg{Operand: operand}, nil
	}

	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.peek()

	switch tok.Kind {
	case lexer.Number, lexer.String, lexer.Bool, lexer.Null:
		p.next()
		return &Literal{Value: tok.Value}, nil
	case lexer.LParen:
		p.next()

		n, err := p.parseSum()
		if err != nil {
			return nil, err
		}

		if !p.accept(lexer.RParen) {
			return nil, fmt.Errorf("expected ')', got %s", p.peek().Describe())
		}

		return n, nil
	case lexer.Ident:
		if p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == lexer.LParen {
			return p.parseCall()
		}

		return p.parsePath()
	case lexer.Dot:
		return p.parsePath()
	default:
		return nil, fmt.Errorf("unexpected %s", tok.Describe())
	}
}

func (p *parser) parseCall() (Node, error) {
	name := p.next().Text
	p.next()

	call := &Call{Name: name}

	if p.accept(lexer.RParen) {
		return call, nil
	}

	for {
		arg, err := p.parseSum()
		if err != nil {
			return nil, err
		}

		call.Args = append(call.Args, arg)

		if p.accept(lexer.RParen) {
			return call, nil
		}

		if !p.accept(lexer.Comma) {
			return nil, fmt.Errorf("expected ',' or ')' in call to %s, got %s", name, p.peek().Describe())
		}
	}
}

// parsePath reads a dotted path with [n] and [*] segments.
func (p *parser) parsePath() (Node, error) {
	var path fieldpath.Path

	if p.accept(lexer.Dot) {
		path.Rooted = true
	}

	for {
		tok := p.next()
		if tok.Kind != lexer.Ident && tok.Kind != lexer.Bool && tok.Kind != lexer.Null {
			return nil, fmt.Errorf("expected a field name, got %s", tok.Describe())
		}

		path.Segments = append(path.Segments, fieldpath.Field(tok.Text))

		for p.accept(lexer.LBracket) {
			seg, err := p.parseIndex()
			if err != nil {
				return nil, err
			}

			path.Segments = append(path.Segments, seg)
		}

		if !p.accept(lexer.Dot) {
			break
		}
	}

	if err := path.Validate(); err != nil {
		return nil, err
	}

	return &PathRef{Path: path}, nil
}

func (p *parser) parseIndex() (fieldpath.Segment, error) {
	var seg fieldpath.Segment

	tok := p.next()

	switch {
	case tok.Kind == lexer.Star:
		seg = fieldpath.Wildcard()
	case tok.Kind == lexer.Number:
		i, ok := tok.Value.AsInt()
		if !ok {
			return seg, fmt.Errorf("expected an integer index, got %s", tok.Describe())
		}

		seg = fieldpath.Index(int(i))
	default:
		return seg, fmt.Errorf("expected an integer index or '*', got %s", tok.Describe())
	}

	if !p.accept(lexer.RBracket) {
		return seg, fmt.Errorf("expected ']', got %s", p.peek().Describe())
	}

	return seg, nil
}
