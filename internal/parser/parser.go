// Package parser builds a mapping.MappingFile from mapping-file tokens.
//
// The parser is recursive descent with one token of lookahead and no error
// recovery: the first grammar violation aborts the parse with an *Error
// carrying its line and column. Alias references are expanded before the
// tree is returned.
package parser

import (
	"fmt"
	"os"

	"schemamap/internal/lexer"
	"schemamap/internal/mapping"
)

type parser struct {
	toks []lexer.Token
	pos  int
	file *mapping.MappingFile
}

// ParseFile reads and parses the mapping file at path.
func ParseFile(path string) (*mapping.MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	return ParseString(string(data), path)
}

// ParseString tokenizes and parses src. Lexing failures are returned as
// *lexer.Error, grammar violations as *Error.
func ParseString(src, sourceName string) (*mapping.MappingFile, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}

	return Parse(toks, sourceName)
}

// Parse builds the syntax tree from tokens and expands alias references.
func Parse(tokens []lexer.Token, sourceName string) (*mapping.MappingFile, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.EOF {
		var last lexer.Token
		if len(tokens) > 0 {
			last = tokens[len(tokens)-1]
		}

		tokens = append(tokens[:len(tokens):len(tokens)], lexer.Token{Kind: lexer.EOF, Line: last.Line, Column: last.Column})
	}

	p := &parser{toks: tokens, file: mapping.NewMappingFile(sourceName)}

	body, err := p.parseBody(true)
	if err != nil {
		return nil, err
	}

	p.file.Body = body

	if err := p.expandAliases(); err != nil {
		return nil, err
	}

	return p.file, nil
}

func (p *parser) peek() lexer.Token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(offset int) lexer.Token {
	if i := p.pos + offset; i < len(p.toks) {
		return p.toks[i]
	}

	return p.toks[len(p.toks)-1]
}

func (p *parser) next() lexer.Token {
	tok := p.toks[p.pos]
	if tok.Kind != lexer.EOF {
		p.pos++
	}

	return tok
}

func (p *parser) at(k lexer.Kind) bool {
	return p.peek().Kind == k
}

func (p *parser) accept(k lexer.Kind) bool {
	if p.at(k) {
		p.next()
		return true
	}

	return false
}

func (p *parser) expect(k lexer.Kind) (lexer.Token, error) {
	if !p.at(k) {
		return lexer.Token{}, p.unexpected(p.peek(), k.String())
	}

	return p.next(), nil
}

func (p *parser) skipNewlines() {
	for p.at(lexer.Newline) {
		p.next()
	}
}

// skipSeparators skips the newlines and commas between block entries.
func (p *parser) skipSeparators() {
	for p.at(lexer.Newline) || p.at(lexer.Comma) {
		p.next()
	}
}

// continuesOnNextLine reports whether the next non-newline token is k.
func (p *parser) continuesOnNextLine(k lexer.Kind) bool {
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case lexer.Newline:
			continue
		case k:
			return true
		default:
			return false
		}
	}

	return false
}

func position(tok lexer.Token) mapping.Position {
	return mapping.Position{Line: tok.Line, Column: tok.Column}
}

// parseBody parses statements up to the end of input (top level) or up to,
// but not including, the closing brace of a block.
func (p *parser) parseBody(top bool) ([]mapping.Node, error) {
	var body []mapping.Node

	afterWhen := false

	for {
		p.skipNewlines()

		tok := p.peek()

		switch {
		case tok.Kind == lexer.EOF:
			if top {
				return body, nil
			}

			return nil, p.unexpected(tok, lexer.RBrace.String())
		case tok.Kind == lexer.RBrace && !top:
			return body, nil
		}

		var (
			n    mapping.Node
			err  error
			when bool
		)

		switch tok.Kind {
		case lexer.Config, lexer.Aliases, lexer.Lookups, lexer.Functions:
			if !top {
				return nil, p.errorf(tok, "%s is only allowed at the top level", tok.Kind)
			}

			err = p.parseDirective()
		case lexer.When:
			n, err = p.parseWhen()
			when = true
		case lexer.Else:
			if !afterWhen {
				return nil, p.errorf(tok, "@else without preceding @when")
			}

			n, err = p.parseElse()
		case lexer.Repeat, lexer.Collect:
			return nil, p.errorf(tok, "unsupported directive %s", tok.Kind)
		case lexer.LBrace:
			n, err = p.parseNested()
		default:
			n, err = p.parseMapping()
			if err == nil {
				err = p.endStatement()
			}
		}

		if err != nil {
			return nil, err
		}

		if n != nil {
			body = append(body, n)
		}

		afterWhen = when
	}
}

func (p *parser) endStatement() error {
	switch p.peek().Kind {
	case lexer.Newline, lexer.EOF, lexer.RBrace:
		return nil
	default:
		return p.unexpected(p.peek(), "end of statement")
	}
}

func (p *parser) parseDirective() error {
	switch p.peek().Kind {
	case lexer.Config:
		return p.parseConfig()
	case lexer.Aliases:
		return p.parseAliases()
	case lexer.Lookups:
		return p.parseLookups()
	default:
		return p.parseFunctions()
	}
}

func (p *parser) parseBlockBody() ([]mapping.Node, error) {
	p.skipNewlines()

	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}

	body, err := p.parseBody(false)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}

	return body, nil
}

func (p *parser) parseWhen() (mapping.Node, error) {
	start := p.next()

	field, err := p.parsePath(true)
	if err != nil {
		return nil, err
	}

	cond := &mapping.Condition{Field: field, Op: mapping.OpEq}

	if op := p.peek(); op.Kind.IsComparison() {
		p.next()
		cond.Op = compareOp(op.Kind)
	}

	lit := p.peek()
	if !isLiteral(lit.Kind) {
		return nil, p.unexpected(lit, "a literal to compare with")
	}

	cond.Value = p.next().Value

	body, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}

	return &mapping.ConditionalBlock{Condition: cond, Body: body, Position: position(start)}, nil
}

func (p *parser) parseElse() (mapping.Node, error) {
	start := p.next()

	body, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}

	return &mapping.ConditionalBlock{Body: body, Position: position(start)}, nil
}

func (p *parser) parseNested() (mapping.Node, error) {
	start := p.peek()

	body, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}

	return &mapping.NestedBlock{Body: body, Position: position(start)}, nil
}

func compareOp(k lexer.Kind) mapping.CompareOp {
	switch k {
	case lexer.Ne:
		return mapping.OpNe
	case lexer.Gt:
		return mapping.OpGt
	case lexer.Lt:
		return mapping.OpLt
	case lexer.Ge:
		return mapping.OpGe
	case lexer.Le:
		return mapping.OpLe
	default:
		return mapping.OpEq
	}
}

func isLiteral(k lexer.Kind) bool {
	return k == lexer.String || k == lexer.Number || k == lexer.Bool || k == lexer.Null
}
