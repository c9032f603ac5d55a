package parser

import (
	"schemamap/internal/fieldpath"
	"schemamap/internal/lexer"
	"schemamap/internal/mapping"
	"schemamap/value"
)

func (p *parser) parseMapping() (mapping.Node, error) {
	start := p.peek()

	src, err := p.parseSource()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.Colon); err != nil {
		return nil, err
	}

	target, err := p.parseTarget()
	if err != nil {
		return nil, err
	}

	chain, err := p.parsePipes()
	if err != nil {
		return nil, err
	}

	return &mapping.Mapping{
		Source:     src,
		Target:     target,
		Transforms: chain,
		Position:   position(start),
	}, nil
}

// parsePipes parses "('|' transform)*". A pipe at the start of the next
// line continues the chain.
func (p *parser) parsePipes() (mapping.TransformChain, error) {
	var chain mapping.TransformChain

	for {
		if !p.at(lexer.Pipe) {
			if !p.continuesOnNextLine(lexer.Pipe) {
				return chain, nil
			}

			p.skipNewlines()
		}

		p.next()

		t, err := p.parseTransform()
		if err != nil {
			return nil, err
		}

		chain = append(chain, t)
	}
}

func (p *parser) parseSource() (mapping.Source, error) {
	tok := p.peek()

	switch tok.Kind {
	case lexer.Compute, lexer.Call, lexer.Expr:
		return p.parseCompute()
	case lexer.Now, lexer.UUID:
		p.next()

		// "@now()" is accepted as well as "@now".
		if p.at(lexer.LParen) && p.peekAt(1).Kind == lexer.RParen {
			p.next()
			p.next()
		}

		kind := mapping.ComputeNow
		if tok.Kind == lexer.UUID {
			kind = mapping.ComputeUUID
		}

		return &mapping.ComputeExpr{Kind: kind}, nil
	case lexer.String:
		p.next()

		if p.at(lexer.Plus) || p.at(lexer.Coalesce) {
			return p.parseMerge(mapping.MergePart{IsLiteral: true, Literal: tok.Text})
		}

		return &mapping.ConstantSource{Value: tok.Value}, nil
	case lexer.Number, lexer.Bool, lexer.Null:
		p.next()
		return &mapping.ConstantSource{Value: tok.Value}, nil
	case lexer.Ident, lexer.Dot:
		path, err := p.parsePath(true)
		if err != nil {
			return nil, err
		}

		if p.at(lexer.Plus) || p.at(lexer.Coalesce) {
			return p.parseMerge(mapping.MergePart{Path: path})
		}

		return &mapping.PathSource{Path: path}, nil
	default:
		return nil, p.unexpected(tok, "a source")
	}
}

func (p *parser) parseMerge(first mapping.MergePart) (mapping.Source, error) {
	expr := &mapping.MergeExpr{Parts: []mapping.MergePart{first}}

	joiner := p.peek().Kind
	if joiner == lexer.Coalesce {
		expr.Op = mapping.MergeCoalesce
	}

	for p.at(lexer.Plus) || p.at(lexer.Coalesce) {
		op := p.next()
		if op.Kind != joiner {
			return nil, p.errorf(op, "cannot mix '+' and '??' in one expression")
		}

		switch tok := p.peek(); tok.Kind {
		case lexer.String:
			p.next()
			expr.Parts = append(expr.Parts, mapping.MergePart{IsLiteral: true, Literal: tok.Text})
		case lexer.Ident, lexer.Dot:
			path, err := p.parsePath(true)
			if err != nil {
				return nil, err
			}

			expr.Parts = append(expr.Parts, mapping.MergePart{Path: path})
		default:
			return nil, p.unexpected(tok, "a path or string")
		}
	}

	return expr, nil
}

func (p *parser) parseCompute() (mapping.Source, error) {
	tok := p.next()

	kind := mapping.ComputeCompute

	switch tok.Kind {
	case lexer.Call:
		kind = mapping.ComputeCall
	case lexer.Expr:
		kind = mapping.ComputeExpression
	}

	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}

	var (
		inner []lexer.Token
		depth = 1
	)

	for {
		t := p.peek()

		switch t.Kind {
		case lexer.EOF:
			return nil, p.errorf(tok, "unterminated %s(", tok.Kind)
		case lexer.LParen:
			depth++
		case lexer.RParen:
			depth--
		}

		p.next()

		if depth == 0 {
			break
		}

		inner = append(inner, t)
	}

	raw := lexer.Render(inner)
	if raw == "" {
		return nil, p.errorf(tok, "%s needs an expression", tok.Kind)
	}

	return &mapping.ComputeExpr{Kind: kind, Raw: raw}, nil
}

func (p *parser) parseTarget() (mapping.Target, error) {
	if p.accept(lexer.Tilde) {
		return &mapping.SkipTarget{}, nil
	}

	path, err := p.parsePath(false)
	if err != nil {
		return nil, err
	}

	return &mapping.PathTarget{Path: path}, nil
}

// isName reports whether k can name a field after a dot. Keywords are
// allowed there so "flags.true" or "meta.null" stay addressable.
func isName(k lexer.Kind) bool {
	return k == lexer.Ident || k == lexer.Bool || k == lexer.Null
}

// parsePath parses
//
//	['.'] ident (('.' ident) | ('[' ('*' | int | '-' int) ']'))* ['?']
func (p *parser) parsePath(allowOptional bool) (fieldpath.Path, error) {
	start := p.peek()

	var path fieldpath.Path

	if p.accept(lexer.Dot) {
		path.Rooted = true
	}

	name, err := p.expect(lexer.Ident)
	if err != nil {
		return path, err
	}

	path.Segments = append(path.Segments, fieldpath.Field(name.Text))

	for {
		switch p.peek().Kind {
		case lexer.Dot:
			p.next()

			tok := p.peek()
			if !isName(tok.Kind) {
				return path, p.unexpected(tok, "a field name after '.'")
			}

			p.next()
			path.Segments = append(path.Segments, fieldpath.Field(tok.Text))
		case lexer.LBracket:
			p.next()

			seg, err := p.parseIndex()
			if err != nil {
				return path, err
			}

			if _, err := p.expect(lexer.RBracket); err != nil {
				return path, err
			}

			path.Segments = append(path.Segments, seg)
		case lexer.Question:
			if !allowOptional {
				return path, p.errorf(p.peek(), "target paths cannot be optional")
			}

			p.next()
			path.Optional = true

			return path, p.validatePath(path, start)
		default:
			return path, p.validatePath(path, start)
		}
	}
}

func (p *parser) validatePath(path fieldpath.Path, start lexer.Token) error {
	if err := path.Validate(); err != nil {
		return p.errorf(start, "%s", err)
	}

	return nil
}

func (p *parser) parseIndex() (fieldpath.Segment, error) {
	if p.accept(lexer.Star) {
		return fieldpath.Wildcard(), nil
	}

	negative := p.accept(lexer.Minus)

	tok := p.peek()

	i, ok := tok.Value.AsInt()
	if tok.Kind != lexer.Number || !ok {
		return fieldpath.Segment{}, p.unexpected(tok, "an integer index or '*'")
	}

	p.next()

	if negative {
		i = -i
	}

	return fieldpath.Index(int(i)), nil
}

func (p *parser) parseTransform() (mapping.Transform, error) {
	start := p.peek()

	t := mapping.Transform{Position: position(start)}

	if p.accept(lexer.At) {
		t.IsAlias = true
	}

	name, err := p.expect(lexer.Ident)
	if err != nil {
		return t, err
	}

	t.Name = name.Text

	if !p.accept(lexer.LParen) {
		return t, nil
	}

	for {
		p.skipNewlines()

		if p.accept(lexer.RParen) {
			return t, nil
		}

		if len(t.Args) > 0 {
			if _, err := p.expect(lexer.Comma); err != nil {
				return t, err
			}

			p.skipNewlines()
		}

		arg, err := p.parseArg()
		if err != nil {
			return t, err
		}

		t.Args = append(t.Args, arg)
	}
}

func (p *parser) parseArg() (mapping.Arg, error) {
	tok := p.peek()

	switch tok.Kind {
	case lexer.String, lexer.Number, lexer.Bool, lexer.Null, lexer.LBrace, lexer.LBracket:
		v, err := p.parseLiteral()
		if err != nil {
			return mapping.Arg{}, err
		}

		return mapping.Literal(v), nil
	case lexer.At:
		p.next()

		name, err := p.expect(lexer.Ident)
		if err != nil {
			return mapping.Arg{}, err
		}

		return mapping.Arg{Kind: mapping.ArgRef, Name: name.Text}, nil
	case lexer.Dot:
		return p.parsePathArg()
	case lexer.Ident:
		if next := p.peekAt(1).Kind; next == lexer.Dot || next == lexer.LBracket {
			return p.parsePathArg()
		}

		p.next()

		return mapping.Arg{Kind: mapping.ArgWord, Name: tok.Text}, nil
	default:
		return mapping.Arg{}, p.unexpected(tok, "an argument")
	}
}

func (p *parser) parsePathArg() (mapping.Arg, error) {
	path, err := p.parsePath(true)
	if err != nil {
		return mapping.Arg{}, err
	}

	return mapping.Arg{Kind: mapping.ArgPath, Path: path}, nil
}

// parseLiteral parses a scalar literal or an inline {...} map or [...]
// list of literals.
func (p *parser) parseLiteral() (value.Value, error) {
	tok := p.peek()

	switch tok.Kind {
	case lexer.String, lexer.Number, lexer.Bool, lexer.Null:
		p.next()
		return tok.Value, nil
	case lexer.LBrace:
		m, err := p.parseInlineMap()
		if err != nil {
			return value.Null, err
		}

		return value.FromMap(m), nil
	case lexer.LBracket:
		p.next()

		seq := value.NewSeq()

		for {
			p.skipSeparators()

			if p.accept(lexer.RBracket) {
				return value.FromSeq(seq), nil
			}

			v, err := p.parseLiteral()
			if err != nil {
				return value.Null, err
			}

			seq.Append(v)

			if !p.at(lexer.Comma) && !p.at(lexer.Newline) && !p.at(lexer.RBracket) {
				return value.Null, p.unexpected(p.peek(), "',' or ']'")
			}
		}
	default:
		return value.Null, p.unexpected(tok, "a literal")
	}
}

// parseInlineMap parses "{ key : literal, ... }". Keys may be strings,
// identifiers or numbers; they are stored by their text.
func (p *parser) parseInlineMap() (*value.Map, error) {
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}

	m := value.NewMap()

	for {
		p.skipSeparators()

		if p.accept(lexer.RBrace) {
			return m, nil
		}

		key := p.peek()

		switch key.Kind {
		case lexer.String, lexer.Ident, lexer.Number, lexer.Bool, lexer.Null:
			p.next()
		default:
			return nil, p.unexpected(key, "a key")
		}

		if _, err := p.expect(lexer.Colon); err != nil {
			return nil, err
		}

		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}

		m.Set(key.Text, v)

		if !p.at(lexer.Comma) && !p.at(lexer.Newline) && !p.at(lexer.RBrace) {
			return nil, p.unexpected(p.peek(), "',' or '}'")
		}
	}
}
