package parser

import (
	"strings"

	"schemamap/internal/lexer"
	"schemamap/internal/mapping"
)

// parseEntries parses the "{ entry ... }" body of a top-level directive,
// calling entry once per entry. Entries are separated by newlines or commas.
func (p *parser) parseEntries(entry func() error) error {
	p.next()
	p.skipNewlines()

	if _, err := p.expect(lexer.LBrace); err != nil {
		return err
	}

	for {
		p.skipSeparators()

		if p.accept(lexer.RBrace) {
			return nil
		}

		if err := entry(); err != nil {
			return err
		}

		switch p.peek().Kind {
		case lexer.Newline, lexer.Comma, lexer.RBrace:
		default:
			return p.unexpected(p.peek(), "end of entry")
		}
	}
}

// entryName parses "name :" and returns the name token.
func (p *parser) entryName() (lexer.Token, error) {
	tok := p.peek()
	if tok.Kind != lexer.Ident && tok.Kind != lexer.String {
		return tok, p.unexpected(tok, "a name")
	}

	p.next()

	if _, err := p.expect(lexer.Colon); err != nil {
		return tok, err
	}

	return tok, nil
}

// @config { key : literal }
func (p *parser) parseConfig() error {
	return p.parseEntries(func() error {
		key, err := p.entryName()
		if err != nil {
			return err
		}

		v, err := p.parseLiteral()
		if err != nil {
			return err
		}

		p.file.Config.Set(key.Text, v)

		return nil
	})
}

// @aliases { name[(param, ...)] : transform | transform ... }
func (p *parser) parseAliases() error {
	return p.parseEntries(func() error {
		name, err := p.expect(lexer.Ident)
		if err != nil {
			return err
		}

		if _, dup := p.file.Aliases[name.Text]; dup {
			return p.errorf(name, "alias %q is already defined", name.Text)
		}

		def := &mapping.AliasDefinition{Name: name.Text, Position: position(name)}

		if p.accept(lexer.LParen) {
			for !p.accept(lexer.RParen) {
				if len(def.Params) > 0 {
					if _, err := p.expect(lexer.Comma); err != nil {
						return err
					}
				}

				param, err := p.expect(lexer.Ident)
				if err != nil {
					return err
				}

				def.Params = append(def.Params, param.Text)
			}
		}

		if _, err := p.expect(lexer.Colon); err != nil {
			return err
		}

		p.accept(lexer.Pipe)

		first, err := p.parseTransform()
		if err != nil {
			return err
		}

		rest, err := p.parsePipes()
		if err != nil {
			return err
		}

		def.Transforms = append(mapping.TransformChain{first}, rest...)
		p.file.Aliases[def.Name] = def

		return nil
	})
}

// @lookups { name : "file" | { key : literal, ... } }
func (p *parser) parseLookups() error {
	return p.parseEntries(func() error {
		name, err := p.entryName()
		if err != nil {
			return err
		}

		if _, dup := p.file.Lookups[name.Text]; dup {
			return p.errorf(name, "lookup %q is already defined", name.Text)
		}

		def := &mapping.LookupDefinition{Name: name.Text, Position: position(name)}

		switch tok := p.peek(); tok.Kind {
		case lexer.String:
			p.next()
			def.File = tok.Text
		case lexer.LBrace:
			table, err := p.parseInlineMap()
			if err != nil {
				return err
			}

			def.Inline = table
		default:
			return p.unexpected(tok, "a file name or an inline table")
		}

		p.file.Lookups[def.Name] = def

		return nil
	})
}

// @functions { name : "module_or_file:function[ as alias]" }
func (p *parser) parseFunctions() error {
	return p.parseEntries(func() error {
		name, err := p.entryName()
		if err != nil {
			return err
		}

		spec, err := p.expect(lexer.String)
		if err != nil {
			return err
		}

		def := &mapping.FunctionDefinition{Name: name.Text, Spec: strings.TrimSpace(spec.Text), Position: position(name)}

		if s, alias, ok := strings.Cut(def.Spec, " as "); ok {
			def.Spec = strings.TrimSpace(s)
			def.Alias = strings.TrimSpace(alias)
		}

		if def.Spec == "" {
			return p.errorf(spec, "empty function spec for %q", def.Name)
		}

		p.file.Functions[def.Name] = def

		return nil
	})
}
