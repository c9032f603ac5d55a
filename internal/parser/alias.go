package parser

import (
	"maps"
	"slices"
	"strings"

	"schemamap/internal/mapping"
	"schemamap/internal/match"
	"schemamap/value"
)

// expandAliases replaces every alias reference in the body with the alias
// chain. Every definition is expanded once as well, so undefined references
// and cycles inside unused aliases are reported too.
func (p *parser) expandAliases() error {
	for _, name := range slices.Sorted(maps.Keys(p.file.Aliases)) {
		def := p.file.Aliases[name]

		ref := mapping.Transform{Name: name, IsAlias: true, Position: def.Position}
		if _, err := p.expand(mapping.TransformChain{ref}, nil); err != nil {
			return err
		}
	}

	for _, m := range mapping.Mappings(p.file.Body) {
		chain, err := p.expand(m.Transforms, nil)
		if err != nil {
			return err
		}

		m.Transforms = chain
	}

	return nil
}

func (p *parser) expand(chain mapping.TransformChain, stack []string) (mapping.TransformChain, error) {
	var out mapping.TransformChain

	for _, t := range chain {
		if !t.IsAlias {
			out = append(out, t)
			continue
		}

		def, ok := p.file.Aliases[t.Name]
		if !ok {
			err := p.errorAt(t.Position, "undefined alias @%s", t.Name)
			if s := match.Suggest(t.Name, slices.Collect(maps.Keys(p.file.Aliases)), 1); len(s) > 0 {
				err.Message += ", did you mean @" + s[0] + "?"
			}

			return nil, err
		}

		if slices.Contains(stack, t.Name) {
			cycle := append(slices.Clone(stack), t.Name)
			return nil, p.errorAt(t.Position, "alias cycle: @%s", strings.Join(cycle, " -> @"))
		}

		if len(t.Args) > len(def.Params) {
			return nil, p.errorAt(t.Position, "alias @%s takes %d arguments, got %d", t.Name, len(def.Params), len(t.Args))
		}

		body, err := p.expand(substitute(def, t.Args), append(stack, t.Name))
		if err != nil {
			return nil, err
		}

		out = append(out, body...)
	}

	return out, nil
}

// substitute returns a copy of the alias chain with every bare-word
// argument naming a parameter replaced by the call-site argument in the
// same position. Parameters without an argument become null.
func substitute(def *mapping.AliasDefinition, args []mapping.Arg) mapping.TransformChain {
	out := make(mapping.TransformChain, len(def.Transforms))

	for i, t := range def.Transforms {
		t.Args = slices.Clone(t.Args)

		for j, a := range t.Args {
			if a.Kind != mapping.ArgWord {
				continue
			}

			k := slices.Index(def.Params, a.Name)

			switch {
			case k < 0:
			case k < len(args):
				t.Args[j] = args[k]
			default:
				t.Args[j] = mapping.Literal(value.Null)
			}
		}

		out[i] = t
	}

	return out
}
