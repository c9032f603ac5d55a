package value

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DecodeYAML decodes the first YAML document in data. Mapping key order is
// kept. An empty document decodes to Null.
func DecodeYAML(data []byte) (Value, error) {
	var node yaml.Node

	err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&node)
	if errors.Is(err, io.EOF) {
		return Null, nil
	}

	if err != nil {
		return Null, fmt.Errorf("decoding yaml: %w", err)
	}

	return FromYAMLNode(&node)
}

// FromYAMLNode converts a decoded yaml.v3 node tree into a Value.
func FromYAMLNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null, nil
		}

		return FromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return FromYAMLNode(n.Alias)
	case yaml.SequenceNode:
		s := NewSeq()

		for _, c := range n.Content {
			e, err := FromYAMLNode(c)
			if err != nil {
				return Null, err
			}

			s.Append(e)
		}

		return FromSeq(s), nil
	case yaml.MappingNode:
		m := NewMap()

		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return Null, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}

			e, err := FromYAMLNode(v)
			if err != nil {
				return Null, err
			}

			m.Set(k.Value, e)
		}

		return FromMap(m), nil
	case yaml.ScalarNode:
		return scalarFromYAML(n)
	default:
		return Null, fmt.Errorf("line %d: unsupported yaml node", n.Line)
	}
}

func scalarFromYAML(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Null, fmt.Errorf("line %d: %w", n.Line, err)
		}

		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			// Out of int64 range.
			f, ferr := strconv.ParseFloat(n.Value, 64)
			if ferr != nil {
				return Null, fmt.Errorf("line %d: %w", n.Line, err)
			}

			return Float(f), nil
		}

		return Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Null, fmt.Errorf("line %d: %w", n.Line, err)
		}

		return Float(f), nil
	default:
		return String(n.Value), nil
	}
}

// MarshalYAML renders v as an order-preserving yaml.v3 node.
func (v Value) MarshalYAML() (any, error) {
	return toYAMLNode(v), nil
}

func toYAMLNode(v Value) *yaml.Node {
	switch v.kind {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.i, 10)}
	case KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: FormatFloat(v.f)}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.s}
	case KindSeq:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.seq.Elems() {
			n.Content = append(n.Content, toYAMLNode(e))
		}

		return n
	default:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for k, e := range v.m.All() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				toYAMLNode(e))
		}

		return n
	}
}
