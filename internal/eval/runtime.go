package eval

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"schemamap/internal/builtin"
	"schemamap/internal/fieldpath"
	"schemamap/internal/mapping"
	"schemamap/internal/plan"
	"schemamap/value"
)

// ApplySteps runs a bound chain over v. Builtins get a fresh Env per chain;
// external functions get each element of v, or v itself when it is not a
// sequence, followed by the arguments. Unresolved steps pass the value
// through.
func ApplySteps(steps []plan.Step, v, record value.Value, p *plan.Plan) (value.Value, error) {
	env := &builtin.Env{Tables: p.Tables}

	for i := range steps {
		s := &steps[i]

		switch s.Binding {
		case plan.BindBuiltin:
			v = builtin.Apply(s.Builtin, v, s.ArgValues(record), env)
		case plan.BindExternal:
			out, err := p.Funcs.CallElements(s.Name, v, s.ArgValues(record)...)
			if err != nil {
				return value.Null, err
			}

			v = out
		}
	}

	return v, nil
}

// Merge evaluates a merge expression. Concatenation joins the text of the
// parts, skipping Null ones, with booleans written as True and False;
// coalescing yields the first non-null part.
func Merge(m *mapping.MergeExpr, record value.Value) value.Value {
	if m.Op == mapping.MergeCoalesce {
		for _, part := range m.Parts {
			if part.IsLiteral {
				return value.String(part.Literal)
			}

			if v := fieldpath.Get(record, part.Path); !v.IsNull() {
				return v
			}
		}

		return value.Null
	}

	var b strings.Builder

	for _, part := range m.Parts {
		if part.IsLiteral {
			b.WriteString(part.Literal)
			continue
		}

		if v := fieldpath.Get(record, part.Path); !v.IsNull() {
			b.WriteString(mergeText(v))
		}
	}

	return value.String(b.String())
}

func mergeText(v value.Value) string {
	if b, ok := v.AsBool(); ok {
		if b {
			return "True"
		}

		return "False"
	}

	return v.Text()
}

// Matches evaluates a @when condition against the record. == and != use
// deep equality; the ordering operators need comparable operands and are
// false otherwise.
func Matches(c *mapping.Condition, record value.Value) bool {
	v := fieldpath.Get(record, c.Field)

	switch c.Op {
	case mapping.OpEq:
		return value.Equal(v, c.Value)
	case mapping.OpNe:
		return !value.Equal(v, c.Value)
	}

	cmp, ok := value.Compare(v, c.Value)
	if !ok {
		return false
	}

	switch c.Op {
	case mapping.OpGt:
		return cmp > 0
	case mapping.OpLt:
		return cmp < 0
	case mapping.OpGe:
		return cmp >= 0
	default:
		return cmp <= 0
	}
}

// OmitNulls removes Null map entries and Null sequence elements, bottom
// up. Containers are copied.
func OmitNulls(v value.Value) value.Value {
	if m, ok := v.AsMap(); ok {
		out := value.NewMap()

		for k, e := range m.All() {
			if e.IsNull() {
				continue
			}

			out.Set(k, OmitNulls(e))
		}

		return value.FromMap(out)
	}

	if seq, ok := v.AsSeq(); ok {
		out := value.NewSeq()

		for _, e := range seq.Elems() {
			if !e.IsNull() {
				out.Append(OmitNulls(e))
			}
		}

		return value.FromSeq(out)
	}

	return v
}

// FormatNow renders t the way @now does: UTC, microseconds, literal Z.
func FormatNow(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

// NewUUID returns a random (version 4) UUID, the value of @uuid.
func NewUUID() string {
	return uuid.NewString()
}
