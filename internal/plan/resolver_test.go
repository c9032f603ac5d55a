package plan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemamap/internal/builtin"
	"schemamap/internal/diagnostic"
	"schemamap/internal/parser"
	"schemamap/internal/registry"
	"schemamap/value"
)

func resolve(t *testing.T, src string, config Config) *Plan {
	t.Helper()

	f, err := parser.ParseString(src, "")
	require.NoError(t, err)

	p, err := Resolve(f, config)
	require.NoError(t, err)

	return p
}

func codes(ds []diagnostic.Diagnostic) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code)
	}

	return out
}

func find(ds []diagnostic.Diagnostic, code string) (diagnostic.Diagnostic, bool) {
	for _, d := range ds {
		if d.Code == code {
			return d, true
		}
	}

	return diagnostic.Diagnostic{}, false
}

func TestResolve_Strategies(t *testing.T) {
	src := `id : out.id
name : out.name | trim
items[*].qty : out[*].q | to_int
items[*].tags : tags | flatten
first + " " + last : full
nick ?? first : display
@compute(qty * 2) : double
"fixed" : kind
@now : stamp
id : ~
`
	p := resolve(t, src, DefaultConfig())

	rules := MappingRules(p.Rules)
	require.Len(t, rules, 10)

	want := []Strategy{
		StrategyCopy,
		StrategyTransform,
		StrategyFanOut,
		StrategyTransform,
		StrategyMerge,
		StrategyMerge,
		StrategyCompute,
		StrategyConstant,
		StrategyGenerated,
		StrategyDiscard,
	}

	for i, r := range rules {
		assert.Equal(t, want[i], r.Strategy, "line %d: %s", r.Pos().Line, r.Explanation)
	}

	assert.Equal(t, "parts merged with ??", rules[5].Explanation)
	assert.True(t, rules[9].Discard)
	assert.True(t, rules[9].Target.IsZero())
}

func TestResolve_Blocks(t *testing.T) {
	src := `@when status == "A" {
    a : x
    {
        b : y
    }
}
@else {
    c : x
}
`
	p := resolve(t, src, DefaultConfig())
	require.Len(t, p.Rules, 2)

	when, ok := p.Rules[0].(*BlockRule)
	require.True(t, ok)
	assert.False(t, when.IsElse())
	require.Len(t, when.Body, 2)
	assert.IsType(t, &GroupRule{}, when.Body[1])

	els, ok := p.Rules[1].(*BlockRule)
	require.True(t, ok)
	assert.True(t, els.IsElse())

	// x is written in different blocks, which is not a duplicate.
	_, dup := find(p.Diagnostics.Warnings, diagnostic.CodeDuplicateTarget)
	assert.False(t, dup)
}

func TestResolve_Binding(t *testing.T) {
	funcs := registry.New()
	require.NoError(t, funcs.Register("trim", func(args ...value.Value) (value.Value, error) {
		return args[0], nil
	}))
	require.NoError(t, funcs.Register("lookup", func(args ...value.Value) (value.Value, error) {
		return args[0], nil
	}))

	src := `@lookups {
    codes: { "A": "ACTIVE" }
}
a : x | trim | uppercase | lookup(@codes) | shout | substring(1, other.field)
`
	config := DefaultConfig()
	config.Funcs = funcs

	p := resolve(t, src, config)
	steps := MappingRules(p.Rules)[0].Steps
	require.Len(t, steps, 5)

	assert.Equal(t, BindExternal, steps[0].Binding)
	assert.Equal(t, BindBuiltin, steps[1].Binding)
	assert.Equal(t, builtin.Uppercase, steps[1].Builtin)
	assert.Equal(t, BindBuiltin, steps[2].Binding, "lookup is never shadowed")
	assert.Equal(t, builtin.TableLookup, steps[2].Builtin)
	assert.Equal(t, []value.Value{value.String("@codes")}, steps[2].Static)
	assert.Equal(t, BindUnresolved, steps[3].Binding)
	assert.True(t, steps[4].Dynamic)

	rec, err := value.DecodeJSON([]byte(`{"other":{"field":3}}`))
	require.NoError(t, err)
	assert.Equal(t, "[1,3]", value.SeqOf(steps[4].ArgValues(rec)...).String())

	assert.Contains(t, codes(p.Diagnostics.Infos), diagnostic.CodeExternalTransform)
	assert.Contains(t, codes(p.Diagnostics.Warnings), diagnostic.CodeUnknownTransform)
}

func TestResolve_Diagnostics(t *testing.T) {
	src := `@config {
    null_handlin: "omit"
    missing_fields: "drop"
}
a : x | trimm
b : y | lookup(@stauts)
c : z | replace("a")
d : x
e : ~
f : w | required
items[*].id : ids
`
	f, err := parser.ParseString(src, "")
	require.NoError(t, err)

	p, err := Resolve(f, DefaultConfig())
	require.NoError(t, err)

	d, ok := find(p.Diagnostics.Warnings, diagnostic.CodeUnknownConfig)
	require.True(t, ok)
	assert.Contains(t, d.Suggestions, "null_handling")

	d, ok = find(p.Diagnostics.Warnings, diagnostic.CodeMissingFieldsPolicy)
	require.True(t, ok)
	assert.Contains(t, d.Message, `using "keep"`)

	d, ok = find(p.Diagnostics.Warnings, diagnostic.CodeUnknownTransform)
	require.True(t, ok)
	assert.Equal(t, 5, d.Line)
	assert.Contains(t, d.Suggestions, "trim")

	d, ok = find(p.Diagnostics.Warnings, diagnostic.CodeUnknownLookup)
	require.True(t, ok)
	assert.Equal(t, "stauts", d.Subject)

	d, ok = find(p.Diagnostics.Warnings, diagnostic.CodeBadArgument)
	require.True(t, ok)
	assert.Equal(t, "replace takes 2 argument(s), got 1", d.Message)

	d, ok = find(p.Diagnostics.Warnings, diagnostic.CodeDuplicateTarget)
	require.True(t, ok)
	assert.Equal(t, "x", d.Subject)
	assert.Equal(t, 8, d.Line)

	infos := codes(p.Diagnostics.Infos)
	assert.Contains(t, infos, diagnostic.CodeUnreachableMapping)
	assert.Contains(t, infos, diagnostic.CodeRequiredNeverFails)
	assert.Contains(t, infos, diagnostic.CodeWildcardMismatch)
	assert.False(t, p.Diagnostics.HasErrors())
}

func TestResolve_Expressions(t *testing.T) {
	p := resolve(t, `@call(tax, total, "IT") : t
@call(fee(total)) : f
@compute(sum(items[*].p) + bonus(x)) : s
`, DefaultConfig())

	rules := MappingRules(p.Rules)
	assert.Equal(t, `tax(total, "IT")`, rules[0].Source.Expr.String())
	assert.True(t, rules[0].Source.Strict)
	assert.Equal(t, "fee(total)", rules[1].Source.Expr.String())
	assert.False(t, rules[2].Source.Strict)

	var unknown []string

	for _, d := range p.Diagnostics.Warnings {
		if d.Code == diagnostic.CodeUnknownFunction {
			unknown = append(unknown, d.Message)
		}
	}

	require.Len(t, unknown, 3)
	assert.Contains(t, unknown[2], "bonus")
}

func TestResolve_ExpressionSyntaxIsFatal(t *testing.T) {
	f, err := parser.ParseString("@compute(a + ) : x\n", "")
	require.NoError(t, err)

	p, err := Resolve(f, DefaultConfig())
	require.ErrorIs(t, err, ErrInvalidPlan)
	require.NotNil(t, p)

	d, ok := find(p.Diagnostics.Errors, diagnostic.CodeExpressionSyntax)
	require.True(t, ok)
	assert.Equal(t, 1, d.Line)
}

func TestResolve_StrictMode(t *testing.T) {
	f, err := parser.ParseString("a : x | nope\n", "")
	require.NoError(t, err)

	config := DefaultConfig()
	config.StrictMode = true

	_, err = Resolve(f, config)
	require.ErrorIs(t, err, ErrInvalidPlan)
	assert.Contains(t, err.Error(), "strict mode: 1 warning(s)")
}

func TestResolve_LookupFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codes.json"), []byte(`{"A":"ACTIVE"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "regions.yaml"), []byte("north: N\nsouth: S\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "list.json"), []byte(`[1,2]`), 0o600))

	src := `@lookups {
    codes: "codes.json"
    regions: "regions.yaml"
    missing: "missing.json"
    list: "list.json"
}
a : x | lookup(@missing)
`
	f, err := parser.ParseString(src, filepath.Join(dir, "m.smap"))
	require.NoError(t, err)

	p, err := Resolve(f, DefaultConfig())
	require.NoError(t, err)

	require.Contains(t, p.Tables, "codes")
	assert.Equal(t, `{"A":"ACTIVE"}`, value.FromMap(p.Tables["codes"]).String())
	assert.Equal(t, []string{"north", "south"}, p.Tables["regions"].Keys())
	assert.NotContains(t, p.Tables, "missing")
	assert.NotContains(t, p.Tables, "list")

	require.Error(t, p.Warnings)
	assert.Contains(t, p.Warnings.Error(), "lookup list")
	assert.Contains(t, p.Warnings.Error(), "lookup missing")
	require.ErrorIs(t, p.Warnings, ErrNotATable)

	loads := 0

	for _, d := range p.Diagnostics.Warnings {
		switch d.Code {
		case diagnostic.CodeLookupLoad:
			loads++
		case diagnostic.CodeUnknownLookup:
			t.Errorf("a defined table that failed to load is not unknown: %s", d)
		}
	}

	assert.Equal(t, 2, loads)
	assert.Equal(t, "m", p.Name)
}

func TestResolve_Functions(t *testing.T) {
	registry.RegisterModule("plantest", map[string]registry.Func{
		"double": func(args ...value.Value) (value.Value, error) {
			n, _ := args[0].AsInt()
			return value.Int(2 * n), nil
		},
		"half": func(args ...value.Value) (value.Value, error) {
			n, _ := args[0].AsInt()
			return value.Int(n / 2), nil
		},
	})

	src := `@config {
    functions: ["plantest:half as halve", "nowhere:fn"]
    name: "Orders"
}
@functions {
    twice: "plantest:double"
    dbl: "plantest:double as x2"
}
a : x | twice | x2 | halve
`
	f, err := parser.ParseString(src, "")
	require.NoError(t, err)

	p, err := Resolve(f, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"halve", "twice", "x2"}, p.Funcs.Names())
	assert.Equal(t, "Orders", p.Name)

	for _, s := range MappingRules(p.Rules)[0].Steps {
		assert.Equal(t, BindExternal, s.Binding, s.Name)
	}

	require.Error(t, p.Warnings)
	require.ErrorIs(t, p.Warnings, registry.ErrUnknownModule)

	_, ok := find(p.Diagnostics.Warnings, diagnostic.CodeFunctionUnresolved)
	assert.True(t, ok)
}

func TestResolve_FunctionsModule(t *testing.T) {
	registry.RegisterModule("plantest_mod", map[string]registry.Func{
		"shout": func(args ...value.Value) (value.Value, error) {
			return value.String(strings.ToUpper(args[0].Text())), nil
		},
		"sum": func(args ...value.Value) (value.Value, error) { return value.Null, nil },
	})

	p := resolve(t, `@config {
    functions_module: "plantest_mod"
}
a : x | shout
`, DefaultConfig())

	assert.Equal(t, []string{"shout"}, p.Funcs.Names())
	assert.Equal(t, BindExternal, MappingRules(p.Rules)[0].Steps[0].Binding)
}

func TestResolve_ExternalStepsFanOut(t *testing.T) {
	funcs := registry.New()
	require.NoError(t, funcs.Register("shout", func(args ...value.Value) (value.Value, error) {
		return value.String(strings.ToUpper(args[0].Text())), nil
	}))

	config := DefaultConfig()
	config.Funcs = funcs

	p := resolve(t, `items[*].name : out[*].n | shout
items[*].name : names | shout | join(",")
items[*].name : raw[*].v | whisper
`, config)

	rules := MappingRules(p.Rules)
	require.Len(t, rules, 3)

	assert.Equal(t, StrategyFanOut, rules[0].Strategy)
	assert.Equal(t, StrategyTransform, rules[1].Strategy)
	assert.Equal(t, StrategyFanOut, rules[2].Strategy)
	assert.True(t, ElementWise(rules[0].Steps))
	assert.False(t, ElementWise(rules[1].Steps))
}

func TestPlan_Rebind(t *testing.T) {
	p := resolve(t, "a : x | shout\n@call(fee(x)) : y\n", DefaultConfig())
	assert.Equal(t, BindUnresolved, MappingRules(p.Rules)[0].Steps[0].Binding)
	assert.Len(t, p.Diagnostics.Warnings, 2)

	require.NoError(t, p.Funcs.Register("shout", func(args ...value.Value) (value.Value, error) {
		return args[0], nil
	}))
	require.NoError(t, p.Funcs.Register("fee", func(args ...value.Value) (value.Value, error) {
		return value.Int(1), nil
	}))

	np, err := p.Rebind()
	require.NoError(t, err)
	assert.Equal(t, BindExternal, MappingRules(np.Rules)[0].Steps[0].Binding)
	assert.Empty(t, np.Diagnostics.Warnings)
	assert.Same(t, p.Funcs, np.Funcs)
}

func TestParseCall(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"f(a, 1)", "f(a, 1)"},
		{"f, a, 1", "f(a, 1)"},
		{"f", "f()"},
		{"f, a.b[0]", "f(a.b[0])"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			n, err := parseCall(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}

	_, err := parseCall("1 + 2")
	assert.Error(t, err)
}
