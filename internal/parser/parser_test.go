package parser

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemamap/internal/fieldpath"
	"schemamap/internal/lexer"
	"schemamap/internal/mapping"
	"schemamap/value"
)

func mustParse(t *testing.T, src string) *mapping.MappingFile {
	t.Helper()

	f, err := ParseString(src, "")
	require.NoError(t, err)

	return f
}

func onlyMapping(t *testing.T, f *mapping.MappingFile) *mapping.Mapping {
	t.Helper()

	require.Len(t, f.Body, 1, spew.Sdump(f.Body))

	m, ok := f.Body[0].(*mapping.Mapping)
	require.True(t, ok, "got %T", f.Body[0])

	return m
}

func TestParse_SimpleMapping(t *testing.T) {
	f := mustParse(t, "user.first_name : profile.firstName | trim | titlecase\n")
	m := onlyMapping(t, f)

	assert.Equal(t, "user.first_name", m.Source.String())
	assert.Equal(t, "profile.firstName", m.Target.String())
	assert.Equal(t, "trim | titlecase", m.Transforms.String())
	assert.Equal(t, mapping.Position{Line: 1, Column: 1}, m.Position)
}

func TestParse_Sources(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "wildcard path", src: "items[*].price : out", want: "items[*].price"},
		{name: "index and optional", src: "items[-1].sku? : out", want: "items[-1].sku?"},
		{name: "spaced negative index", src: "items[- 2] : out", want: "items[-2]"},
		{name: "rooted path", src: ".order.id : out", want: ".order.id"},
		{name: "keyword field", src: "flags.true : out", want: "flags.true"},
		{name: "concat", src: `first + " " + last : out`, want: `first + " " + last`},
		{name: "literal first concat", src: `"ID-" + id : out`, want: `"ID-" + id`},
		{name: "coalesce", src: `nick ?? first ?? "anon" : out`, want: `nick ?? first ?? "anon"`},
		{name: "compute", src: "@compute(sum(items[*].price)) : out", want: "@compute(sum(items[*].price))"},
		{name: "call", src: `@call(tax(order.total, "IT")) : out`, want: `@call(tax(order.total,"IT"))`},
		{name: "expr", src: "@expr(price * qty - 1) : out", want: "@expr(price*qty - 1)"},
		{name: "now", src: "@now : out", want: "@now"},
		{name: "uuid with parens", src: "@uuid() : out", want: "@uuid"},
		{name: "string constant", src: `"v1" : out`, want: `"v1"`},
		{name: "number constant", src: "42 : out", want: "42"},
		{name: "null constant", src: "null : out", want: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := onlyMapping(t, mustParse(t, tt.src))
			assert.Equal(t, tt.want, m.Source.String())
		})
	}
}

func TestParse_MergeParts(t *testing.T) {
	m := onlyMapping(t, mustParse(t, `a.b ?? "x" : out`))

	merge, ok := m.Source.(*mapping.MergeExpr)
	require.True(t, ok)
	assert.Equal(t, mapping.MergeCoalesce, merge.Op)
	require.Len(t, merge.Parts, 2)
	assert.Equal(t, fieldpath.New(fieldpath.Field("a"), fieldpath.Field("b")), merge.Parts[0].Path)
	assert.True(t, merge.Parts[1].IsLiteral)
	assert.Equal(t, "x", merge.Parts[1].Literal)
}

func TestParse_ComputeKinds(t *testing.T) {
	tests := []struct {
		src  string
		want mapping.ComputeKind
	}{
		{src: "@compute(sum(a)) : out", want: mapping.ComputeCompute},
		{src: "@call(f(a)) : out", want: mapping.ComputeCall},
		{src: "@expr(a * 2) : out", want: mapping.ComputeExpression},
		{src: "@now : out", want: mapping.ComputeNow},
		{src: "@uuid : out", want: mapping.ComputeUUID},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			src, ok := onlyMapping(t, mustParse(t, tt.src)).Source.(*mapping.ComputeExpr)
			require.True(t, ok)
			assert.Equal(t, tt.want, src.Kind)
		})
	}
}

func TestParse_Targets(t *testing.T) {
	f := mustParse(t, "a : ~\nb : out[*].x\n")
	require.Len(t, f.Body, 2)

	assert.IsType(t, &mapping.SkipTarget{}, f.Body[0].(*mapping.Mapping).Target)

	target := f.Body[1].(*mapping.Mapping).Target.(*mapping.PathTarget)
	assert.True(t, target.Path.HasWildcard())
}

func TestParse_TransformArgs(t *testing.T) {
	m := onlyMapping(t, mustParse(t, `code : out | lookup(@status) | replace("a", "b") | pick(id, name) | default(other.field) | in(["x", 1]) | when({"k": true}, -1.5)`))

	require.Len(t, m.Transforms, 6)

	assert.Equal(t, mapping.ArgRef, m.Transforms[0].Args[0].Kind)
	assert.Equal(t, "status", m.Transforms[0].Args[0].Name)

	assert.Equal(t, mapping.Literal(value.String("a")), m.Transforms[1].Args[0])

	assert.Equal(t, mapping.ArgWord, m.Transforms[2].Args[0].Kind)
	assert.Equal(t, "name", m.Transforms[2].Args[1].Name)

	assert.Equal(t, mapping.ArgPath, m.Transforms[3].Args[0].Kind)
	assert.Equal(t, "other.field", m.Transforms[3].Args[0].Path.String())

	list := m.Transforms[4].Args[0].Value
	assert.Equal(t, `["x",1]`, list.String())

	assert.Equal(t, `{"k":true}`, m.Transforms[5].Args[0].Value.String())
	assert.Equal(t, value.Float(-1.5), m.Transforms[5].Args[1].Value)
}

func TestParse_ChainContinuesOnNextLine(t *testing.T) {
	m := onlyMapping(t, mustParse(t, "name : out\n    | trim\n    | uppercase\n"))
	assert.Equal(t, "trim | uppercase", m.Transforms.String())
}

func TestParse_Directives(t *testing.T) {
	f := mustParse(t, `
@config {
    null_handling: "omit"
    functions: ["billing:tax", "util:slug as slugify"]
}

@lookups {
    status: { "A": "ACTIVE", "I": "INACTIVE" }
    country: "countries.json"
}

@functions {
    tax: "billing:calculate_tax as tax"
    plain: "helpers.so:Plain"
}

code : status | lookup(@status)
`)

	assert.True(t, f.OmitNulls())
	assert.Equal(t, `["billing:tax","util:slug as slugify"]`, f.ConfigValue("functions").String())

	require.Contains(t, f.Lookups, "status")
	assert.False(t, f.Lookups["status"].IsFile())
	assert.Equal(t, []string{"A", "I"}, f.Lookups["status"].Inline.Keys())
	assert.Equal(t, "countries.json", f.Lookups["country"].File)

	assert.Equal(t, "billing:calculate_tax", f.Functions["tax"].Spec)
	assert.Equal(t, "tax", f.Functions["tax"].Alias)
	assert.Equal(t, "billing:calculate_tax as tax", f.Functions["tax"].FullSpec())
	assert.Empty(t, f.Functions["plain"].Alias)

	onlyMapping(t, f)
}

func TestParse_WhenElse(t *testing.T) {
	f := mustParse(t, `
@when status == "shipped" {
    trackingNumber : t
    @when priority > 2 {
        "express" : speed
    } @else {
        "normal" : speed
    }
}
@else {
    "pending" : state
}
@when active true { x : y }
@when count = 0 {
}
{
    a : b
}
`)

	require.Len(t, f.Body, 5)

	when := f.Body[0].(*mapping.ConditionalBlock)
	assert.Equal(t, `status == "shipped"`, when.Condition.String())
	require.Len(t, when.Body, 3)
	assert.Equal(t, mapping.OpGt, when.Body[1].(*mapping.ConditionalBlock).Condition.Op)
	assert.True(t, when.Body[2].(*mapping.ConditionalBlock).IsElse())

	assert.True(t, f.Body[1].(*mapping.ConditionalBlock).IsElse())

	noOp := f.Body[2].(*mapping.ConditionalBlock)
	assert.Equal(t, mapping.OpEq, noOp.Condition.Op)
	assert.Equal(t, value.Bool(true), noOp.Condition.Value)
	assert.Equal(t, value.Int(0), f.Body[3].(*mapping.ConditionalBlock).Condition.Value)
	assert.IsType(t, &mapping.NestedBlock{}, f.Body[4])
	assert.Len(t, mapping.Mappings(f.Body), 6)

	_, err := ParseString("@when active { x : y }", "")
	require.EqualError(t, err, "line 1, column 14: expected a literal to compare with, got '{'")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "missing colon", src: "a b", want: `line 1, column 3: expected ':', got identifier "b"`},
		{name: "else first", src: "@else { a : b }", want: "line 1, column 1: @else without preceding @when"},
		{name: "else after mapping", src: "@when a == 1 { x : y }\nq : r\n@else { a : b }", want: "line 3, column 1: @else without preceding @when"},
		{name: "double else", src: "@when a == 1 { x : y }\n@else { a : b }\n@else { c : d }", want: "line 3, column 1: @else without preceding @when"},
		{name: "two wildcards", src: "a[*].b[*] : c", want: "line 1, column 1: path \"a[*].b[*]\": only one [*] wildcard is allowed per path"},
		{name: "optional target", src: "a : b?", want: "line 1, column 6: target paths cannot be optional"},
		{name: "mixed merge", src: "a + b ?? c : d", want: "line 1, column 7: cannot mix '+' and '??' in one expression"},
		{name: "unclosed block", src: "{ a : b", want: "line 1, column 8: expected '}', got end of input"},
		{name: "nested config", src: "{ @config { a: 1 } }", want: "line 1, column 3: @config is only allowed at the top level"},
		{name: "repeat", src: "@repeat items { a : b }", want: "line 1, column 1: unsupported directive @repeat"},
		{name: "trailing junk", src: "a : b c", want: `line 1, column 7: expected end of statement, got identifier "c"`},
		{name: "empty compute", src: "@compute() : x", want: "line 1, column 1: @compute needs an expression"},
		{name: "unterminated compute", src: "@compute(sum(a) : x", want: "line 1, column 1: unterminated @compute("},
		{name: "float index", src: "a[1.5] : x", want: `line 1, column 3: expected an integer index or '*', got number "1.5"`},
		{name: "unknown char", src: "a : $b", want: `line 1, column 5: expected identifier, got unknown character "$"`},
		{name: "duplicate alias", src: "@aliases {\n c: trim\n c: lowercase\n}", want: `line 3, column 2: alias "c" is already defined`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.src, "")

			var parseErr *Error
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestParse_ErrorCarriesSourceName(t *testing.T) {
	_, err := ParseString("a :", "orders.smap")
	require.EqualError(t, err, "orders.smap:1:4: expected identifier, got end of input")
}

func TestParse_LexErrorPassesThrough(t *testing.T) {
	_, err := ParseString(`a : b | prefix("x)`, "")

	var lexErr *lexer.Error
	require.ErrorAs(t, err, &lexErr)
}

func TestParse_TokensWithoutEOF(t *testing.T) {
	toks, err := lexer.Tokenize("a : b")
	require.NoError(t, err)

	f, err := Parse(toks[:len(toks)-1], "")
	require.NoError(t, err)
	onlyMapping(t, f)
}

func TestParseFile(t *testing.T) {
	_, err := ParseFile("testdata/does-not-exist.smap")
	require.ErrorContains(t, err, "failed to read mapping file")

	f, err := ParseFile("testdata/orders.smap")
	require.NoError(t, err)
	assert.Equal(t, "testdata/orders.smap", f.SourceName)
	assert.NotEmpty(t, mapping.Mappings(f.Body))
}
