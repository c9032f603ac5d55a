package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemamap/value"
)

func apply(t *testing.T, env *Env, name string, in any, args ...any) value.Value {
	t.Helper()

	k, ok := Lookup(name)
	require.True(t, ok, "unknown builtin %s", name)

	vals := make([]value.Value, 0, len(args))
	for _, a := range args {
		vals = append(vals, value.FromNative(a))
	}

	return Apply(k, value.FromNative(in), vals, env)
}

type applyCase struct {
	name string
	fn   string
	in   any
	args []any
	want any
}

func runCases(t *testing.T, cases []applyCase) {
	t.Helper()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := apply(t, nil, tc.fn, tc.in, tc.args...)
			assert.Equal(t, value.FromNative(tc.want).String(), got.String())
		})
	}
}

func TestCatalog(t *testing.T) {
	k, ok := Lookup("lookup")
	require.True(t, ok)
	assert.Equal(t, TableLookup, k)
	assert.Equal(t, CategoryLookup, k.Category())

	_, ok = Lookup("nope")
	assert.False(t, ok)

	assert.Len(t, Names(), int(numKinds))
	assert.Len(t, All(), int(numKinds))
	assert.Equal(t, "trim", Names()[0])

	assert.Equal(t, CategoryString, Template.Category())
	assert.Equal(t, CategoryNumeric, Clamp.Category())
	assert.Equal(t, CategoryBoolean, Negate.Category())
	assert.Equal(t, CategoryDate, AddYears.Category())
	assert.Equal(t, CategoryArray, First.Category())
	assert.Equal(t, CategoryObject, Omit.Category())
	assert.Equal(t, CategoryConditional, When.Category())
	assert.Equal(t, CategoryValidation, Matches.Category())
	assert.Equal(t, CategorySpecial, JSONStringify.Category())

	assert.True(t, Join.ArrayAware())
	assert.True(t, Count.ArrayAware())
	assert.False(t, Trim.ArrayAware())

	assert.Equal(t, "clamp(min, max)", Clamp.Signature())
	assert.Equal(t, "trim", Trim.Signature())
}

func TestStringBuiltins(t *testing.T) {
	runCases(t, []applyCase{
		{"trim", "trim", "  a b  ", nil, "a b"},
		{"trim null", "trim", nil, nil, ""},
		{"lowercase", "lowercase", "AbC", nil, "abc"},
		{"uppercase number", "uppercase", 12, nil, "12"},
		{"titlecase", "titlecase", "hello wORLD", nil, "Hello World"},
		{"capitalize", "capitalize", "hELLO there", nil, "Hello there"},
		{"sentence case", "sentence_case", "HELLO WORLD", nil, "Hello world"},
		{"replace", "replace", "banana", []any{"a", "o"}, "bonono"},
		{"replace non-string arg", "replace", "banana", []any{1, "o"}, "banana"},
		{"regex replace group", "regex_replace", "a12b", []any{`(\d+)`, `<\1>`}, "a<12>b"},
		{"regex replace dollar", "regex_replace", "a1", []any{`\d`, "$"}, "a$"},
		{"regex replace bad pattern", "regex_replace", "a1", []any{`(`, "x"}, "a1"},
		{"substring", "substring", "hello", []any{1, 3}, "el"},
		{"substring negative", "substring", "hello", []any{-3}, "llo"},
		{"substring past end", "substring", "hi", []any{5}, ""},
		{"prefix", "prefix", "a", []any{"x-"}, "x-a"},
		{"prefix null", "prefix", nil, []any{"x-"}, "x-"},
		{"suffix", "suffix", 1, []any{"%"}, "1%"},
		{"max length", "max_length", "hello", []any{3}, "hel"},
		{"max length float arg", "max_length", "hello", []any{2.0}, "he"},
		{"min length", "min_length", "ab", []any{4, "."}, "ab.."},
		{"pad left", "pad_left", 42, []any{5, "0"}, "00042"},
		{"pad right", "pad_right", "ab", []any{4}, "ab  "},
		{"pad long fill", "pad_left", "ab", []any{4, "xy"}, "ab"},
		{"split", "split", "a,b,c", nil, []any{"a", "b", "c"}},
		{"split delim", "split", "a|b", []any{"|"}, []any{"a", "b"}},
		{"split null", "split", nil, nil, []any{}},
		{"join", "join", []any{"a", 1, true}, []any{"-"}, "a-1-true"},
		{"join scalar", "join", "a", nil, "a"},
		{"collapse spaces", "collapse_spaces", "  a \t  b  ", nil, "a b"},
		{"to string float", "to_string", 3.0, nil, "3.0"},
		{"mask", "mask", "1234567890", nil, "******7890"},
		{"mask short", "mask", "123", []any{4}, "***"},
		{"hash md5", "hash", "abc", []any{"md5"}, "900150983cd24fb0d6963f7d28e17f72"},
		{"hash sha256", "hash", "abc", nil, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"template", "template", "a", []any{"{} and {}", "b"}, "a and b"},
		{"template indexed", "template", "a", []any{"{1}{{{0}}}", "b"}, "b{a}"},
		{"template out of range", "template", "a", []any{"{3}"}, "{3}"},
	})
}

func TestNumericBuiltins(t *testing.T) {
	runCases(t, []applyCase{
		{"to int text", "to_int", "12.7", nil, 12},
		{"to int negative", "to_int", "-12.7", nil, -12},
		{"to int garbage", "to_int", "abc", nil, 0},
		{"to int null", "to_int", nil, nil, 0},
		{"to float", "to_float", " 3 ", nil, 3.0},
		{"to decimal", "to_decimal", "2.675", nil, 2.67},
		{"round half even", "round", 2.5, nil, 2.0},
		{"round places", "round", 1.25, []any{1}, 1.2},
		{"round tens", "round", 1234, []any{-2}, 1200.0},
		{"floor", "floor", 2.7, nil, 2},
		{"ceil text", "ceil", "2.1", nil, 3},
		{"abs", "abs", -3, nil, 3.0},
		{"multiply", "multiply", "3", []any{2}, 6.0},
		{"add", "add", 1, []any{1.5}, 2.5},
		{"subtract", "subtract", 1, []any{3}, -2.0},
		{"divide", "divide", 7, []any{2}, 3.5},
		{"divide by zero", "divide", 7, []any{0}, 0.0},
		{"divide text arg", "divide", 7, []any{"2"}, 7},
		{"min raises to bound", "min", 5, []any{10}, 10},
		{"min keeps value", "min", 5, []any{1}, 5.0},
		{"max caps", "max", 50, []any{10}, 10},
		{"clamp high", "clamp", 15, []any{0, 10}, 10},
		{"clamp low", "clamp", -3, []any{0, 10}, 0},
		{"clamp inside", "clamp", 5, []any{0, 10}, 5.0},
		{"to bool yes", "to_bool", "yes", nil, true},
		{"to bool padded t", "to_bool", " t ", nil, true},
		{"to bool one", "to_bool", 1, nil, true},
		{"to bool no", "to_bool", "no", nil, false},
		{"to bool null", "to_bool", nil, nil, false},
		{"negate", "negate", "TRUE", nil, false},
	})
}

func TestDateBuiltins(t *testing.T) {
	runCases(t, []applyCase{
		{"parse date", "parse_date", "15/01/2024", []any{"%d/%m/%Y"}, "2024-01-15T00:00:00"},
		{"parse date tokens", "parse_date", "15.01.2024 10:30", []any{"DD.MM.YYYY HH:mm"}, "2024-01-15T10:30:00"},
		{"parse date default", "parse_date", "2024-01-15", nil, "2024-01-15T00:00:00"},
		{"parse date mismatch", "parse_date", "nope", nil, "nope"},
		{"parse date null", "parse_date", nil, nil, nil},
		{"format date", "format_date", "2024-01-15T10:30:00Z", []any{"%Y/%m/%d %H:%M"}, "2024/01/15 10:30"},
		{"format date tokens", "format_date", "2024-01-15", []any{"DD.MM.YYYY"}, "15.01.2024"},
		{"format date micro", "format_date", "2024-01-15T10:30:00.123456", []any{"%S.%f"}, "00.123456"},
		{"format date default", "format_date", "2024-01-15T10:30:00", nil, "2024-01-15"},
		{"format date garbage", "format_date", "not a date", nil, "not a date"},
		{"format date null", "format_date", nil, nil, ""},
		{"to iso date", "to_iso8601", "2024-01-15", nil, "2024-01-15T00:00:00Z"},
		{"to iso passthrough", "to_iso8601", "2024-01-15T10:00:00", nil, "2024-01-15T10:00:00"},
		{"to timestamp", "to_timestamp", "2024-01-01T00:00:00Z", nil, 1704067200},
		{"to timestamp naive", "to_timestamp", "2024-01-01", nil, 1704067200},
		{"to timestamp garbage", "to_timestamp", "soon", nil, 0},
		{"add days", "add_days", "2024-01-31", []any{1}, "2024-02-01T00:00:00"},
		{"add days zoned", "add_days", "2024-01-15T10:00:00Z", []any{1}, "2024-01-16T10:00:00+00:00"},
		{"add months", "add_months", "2024-01-15", []any{1}, "2024-02-15T00:00:00"},
		{"add months overflow", "add_months", "2024-01-31", []any{1}, "2024-01-31"},
		{"add years leap", "add_years", "2024-02-29", []any{1}, "2024-02-29"},
		{"add years", "add_years", "2020-06-01T08:00:00+02:00", []any{-1}, "2019-06-01T08:00:00+02:00"},
		{"add days null", "add_days", nil, []any{1}, ""},
	})
}

func TestArrayBuiltins(t *testing.T) {
	runCases(t, []applyCase{
		{"first", "first", []any{1, 2}, nil, 1},
		{"first scalar", "first", "x", nil, nil},
		{"last", "last", []any{1, 2}, nil, 2},
		{"last empty", "last", []any{}, nil, nil},
		{"at negative", "at", []any{1, 2, 3}, []any{-1}, 3},
		{"at out of range", "at", []any{1, 2, 3}, []any{3}, nil},
		{"flatten", "flatten", []any{[]any{1, []any{2}}, 3}, nil, []any{1, 2, 3}},
		{"flatten scalar", "flatten", "x", nil, []any{"x"}},
		{"flatten null", "flatten", nil, nil, []any{}},
		{"distinct", "distinct", []any{1, 2, 1.0, "a", "a"}, nil, []any{1, 2, "a"}},
		{"sort", "sort", []any{3, 1, 2}, nil, []any{1, 2, 3}},
		{"sort strings desc", "sort", []any{"b", "c", "a"}, []any{nil, true}, []any{"c", "b", "a"}},
		{
			"sort by key", "sort",
			[]any{map[string]any{"n": 2}, map[string]any{"n": 1}},
			[]any{"n"},
			[]any{map[string]any{"n": 1}, map[string]any{"n": 2}},
		},
		{"sort mixed", "sort", []any{2, "a", 1}, nil, []any{2, "a", 1}},
		{"reverse", "reverse", []any{1, 2, 3}, nil, []any{3, 2, 1}},
		{"take", "take", []any{1, 2, 3}, []any{2}, []any{1, 2}},
		{"take negative", "take", []any{1, 2, 3}, []any{-1}, []any{1, 2}},
		{"take scalar", "take", "x", []any{2}, []any{"x"}},
		{"skip", "skip", []any{1, 2, 3}, []any{1}, []any{2, 3}},
		{"skip scalar", "skip", "x", []any{1}, []any{}},
		{"count", "count", []any{1, 2, 3}, nil, 3},
		{"count scalar", "count", "x", nil, 1},
		{"count null", "count", nil, nil, 0},
		{"sum", "sum", []any{"1", 2, 0.5}, nil, 3.5},
		{"sum scalar", "sum", "4", nil, 4.0},
		{"avg", "avg", []any{1, 2}, nil, 1.5},
		{"avg empty", "avg", []any{}, nil, 0.0},
		{"wrap", "wrap", "x", nil, []any{"x"}},
		{"wrap null", "wrap", nil, nil, []any{}},
		{"wrap seq", "wrap", []any{1}, nil, []any{1}},
		{"unwrap", "unwrap", []any{5}, nil, 5},
		{"unwrap many", "unwrap", []any{5, 6}, nil, []any{5, 6}},
	})
}

func TestElementWise(t *testing.T) {
	runCases(t, []applyCase{
		{"trim each", "trim", []any{" a", "b "}, nil, []any{"a", "b"}},
		{"to int each", "to_int", []any{"1", "2.9"}, nil, []any{1, 2}},
		{"nested", "uppercase", []any{[]any{"a"}, "b"}, nil, []any{[]any{"A"}, "B"}},
		{"join whole", "join", []any{"a", "b"}, []any{"+"}, "a+b"},
	})
}

func TestObjectAndConditionalBuiltins(t *testing.T) {
	obj := map[string]any{"a": 1, "b": 2, "c": 3}

	runCases(t, []applyCase{
		{"omit", "omit", obj, []any{"a"}, map[string]any{"b": 2, "c": 3}},
		{"pick scalar", "pick", "x", []any{"a"}, map[string]any{}},
		{"default null", "default", nil, []any{"d"}, "d"},
		{"default set", "default", "", []any{"d"}, ""},
		{"if empty blank", "if_empty", "  ", []any{"d"}, "d"},
		{"if empty seq", "if_empty", []any{}, []any{"d"}, "d"},
		{"if empty set", "if_empty", 0, []any{"d"}, 0},
		{"if null", "if_null", nil, []any{0}, 0},
		{"optional", "optional", nil, nil, nil},
		{"required", "required", nil, nil, nil},
	})

	// pick keeps the order of its arguments.
	assert.Equal(t, `{"c":3,"a":1}`, apply(t, nil, "pick", obj, "c", "a", "z").String())
}

func TestWhenElse(t *testing.T) {
	env := &Env{}

	got := apply(t, env, "when", "A", "A", "Active")
	assert.Equal(t, `"Active"`, got.String())

	got = apply(t, env, "else", "Active", "Other")
	assert.Equal(t, `"Active"`, got.String())

	env = &Env{}

	got = apply(t, env, "when", "B", "A", "Active")
	assert.Equal(t, `"B"`, got.String())

	got = apply(t, env, "else", got, "Other")
	assert.Equal(t, `"Other"`, got.String())
}

func TestLookup(t *testing.T) {
	status := value.NewMap()
	status.Set("A", value.String("ACTIVE"))
	status.Set("1", value.String("ONE"))

	country := value.NewMap()
	country.Set("IT", value.FromNative(map[string]any{"name": "Italy"}))

	env := &Env{Tables: map[string]*value.Map{"status": status, "country": country}}

	tests := []struct {
		name string
		in   any
		args []any
		want any
	}{
		{"hit", "A", []any{"@status"}, "ACTIVE"},
		{"hit without at", "A", []any{"status"}, "ACTIVE"},
		{"number key", 1, []any{"@status"}, "ONE"},
		{"miss", "Z", []any{"@status"}, "Z"},
		{"null", nil, []any{"@status"}, nil},
		{"unknown table", "A", []any{"@nope"}, "A"},
		{"field", "IT", []any{"@country", "name"}, "Italy"},
		{"element wise", []any{"A", "Z"}, []any{"@status"}, []any{"ACTIVE", "Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apply(t, env, "lookup", tt.in, tt.args...)
			assert.Equal(t, value.FromNative(tt.want).String(), got.String())
		})
	}
}

func TestValidationAndSpecialBuiltins(t *testing.T) {
	runCases(t, []applyCase{
		{"matches", "matches", "123abc", []any{`\d+`}, true},
		{"matches anchored", "matches", "abc123", []any{`\d+`}, false},
		{"matches null", "matches", nil, []any{`.*`}, false},
		{"in", "in", "a", []any{"a", "b"}, true},
		{"in list arg", "in", 2, []any{[]any{1, 2}}, true},
		{"not in", "not_in", "c", []any{"a", "b"}, true},
		{"validate email", "validate", "a@b.co", []any{"email"}, "a@b.co"},
		{"validate email bad", "validate", "nope", []any{"email"}, nil},
		{"validate uuid case", "validate", "A0EEBC99-9C0B-4EF8-BB6D-6BB9BD380A11", []any{"uuid"}, "A0EEBC99-9C0B-4EF8-BB6D-6BB9BD380A11"},
		{"validate zip", "validate", "12345-6789", []any{"zip_us"}, "12345-6789"},
		{"validate unknown kind", "validate", "x", []any{"iban"}, "x"},
		{"constant", "constant", "x", []any{"y"}, "y"},
		{"raw", "raw", []any{1}, nil, []any{1}},
		{"json parse", "json_parse", `{"a":[1,"x"]}`, nil, map[string]any{"a": []any{1, "x"}}},
		{"json parse bad", "json_parse", "{", nil, "{"},
		{"json stringify", "json_stringify", map[string]any{"a": []any{1, "x"}}, nil, `{"a":[1,"x"]}`},
	})

	assert.Equal(t, []string{"email", "phone", "url", "uuid", "zip_us"}, ValidatorNames())
}

func TestRoundHalfEven(t *testing.T) {
	assert.InDelta(t, 2.0, RoundHalfEven(2.5, 0), 0)
	assert.InDelta(t, 4.0, RoundHalfEven(3.5, 0), 0)
	assert.InDelta(t, 2.67, RoundHalfEven(2.675, 2), 0)
	assert.InDelta(t, -1.4, RoundHalfEven(-1.45, 1), 1e-12)
}

func TestArity(t *testing.T) {
	tests := []struct {
		k        Kind
		min, max int
	}{
		{Trim, 0, 0},
		{Replace, 2, 2},
		{Substring, 1, 2},
		{Split, 0, 1},
		{Sort, 0, 2},
		{Template, 1, -1},
		{Pick, 0, -1},
		{TableLookup, 1, 2},
		{When, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.k.String(), func(t *testing.T) {
			minArgs, maxArgs := tt.k.Arity()
			assert.Equal(t, tt.min, minArgs)
			assert.Equal(t, tt.max, maxArgs)
		})
	}
}

func TestBind_MatchesApply(t *testing.T) {
	inputs := []value.Value{
		value.Null,
		value.String(" Mixed Case "),
		value.Int(7),
		value.Float(2.5),
		value.Strings("b", "a", "b"),
		value.SeqOf(value.Int(3), value.Null, value.SeqOf(value.Int(1))),
	}

	args := map[Kind][]value.Value{
		Replace:   {value.String("a"), value.String("x")},
		Substring: {value.Int(1), value.Int(3)},
		PadLeft:   {value.Int(4), value.String("0")},
		Round:     {value.Int(1)},
		Add:       {value.Int(2)},
		At:        {value.Int(-1)},
		Take:      {value.Int(2)},
		Default:   {value.String("d")},
		In:        {value.String("a"), value.Int(7)},
	}

	for _, k := range All() {
		fn := Bind(k)

		for _, in := range inputs {
			want := Apply(k, in, args[k], &Env{})
			got := fn(in, args[k], &Env{})
			assert.True(t, value.Equal(want, got), "%s(%s): want %s, got %s", k, in, want, got)
		}
	}
}
