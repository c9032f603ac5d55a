package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemamap/internal/registry"
	"schemamap/value"
)

func record(t *testing.T, src string) value.Value {
	t.Helper()

	v, err := value.DecodeJSON([]byte(src))
	require.NoError(t, err)

	return v
}

func TestParse(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"(a + b) * c", "((a + b) * c)"},
		{"a - 1", "(a - 1)"},
		{"a -1", "(a - 1)"},
		{"a-1.5", "(a - 1.5)"},
		{"-a", "-a"},
		{"-2", "-2"},
		{"sum(items[*].price)", "sum(items[*].price)"},
		{`tax(order.total, "IT")`, `tax(order.total, "IT")`},
		{"f()", "f()"},
		{"order.lines[0].qty / 2", "(order.lines[0].qty / 2)"},
		{"a.true.null", "a.true.null"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"", "invalid expression: empty expression"},
		{"a +", `invalid expression "a +": unexpected end of input`},
		{"(a", `invalid expression "(a": expected ')', got end of input`},
		{"f(a b)", `invalid expression "f(a b)": expected ',' or ')' in call to f, got identifier "b"`},
		{"a[x]", `invalid expression "a[x]": expected an integer index or '*', got identifier "x"`},
		{"a b", `invalid expression "a b": unexpected identifier "b"`},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.ErrorIs(t, err, ErrSyntax)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestEval_Arithmetic(t *testing.T) {
	rec := record(t, `{"price":"2.5","qty":4,"zero":0,"name":"x","items":[{"p":1},{"p":2.5},{"p":null}]}`)

	tests := []struct {
		src  string
		want string
	}{
		{"price * qty", "10.0"},
		{"qty / 2 + 1", "3.0"},
		{"qty -1", "3.0"},
		{"qty / zero", "null"},
		{"name + 1", "null"},
		{"missing + 1", "null"},
		{"-qty", "-4"},
		{"-price", "-2.5"},
		{"price", `"2.5"`},
		{"sum(items[*].p)", "3.5"},
		{"count(items)", "3"},
		{"count(missing)", "0"},
		{"count(name)", "1"},
		{"avg(items[*].p)", "1.1666666666666667"},
		{"max(items[*].p)", "2.5"},
		{"min(items[*].p)", "1"},
		{"sum(qty)", "4.0"},
		{"sum(zero)", "0"},
		{"unknown(qty)", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := Eval(MustParse(tt.src), Env{Record: rec})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestEval_Calls(t *testing.T) {
	funcs := registry.New()
	require.NoError(t, funcs.Register("tax", func(args ...value.Value) (value.Value, error) {
		total, _ := Number(args[0])
		if args[1].Text() == "IT" {
			return value.Float(total * 0.5), nil
		}

		return value.Float(0), nil
	}))

	rec := record(t, `{"order":{"total":100}}`)
	env := Env{Record: rec, Funcs: funcs}

	got, err := Eval(MustParse(`tax(order.total, "IT") + order.total`), env)
	require.NoError(t, err)
	assert.Equal(t, "150.0", got.String())

	env.Strict = true

	_, err = Eval(MustParse("nope(order.total)"), env)

	var callErr *registry.CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "nope", callErr.Name)
	require.ErrorIs(t, err, registry.ErrUnknownFunction)

	got, err = Eval(MustParse("max(order.total)"), env)
	require.NoError(t, err)
	assert.Equal(t, "100", got.String())
}

func TestCalls(t *testing.T) {
	assert.Equal(t, []string{"f", "g", "sum"}, Calls(MustParse("f(g(a), sum(b)) + g(c)")))
	assert.Empty(t, Calls(MustParse("a + 1")))
}
