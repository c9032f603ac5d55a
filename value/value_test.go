package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEqual_NumericCrossKind(t *testing.T) {
	assert.True(t, Equal(Int(1), Float(1)))
	assert.False(t, Equal(Int(1), String("1")))
	assert.True(t, Equal(Null, Null))
	assert.False(t, Equal(Null, String("")))
}

func TestEqual_MapsIgnoreOrder(t *testing.T) {
	a := NewMap()
	a.Set("x", Int(1))
	a.Set("y", Strings("a", "b"))

	b := NewMap()
	b.Set("y", Strings("a", "b"))
	b.Set("x", Float(1))

	assert.True(t, Equal(FromMap(a), FromMap(b)))

	b.Set("z", Null)
	assert.False(t, Equal(FromMap(a), FromMap(b)))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
		ok   bool
	}{
		{"ints", Int(1), Int(2), -1, true},
		{"mixed numbers", Float(2.5), Int(2), 1, true},
		{"strings", String("b"), String("a"), 1, true},
		{"bools", Bool(false), Bool(true), -1, true},
		{"string vs int", String("1"), Int(1), 0, false},
		{"nulls", Null, Null, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Compare(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Null, ""},
		{Bool(true), "true"},
		{Int(-12), "-12"},
		{Float(3), "3.0"},
		{Float(2.5), "2.5"},
		{Float(1e16), "1e+16"},
		{Float(0.00001), "1e-05"},
		{String("x"), "x"},
		{Strings("a", "b"), `["a","b"]`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.Text())
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, Null.Truthy())
	assert.False(t, String("").Truthy())
	assert.False(t, SeqOf().Truthy())
	assert.False(t, Int(0).Truthy())
	assert.True(t, String("0").Truthy())
	assert.True(t, Float(0.1).Truthy())
}

func TestClone_IsDeep(t *testing.T) {
	inner := NewMap()
	inner.Set("k", String("v"))

	outer := NewMap()
	outer.Set("inner", FromMap(inner))

	c := FromMap(outer).Clone()
	inner.Set("k", String("changed"))

	m, ok := c.AsMap()
	require.True(t, ok)

	got, _ := m.Get("inner")
	gm, _ := got.AsMap()
	k, _ := gm.Get("k")
	assert.Equal(t, "v", k.Text())
}

func TestMap_KeepsInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("b", Int(1))
	m.Set("a", Int(2))
	m.Set("b", Int(3))

	assert.Equal(t, []string{"b", "a"}, m.Keys())

	m.Delete("b")
	assert.Equal(t, []string{"a"}, m.Keys())

	var zero Map
	zero.Set("x", Null)
	assert.True(t, zero.Has("x"))
}

func TestSeq_At(t *testing.T) {
	s := NewSeq(Int(1), Int(2), Int(3))

	assert.Equal(t, Int(3), s.At(-1))
	assert.Equal(t, Int(1), s.At(-3))
	assert.Equal(t, Null, s.At(-4))
	assert.Equal(t, Null, s.At(3))
}

func TestDecodeJSON_KeepsOrderAndNumberKinds(t *testing.T) {
	v, err := DecodeJSON([]byte(`{"z": 1, "a": 2.0, "m": [true, null, "s"], "big": 1e3}`))
	require.NoError(t, err)

	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a", "m", "big"}, m.Keys())

	z, _ := m.Get("z")
	assert.Equal(t, KindInt, z.Kind())

	a, _ := m.Get("a")
	assert.Equal(t, KindFloat, a.Kind())

	big, _ := m.Get("big")
	assert.Equal(t, Float(1000), big)

	out, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"z":1,"a":2.0,"m":[true,null,"s"],"big":1000.0}`, string(out))
	assert.Equal(t, `{"z":1,"a":2.0,"m":[true,null,"s"],"big":1000.0}`, string(out))
}

func TestDecodeJSON_TrailingData(t *testing.T) {
	_, err := DecodeJSON([]byte(`{} {}`))
	require.ErrorIs(t, err, ErrTrailingData)
}

func TestAppendJSON_Escapes(t *testing.T) {
	got := string(AppendJSON(nil, String("a\"b\\c\n<d>\x01")))
	assert.Equal(t, `"a\"b\\c\n<d>\u0001"`, got)
}

func TestDecodeYAML(t *testing.T) {
	src := `
name: Ada
tags: [x, y]
age: 36
ratio: 0.5
active: yes
nothing: ~
`
	v, err := DecodeYAML([]byte(src))
	require.NoError(t, err)

	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"name", "tags", "age", "ratio", "active", "nothing"}, m.Keys())

	age, _ := m.Get("age")
	assert.Equal(t, Int(36), age)

	ratio, _ := m.Get("ratio")
	assert.Equal(t, Float(0.5), ratio)

	// yaml.v3 follows YAML 1.2, where "yes" is a plain string.
	active, _ := m.Get("active")
	assert.Equal(t, String("yes"), active)

	nothing, ok := m.Get("nothing")
	assert.True(t, ok)
	assert.True(t, nothing.IsNull())
}

func TestMarshalYAML_KeepsOrder(t *testing.T) {
	m := NewMap()
	m.Set("b", Int(1))
	m.Set("a", SeqOf(String("x"), Float(2)))

	out, err := yaml.Marshal(FromMap(m))
	require.NoError(t, err)
	assert.Equal(t, "b: 1\na:\n    - x\n    - 2.0\n", string(out))
}

func TestNativeRoundTrip(t *testing.T) {
	in := map[string]any{
		"n":    nil,
		"i":    7,
		"f":    1.5,
		"s":    "str",
		"list": []any{1, "two"},
		"obj":  map[string]any{"k": true},
	}

	v := FromNative(in)

	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"f", "i", "list", "n", "obj", "s"}, m.Keys())

	back := ToNative(v)
	assert.Equal(t, map[string]any{
		"n":    nil,
		"i":    int64(7),
		"f":    1.5,
		"s":    "str",
		"list": []any{int64(1), "two"},
		"obj":  map[string]any{"k": true},
	}, back)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "Seq", KindSeq.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
