package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemamap/value"
)

func mustJSON(t *testing.T, s string) value.Value {
	t.Helper()

	v, err := value.DecodeJSON([]byte(s))
	require.NoError(t, err)

	return v
}

func jsonOf(v value.Value) string {
	return string(value.AppendJSON(nil, v))
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"a", New(Field("a"))},
		{"a.b", New(Field("a"), Field("b"))},
		{"items[0].sku", New(Field("items"), Index(0), Field("sku"))},
		{"items[-1]", New(Field("items"), Index(-1))},
		{"items[*].price", New(Field("items"), Wildcard(), Field("price"))},
		{".order.id?", Path{Segments: []Segment{Field("order"), Field("id")}, Optional: true, Rooted: true}},
		{"grid[1][2]", New(Field("grid"), Index(1), Index(2))},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "a..b", "a.", "[0]", "a[x]", "a[0", "1a", "a[*].b[*]", "a b"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}

	_, err := Parse("a[*].b[*]")
	require.ErrorIs(t, err, ErrMultipleWildcards)
}

func TestGet(t *testing.T) {
	rec := mustJSON(t, `{
		"user": {"name": "Ada", "tags": ["x", "y", "z"]},
		"items": [{"price": 1}, {"price": 2.5}, {"other": true}, 7],
		"scalar": "s"
	}`)

	tests := []struct {
		path string
		want string
	}{
		{"user.name", `"Ada"`},
		{"user.tags[0]", `"x"`},
		{"user.tags[-1]", `"z"`},
		{"user.tags[-3]", `"x"`},
		{"user.tags[-4]", `null`},
		{"user.tags[3]", `null`},
		{"user.missing.deeper", `null`},
		{"scalar.field", `null`},
		{"scalar[0]", `null`},
		{"items[*].price", `[1,2.5,null,null]`},
		{"user.tags[*]", `["x","y","z"]`},
		{"user.name[*]", `null`},
		{"missing[*].x", `[]`},
		{"user.name[*].x", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, jsonOf(Get(rec, MustParse(tt.path))))
		})
	}
}

func TestSet_Plain(t *testing.T) {
	root := value.NewMap()

	Set(root, MustParse("profile.name.first"), value.String("Ada"))
	Set(root, MustParse("profile.age"), value.Int(36))
	Set(root, MustParse("list[2]"), value.Bool(true))
	Set(root, MustParse("list[0].k"), value.String("v"))

	assert.Equal(t,
		`{"profile":{"name":{"first":"Ada"},"age":36},"list":[{"k":"v"},null,true]}`,
		jsonOf(value.FromMap(root)))
}

func TestSet_NegativeIndex(t *testing.T) {
	root := value.NewMap()

	Set(root, MustParse("absent[-1]"), value.Int(1))
	assert.Equal(t, `{}`, jsonOf(value.FromMap(root)))

	Set(root, MustParse("arr[1]"), value.Int(1))
	Set(root, MustParse("arr[-2]"), value.Int(0))
	assert.Equal(t, `{"arr":[0,1]}`, jsonOf(value.FromMap(root)))
}

func TestSet_CopiesContainers(t *testing.T) {
	src := mustJSON(t, `{"a": {"b": 1}}`)
	root := value.NewMap()

	Set(root, MustParse("copy"), Get(src, MustParse("a")))
	Set(root, MustParse("copy.b"), value.Int(2))

	assert.Equal(t, `{"a":{"b":1}}`, jsonOf(src))
	assert.Equal(t, `{"copy":{"b":2}}`, jsonOf(value.FromMap(root)))
}

func TestSet_WildcardProjectsSequence(t *testing.T) {
	root := value.NewMap()

	Set(root, MustParse("out[*].q"), value.SeqOf(value.Int(2), value.Int(3)))
	Set(root, MustParse("out[*].name"), value.Strings("a", "b", "c"))

	assert.Equal(t,
		`{"out":[{"q":2,"name":"a"},{"q":3,"name":"b"},{"name":"c"}]}`,
		jsonOf(value.FromMap(root)))
}

func TestSet_WildcardAppendsScalar(t *testing.T) {
	root := value.NewMap()

	Set(root, MustParse("events[*].kind"), value.String("a"))
	Set(root, MustParse("events[*].kind"), value.String("b"))
	Set(root, MustParse("flat[*]"), value.Int(1))
	Set(root, MustParse("flat[*]"), value.Int(2))

	assert.Equal(t,
		`{"events":[{"kind":"a"},{"kind":"b"}],"flat":[1,2]}`,
		jsonOf(value.FromMap(root)))
}

func TestSet_WildcardOverNonSequenceIsNoop(t *testing.T) {
	root := value.NewMap()
	root.Set("out", value.String("taken"))

	Set(root, MustParse("out[*].x"), value.Int(1))

	assert.Equal(t, `{"out":"taken"}`, jsonOf(value.FromMap(root)))
}

func TestRoundTripLaw(t *testing.T) {
	paths := []string{"a", "a.b.c", "list[0]", "list[3].x", "deep.list[1].y.z"}
	vals := []value.Value{
		value.Null,
		value.Int(1),
		value.Float(2.5),
		value.String("s"),
		value.Strings("x", "y"),
		mustJSON(t, `{"k": [1, {"n": null}]}`),
	}

	for _, ps := range paths {
		for _, v := range vals {
			p := MustParse(ps)
			root := value.NewMap()

			Set(root, p, v)

			got := Get(value.FromMap(root), p)
			assert.True(t, value.Equal(v, got), "%s <- %s got %s", ps, v, got)
		}
	}
}

func TestWildcardFanOutLaw(t *testing.T) {
	for n := range 5 {
		items := value.NewSeq()
		for i := range n {
			m := value.NewMap()
			m.Set("x", value.Int(int64(i)))
			items.Append(value.FromMap(m))
		}

		src := value.NewMap()
		src.Set("items", value.FromSeq(items))

		out := value.NewMap()
		Set(out, MustParse("out[*].y"), Get(value.FromMap(src), MustParse("items[*].x")))

		if n == 0 {
			arr, ok := out.Get("out")
			require.True(t, ok)
			assert.Equal(t, 0, arr.Len())

			continue
		}

		got := Get(value.FromMap(out), MustParse("out[*].y"))
		assert.Equal(t, n, got.Len())
		assert.True(t, value.Equal(Get(value.FromMap(src), MustParse("items[*].x")), got))
	}

	for _, src := range []string{`{}`, `{"items":"x"}`, `{"items":{"x":1}}`} {
		read := Get(mustJSON(t, src), MustParse("items[*].x"))
		assert.Equal(t, value.KindSeq, read.Kind(), src)
		assert.Equal(t, 0, read.Len(), src)

		out := value.NewMap()
		Set(out, MustParse("out[*].y"), read)
		assert.Equal(t, `{"out":[]}`, value.FromMap(out).String(), src)
	}

	assert.True(t, Get(value.FromMap(value.NewMap()), MustParse("items[*]")).IsNull())
}
