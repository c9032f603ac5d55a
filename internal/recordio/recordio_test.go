package recordio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemamap/value"
)

func texts(records []value.Value) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.String())
	}

	return out
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.json":      JSON,
		"a.ndjson":    NDJSON,
		"a.jsonl.lz4": NDJSON,
		"a.YML":       YAML,
		"a.yaml.lz4":  YAML,
		"-":           JSON,
		"noext":       JSON,
	}

	for path, want := range tests {
		assert.Equal(t, want, DetectFormat(path), path)
	}

	assert.True(t, Compressed("x.json.lz4"))
	assert.False(t, Compressed("x.json"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSONL")
	require.NoError(t, err)
	assert.Equal(t, NDJSON, f)

	_, err = ParseFormat("xml")
	require.Error(t, err)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		in     string
		want   []string
		single bool
	}{
		{"json object", JSON, `{"b":1,"a":2}`, []string{`{"b":1,"a":2}`}, true},
		{"json array", JSON, `[{"a":1},{"a":2}]`, []string{`{"a":1}`, `{"a":2}`}, false},
		{"json concatenated", JSON, `{"a":1} {"a":2}`, []string{`{"a":1}`, `{"a":2}`}, false},
		{"ndjson", NDJSON, "{\"a\":1}\n{\"a\":[2]}\n", []string{`{"a":1}`, `{"a":[2]}`}, false},
		{"ndjson one line", NDJSON, "{\"a\":1}\n", []string{`{"a":1}`}, false},
		{"yaml docs", YAML, "a: 1\n---\na: x\n", []string{`{"a":1}`, `{"a":"x"}`}, false},
		{"yaml list", YAML, "- a: 1\n- a: 2\n", []string{`{"a":1}`, `{"a":2}`}, false},
		{"yaml one", YAML, "z: 1\na: 2\n", []string{`{"z":1,"a":2}`}, true},
		{"empty", JSON, "", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, single, err := Decode(strings.NewReader(tt.in), tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts(records))
			assert.Equal(t, tt.single, single)
		})
	}

	_, _, err := Decode(strings.NewReader(`{"a":`), JSON)
	require.ErrorContains(t, err, "record 0")

	_, _, err = Decode(strings.NewReader("a: [\n"), YAML)
	require.ErrorContains(t, err, "document 0")
}

func TestEncoder(t *testing.T) {
	records := []value.Value{
		value.FromNative(map[string]any{"a": 1}),
		value.FromNative(map[string]any{"b": []any{"x"}}),
	}

	tests := []struct {
		name   string
		enc    Encoder
		single bool
		in     []value.Value
		want   string
	}{
		{"json list", Encoder{Format: JSON}, false, records, "[{\"a\":1},{\"b\":[\"x\"]}]\n"},
		{"json single", Encoder{Format: JSON}, true, records[:1], "{\"a\":1}\n"},
		{"json pretty", Encoder{Format: JSON, Pretty: true}, true, records[:1], "{\n  \"a\": 1\n}\n"},
		{"ndjson", Encoder{Format: NDJSON}, false, records, "{\"a\":1}\n{\"b\":[\"x\"]}\n"},
		{"yaml", Encoder{Format: YAML}, false, records, "a: 1\n---\nb:\n  - x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.enc.Encode(&buf, tt.in, tt.single))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestFiles_RoundTripCompressed(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"out.ndjson.lz4", "out.json", "out.yaml.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			records := []value.Value{value.FromNative(map[string]any{"n": 1}), value.FromNative(map[string]any{"n": 2})}

			w, err := Create(path)
			require.NoError(t, err)
			require.NoError(t, Encoder{Format: DetectFormat(path)}.Encode(w, records, false))
			require.NoError(t, w.Close())

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			// lz4 frame magic number, little endian.
			assert.Equal(t, Compressed(path), bytes.HasPrefix(raw, []byte{0x04, 0x22, 0x4d, 0x18}))

			got, single, err := ReadFile(path)
			require.NoError(t, err)
			assert.False(t, single)
			assert.Equal(t, texts(records), texts(got))
		})
	}
}

func TestOpen_Missing(t *testing.T) {
	_, _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	rc, err := Open(Stdio)
	require.NoError(t, err)
	assert.Implements(t, (*io.Closer)(nil), rc)
}
