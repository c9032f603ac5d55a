// Package prelude is the runtime of generated transformers. Its files are
// copied verbatim, with the package clause rewritten, next to every
// generated transformer, so it must not import anything from this module.
//
// Values are plain Go values: nil, bool, int64, float64, string, []any and
// map[string]any. Maps carry no key order; wherever a map is rendered as
// text its keys are sorted.
package prelude

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// normalize converts a decoded Go value into the value model: every integer
// type becomes int64, float32 becomes float64, json.Number is parsed, and
// typed slices and maps become []any and map[string]any.
func normalize(x any) any {
	switch t := x.(type) {
	case nil, bool, int64, float64, string:
		return t
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint:
		if uint64(t) > math.MaxInt64 {
			return float64(t)
		}

		return int64(t)
	case uint64:
		if t > math.MaxInt64 {
			return float64(t)
		}

		return int64(t)
	case float32:
		return float64(t)
	case json.Number:
		return numberFromText(string(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}

		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}

		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = e
		}

		return out
	default:
		return fmt.Sprint(t)
	}
}

func numberFromText(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}

	return f
}

func isContainer(v any) bool {
	switch v.(type) {
	case []any, map[string]any:
		return true
	default:
		return false
	}
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

func length(v any) int {
	switch t := v.(type) {
	case []any:
		return len(t)
	case map[string]any:
		return len(t)
	case string:
		return len(t)
	default:
		return 0
	}
}

// text renders v the way string coercion sees it.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return formatFloat(t)
	case string:
		return t
	default:
		return string(appendJSON(nil, v))
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	return s
}

func appendJSON(dst []byte, v any) []byte {
	switch t := v.(type) {
	case nil:
		return append(dst, "null"...)
	case bool:
		return strconv.AppendBool(dst, t)
	case int64:
		return strconv.AppendInt(dst, t, 10)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return append(dst, "null"...)
		}

		return append(dst, formatFloat(t)...)
	case string:
		return appendJSONString(dst, t)
	case []any:
		dst = append(dst, '[')
		for i, e := range t {
			if i > 0 {
				dst = append(dst, ',')
			}

			dst = appendJSON(dst, e)
		}

		return append(dst, ']')
	case map[string]any:
		dst = append(dst, '{')
		for i, k := range sortedKeys(t) {
			if i > 0 {
				dst = append(dst, ',')
			}

			dst = appendJSONString(dst, k)
			dst = append(dst, ':')
			dst = appendJSON(dst, t[k])
		}

		return append(dst, '}')
	default:
		return append(dst, "null"...)
	}
}

const hexDigits = "0123456789abcdef"

func appendJSONString(dst []byte, s string) []byte {
	dst = append(dst, '"')

	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"' || c == '\\':
				dst = append(dst, '\\', c)
			case c == '\n':
				dst = append(dst, '\\', 'n')
			case c == '\r':
				dst = append(dst, '\\', 'r')
			case c == '\t':
				dst = append(dst, '\\', 't')
			case c < 0x20:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
			default:
				dst = append(dst, c)
			}

			i++

			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, `�`...)
		} else {
			dst = append(dst, s[i:i+size]...)
		}

		i += size
	}

	return append(dst, '"')
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// decodeJSON parses one JSON document into the value model.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var x any
	if err := dec.Decode(&x); err != nil {
		return nil, err
	}

	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}

	return normalize(x), nil
}

// equal is deep equality with ints and floats compared numerically.
func equal(a, b any) bool {
	if x, ok := number(a); ok {
		y, ok := number(b)
		if !ok {
			return false
		}

		ai, aInt := a.(int64)
		bi, bInt := b.(int64)

		if aInt && bInt {
			return ai == bi
		}

		return x == y
	}

	switch t := a.(type) {
	case nil:
		return b == nil
	case bool:
		u, ok := b.(bool)
		return ok && t == u
	case string:
		u, ok := b.(string)
		return ok && t == u
	case []any:
		u, ok := b.([]any)
		if !ok || len(t) != len(u) {
			return false
		}

		for i := range t {
			if !equal(t[i], u[i]) {
				return false
			}
		}

		return true
	case map[string]any:
		u, ok := b.(map[string]any)
		if !ok || len(t) != len(u) {
			return false
		}

		for k, av := range t {
			bv, has := u[k]
			if !has || !equal(av, bv) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// compare orders numbers, strings and booleans; ok is false for any other
// pair.
func compare(a, b any) (int, bool) {
	if x, ok := number(a); ok {
		y, ok := number(b)
		if !ok {
			return 0, false
		}

		ai, aInt := a.(int64)
		bi, bInt := b.(int64)

		if aInt && bInt {
			return cmpOrdered(ai, bi), true
		}

		return cmpOrdered(x, y), true
	}

	switch t := a.(type) {
	case string:
		u, ok := b.(string)
		if !ok {
			return 0, false
		}

		return strings.Compare(t, u), true
	case bool:
		u, ok := b.(bool)
		if !ok {
			return 0, false
		}

		switch {
		case t == u:
			return 0, true
		case !t:
			return -1, true
		default:
			return 1, true
		}
	default:
		return 0, false
	}
}

func cmpOrdered[T int64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return length(v) > 0
	}
}

// clone deep-copies containers.
func clone(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = clone(e)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = clone(e)
		}

		return out
	default:
		return v
	}
}

// omitNulls drops nil map entries and nil sequence elements, bottom up.
func omitNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))

		for k, e := range t {
			if e != nil {
				out[k] = omitNulls(e)
			}
		}

		return out
	case []any:
		out := make([]any, 0, len(t))

		for _, e := range t {
			if e != nil {
				out = append(out, omitNulls(e))
			}
		}

		return out
	default:
		return v
	}
}

func toFloat(v any) float64 {
	if f, ok := number(v); ok {
		return f
	}

	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil {
			return f
		}
	}

	return 0
}

func toInt(v any) int64 {
	if i, ok := v.(int64); ok {
		return i
	}

	return truncInt(toFloat(v))
}

func truncInt(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= 1<<63 || f < -(1<<63) {
		return 0
	}

	return int64(f)
}

func toBool(v any) bool {
	switch strings.ToUpper(strings.TrimSpace(text(v))) {
	case "Y", "YES", "TRUE", "1", "T":
		return true
	default:
		return false
	}
}
