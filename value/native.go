package value

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"time"
)

// FromNative converts a plain Go value into a Value. Maps with string keys
// become Maps with their keys sorted (Go maps carry no order), slices become
// Seqs. Unsupported types are rendered with fmt and stored as strings.
func FromNative(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null
	case Value:
		return t
	case *Seq:
		return FromSeq(t)
	case *Map:
		return FromMap(t)
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint:
		if uint64(t) > math.MaxInt64 {
			return Float(float64(t))
		}

		return Int(int64(t))
	case uint64:
		if t > math.MaxInt64 {
			return Float(float64(t))
		}

		return Int(int64(t))
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case json.Number:
		return numberFromText(string(t))
	case time.Time:
		return String(t.Format(time.RFC3339Nano))
	case []any:
		s := NewSeq()
		for _, e := range t {
			s.Append(FromNative(e))
		}

		return FromSeq(s)
	case []string:
		return Strings(t...)
	case map[string]any:
		m := NewMap()
		for _, k := range sortedKeys(t) {
			m.Set(k, FromNative(t[k]))
		}

		return FromMap(m)
	case map[string]string:
		m := NewMap()
		for _, k := range sortedKeys(t) {
			m.Set(k, String(t[k]))
		}

		return FromMap(m)
	}

	return fromReflect(reflect.ValueOf(x))
}

func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null
		}

		return FromNative(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		s := NewSeq()
		for i := range rv.Len() {
			s.Append(FromNative(rv.Index(i).Interface()))
		}

		return FromSeq(s)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}

		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}

		slices.Sort(keys)

		m := NewMap()
		for _, k := range keys {
			m.Set(k, FromNative(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()))
		}

		return FromMap(m)
	default:
	}

	return String(fmt.Sprint(rv.Interface()))
}

// ToNative converts v into plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any.
func ToNative(v Value) any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindSeq:
		out := make([]any, 0, v.seq.Len())
		for _, e := range v.seq.Elems() {
			out = append(out, ToNative(e))
		}

		return out
	case KindMap:
		out := make(map[string]any, v.m.Len())
		for k, e := range v.m.All() {
			out[k] = ToNative(e)
		}

		return out
	default:
		return nil
	}
}

func numberFromText(s string) Value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return String(s)
	}

	return Float(f)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
