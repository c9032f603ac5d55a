// Package value defines the record model shared by every SchemaMap component.
//
// A Value is a closed tagged union over the shapes a decoded JSON-like record
// can take: null, boolean, integer, float, string, an ordered sequence and a
// string-keyed map that remembers insertion order. Sequences and maps are
// held by pointer so the path engine can extend them in place; every other
// operation treats values as immutable.
package value

//go:generate go tool stringer -type=Kind -trimprefix=Kind -output=kind_string.go

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSeq
	KindMap
)

// Value is one record value. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	seq  *Seq
	m    *Map
}

// Null is the absent / null value.
var Null = Value{}

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// FromSeq wraps a sequence. A nil sequence yields Null.
func FromSeq(s *Seq) Value {
	if s == nil {
		return Null
	}

	return Value{kind: KindSeq, seq: s}
}

// FromMap wraps a map. A nil map yields Null.
func FromMap(m *Map) Value {
	if m == nil {
		return Null
	}

	return Value{kind: KindMap, m: m}
}

// SeqOf builds a sequence Value from the given elements.
func SeqOf(elems ...Value) Value {
	return FromSeq(NewSeq(elems...))
}

// Strings builds a sequence of string Values.
func Strings(items ...string) Value {
	s := NewSeq()
	for _, it := range items {
		s.Append(String(it))
	}

	return FromSeq(s)
}

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumber reports whether v is an Int or a Float.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// IsContainer reports whether v is a Seq or a Map.
func (v Value) IsContainer() bool { return v.kind == KindSeq || v.kind == KindMap }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer held by v.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float held by v.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsSeq returns the sequence held by v.
func (v Value) AsSeq() (*Seq, bool) { return v.seq, v.kind == KindSeq }

// AsMap returns the map held by v.
func (v Value) AsMap() (*Map, bool) { return v.m, v.kind == KindMap }

// Number returns the numeric value of an Int or Float as float64.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Clone returns a deep copy of v. Scalars are returned as is.
func (v Value) Clone() Value {
	switch v.kind {
	case KindSeq:
		return FromSeq(v.seq.Clone())
	case KindMap:
		return FromMap(v.m.Clone())
	default:
		return v
	}
}

// Len returns the number of elements of a Seq, entries of a Map, or bytes of
// a String. Other kinds report zero.
func (v Value) Len() int {
	switch v.kind {
	case KindSeq:
		return v.seq.Len()
	case KindMap:
		return v.m.Len()
	case KindString:
		return len(v.s)
	default:
		return 0
	}
}
