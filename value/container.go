package value

import "iter"

// Seq is an ordered sequence of values.
type Seq struct {
	elems []Value
}

// NewSeq returns a sequence holding elems.
func NewSeq(elems ...Value) *Seq {
	s := &Seq{elems: make([]Value, 0, len(elems))}
	s.elems = append(s.elems, elems...)

	return s
}

// Len returns the number of elements.
func (s *Seq) Len() int {
	if s == nil {
		return 0
	}

	return len(s.elems)
}

// At returns the element at i, or Null when i is out of range.
// Negative indices count from the end.
func (s *Seq) At(i int) Value {
	n := s.Len()
	if i < 0 {
		i += n
	}

	if i < 0 || i >= n {
		return Null
	}

	return s.elems[i]
}

// Set overwrites the element at i. Out of range writes are ignored.
func (s *Seq) Set(i int, v Value) {
	if i >= 0 && i < len(s.elems) {
		s.elems[i] = v
	}
}

// Append adds values to the end of the sequence.
func (s *Seq) Append(vals ...Value) {
	s.elems = append(s.elems, vals...)
}

// Elems returns the backing slice. Callers must not modify it.
func (s *Seq) Elems() []Value {
	if s == nil {
		return nil
	}

	return s.elems
}

// All iterates over index/element pairs.
func (s *Seq) All() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		for i, v := range s.Elems() {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (s *Seq) Clone() *Seq {
	out := &Seq{elems: make([]Value, len(s.elems))}
	for i, v := range s.elems {
		out.elems[i] = v.Clone()
	}

	return out
}

// Map is a string-keyed map that preserves insertion order.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Null, false
	}

	v, ok := m.vals[key]

	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores v under key. An existing key keeps its position.
func (m *Map) Set(key string, v Value) {
	if m.vals == nil {
		m.vals = make(map[string]Value)
	}

	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.vals[key] = v
}

// Delete removes key.
func (m *Map) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}

	delete(m.vals, key)

	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}

	out := make([]string, len(m.keys))
	copy(out, m.keys)

	return out
}

// All iterates over entries in insertion order.
func (m *Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}

		for _, k := range m.keys {
			if !yield(k, m.vals[k]) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	out := &Map{
		keys: make([]string, len(m.keys)),
		vals: make(map[string]Value, len(m.vals)),
	}
	copy(out.keys, m.keys)

	for k, v := range m.vals {
		out.vals[k] = v.Clone()
	}

	return out
}
