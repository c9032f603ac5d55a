package fieldpath

import "schemamap/value"

// Get resolves p against v. Missing keys, type mismatches and out of range
// indices yield Null. A wildcard over a sequence maps the remaining
// segments over every element; with no remaining segments it returns the
// sequence itself. A wildcard with remaining segments over anything else,
// or behind a missing base, yields an empty sequence.
func Get(v value.Value, p Path) value.Value {
	return get(v, p.Segments)
}

func get(cur value.Value, segs []Segment) value.Value {
	for i, s := range segs {
		switch s.Kind {
		case SegmentField:
			m, ok := cur.AsMap()
			if !ok {
				return missing(segs[i:])
			}

			cur, _ = m.Get(s.Name)
		case SegmentIndex:
			seq, ok := cur.AsSeq()
			if !ok {
				return missing(segs[i:])
			}

			cur = seq.At(s.Index)
		case SegmentWildcard:
			seq, ok := cur.AsSeq()
			if !ok {
				return missing(segs[i:])
			}

			rest := segs[i+1:]
			if len(rest) == 0 {
				return cur
			}

			out := value.NewSeq()
			for _, e := range seq.Elems() {
				out.Append(get(e, rest))
			}

			return value.FromSeq(out)
		}
	}

	return cur
}

// missing is the result of a read that stops before segs.
func missing(segs []Segment) value.Value {
	for i, s := range segs {
		if s.Kind == SegmentWildcard && i < len(segs)-1 {
			return value.FromSeq(value.NewSeq())
		}
	}

	return value.Null
}

// Set writes v into root at p. Containers are copied before they are
// stored, so later writes never alias the source record.
//
// For a wildcard path a sequence value is projected element by element
// into the target array (growing it with empty maps as needed), while any
// other value appends one new element. The asymmetry lets scalar writes
// accumulate one element per mapping while array writes project a whole
// array at once.
func Set(root *value.Map, p Path, v value.Value) {
	if len(p.Segments) == 0 || root == nil {
		return
	}

	if w := p.WildcardIndex(); w >= 0 {
		setWildcard(root, p.Segments[:w], p.Segments[w+1:], v)
		return
	}

	setPlain(root, p.Segments, v.Clone())
}

func setPlain(root *value.Map, segs []Segment, v value.Value) {
	if negativeOutOfRange(value.FromMap(root), segs) {
		return
	}

	cur := value.FromMap(root)

	for i, s := range segs[:len(segs)-1] {
		next, ok := descend(cur, s, segs[i+1].Kind != SegmentField)
		if !ok {
			return
		}

		cur = next
	}

	put(cur, segs[len(segs)-1], v)
}

func setWildcard(root *value.Map, before, after []Segment, v value.Value) {
	if len(before) == 0 || negativeOutOfRange(value.FromMap(root), before) {
		return
	}

	cur := value.FromMap(root)

	for i, s := range before {
		wantSeq := i == len(before)-1 || before[i+1].Kind != SegmentField

		next, ok := descend(cur, s, wantSeq)
		if !ok {
			return
		}

		cur = next
	}

	arr, ok := cur.AsSeq()
	if !ok {
		return
	}

	vs, ok := v.AsSeq()
	if !ok {
		if len(after) == 0 {
			arr.Append(v.Clone())
			return
		}

		m := value.NewMap()
		setPlain(m, after, v.Clone())
		arr.Append(value.FromMap(m))

		return
	}

	for arr.Len() < vs.Len() {
		arr.Append(value.FromMap(value.NewMap()))
	}

	for i, e := range vs.Elems() {
		if len(after) == 0 {
			arr.Set(i, e.Clone())
			continue
		}

		m, ok := arr.At(i).AsMap()
		if !ok {
			m = value.NewMap()
			arr.Set(i, value.FromMap(m))
		}

		setPlain(m, after, e.Clone())
	}
}

// descend returns the container stored under s in cur, creating it when
// needed. A missing map replaces whatever was there; a missing sequence is
// only created over Null, so existing values are never turned into arrays.
func descend(cur value.Value, s Segment, wantSeq bool) (value.Value, bool) {
	next := at(cur, s)

	if wantSeq {
		if next.Kind() == value.KindSeq {
			return next, true
		}

		if !next.IsNull() {
			// Existing non-sequence values are never replaced by an array.
			return value.Null, false
		}

		next = value.FromSeq(value.NewSeq())
	} else {
		if next.Kind() == value.KindMap {
			return next, true
		}

		next = value.FromMap(value.NewMap())
	}

	if !put(cur, s, next) {
		return value.Null, false
	}

	return next, true
}

func at(cur value.Value, s Segment) value.Value {
	switch s.Kind {
	case SegmentField:
		if m, ok := cur.AsMap(); ok {
			v, _ := m.Get(s.Name)
			return v
		}
	case SegmentIndex:
		if seq, ok := cur.AsSeq(); ok {
			return seq.At(s.Index)
		}
	case SegmentWildcard:
	}

	return value.Null
}

func put(cur value.Value, s Segment, v value.Value) bool {
	switch s.Kind {
	case SegmentField:
		m, ok := cur.AsMap()
		if !ok {
			return false
		}

		m.Set(s.Name, v)

		return true
	case SegmentIndex:
		seq, ok := cur.AsSeq()
		if !ok {
			return false
		}

		i := s.Index
		if i < 0 {
			i += seq.Len()
			if i < 0 {
				return false
			}
		}

		for seq.Len() <= i {
			seq.Append(value.Null)
		}

		seq.Set(i, v)

		return true
	default:
		return false
	}
}

// negativeOutOfRange reports whether a negative index in segs points before
// the start of the sequence it addresses (or into a sequence that does not
// exist yet). Such writes are dropped without touching the record.
func negativeOutOfRange(cur value.Value, segs []Segment) bool {
	for _, s := range segs {
		if s.Kind == SegmentIndex && s.Index < 0 {
			seq, ok := cur.AsSeq()
			if !ok || seq.Len() < -s.Index {
				return true
			}
		}

		cur = at(cur, s)
	}

	return false
}
