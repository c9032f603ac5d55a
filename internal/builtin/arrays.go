package builtin

import (
	"slices"

	"schemamap/value"
)

func applyArray(k Kind, v value.Value, args []value.Value) value.Value {
	seq, isSeq := v.AsSeq()

	switch k {
	case First, Last, At:
		return element(k, seq, isSeq, args)
	case Count:
		switch {
		case isSeq:
			return value.Int(int64(seq.Len()))
		case v.IsNull():
			return value.Int(0)
		default:
			return value.Int(1)
		}
	case Sum:
		if !isSeq {
			return value.Float(Float(v))
		}

		return value.Float(total(seq))
	case Avg:
		if !isSeq || seq.Len() == 0 {
			return value.Float(0)
		}

		return value.Float(total(seq) / float64(seq.Len()))
	case Unwrap:
		if isSeq && seq.Len() == 1 {
			return seq.At(0)
		}

		return v
	case Skip:
		n, ok := argInt(args, 0)
		if !ok || len(args) != 1 {
			return v
		}

		if !isSeq {
			return value.SeqOf()
		}

		lo, hi := sliceBounds(seq.Len(), n, 0, false)

		return value.SeqOf(seq.Elems()[lo:hi]...)
	}

	if !isSeq {
		if v.IsNull() {
			return value.SeqOf()
		}

		seq = value.NewSeq(v)
	}

	switch k {
	case Flatten:
		out := value.NewSeq()
		flatten(out, seq)

		return value.FromSeq(out)
	case Distinct:
		return value.FromSeq(distinct(seq))
	case Sort:
		return sortSeq(v, seq, args)
	case Reverse:
		elems := slices.Clone(seq.Elems())
		slices.Reverse(elems)

		return value.SeqOf(elems...)
	case Take:
		n, ok := argInt(args, 0)
		if !ok || len(args) != 1 {
			return v
		}

		_, hi := sliceBounds(seq.Len(), 0, n, true)

		return value.SeqOf(seq.Elems()[:hi]...)
	default:
		return value.FromSeq(seq)
	}
}

func element(k Kind, seq *value.Seq, isSeq bool, args []value.Value) value.Value {
	if !isSeq || seq.Len() == 0 {
		return value.Null
	}

	switch k {
	case First:
		return seq.At(0)
	case Last:
		return seq.At(seq.Len() - 1)
	}

	i, ok := argInt(args, 0)
	if !ok || i < -int64(seq.Len()) || i >= int64(seq.Len()) {
		return value.Null
	}

	return seq.At(int(i))
}

func total(seq *value.Seq) float64 {
	var sum float64
	for _, e := range seq.Elems() {
		sum += Float(e)
	}

	return sum
}

func flatten(out, seq *value.Seq) {
	for _, e := range seq.Elems() {
		if inner, ok := e.AsSeq(); ok {
			flatten(out, inner)
			continue
		}

		out.Append(e)
	}
}

func distinct(seq *value.Seq) *value.Seq {
	out := value.NewSeq()

	for _, e := range seq.Elems() {
		if !slices.ContainsFunc(out.Elems(), func(seen value.Value) bool { return value.Equal(seen, e) }) {
			out.Append(e)
		}
	}

	return out
}

// sortSeq orders seq by value, or by a map key when one is given. Equal
// elements keep their order. A sequence holding values that do not compare
// (a string next to a number) comes back unchanged.
func sortSeq(v value.Value, seq *value.Seq, args []value.Value) value.Value {
	if len(args) > 2 {
		return v
	}

	key, hasKey := "", false

	if a, ok := arg(args, 0); ok && !a.IsNull() {
		if key, hasKey = a.AsString(); !hasKey {
			return v
		}
	}

	desc := false
	if a, ok := arg(args, 1); ok {
		desc = a.Truthy()
	}

	sortKey := func(e value.Value) value.Value {
		if m, ok := e.AsMap(); ok && hasKey {
			got, _ := m.Get(key)
			return got
		}

		return e
	}

	ordered := true
	elems := slices.Clone(seq.Elems())

	slices.SortStableFunc(elems, func(a, b value.Value) int {
		c, ok := value.Compare(sortKey(a), sortKey(b))
		if !ok {
			ordered = false
			return 0
		}

		if desc {
			return -c
		}

		return c
	})

	if !ordered {
		return v
	}

	return value.SeqOf(elems...)
}
