package value

import "strings"

// Equal reports deep equality. Ints and Floats compare numerically, so
// Int(1) equals Float(1). Maps compare without regard to key order.
func Equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		if a.kind == KindInt && b.kind == KindInt {
			return a.i == b.i
		}

		x, _ := a.Number()
		y, _ := b.Number()

		return x == y
	}

	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindSeq:
		if a.seq.Len() != b.seq.Len() {
			return false
		}

		for i, e := range a.seq.Elems() {
			if !Equal(e, b.seq.elems[i]) {
				return false
			}
		}

		return true
	case KindMap:
		if a.m.Len() != b.m.Len() {
			return false
		}

		for k, av := range a.m.All() {
			bv, ok := b.m.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// Compare orders two values. Numbers compare numerically, strings
// lexically and booleans false before true. The second result is false when
// the pair has no defined order (mixed kinds, nulls, containers).
func Compare(a, b Value) (int, bool) {
	if a.IsNumber() && b.IsNumber() {
		if a.kind == KindInt && b.kind == KindInt {
			return cmpOrdered(a.i, b.i), true
		}

		x, _ := a.Number()
		y, _ := b.Number()

		return cmpOrdered(x, y), true
	}

	if a.kind != b.kind {
		return 0, false
	}

	switch a.kind {
	case KindString:
		return strings.Compare(a.s, b.s), true
	case KindBool:
		switch {
		case a.b == b.b:
			return 0, true
		case !a.b:
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
