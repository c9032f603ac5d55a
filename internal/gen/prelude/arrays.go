package prelude

import "slices"

func builtinFirst(v any, _ []any, _ *env) any {
	if seq, ok := v.([]any); ok && len(seq) > 0 {
		return seq[0]
	}

	return nil
}

func builtinLast(v any, _ []any, _ *env) any {
	if seq, ok := v.([]any); ok && len(seq) > 0 {
		return seq[len(seq)-1]
	}

	return nil
}

func builtinAt(v any, args []any, _ *env) any {
	seq, ok := v.([]any)
	if !ok || len(seq) == 0 {
		return nil
	}

	i, ok := argInt(args, 0)
	if !ok || i < -int64(len(seq)) || i >= int64(len(seq)) {
		return nil
	}

	return index(seq, int(i))
}

func builtinCount(v any, _ []any, _ *env) any {
	switch t := v.(type) {
	case []any:
		return int64(len(t))
	case nil:
		return int64(0)
	default:
		return int64(1)
	}
}

func builtinSum(v any, _ []any, _ *env) any {
	seq, ok := v.([]any)
	if !ok {
		return toFloat(v)
	}

	return total(seq)
}

func builtinAvg(v any, _ []any, _ *env) any {
	seq, ok := v.([]any)
	if !ok || len(seq) == 0 {
		return float64(0)
	}

	return total(seq) / float64(len(seq))
}

func total(seq []any) float64 {
	var sum float64
	for _, e := range seq {
		sum += toFloat(e)
	}

	return sum
}

func builtinUnwrap(v any, _ []any, _ *env) any {
	if seq, ok := v.([]any); ok && len(seq) == 1 {
		return seq[0]
	}

	return v
}

func builtinSkip(v any, args []any, _ *env) any {
	n, ok := argInt(args, 0)
	if !ok || len(args) != 1 {
		return v
	}

	seq, ok := v.([]any)
	if !ok {
		return []any{}
	}

	lo, hi := sliceBounds(len(seq), n, 0, false)

	return slices.Clone(seq[lo:hi])
}

// asSeq wraps a scalar into a one-element sequence; nil becomes empty.
func asSeq(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case nil:
		return []any{}
	default:
		return []any{v}
	}
}

func builtinWrap(v any, _ []any, _ *env) any {
	return slices.Clone(asSeq(v))
}

func builtinFlatten(v any, _ []any, _ *env) any {
	return flatten(make([]any, 0), asSeq(v))
}

func flatten(out, seq []any) []any {
	for _, e := range seq {
		if inner, ok := e.([]any); ok {
			out = flatten(out, inner)
			continue
		}

		out = append(out, e)
	}

	return out
}

func builtinDistinct(v any, _ []any, _ *env) any {
	out := make([]any, 0)

	for _, e := range asSeq(v) {
		if !slices.ContainsFunc(out, func(seen any) bool { return equal(seen, e) }) {
			out = append(out, e)
		}
	}

	return out
}

func builtinReverse(v any, _ []any, _ *env) any {
	elems := slices.Clone(asSeq(v))
	slices.Reverse(elems)

	return elems
}

func builtinTake(v any, args []any, _ *env) any {
	n, ok := argInt(args, 0)
	if !ok || len(args) != 1 {
		return v
	}

	seq := asSeq(v)
	_, hi := sliceBounds(len(seq), 0, n, true)

	return slices.Clone(seq[:hi])
}

func builtinSort(v any, args []any, _ *env) any {
	if len(args) > 2 {
		return v
	}

	key, hasKey := "", false

	if a, ok := arg(args, 0); ok && a != nil {
		if key, hasKey = a.(string); !hasKey {
			return v
		}
	}

	desc := false
	if a, ok := arg(args, 1); ok {
		desc = truthy(a)
	}

	sortKey := func(e any) any {
		if m, ok := e.(map[string]any); ok && hasKey {
			return m[key]
		}

		return e
	}

	ordered := true
	elems := slices.Clone(asSeq(v))

	slices.SortStableFunc(elems, func(a, b any) int {
		c, ok := compare(sortKey(a), sortKey(b))
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

	return elems
}
