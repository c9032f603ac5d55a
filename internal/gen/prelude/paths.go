package prelude

const (
	segField = iota
	segIndex
	segWildcard
)

// pathSeg is one step of a field path: a map key, a sequence index
// (negative counts from the end) or the [*] wildcard.
type pathSeg struct {
	kind  int
	name  string
	index int
}

type fieldPath []pathSeg

func (p fieldPath) wildcardIndex() int {
	for i, s := range p {
		if s.kind == segWildcard {
			return i
		}
	}

	return -1
}

// getPath reads p from v. Anything that cannot be resolved is nil, except
// a wildcard with more path after it, which reads as an empty slice. A
// wildcard maps the rest of the path over every element.
func getPath(v any, p fieldPath) any {
	cur := v

	for i, s := range p {
		switch s.kind {
		case segField:
			m, ok := cur.(map[string]any)
			if !ok {
				return missingPath(p[i:])
			}

			cur = m[s.name]
		case segIndex:
			seq, ok := cur.([]any)
			if !ok {
				return missingPath(p[i:])
			}

			cur = index(seq, s.index)
		default:
			seq, ok := cur.([]any)
			if !ok {
				return missingPath(p[i:])
			}

			rest := p[i+1:]
			if len(rest) == 0 {
				return cur
			}

			out := make([]any, 0, len(seq))
			for _, e := range seq {
				out = append(out, getPath(e, rest))
			}

			return out
		}
	}

	return cur
}

// missingPath is the result of a read that stops before p.
func missingPath(p fieldPath) any {
	for i, s := range p {
		if s.kind == segWildcard && i < len(p)-1 {
			return []any{}
		}
	}

	return nil
}

func index(seq []any, i int) any {
	if i < 0 {
		i += len(seq)
	}

	if i < 0 || i >= len(seq) {
		return nil
	}

	return seq[i]
}

// setPath writes v into root at p, copying containers first. Through a
// wildcard a sequence is projected element by element into the target
// array while any other value appends one element.
func setPath(root map[string]any, p fieldPath, v any) {
	if len(p) == 0 || root == nil {
		return
	}

	if w := p.wildcardIndex(); w >= 0 {
		setWildcard(root, p[:w], p[w+1:], v)
		return
	}

	setPlain(root, p, clone(v))
}

func setPlain(root map[string]any, p fieldPath, v any) {
	if negativeOutOfRange(root, p) {
		return
	}

	last := p[len(p)-1]

	modify(root, p[:len(p)-1], last.kind != segField, func(c any) (any, bool) {
		return put(c, last, v)
	})
}

func setWildcard(root map[string]any, before, after fieldPath, v any) {
	if len(before) == 0 || negativeOutOfRange(root, before) {
		return
	}

	modify(root, before, true, func(c any) (any, bool) {
		arr, _ := c.([]any)

		vs, ok := v.([]any)
		if !ok {
			if len(after) == 0 {
				return append(arr, clone(v)), true
			}

			m := map[string]any{}
			setPlain(m, after, clone(v))

			return append(arr, m), true
		}

		for len(arr) < len(vs) {
			arr = append(arr, map[string]any{})
		}

		for i, e := range vs {
			if len(after) == 0 {
				arr[i] = clone(e)
				continue
			}

			m, ok := arr[i].(map[string]any)
			if !ok {
				m = map[string]any{}
				arr[i] = m
			}

			setPlain(m, after, clone(e))
		}

		return arr, true
	})
}

// modify walks segs below cur, creating the containers it needs, and
// stores fn's result in place of the container the walk ends on. Existing
// non-sequence values are never turned into arrays.
func modify(cur any, segs fieldPath, leafSeq bool, fn func(any) (any, bool)) (any, bool) {
	if len(segs) == 0 {
		return fn(cur)
	}

	s := segs[0]

	wantSeq := leafSeq
	if len(segs) > 1 {
		wantSeq = segs[1].kind != segField
	}

	next := at(cur, s)

	if wantSeq {
		if _, ok := next.([]any); !ok {
			if next != nil {
				return cur, false
			}

			next = []any{}
		}
	} else if _, ok := next.(map[string]any); !ok {
		next = map[string]any{}
	}

	next, ok := modify(next, segs[1:], leafSeq, fn)
	if !ok {
		return cur, false
	}

	return put(cur, s, next)
}

func at(cur any, s pathSeg) any {
	switch s.kind {
	case segField:
		if m, ok := cur.(map[string]any); ok {
			return m[s.name]
		}
	case segIndex:
		if seq, ok := cur.([]any); ok {
			return index(seq, s.index)
		}
	}

	return nil
}

func put(cur any, s pathSeg, v any) (any, bool) {
	switch s.kind {
	case segField:
		m, ok := cur.(map[string]any)
		if !ok {
			return cur, false
		}

		m[s.name] = v

		return m, true
	case segIndex:
		seq, ok := cur.([]any)
		if !ok {
			return cur, false
		}

		i := s.index
		if i < 0 {
			i += len(seq)
			if i < 0 {
				return cur, false
			}
		}

		for len(seq) <= i {
			seq = append(seq, nil)
		}

		seq[i] = v

		return seq, true
	default:
		return cur, false
	}
}

func negativeOutOfRange(root map[string]any, p fieldPath) bool {
	var cur any = root

	for _, s := range p {
		if s.kind == segIndex && s.index < 0 {
			seq, ok := cur.([]any)
			if !ok || len(seq) < -s.index {
				return true
			}
		}

		cur = at(cur, s)
	}

	return false
}
