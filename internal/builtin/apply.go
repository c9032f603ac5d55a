package builtin

import (
	"math"
	"strconv"
	"strings"

	"schemamap/value"
)

// Env carries what a chain of builtins shares: the lookup tables and the
// state linking when(...) to a later else(...). Use a fresh Env per chain.
type Env struct {
	// Tables maps lookup table names to their contents. It is read only.
	Tables map[string]*value.Map

	matched bool
}

// Apply runs builtin k on v. Arguments are already evaluated; a lookup
// table reference arrives as its name, with or without a leading '@'.
func Apply(k Kind, v value.Value, args []value.Value, env *Env) value.Value {
	if env == nil {
		env = &Env{}
	}

	if seq, ok := v.AsSeq(); ok && !k.ArrayAware() {
		out := value.NewSeq()
		for _, e := range seq.Elems() {
			out.Append(Apply(k, e, args, env))
		}

		return value.FromSeq(out)
	}

	switch k.Category() {
	case CategoryString:
		return applyString(k, v, args)
	case CategoryNumeric, CategoryBoolean:
		return applyNumeric(k, v, args)
	case CategoryDate:
		return applyDate(k, v, args)
	case CategoryArray:
		return applyArray(k, v, args)
	case CategoryObject:
		return applyObject(k, v, args)
	case CategoryConditional:
		return applyConditional(k, v, args, env)
	case CategoryLookup:
		return lookup(v, args, env)
	case CategoryValidation:
		return applyValidation(k, v, args)
	default:
		return applySpecial(k, v, args)
	}
}

// arg returns args[i] when present.
func arg(args []value.Value, i int) (value.Value, bool) {
	if i < len(args) {
		return args[i], true
	}

	return value.Null, false
}

// argString returns args[i] when it is a string.
func argString(args []value.Value, i int) (string, bool) {
	a, _ := arg(args, i)
	return a.AsString()
}

// argStringOr returns args[i] as a string, def when absent, and false when
// present but not a string.
func argStringOr(args []value.Value, i int, def string) (string, bool) {
	if i >= len(args) {
		return def, true
	}

	return args[i].AsString()
}

// argInt returns args[i] when it is an integer or an integral float.
func argInt(args []value.Value, i int) (int64, bool) {
	a, _ := arg(args, i)

	if n, ok := a.AsInt(); ok {
		return n, true
	}

	if f, ok := a.AsFloat(); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int64(f), true
	}

	return 0, false
}

// argIntOr is argInt with a default for an absent argument.
func argIntOr(args []value.Value, i int, def int64) (int64, bool) {
	if i >= len(args) {
		return def, true
	}

	return argInt(args, i)
}

// argNumber returns args[i] when it is numeric.
func argNumber(args []value.Value, i int) (float64, bool) {
	a, _ := arg(args, i)
	return a.Number()
}

// Float converts v the way to_float does: numbers convert, text is parsed
// after trimming, anything else is 0.
func Float(v value.Value) float64 {
	if f, ok := v.Number(); ok {
		return f
	}

	if s, ok := v.AsString(); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil {
			return f
		}
	}

	return 0
}

// Int converts v the way to_int does: text is parsed as a float and
// truncated toward zero; failures are 0.
func Int(v value.Value) int64 {
	if i, ok := v.AsInt(); ok {
		return i
	}

	f := Float(v)
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= 1<<63 || f < -(1<<63) {
		return 0
	}

	return int64(f)
}

// Bool converts v the way to_bool does: true iff the trimmed, upper-cased
// text is Y, YES, TRUE, 1 or T.
func Bool(v value.Value) bool {
	switch strings.ToUpper(strings.TrimSpace(v.Text())) {
	case "Y", "YES", "TRUE", "1", "T":
		return true
	default:
		return false
	}
}

// sliceBounds clamps [start:end] against a length the way slice
// expressions with negative, end-relative indices do.
func sliceBounds(n int, start, end int64, hasEnd bool) (int, int) {
	clamp := func(i int64) int {
		if i < 0 {
			i += int64(n)
			if i < 0 {
				i = 0
			}
		}

		if i > int64(n) {
			i = int64(n)
		}

		return int(i)
	}

	lo, hi := clamp(start), n
	if hasEnd {
		hi = clamp(end)
	}

	if hi < lo {
		hi = lo
	}

	return lo, hi
}
