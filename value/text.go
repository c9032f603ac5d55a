package value

import (
	"math"
	"strconv"
	"strings"
)

// Text renders v the way string coercion sees it: Null is empty, booleans
// are "true"/"false", floats always carry a fractional part or an exponent
// ("3.0", "1e+16") and containers render as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return FormatFloat(v.f)
	case KindString:
		return v.s
	default:
		return string(AppendJSON(nil, v))
	}
}

// String implements fmt.Stringer with a JSON-like rendering; strings are
// quoted so the result is unambiguous in diagnostics.
func (v Value) String() string {
	return string(AppendJSON(nil, v))
}

// FormatFloat renders f with the shortest representation that round-trips,
// switching to exponent form for very large or very small magnitudes.
func FormatFloat(f float64) string {
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

// Truthy reports whether v counts as set: not Null, not an empty string,
// not an empty container, not false and not zero.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	default:
		return v.Len() > 0
	}
}
