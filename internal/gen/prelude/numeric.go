package prelude

import (
	"math"
	"strconv"
)

func builtinToInt(v any, _ []any, _ *env) any { return toInt(v) }

func builtinToFloat(v any, _ []any, _ *env) any { return toFloat(v) }

func builtinToBool(v any, _ []any, _ *env) any { return toBool(v) }

func builtinNegate(v any, _ []any, _ *env) any { return !toBool(v) }

func builtinFloor(v any, _ []any, _ *env) any { return truncInt(math.Floor(toFloat(v))) }

func builtinCeil(v any, _ []any, _ *env) any { return truncInt(math.Ceil(toFloat(v))) }

func builtinAbs(v any, _ []any, _ *env) any { return math.Abs(toFloat(v)) }

func builtinToDecimal(v any, args []any, _ *env) any { return round(v, args, 2) }

func builtinRound(v any, args []any, _ *env) any { return round(v, args, 0) }

func round(v any, args []any, def int64) any {
	places, ok := argIntOr(args, 0, def)
	if !ok || len(args) > 1 {
		return v
	}

	return roundHalfEven(toFloat(v), int(places))
}

func roundHalfEven(f float64, places int) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}

	if places < 0 {
		p := math.Pow10(-places)
		return math.RoundToEven(f/p) * p
	}

	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', places, 64), 64)
	if err != nil {
		return f
	}

	return r
}

func builtinMultiply(v any, args []any, _ *env) any {
	return arithmetic(v, args, func(x, n float64) float64 { return x * n })
}

func builtinAdd(v any, args []any, _ *env) any {
	return arithmetic(v, args, func(x, n float64) float64 { return x + n })
}

func builtinSubtract(v any, args []any, _ *env) any {
	return arithmetic(v, args, func(x, n float64) float64 { return x - n })
}

func builtinDivide(v any, args []any, _ *env) any {
	return arithmetic(v, args, func(x, n float64) float64 {
		if n == 0 {
			return 0
		}

		return x / n
	})
}

func arithmetic(v any, args []any, op func(x, n float64) float64) any {
	if len(args) != 1 {
		return v
	}

	n, ok := argNumber(args, 0)
	if !ok {
		return v
	}

	return op(toFloat(v), n)
}

func builtinMin(v any, args []any, _ *env) any {
	return bound(v, args, func(x, b float64) bool { return x >= b })
}

func builtinMax(v any, args []any, _ *env) any {
	return bound(v, args, func(x, b float64) bool { return x <= b })
}

func bound(v any, args []any, keep func(x, b float64) bool) any {
	if len(args) != 1 {
		return v
	}

	b, ok := argNumber(args, 0)
	if !ok {
		return v
	}

	if x := toFloat(v); keep(x, b) {
		return x
	}

	return args[0]
}

func builtinClamp(v any, args []any, _ *env) any {
	if len(args) != 2 {
		return v
	}

	lo, ok1 := argNumber(args, 0)
	hi, ok2 := argNumber(args, 1)

	if !ok1 || !ok2 {
		return v
	}

	x := toFloat(v)

	switch {
	case x > hi:
		if lo >= hi {
			return args[0]
		}

		return args[1]
	case lo >= x:
		return args[0]
	default:
		return x
	}
}
