package builtin

import (
	"math"
	"strconv"

	"schemamap/value"
)

func applyNumeric(k Kind, v value.Value, args []value.Value) value.Value {
	switch k {
	case ToInt:
		return value.Int(Int(v))
	case ToFloat:
		return value.Float(Float(v))
	case ToBool:
		return value.Bool(Bool(v))
	case Negate:
		return value.Bool(!Bool(v))
	case Floor:
		return value.Int(truncInt(math.Floor(Float(v))))
	case Ceil:
		return value.Int(truncInt(math.Ceil(Float(v))))
	case Abs:
		return value.Float(math.Abs(Float(v)))
	case ToDecimal, Round:
		def := int64(0)
		if k == ToDecimal {
			def = 2
		}

		places, ok := argIntOr(args, 0, def)
		if !ok || len(args) > 1 {
			return v
		}

		return value.Float(RoundHalfEven(Float(v), int(places)))
	case Multiply, Add, Subtract, Divide:
		return arithmetic(k, v, args)
	case Min, Max:
		if len(args) != 1 {
			return v
		}

		bound, ok := argNumber(args, 0)
		if !ok {
			return v
		}

		x := Float(v)
		if (k == Min && x >= bound) || (k == Max && x <= bound) {
			return value.Float(x)
		}

		return args[0]
	case Clamp:
		if len(args) != 2 {
			return v
		}

		lo, ok1 := argNumber(args, 0)
		hi, ok2 := argNumber(args, 1)

		if !ok1 || !ok2 {
			return v
		}

		x := Float(v)

		switch {
		case x > hi:
			if lo >= hi {
				return args[0]
			}

			return args[1]
		case lo >= x:
			return args[0]
		default:
			return value.Float(x)
		}
	default:
		return v
	}
}

func arithmetic(k Kind, v value.Value, args []value.Value) value.Value {
	if len(args) != 1 {
		return v
	}

	n, ok := argNumber(args, 0)
	if !ok {
		return v
	}

	x := Float(v)

	switch k {
	case Multiply:
		return value.Float(x * n)
	case Add:
		return value.Float(x + n)
	case Subtract:
		return value.Float(x - n)
	default:
		if n == 0 {
			return value.Float(0)
		}

		return value.Float(x / n)
	}
}

func truncInt(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= 1<<63 || f < -(1<<63) {
		return 0
	}

	return int64(f)
}

// RoundHalfEven rounds f to places decimal digits. Ties are decided on the
// exact binary value and go to the even digit, so 2.5 rounds to 2 and 2.675
// (stored as 2.67499...) to 2.67. Negative places round to tens, hundreds
// and so on.
func RoundHalfEven(f float64, places int) float64 {
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
