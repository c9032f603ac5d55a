package expr

import (
	"math"
	"strconv"
	"strings"

	"schemamap/internal/builtin"
	"schemamap/internal/fieldpath"
	"schemamap/internal/registry"
	"schemamap/value"
)

// Env is what an expression is evaluated against.
type Env struct {
	// Record is the source record paths read from.
	Record value.Value
	// Funcs holds the external functions. It may be nil.
	Funcs *registry.Registry
	// Strict makes calls to names that are neither registered nor
	// aggregates fail instead of evaluating to Null.
	Strict bool
}

// Eval evaluates n. The only errors are failed external calls and, in
// strict mode, unknown functions; both are *registry.CallError.
func Eval(n Node, env Env) (value.Value, error) {
	switch t := n.(type) {
	case *Literal:
		return t.Value, nil
	case *PathRef:
		return fieldpath.Get(env.Record, t.Path), nil
	case *Neg:
		v, err := Eval(t.Operand, env)
		if err != nil {
			return value.Null, err
		}

		return Negate(v), nil
	case *Binary:
		left, err := Eval(t.Left, env)
		if err != nil {
			return value.Null, err
		}

		right, err := Eval(t.Right, env)
		if err != nil {
			return value.Null, err
		}

		return Arith(t.Op, left, right), nil
	case *Call:
		return evalCall(t, env)
	default:
		return value.Null, nil
	}
}

func evalCall(c *Call, env Env) (value.Value, error) {
	args := make([]value.Value, 0, len(c.Args))

	for _, a := range c.Args {
		v, err := Eval(a, env)
		if err != nil {
			return value.Null, err
		}

		args = append(args, v)
	}

	if env.Funcs.Has(c.Name) {
		return env.Funcs.Call(c.Name, args...)
	}

	if IsAggregate(c.Name) {
		var arg value.Value
		if len(args) > 0 {
			arg = args[0]
		}

		return Aggregate(c.Name, arg), nil
	}

	if env.Strict {
		return value.Null, &registry.CallError{Name: c.Name, Args: args, Err: registry.ErrUnknownFunction}
	}

	return value.Null, nil
}

// Number converts an arithmetic operand: numbers pass, numeric text is
// parsed, everything else fails.
func Number(v value.Value) (float64, bool) {
	if f, ok := v.Number(); ok {
		return f, true
	}

	if s, ok := v.AsString(); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}

	return 0, false
}

// Arith applies op in float64. Null or non-numeric operands and division
// by zero give Null.
func Arith(op Op, left, right value.Value) value.Value {
	x, ok1 := Number(left)
	y, ok2 := Number(right)

	if !ok1 || !ok2 {
		return value.Null
	}

	switch op {
	case OpAdd:
		return value.Float(x + y)
	case OpSub:
		return value.Float(x - y)
	case OpMul:
		return value.Float(x * y)
	default:
		if y == 0 {
			return value.Null
		}

		return value.Float(x / y)
	}
}

// Negate flips the sign of a number, keeping integers integral.
func Negate(v value.Value) value.Value {
	if i, ok := v.AsInt(); ok && i != math.MinInt64 {
		return value.Int(-i)
	}

	f, ok := Number(v)
	if !ok {
		return value.Null
	}

	return value.Float(-f)
}

// Aggregate evaluates one of the aggregate functions over v. Nulls inside a
// sequence are ignored.
func Aggregate(name string, v value.Value) value.Value {
	seq, isSeq := v.AsSeq()

	var present []value.Value

	if isSeq {
		for _, e := range seq.Elems() {
			if !e.IsNull() {
				present = append(present, e)
			}
		}
	}

	switch name {
	case "count":
		switch {
		case isSeq:
			return value.Int(int64(seq.Len()))
		case v.IsNull():
			return value.Int(0)
		default:
			return value.Int(1)
		}
	case "sum":
		if !isSeq {
			if !v.Truthy() {
				return value.Int(0)
			}

			return value.Float(builtin.Float(v))
		}

		return value.Float(sum(present))
	case "avg":
		if !isSeq || seq.Len() == 0 {
			return value.Int(0)
		}

		return value.Float(sum(present) / float64(seq.Len()))
	default:
		if !isSeq || seq.Len() == 0 {
			return v
		}

		return extreme(name == "max", present)
	}
}

func sum(vals []value.Value) float64 {
	var total float64
	for _, v := range vals {
		total += builtin.Float(v)
	}

	return total
}

// extreme returns the first smallest (or largest) element, or Null when the
// elements do not compare.
func extreme(largest bool, vals []value.Value) value.Value {
	if len(vals) == 0 {
		return value.Null
	}

	best := vals[0]

	for _, v := range vals[1:] {
		c, ok := value.Compare(v, best)
		if !ok {
			return value.Null
		}

		if (largest && c > 0) || (!largest && c < 0) {
			best = v
		}
	}

	return best
}
