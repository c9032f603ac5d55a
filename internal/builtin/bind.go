package builtin

import "schemamap/value"

// Fn is a builtin bound ahead of time.
type Fn func(v value.Value, args []value.Value, env *Env) value.Value

// Bind returns the function implementing k, with the category dispatch
// already done. Unless k is array-aware the function maps over sequences
// element by element, like Apply.
func Bind(k Kind) Fn {
	fn := bindCategory(k)
	if k.ArrayAware() {
		return fn
	}

	var each Fn

	each = func(v value.Value, args []value.Value, env *Env) value.Value {
		seq, ok := v.AsSeq()
		if !ok {
			return fn(v, args, env)
		}

		out := value.NewSeq()
		for _, e := range seq.Elems() {
			out.Append(each(e, args, env))
		}

		return value.FromSeq(out)
	}

	return each
}

func bindCategory(k Kind) Fn {
	switch k.Category() {
	case CategoryString:
		return func(v value.Value, args []value.Value, _ *Env) value.Value { return applyString(k, v, args) }
	case CategoryNumeric, CategoryBoolean:
		return func(v value.Value, args []value.Value, _ *Env) value.Value { return applyNumeric(k, v, args) }
	case CategoryDate:
		return func(v value.Value, args []value.Value, _ *Env) value.Value { return applyDate(k, v, args) }
	case CategoryArray:
		return func(v value.Value, args []value.Value, _ *Env) value.Value { return applyArray(k, v, args) }
	case CategoryObject:
		return func(v value.Value, args []value.Value, _ *Env) value.Value { return applyObject(k, v, args) }
	case CategoryConditional:
		return func(v value.Value, args []value.Value, env *Env) value.Value {
			return applyConditional(k, v, args, env)
		}
	case CategoryLookup:
		return lookup
	case CategoryValidation:
		return func(v value.Value, args []value.Value, _ *Env) value.Value { return applyValidation(k, v, args) }
	default:
		return func(v value.Value, args []value.Value, _ *Env) value.Value { return applySpecial(k, v, args) }
	}
}
