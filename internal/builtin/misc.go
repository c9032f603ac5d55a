package builtin

import (
	"slices"
	"strings"

	"schemamap/value"
)

func applyObject(k Kind, v value.Value, args []value.Value) value.Value {
	m, ok := v.AsMap()
	if !ok {
		return value.FromMap(value.NewMap())
	}

	keys := make([]string, 0, len(args))
	for _, a := range args {
		keys = append(keys, a.Text())
	}

	out := value.NewMap()

	if k == Pick {
		for _, key := range keys {
			if got, ok := m.Get(key); ok {
				out.Set(key, got)
			}
		}

		return value.FromMap(out)
	}

	for key, got := range m.All() {
		if !slices.Contains(keys, key) {
			out.Set(key, got)
		}
	}

	return value.FromMap(out)
}

func applyConditional(k Kind, v value.Value, args []value.Value, env *Env) value.Value {
	switch k {
	case Optional, Required:
		return v
	case When:
		if len(args) != 2 {
			return v
		}

		if value.Equal(v, args[0]) {
			env.matched = true
			return args[1]
		}

		return v
	}

	if len(args) != 1 {
		return v
	}

	switch k {
	case Else:
		if !env.matched {
			return args[0]
		}

		env.matched = false

		return v
	case IfEmpty:
		if isEmpty(v) {
			return args[0]
		}

		return v
	default:
		if v.IsNull() {
			return args[0]
		}

		return v
	}
}

func isEmpty(v value.Value) bool {
	switch {
	case v.IsNull():
		return true
	case v.IsContainer():
		return v.Len() == 0
	}

	s, ok := v.AsString()

	return ok && strings.TrimSpace(s) == ""
}

// lookup maps v through the table named by the first argument. A miss, an
// unknown table or a container input returns v unchanged. When the hit is a
// map and a second argument names one of its fields, that field is returned.
func lookup(v value.Value, args []value.Value, env *Env) value.Value {
	if len(args) < 1 || len(args) > 2 {
		return v
	}

	if v.IsNull() {
		return value.Null
	}

	table, ok := env.Tables[strings.TrimPrefix(args[0].Text(), "@")]
	if !ok || table == nil || v.IsContainer() {
		return v
	}

	got, ok := table.Get(v.Text())
	if !ok {
		return v
	}

	if field, ok := argString(args, 1); ok {
		if m, isMap := got.AsMap(); isMap {
			if inner, has := m.Get(field); has {
				return inner
			}
		}
	}

	return got
}

// validators are matched case-insensitively against the whole text.
var validators = map[string]string{
	"email":  `^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`,
	"url":    `^https?://[^\s]+$`,
	"uuid":   `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`,
	"phone":  `^\+?[\d\s\-().]+$`,
	"zip_us": `^\d{5}(-\d{4})?$`,
}

// ValidatorNames lists the kinds validate(kind) accepts.
func ValidatorNames() []string {
	names := make([]string, 0, len(validators))
	for name := range validators {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func applyValidation(k Kind, v value.Value, args []value.Value) value.Value {
	switch k {
	case Matches:
		pattern, ok := argString(args, 0)
		if !ok || len(args) != 1 {
			return v
		}

		if v.IsNull() {
			return value.Bool(false)
		}

		re, err := compileRegex("^(?:" + pattern + ")")
		if err != nil {
			return v
		}

		return value.Bool(re.MatchString(v.Text()))
	case In, NotIn:
		items := args
		if len(args) == 1 {
			if seq, ok := args[0].AsSeq(); ok {
				items = seq.Elems()
			}
		}

		found := slices.ContainsFunc(items, func(item value.Value) bool { return value.Equal(v, item) })

		return value.Bool(found == (k == In))
	default:
		kind, ok := argString(args, 0)
		if !ok || len(args) != 1 {
			return v
		}

		pattern, known := validators[kind]
		if !known || v.IsNull() {
			return v
		}

		re, err := compileRegex("(?i)" + pattern)
		if err != nil || !re.MatchString(v.Text()) {
			return value.Null
		}

		return v
	}
}

func applySpecial(k Kind, v value.Value, args []value.Value) value.Value {
	switch k {
	case Constant:
		if a, ok := arg(args, 0); ok {
			return a
		}

		return v
	case JSONParse:
		if v.IsNull() {
			return value.Null
		}

		parsed, err := value.DecodeJSON([]byte(v.Text()))
		if err != nil {
			return v
		}

		return parsed
	case JSONStringify:
		return value.String(string(value.AppendJSON(nil, v)))
	default:
		return v
	}
}
