package prelude

import (
	"slices"
	"strings"
)

func builtinPick(v any, args []any, _ *env) any {
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}

	out := make(map[string]any)

	for _, a := range args {
		key := text(a)
		if got, has := m[key]; has {
			out[key] = got
		}
	}

	return out
}

func builtinOmit(v any, args []any, _ *env) any {
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}

	keys := make([]string, 0, len(args))
	for _, a := range args {
		keys = append(keys, text(a))
	}

	out := make(map[string]any)

	for key, got := range m {
		if !slices.Contains(keys, key) {
			out[key] = got
		}
	}

	return out
}

func builtinOptional(v any, _ []any, _ *env) any { return v }

func builtinRequired(v any, _ []any, _ *env) any { return v }

func builtinRaw(v any, _ []any, _ *env) any { return v }

func builtinWhen(v any, args []any, e *env) any {
	if len(args) != 2 {
		return v
	}

	if equal(v, args[0]) {
		e.matched = true
		return args[1]
	}

	return v
}

func builtinElse(v any, args []any, e *env) any {
	if len(args) != 1 {
		return v
	}

	if !e.matched {
		return args[0]
	}

	e.matched = false

	return v
}

func builtinDefault(v any, args []any, e *env) any {
	return builtinIfNull(v, args, e)
}

func builtinIfNull(v any, args []any, _ *env) any {
	if len(args) != 1 {
		return v
	}

	if v == nil {
		return args[0]
	}

	return v
}

func builtinIfEmpty(v any, args []any, _ *env) any {
	if len(args) != 1 {
		return v
	}

	if isEmpty(v) {
		return args[0]
	}

	return v
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case []any, map[string]any:
		return length(t) == 0
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

func builtinLookup(v any, args []any, e *env) any {
	if len(args) < 1 || len(args) > 2 {
		return v
	}

	if v == nil {
		return nil
	}

	table, ok := e.tables[strings.TrimPrefix(text(args[0]), "@")]
	if !ok || table == nil || isContainer(v) {
		return v
	}

	got, ok := table[text(v)]
	if !ok {
		return v
	}

	if field, ok := argString(args, 1); ok {
		if m, isMap := got.(map[string]any); isMap {
			if inner, has := m[field]; has {
				return inner
			}
		}
	}

	return got
}

var validators = map[string]string{
	"email":  `^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`,
	"url":    `^https?://[^\s]+$`,
	"uuid":   `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`,
	"phone":  `^\+?[\d\s\-().]+$`,
	"zip_us": `^\d{5}(-\d{4})?$`,
}

func builtinMatches(v any, args []any, _ *env) any {
	pattern, ok := argString(args, 0)
	if !ok || len(args) != 1 {
		return v
	}

	if v == nil {
		return false
	}

	re, err := compileRegex("^(?:" + pattern + ")")
	if err != nil {
		return v
	}

	return re.MatchString(text(v))
}

func builtinIn(v any, args []any, _ *env) any {
	return contains(v, args)
}

func builtinNotIn(v any, args []any, _ *env) any {
	return !contains(v, args)
}

func contains(v any, args []any) bool {
	items := args
	if len(args) == 1 {
		if seq, ok := args[0].([]any); ok {
			items = seq
		}
	}

	return slices.ContainsFunc(items, func(item any) bool { return equal(v, item) })
}

func builtinValidate(v any, args []any, _ *env) any {
	kind, ok := argString(args, 0)
	if !ok || len(args) != 1 {
		return v
	}

	pattern, known := validators[kind]
	if !known || v == nil {
		return v
	}

	re, err := compileRegex("(?i)" + pattern)
	if err != nil || !re.MatchString(text(v)) {
		return nil
	}

	return v
}

func builtinConstant(v any, args []any, _ *env) any {
	if a, ok := arg(args, 0); ok {
		return a
	}

	return v
}

func builtinJsonParse(v any, _ []any, _ *env) any {
	if v == nil {
		return nil
	}

	parsed, err := decodeJSON([]byte(text(v)))
	if err != nil {
		return v
	}

	return parsed
}

func builtinJsonStringify(v any, _ []any, _ *env) any {
	return string(appendJSON(nil, v))
}
