package prelude

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// builtinFunc is the shape of every builtin transform.
type builtinFunc func(v any, args []any, e *env) any

// env is shared by the steps of one chain.
type env struct {
	tables  map[string]map[string]any
	matched bool
}

// mapElems applies fn to every element of a sequence, recursively, and to
// any other value directly.
func mapElems(fn builtinFunc, v any, args []any, e *env) any {
	seq, ok := v.([]any)
	if !ok {
		return fn(v, args, e)
	}

	out := make([]any, 0, len(seq))
	for _, el := range seq {
		out = append(out, mapElems(fn, el, args, e))
	}

	return out
}

func arg(args []any, i int) (any, bool) {
	if i < len(args) {
		return args[i], true
	}

	return nil, false
}

func argString(args []any, i int) (string, bool) {
	a, _ := arg(args, i)
	s, ok := a.(string)

	return s, ok
}

func argStringOr(args []any, i int, def string) (string, bool) {
	if i >= len(args) {
		return def, true
	}

	s, ok := args[i].(string)

	return s, ok
}

func argInt(args []any, i int) (int64, bool) {
	a, _ := arg(args, i)

	switch t := a.(type) {
	case int64:
		return t, true
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return int64(t), true
		}
	}

	return 0, false
}

func argIntOr(args []any, i int, def int64) (int64, bool) {
	if i >= len(args) {
		return def, true
	}

	return argInt(args, i)
}

func argNumber(args []any, i int) (float64, bool) {
	a, _ := arg(args, i)
	return number(a)
}

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

var regexCache, _ = lru.New[string, *regexp.Regexp](256)

func compileRegex(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Get(pattern); ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	regexCache.Add(pattern, re)

	return re, nil
}

func textOp(v any, fn func(string) string) any {
	if v == nil {
		return ""
	}

	return fn(text(v))
}

func builtinTrim(v any, _ []any, _ *env) any {
	return textOp(v, strings.TrimSpace)
}

func builtinLowercase(v any, _ []any, _ *env) any {
	return textOp(v, cases.Lower(language.Und).String)
}

func builtinUppercase(v any, _ []any, _ *env) any {
	return textOp(v, cases.Upper(language.Und).String)
}

func builtinTitlecase(v any, _ []any, _ *env) any {
	return textOp(v, cases.Title(language.Und).String)
}

func builtinCapitalize(v any, _ []any, _ *env) any {
	return textOp(v, func(s string) string {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 {
			return s
		}

		return string(unicode.ToTitle(r)) + cases.Lower(language.Und).String(s[size:])
	})
}

func builtinSentenceCase(v any, _ []any, _ *env) any {
	return textOp(v, func(s string) string {
		s = cases.Lower(language.Und).String(s)

		r, size := utf8.DecodeRuneInString(s)
		if size == 0 {
			return s
		}

		return string(unicode.ToUpper(r)) + s[size:]
	})
}

func builtinCollapseSpaces(v any, _ []any, _ *env) any {
	return textOp(v, func(s string) string { return strings.Join(strings.Fields(s), " ") })
}

func builtinToString(v any, _ []any, _ *env) any {
	return text(v)
}

func builtinReplace(v any, args []any, _ *env) any {
	if len(args) != 2 {
		return v
	}

	if v == nil {
		return ""
	}

	old, ok1 := argString(args, 0)
	repl, ok2 := argString(args, 1)

	if !ok1 || !ok2 {
		return v
	}

	return strings.ReplaceAll(text(v), old, repl)
}

func builtinRegexReplace(v any, args []any, _ *env) any {
	if len(args) != 2 {
		return v
	}

	if v == nil {
		return ""
	}

	pattern, ok1 := argString(args, 0)
	repl, ok2 := argString(args, 1)

	if !ok1 || !ok2 {
		return v
	}

	re, err := compileRegex(pattern)
	if err != nil {
		return v
	}

	return re.ReplaceAllString(text(v), expandTemplate(repl))
}

// expandTemplate turns \1 and \g<name> references into ${1} and ${name}.
func expandTemplate(repl string) string {
	var b strings.Builder

	for i := 0; i < len(repl); i++ {
		c := repl[i]

		switch {
		case c == '$':
			b.WriteString("$$")
		case c == '\\' && i+1 < len(repl) && repl[i+1] >= '0' && repl[i+1] <= '9':
			j := i + 1
			for j < len(repl) && repl[j] >= '0' && repl[j] <= '9' {
				j++
			}

			b.WriteString("${" + repl[i+1:j] + "}")
			i = j - 1
		case c == '\\' && strings.HasPrefix(repl[i+1:], "g<"):
			end := strings.IndexByte(repl[i:], '>')
			if end < 0 {
				b.WriteByte(c)
				continue
			}

			b.WriteString("${" + repl[i+3:i+end] + "}")
			i += end
		case c == '\\' && i+1 < len(repl):
			i++

			switch repl[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(repl[i])
			}
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

func builtinSubstring(v any, args []any, _ *env) any {
	if len(args) < 1 || len(args) > 2 {
		return v
	}

	if v == nil {
		return ""
	}

	start, ok := argInt(args, 0)
	if !ok {
		return v
	}

	end, hasEnd := int64(0), false

	if a, present := arg(args, 1); present && a != nil {
		if end, ok = argInt(args, 1); !ok {
			return v
		}

		hasEnd = true
	}

	r := []rune(text(v))
	lo, hi := sliceBounds(len(r), start, end, hasEnd)

	return string(r[lo:hi])
}

func builtinPrefix(v any, args []any, _ *env) any {
	a, ok := arg(args, 0)
	if !ok || len(args) > 1 {
		return v
	}

	if v == nil {
		return text(a)
	}

	return text(a) + text(v)
}

func builtinSuffix(v any, args []any, _ *env) any {
	a, ok := arg(args, 0)
	if !ok || len(args) > 1 {
		return v
	}

	if v == nil {
		return text(a)
	}

	return text(v) + text(a)
}

func builtinMaxLength(v any, args []any, _ *env) any {
	if len(args) != 1 {
		return v
	}

	n, ok := argInt(args, 0)
	if !ok {
		return v
	}

	r := []rune(text(v))
	_, hi := sliceBounds(len(r), 0, n, true)

	return string(r[:hi])
}

func builtinMinLength(v any, args []any, _ *env) any {
	return pad(v, args, false, true)
}

func builtinPadRight(v any, args []any, _ *env) any {
	return pad(v, args, false, false)
}

func builtinPadLeft(v any, args []any, _ *env) any {
	return pad(v, args, true, false)
}

func pad(v any, args []any, left, keepNull bool) any {
	if len(args) < 1 || len(args) > 2 {
		return v
	}

	width, ok := argInt(args, 0)
	if !ok {
		return v
	}

	fill, ok := argStringOr(args, 1, " ")
	if !ok || utf8.RuneCountInString(fill) != 1 {
		return v
	}

	if v == nil && !keepNull {
		return ""
	}

	s := text(v)

	missing := int(width) - utf8.RuneCountInString(s)
	if missing <= 0 {
		return s
	}

	padding := strings.Repeat(fill, missing)
	if left {
		return padding + s
	}

	return s + padding
}

func builtinSplit(v any, args []any, _ *env) any {
	if len(args) > 1 {
		return v
	}

	delim, ok := argStringOr(args, 0, ",")
	if !ok || delim == "" {
		return v
	}

	if v == nil {
		return []any{}
	}

	parts := strings.Split(text(v), delim)

	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}

	return out
}

func builtinJoin(v any, args []any, _ *env) any {
	if len(args) > 1 {
		return v
	}

	delim, ok := argStringOr(args, 0, ",")
	if !ok {
		return v
	}

	seq, isSeq := v.([]any)
	if !isSeq {
		return text(v)
	}

	parts := make([]string, 0, len(seq))
	for _, e := range seq {
		parts = append(parts, text(e))
	}

	return strings.Join(parts, delim)
}

func builtinMask(v any, args []any, _ *env) any {
	visible, ok := argIntOr(args, 0, 4)
	if !ok || len(args) > 1 {
		return v
	}

	if v == nil {
		return ""
	}

	r := []rune(text(v))
	if int64(len(r)) <= visible || visible <= 0 {
		return strings.Repeat("*", len(r))
	}

	lo := len(r) - int(visible)

	return strings.Repeat("*", lo) + string(r[lo:])
}

func builtinHash(v any, args []any, _ *env) any {
	alg, ok := argStringOr(args, 0, "sha256")
	if !ok || len(args) > 1 {
		return v
	}

	if v == nil {
		return ""
	}

	data := []byte(text(v))

	switch alg {
	case "md5":
		sum := md5.Sum(data)
		return hex.EncodeToString(sum[:])
	case "sha1":
		sum := sha1.Sum(data)
		return hex.EncodeToString(sum[:])
	default:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	}
}

func builtinTemplate(v any, args []any, _ *env) any {
	format, ok := argString(args, 0)
	if !ok {
		return v
	}

	fields := append([]any{v}, args[1:]...)

	var b strings.Builder

	auto := 0

	for i := 0; i < len(format); i++ {
		c := format[i]

		switch {
		case c == '{' && i+1 < len(format) && format[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(format) && format[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(format[i:], '}')
			if end < 0 {
				return format
			}

			name := format[i+1 : i+end]

			idx := auto
			if name == "" {
				auto++
			} else {
				n, err := strconv.Atoi(name)
				if err != nil {
					return format
				}

				idx = n
			}

			if idx < 0 || idx >= len(fields) {
				return format
			}

			b.WriteString(text(fields[idx]))
			i += end
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}
