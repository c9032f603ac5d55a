package builtin

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"schemamap/value"
)

const regexCacheSize = 256

// Patterns come from mapping files and repeat for every record.
var regexCache, _ = lru.New[string, *regexp.Regexp](regexCacheSize)

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

func applyString(k Kind, v value.Value, args []value.Value) value.Value {
	switch k {
	case Trim:
		return textOp(v, strings.TrimSpace)
	case Lowercase:
		return textOp(v, func(s string) string { return cases.Lower(language.Und).String(s) })
	case Uppercase:
		return textOp(v, func(s string) string { return cases.Upper(language.Und).String(s) })
	case Titlecase:
		return textOp(v, func(s string) string { return cases.Title(language.Und).String(s) })
	case Capitalize:
		return textOp(v, capitalize)
	case SentenceCase:
		return textOp(v, func(s string) string {
			return capitalizeFirst(cases.Lower(language.Und).String(s))
		})
	case CollapseSpaces:
		return textOp(v, func(s string) string { return strings.Join(strings.Fields(s), " ") })
	case ToString:
		return value.String(v.Text())
	case Replace:
		return replace(v, args)
	case RegexReplace:
		return regexReplace(v, args)
	case Substring:
		return substring(v, args)
	case Prefix, Suffix:
		return affix(k, v, args)
	case MaxLength:
		return maxLength(v, args)
	case MinLength, PadRight, PadLeft:
		return pad(k, v, args)
	case Split:
		return split(v, args)
	case Join:
		return join(v, args)
	case Mask:
		return mask(v, args)
	case Hash:
		return hash(v, args)
	case Template:
		return template(v, args)
	default:
		return v
	}
}

// textOp applies fn to the text of v; Null becomes "".
func textOp(v value.Value, fn func(string) string) value.Value {
	if v.IsNull() {
		return value.String("")
	}

	return value.String(fn(v.Text()))
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}

	return string(unicode.ToTitle(r)) + cases.Lower(language.Und).String(s[size:])
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}

func replace(v value.Value, args []value.Value) value.Value {
	if len(args) != 2 {
		return v
	}

	if v.IsNull() {
		return value.String("")
	}

	old, ok1 := argString(args, 0)
	repl, ok2 := argString(args, 1)

	if !ok1 || !ok2 {
		return v
	}

	return value.String(strings.ReplaceAll(v.Text(), old, repl))
}

func regexReplace(v value.Value, args []value.Value) value.Value {
	if len(args) != 2 {
		return v
	}

	if v.IsNull() {
		return value.String("")
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

	return value.String(re.ReplaceAllString(v.Text(), expandTemplate(repl)))
}

// expandTemplate rewrites a backslash replacement template (\1, \g<name>)
// into regexp's ${1} form, escaping literal dollars.
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

func substring(v value.Value, args []value.Value) value.Value {
	if len(args) < 1 || len(args) > 2 {
		return v
	}

	if v.IsNull() {
		return value.String("")
	}

	start, ok := argInt(args, 0)
	if !ok {
		return v
	}

	end, hasEnd := int64(0), false

	if a, present := arg(args, 1); present && !a.IsNull() {
		if end, ok = argInt(args, 1); !ok {
			return v
		}

		hasEnd = true
	}

	r := []rune(v.Text())
	lo, hi := sliceBounds(len(r), start, end, hasEnd)

	return value.String(string(r[lo:hi]))
}

func affix(k Kind, v value.Value, args []value.Value) value.Value {
	a, ok := arg(args, 0)
	if !ok || len(args) > 1 {
		return v
	}

	if v.IsNull() {
		return value.String(a.Text())
	}

	if k == Prefix {
		return value.String(a.Text() + v.Text())
	}

	return value.String(v.Text() + a.Text())
}

func maxLength(v value.Value, args []value.Value) value.Value {
	if len(args) != 1 {
		return v
	}

	n, ok := argInt(args, 0)
	if !ok {
		return v
	}

	r := []rune(v.Text())
	_, hi := sliceBounds(len(r), 0, n, true)

	return value.String(string(r[:hi]))
}

// pad implements min_length and pad_right (left-justify) and pad_left
// (right-justify). The fill must be a single character.
func pad(k Kind, v value.Value, args []value.Value) value.Value {
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

	if v.IsNull() && k != MinLength {
		return value.String("")
	}

	s := v.Text()

	missing := int(width) - utf8.RuneCountInString(s)
	if missing <= 0 {
		return value.String(s)
	}

	padding := strings.Repeat(fill, missing)
	if k == PadLeft {
		return value.String(padding + s)
	}

	return value.String(s + padding)
}

func split(v value.Value, args []value.Value) value.Value {
	if len(args) > 1 {
		return v
	}

	delim, ok := argStringOr(args, 0, ",")
	if !ok || delim == "" {
		return v
	}

	if v.IsNull() {
		return value.SeqOf()
	}

	return value.Strings(strings.Split(v.Text(), delim)...)
}

func join(v value.Value, args []value.Value) value.Value {
	if len(args) > 1 {
		return v
	}

	delim, ok := argStringOr(args, 0, ",")
	if !ok {
		return v
	}

	seq, isSeq := v.AsSeq()
	if !isSeq {
		return value.String(v.Text())
	}

	parts := make([]string, 0, seq.Len())
	for _, e := range seq.Elems() {
		parts = append(parts, e.Text())
	}

	return value.String(strings.Join(parts, delim))
}

func mask(v value.Value, args []value.Value) value.Value {
	visible, ok := argIntOr(args, 0, 4)
	if !ok || len(args) > 1 {
		return v
	}

	if v.IsNull() {
		return value.String("")
	}

	r := []rune(v.Text())
	if int64(len(r)) <= visible || visible <= 0 {
		return value.String(strings.Repeat("*", len(r)))
	}

	lo := len(r) - int(visible)

	return value.String(strings.Repeat("*", lo) + string(r[lo:]))
}

func hash(v value.Value, args []value.Value) value.Value {
	alg, ok := argStringOr(args, 0, "sha256")
	if !ok || len(args) > 1 {
		return v
	}

	if v.IsNull() {
		return value.String("")
	}

	data := []byte(v.Text())

	switch alg {
	case "md5":
		sum := md5.Sum(data)
		return value.String(hex.EncodeToString(sum[:]))
	case "sha1":
		sum := sha1.Sum(data)
		return value.String(hex.EncodeToString(sum[:]))
	default:
		sum := sha256.Sum256(data)
		return value.String(hex.EncodeToString(sum[:]))
	}
}

// template fills "{}" and "{N}" placeholders in fmt with the input followed
// by the remaining arguments; "{{" and "}}" are literal braces. A
// placeholder that cannot be filled returns fmt unchanged.
func template(v value.Value, args []value.Value) value.Value {
	format, ok := argString(args, 0)
	if !ok {
		return v
	}

	fields := append([]value.Value{v}, args[1:]...)

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
				return value.String(format)
			}

			name := format[i+1 : i+end]

			idx := auto
			if name == "" {
				auto++
			} else {
				n, err := strconv.Atoi(name)
				if err != nil {
					return value.String(format)
				}

				idx = n
			}

			if idx < 0 || idx >= len(fields) {
				return value.String(format)
			}

			b.WriteString(fields[idx].Text())
			i += end
		default:
			b.WriteByte(c)
		}
	}

	return value.String(b.String())
}
