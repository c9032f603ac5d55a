// Package builtin implements the fixed catalog of transforms a mapping
// chain can name.
//
// Every builtin is total: inapplicable input degrades to a safe default or
// passes through unchanged, and a call with the wrong arguments returns its
// input. A sequence input is processed element by element unless the
// builtin is array-aware.
package builtin

import "strings"

//go:generate go tool stringer -type=Kind -linecomment -output=kind_string.go

// Kind identifies a builtin transform. Its String form is the name used in
// mapping files.
type Kind uint8

const (
	// String.
	Trim           Kind = iota // trim
	Lowercase                  // lowercase
	Uppercase                  // uppercase
	Titlecase                  // titlecase
	Capitalize                 // capitalize
	SentenceCase               // sentence_case
	Replace                    // replace
	RegexReplace               // regex_replace
	Substring                  // substring
	Prefix                     // prefix
	Suffix                     // suffix
	MaxLength                  // max_length
	MinLength                  // min_length
	PadLeft                    // pad_left
	PadRight                   // pad_right
	Split                      // split
	Join                       // join
	CollapseSpaces             // collapse_spaces
	ToString                   // to_string
	Mask                       // mask
	Hash                       // hash
	Template                   // template

	// Numeric.
	ToInt     // to_int
	ToFloat   // to_float
	ToDecimal // to_decimal
	Round     // round
	Floor     // floor
	Ceil      // ceil
	Abs       // abs
	Multiply  // multiply
	Add       // add
	Subtract  // subtract
	Divide    // divide
	Min       // min
	Max       // max
	Clamp     // clamp

	// Boolean.
	ToBool // to_bool
	Negate // negate

	// Date.
	ParseDate   // parse_date
	FormatDate  // format_date
	ToISO8601   // to_iso8601
	ToTimestamp // to_timestamp
	AddDays     // add_days
	AddMonths   // add_months
	AddYears    // add_years

	// Array.
	First    // first
	Last     // last
	At       // at
	Flatten  // flatten
	Distinct // distinct
	Sort     // sort
	Reverse  // reverse
	Take     // take
	Skip     // skip
	Count    // count
	Sum      // sum
	Avg      // avg
	Wrap     // wrap
	Unwrap   // unwrap

	// Object.
	Pick // pick
	Omit // omit

	// Conditional.
	Default  // default
	IfEmpty  // if_empty
	IfNull   // if_null
	Else     // else
	When     // when
	Optional // optional
	Required // required

	// Lookup.
	TableLookup // lookup

	// Validation.
	Matches  // matches
	In       // in
	NotIn    // not_in
	Validate // validate

	// Special.
	Constant      // constant
	Raw           // raw
	JSONParse     // json_parse
	JSONStringify // json_stringify

	numKinds
)

// Category groups builtins for listings.
type Category string

const (
	CategoryString      Category = "string"
	CategoryNumeric     Category = "numeric"
	CategoryBoolean     Category = "boolean"
	CategoryDate        Category = "date"
	CategoryArray       Category = "array"
	CategoryObject      Category = "object"
	CategoryConditional Category = "conditional"
	CategoryLookup      Category = "lookup"
	CategoryValidation  Category = "validation"
	CategorySpecial     Category = "special"
)

var byName = func() map[string]Kind {
	m := make(map[string]Kind, numKinds)
	for k := range numKinds {
		m[k.String()] = k
	}

	return m
}()

// Lookup returns the builtin named name.
func Lookup(name string) (Kind, bool) {
	k, ok := byName[name]
	return k, ok
}

// All returns every builtin in catalog order.
func All() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := range numKinds {
		out = append(out, k)
	}

	return out
}

// Names returns the names of every builtin in catalog order.
func Names() []string {
	out := make([]string, 0, numKinds)
	for k := range numKinds {
		out = append(out, k.String())
	}

	return out
}

// ArrayAware reports whether k receives a sequence input whole instead of
// element by element.
func (k Kind) ArrayAware() bool {
	switch {
	case k >= First && k <= Unwrap:
		return true
	case k == Join, k == IfEmpty, k == JSONStringify, k == Raw, k == Optional, k == Required:
		return true
	default:
		return false
	}
}

// Category returns the catalog section k belongs to.
func (k Kind) Category() Category {
	switch {
	case k <= Template:
		return CategoryString
	case k <= Clamp:
		return CategoryNumeric
	case k <= Negate:
		return CategoryBoolean
	case k <= AddYears:
		return CategoryDate
	case k <= Unwrap:
		return CategoryArray
	case k <= Omit:
		return CategoryObject
	case k <= Required:
		return CategoryConditional
	case k == TableLookup:
		return CategoryLookup
	case k <= Validate:
		return CategoryValidation
	default:
		return CategorySpecial
	}
}

var signatures = map[Kind]string{
	Replace:      "replace(old, new)",
	RegexReplace: "regex_replace(pattern, repl)",
	Substring:    "substring(start, end?)",
	Prefix:       "prefix(p)",
	Suffix:       "suffix(s)",
	MaxLength:    "max_length(n)",
	MinLength:    "min_length(n, pad?)",
	PadLeft:      "pad_left(width, char?)",
	PadRight:     "pad_right(width, char?)",
	Split:        `split(delim=",")`,
	Join:         `join(delim=",")`,
	Mask:         "mask(visible=4)",
	Hash:         "hash(alg=sha256)",
	Template:     "template(fmt, args...)",
	ToDecimal:    "to_decimal(places=2)",
	Round:        "round(decimals=0)",
	Multiply:     "multiply(n)",
	Add:          "add(n)",
	Subtract:     "subtract(n)",
	Divide:       "divide(n)",
	Min:          "min(minimum)",
	Max:          "max(maximum)",
	Clamp:        "clamp(min, max)",
	ParseDate:    "parse_date(fmt?)",
	FormatDate:   "format_date(fmt?)",
	AddDays:      "add_days(n)",
	AddMonths:    "add_months(n)",
	AddYears:     "add_years(n)",
	At:           "at(i)",
	Sort:         "sort(key?, desc?)",
	Take:         "take(n)",
	Skip:         "skip(n)",
	Pick:         "pick(keys...)",
	Omit:         "omit(keys...)",
	Default:      "default(v)",
	IfEmpty:      "if_empty(v)",
	IfNull:       "if_null(v)",
	Else:         "else(v)",
	When:         "when(match, result)",
	TableLookup:  "lookup(@table, field?)",
	Matches:      "matches(pattern)",
	In:           "in(items...)",
	NotIn:        "not_in(items...)",
	Validate:     "validate(kind)",
	Constant:     "constant(v)",
}

// Arity returns the number of arguments k accepts; maxArgs is -1 when
// the trailing parameter is variadic. It is read off the signature:
// parameters ending in "?" or carrying a "=default" are optional.
func (k Kind) Arity() (minArgs, maxArgs int) {
	sig := k.Signature()

	open := strings.IndexByte(sig, '(')
	if open < 0 {
		return 0, 0
	}

	for _, param := range splitParams(sig[open+1 : len(sig)-1]) {

		switch {
		case strings.HasSuffix(param, "..."):
			return minArgs, -1
		case strings.HasSuffix(param, "?"), strings.Contains(param, "="):
			maxArgs++
		default:
			minArgs++
			maxArgs++
		}
	}

	return minArgs, maxArgs
}

// splitParams splits a parameter list on commas outside quotes.
func splitParams(list string) []string {
	var (
		params []string
		quoted bool
		start  int
	)

	for i := range len(list) {
		switch list[i] {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				params = append(params, strings.TrimSpace(list[start:i]))
				start = i + 1
			}
		}
	}

	return append(params, strings.TrimSpace(list[start:]))
}

// Signature renders the call form of k for listings.
func (k Kind) Signature() string {
	if s, ok := signatures[k]; ok {
		return s
	}

	return k.String()
}
