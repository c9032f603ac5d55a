package prelude

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	errUnknownFunction = errors.New("unknown function")
	errReserved        = errors.New("name is reserved")
)

var reservedNames = map[string]bool{
	"sum": true, "count": true, "avg": true, "min": true, "max": true,
	"len": true, "abs": true, "round": true,
	"int": true, "float": true, "str": true, "bool": true, "list": true, "dict": true,
}

// nativeFunc is an external function over plain Go values.
type nativeFunc = func(args ...any) (any, error)

// callError is a failed external call.
type callError struct {
	name string
	args []any
	err  error
}

func (e *callError) Error() string {
	args := make([]string, 0, len(e.args))
	for _, a := range e.args {
		args = append(args, string(appendJSON(nil, a)))
	}

	return fmt.Sprintf("function %s(%s) failed: %v", e.name, strings.Join(args, ", "), e.err)
}

func (e *callError) Unwrap() error { return e.err }

// mappingError is a failure of the mapping declared at line.
type mappingError struct {
	line int
	err  error
}

func (e *mappingError) Error() string { return fmt.Sprintf("line %d: %v", e.line, e.err) }

func (e *mappingError) Unwrap() error { return e.err }

// functions holds the registered external functions.
type functions struct {
	mu sync.RWMutex
	m  map[string]nativeFunc
}

func (f *functions) register(name string, fn nativeFunc) error {
	switch {
	case name == "":
		return errors.New("empty function name")
	case fn == nil:
		return fmt.Errorf("function %s: nil func", name)
	case reservedNames[name]:
		return fmt.Errorf("cannot register %s: %w", name, errReserved)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.m == nil {
		f.m = make(map[string]nativeFunc)
	}

	f.m[name] = fn

	return nil
}

func (f *functions) lookup(name string) (nativeFunc, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	fn, ok := f.m[name]

	return fn, ok
}

// call invokes name. Unknown names, errors and panics become *callError.
func (f *functions) call(name string, args ...any) (out any, err error) {
	fn, ok := f.lookup(name)
	if !ok {
		return nil, &callError{name: name, args: args, err: errUnknownFunction}
	}

	defer func() {
		if p := recover(); p != nil {
			out, err = nil, &callError{name: name, args: args, err: fmt.Errorf("panic: %v", p)}
		}
	}()

	out, err = fn(args...)
	if err != nil {
		return nil, &callError{name: name, args: args, err: err}
	}

	return normalize(out), nil
}

// callElems calls name with v first, mapping over the elements of v,
// recursively, when it is a sequence.
func (f *functions) callElems(name string, v any, args ...any) (any, error) {
	seq, ok := v.([]any)
	if !ok {
		return f.call(name, append([]any{v}, args...)...)
	}

	out := make([]any, 0, len(seq))

	for _, el := range seq {
		got, err := f.callElems(name, el, args...)
		if err != nil {
			return nil, err
		}

		out = append(out, got)
	}

	return out, nil
}

// callExpr resolves a call inside an expression: registered functions
// first, then the aggregates. Other names are nil, or an error when strict.
func (f *functions) callExpr(name string, strict bool, args ...any) (any, error) {
	if _, ok := f.lookup(name); ok {
		return f.call(name, args...)
	}

	switch name {
	case "sum", "count", "avg", "min", "max":
		var a any
		if len(args) > 0 {
			a = args[0]
		}

		return aggregate(name, a), nil
	}

	if strict {
		return nil, &callError{name: name, args: args, err: errUnknownFunction}
	}

	return nil, nil
}

// mergePart is a path or a string literal of a merge expression.
type mergePart struct {
	path      fieldPath
	literal   string
	isLiteral bool
}

func concat(record any, parts []mergePart) any {
	var b strings.Builder

	for _, p := range parts {
		if p.isLiteral {
			b.WriteString(p.literal)
			continue
		}

		if v := getPath(record, p.path); v != nil {
			b.WriteString(mergeText(v))
		}
	}

	return b.String()
}

func mergeText(v any) string {
	b, ok := v.(bool)
	switch {
	case !ok:
		return text(v)
	case b:
		return "True"
	default:
		return "False"
	}
}

func coalesce(record any, parts []mergePart) any {
	for _, p := range parts {
		if p.isLiteral {
			return p.literal
		}

		if v := getPath(record, p.path); v != nil {
			return v
		}
	}

	return nil
}

// matches evaluates a condition operator: == and != compare deeply, the
// ordering operators are false for values that do not compare.
func matches(v any, op string, want any) bool {
	switch op {
	case "==":
		return equal(v, want)
	case "!=":
		return !equal(v, want)
	}

	c, ok := compare(v, want)
	if !ok {
		return false
	}

	switch op {
	case ">":
		return c > 0
	case "<":
		return c < 0
	case ">=":
		return c >= 0
	default:
		return c <= 0
	}
}

func exprNumber(v any) (float64, bool) {
	if f, ok := number(v); ok {
		return f, true
	}

	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}

	return 0, false
}

// arith applies op in float64; non-numeric operands and division by zero
// give nil.
func arith(op byte, left, right any) any {
	x, ok1 := exprNumber(left)
	y, ok2 := exprNumber(right)

	if !ok1 || !ok2 {
		return nil
	}

	switch op {
	case '+':
		return x + y
	case '-':
		return x - y
	case '*':
		return x * y
	default:
		if y == 0 {
			return nil
		}

		return x / y
	}
}

func negate(v any) any {
	if i, ok := v.(int64); ok && i != math.MinInt64 {
		return -i
	}

	f, ok := exprNumber(v)
	if !ok {
		return nil
	}

	return -f
}

func aggregate(name string, v any) any {
	seq, isSeq := v.([]any)

	var present []any

	for _, e := range seq {
		if e != nil {
			present = append(present, e)
		}
	}

	switch name {
	case "count":
		switch {
		case isSeq:
			return int64(len(seq))
		case v == nil:
			return int64(0)
		default:
			return int64(1)
		}
	case "sum":
		if !isSeq {
			if !truthy(v) {
				return int64(0)
			}

			return toFloat(v)
		}

		return total(present)
	case "avg":
		if !isSeq || len(seq) == 0 {
			return int64(0)
		}

		return total(present) / float64(len(seq))
	default:
		if !isSeq || len(seq) == 0 {
			return v
		}

		return extreme(name == "max", present)
	}
}

func extreme(largest bool, vals []any) any {
	if len(vals) == 0 {
		return nil
	}

	best := vals[0]

	for _, v := range vals[1:] {
		c, ok := compare(v, best)
		if !ok {
			return nil
		}

		if (largest && c > 0) || (!largest && c < 0) {
			best = v
		}
	}

	return best
}

// formatNow renders the value of @now: UTC, microseconds, literal Z.
func formatNow(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

func newUUID() string {
	return uuid.NewString()
}
