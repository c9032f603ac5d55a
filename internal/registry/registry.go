// Package registry holds the external functions a mapping can call from
// @call and @compute expressions or name in a transform chain.
//
// Functions are registered explicitly by name, pulled from a named module
// registered with RegisterModule, or looked up in a Go plugin. A small set
// of names is reserved for the aggregate and conversion keywords of the
// expression language.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"schemamap/value"
)

// Func is an external function over values.
type Func func(args ...value.Value) (value.Value, error)

// NativeFunc is an external function over plain Go values (see
// value.ToNative for the mapping).
type NativeFunc func(args ...any) (any, error)

var (
	// ErrReserved is returned when registering a reserved name.
	ErrReserved = errors.New("name is reserved")
	// ErrUnknownFunction is returned for calls to unregistered names.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrUnknownModule is returned when a spec names an unregistered module.
	ErrUnknownModule = errors.New("unknown module")
	// ErrBadSpec is returned for malformed function specs.
	ErrBadSpec = errors.New("malformed function spec")
)

var reserved = map[string]bool{
	"sum": true, "count": true, "avg": true, "min": true, "max": true,
	"len": true, "abs": true, "round": true,
	"int": true, "float": true, "str": true, "bool": true, "list": true, "dict": true,
}

// IsReserved reports whether name cannot be registered.
func IsReserved(name string) bool {
	return reserved[name]
}

// CallError wraps a failed external call with the function name and the
// arguments it received.
type CallError struct {
	Name string
	Args []value.Value
	Err  error
}

func (e *CallError) Error() string {
	args := make([]string, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, a.String())
	}

	return fmt.Sprintf("function %s(%s) failed: %v", e.Name, strings.Join(args, ", "), e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Registry is a set of named external functions. It is safe for concurrent
// use; registration normally happens before the first call.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register adds fn under name, replacing any previous function of that
// name.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" {
		return fmt.Errorf("%w: empty function name", ErrBadSpec)
	}

	if fn == nil {
		return fmt.Errorf("function %s: nil func", name)
	}

	if IsReserved(name) {
		return fmt.Errorf("cannot register %s: %w", name, ErrReserved)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.funcs[name] = fn

	return nil
}

// RegisterNative adds a function working on plain Go values.
func (r *Registry) RegisterNative(name string, fn NativeFunc) error {
	if fn == nil {
		return fmt.Errorf("function %s: nil func", name)
	}

	return r.Register(name, Native(fn))
}

// Native adapts fn to a Func.
func Native(fn NativeFunc) Func {
	return func(args ...value.Value) (value.Value, error) {
		native := make([]any, 0, len(args))
		for _, a := range args {
			native = append(native, value.ToNative(a))
		}

		out, err := fn(native...)
		if err != nil {
			return value.Null, err
		}

		return value.FromNative(out), nil
	}
}

// Unregister removes name. It reports whether the name was registered.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.funcs[name]
	delete(r.funcs, name)

	return ok
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	if r == nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.funcs[name]

	return fn, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Call invokes name with args. Unknown names, returned errors and panics
// all surface as a *CallError.
func (r *Registry) Call(name string, args ...value.Value) (out value.Value, err error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return value.Null, &CallError{Name: name, Args: args, Err: ErrUnknownFunction}
	}

	defer func() {
		if p := recover(); p != nil {
			out, err = value.Null, &CallError{Name: name, Args: args, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	out, err = fn(args...)
	if err != nil {
		return value.Null, &CallError{Name: name, Args: args, Err: err}
	}

	return out, nil
}

// CallElements calls name with v as its first argument, mapping over the
// elements of v, recursively, when it is a sequence.
func (r *Registry) CallElements(name string, v value.Value, args ...value.Value) (value.Value, error) {
	seq, ok := v.AsSeq()
	if !ok {
		return r.Call(name, append([]value.Value{v}, args...)...)
	}

	out := value.NewSeq()

	for _, e := range seq.Elems() {
		got, err := r.CallElements(name, e, args...)
		if err != nil {
			return value.Null, err
		}

		out.Append(got)
	}

	return value.FromSeq(out), nil
}

// RegisterFromSpec registers the function described by spec, which has the
// form "module:function" or "module:function as alias". The module part is
// either a name passed to RegisterModule or the path of a Go plugin ending
// in ".so". It returns the name the function was registered under.
func (r *Registry) RegisterFromSpec(spec string) (string, error) {
	target, alias, hasAlias := strings.Cut(strings.TrimSpace(spec), " as ")

	i := strings.LastIndex(target, ":")
	if i <= 0 || i == len(target)-1 {
		return "", fmt.Errorf("%w %q: expected module:function", ErrBadSpec, spec)
	}

	module, fnName := strings.TrimSpace(target[:i]), strings.TrimSpace(target[i+1:])

	name := fnName
	if hasAlias {
		name = strings.TrimSpace(alias)
		if name == "" {
			return "", fmt.Errorf("%w %q: empty alias", ErrBadSpec, spec)
		}
	}

	var (
		fn  Func
		err error
	)

	if strings.HasSuffix(module, ".so") {
		fn, err = loadPlugin(module, fnName)
	} else {
		fn, err = moduleFunc(module, fnName)
	}

	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", spec, err)
	}

	if err := r.Register(name, fn); err != nil {
		return "", err
	}

	return name, nil
}
