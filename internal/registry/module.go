package registry

import (
	"fmt"
	"maps"
	"plugin"
	"slices"
	"sync"

	"schemamap/value"
)

var modules = struct {
	sync.RWMutex
	m map[string]map[string]Func
}{m: make(map[string]map[string]Func)}

// RegisterModule makes funcs available to function specs under the module
// name. Registering a module again replaces it.
func RegisterModule(name string, funcs map[string]Func) {
	modules.Lock()
	defer modules.Unlock()

	modules.m[name] = maps.Clone(funcs)
}

// Modules returns the registered module names, sorted.
func Modules() []string {
	modules.RLock()
	defer modules.RUnlock()

	return slices.Sorted(maps.Keys(modules.m))
}

// ModuleFuncs returns the function names a module exports, sorted.
func ModuleFuncs(module string) []string {
	modules.RLock()
	defer modules.RUnlock()

	return slices.Sorted(maps.Keys(modules.m[module]))
}

func moduleFunc(module, name string) (Func, error) {
	modules.RLock()
	defer modules.RUnlock()

	funcs, ok := modules.m[module]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownModule, module)
	}

	fn, ok := funcs[name]
	if !ok {
		return nil, fmt.Errorf("module %s: %w %q", module, ErrUnknownFunction, name)
	}

	return fn, nil
}

// LoadModuleInto registers every function of module into r under its own
// name and returns the names. Reserved names are skipped.
func LoadModuleInto(r *Registry, module string) ([]string, error) {
	if !slices.Contains(Modules(), module) {
		return nil, fmt.Errorf("%w %q", ErrUnknownModule, module)
	}

	names := ModuleFuncs(module)

	var loaded []string

	for _, name := range names {
		if IsReserved(name) {
			continue
		}

		fn, err := moduleFunc(module, name)
		if err != nil {
			return loaded, err
		}

		if err := r.Register(name, fn); err != nil {
			return loaded, err
		}

		loaded = append(loaded, name)
	}

	return loaded, nil
}

// loadPlugin opens a Go plugin and adapts the exported symbol. The symbol
// may be a Func, a NativeFunc or a plain func(...any) (any, error).
func loadPlugin(path, symbol string) (Func, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plugin: %w", err)
	}

	sym, err := p.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w %q", path, ErrUnknownFunction, symbol)
	}

	switch fn := sym.(type) {
	case func(...value.Value) (value.Value, error):
		return fn, nil
	case *Func:
		return *fn, nil
	case func(...any) (any, error):
		return Native(fn), nil
	case *NativeFunc:
		return Native(*fn), nil
	default:
		return nil, fmt.Errorf("plugin symbol %s has unsupported type %T", symbol, sym)
	}
}

// PluginSymbol is the variable a functions plugin exports: a
// map[string]Func, a map[string]NativeFunc or a map of plain
// func(...any) (any, error).
const PluginSymbol = "Functions"

// LoadPluginInto opens the Go plugin at path and registers every function
// of its exported Functions map into r. Reserved names are skipped.
func LoadPluginInto(r *Registry, path string) ([]string, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plugin: %w", err)
	}

	sym, err := p.Lookup(PluginSymbol)
	if err != nil {
		return nil, fmt.Errorf("plugin %s does not export %s: %w", path, PluginSymbol, err)
	}

	funcs := make(map[string]Func)

	switch m := sym.(type) {
	case *map[string]Func:
		maps.Copy(funcs, *m)
	case *map[string]NativeFunc:
		for name, fn := range *m {
			funcs[name] = Native(fn)
		}
	case *map[string]func(...any) (any, error):
		for name, fn := range *m {
			funcs[name] = Native(fn)
		}
	default:
		return nil, fmt.Errorf("plugin symbol %s has unsupported type %T", PluginSymbol, sym)
	}

	var loaded []string

	for _, name := range slices.Sorted(maps.Keys(funcs)) {
		if IsReserved(name) {
			continue
		}

		if err := r.Register(name, funcs[name]); err != nil {
			return loaded, err
		}

		loaded = append(loaded, name)
	}

	return loaded, nil
}
