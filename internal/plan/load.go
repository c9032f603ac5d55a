package plan

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/multierr"

	"schemamap/internal/diagnostic"
	"schemamap/internal/mapping"
	"schemamap/internal/match"
	"schemamap/internal/registry"
	"schemamap/value"
)

// ErrNotATable is returned when a lookup file does not hold an object.
var ErrNotATable = errors.New("lookup file does not hold an object")

var configKeys = []string{
	mapping.ConfigNullHandling,
	mapping.ConfigMissingFields,
	mapping.ConfigFunctionsModule,
	mapping.ConfigFunctionsFile,
	mapping.ConfigFunctions,
	mapping.ConfigName,
}

var configChoices = map[string][]string{
	mapping.ConfigNullHandling:  {mapping.NullKeep, mapping.NullOmit},
	mapping.ConfigMissingFields: {"keep", "skip"},
}

func (r *Resolver) checkConfig(d *diagnostic.Diagnostics) {
	for key, v := range r.file.Config.All() {
		subject := "@config." + key

		if !slices.Contains(configKeys, key) {
			d.AddWarning(diagnostic.CodeUnknownConfig, diagnostic.Position{}, subject,
				fmt.Sprintf("unknown @config key %q is ignored", key),
				match.Suggest(key, configKeys, r.config.MaxSuggestions)...)

			continue
		}

		if choices, ok := configChoices[key]; ok && !slices.Contains(choices, v.Text()) {
			code := diagnostic.CodeBadConfig
			if key == mapping.ConfigMissingFields {
				code = diagnostic.CodeMissingFieldsPolicy
			}

			d.AddWarning(code, diagnostic.Position{}, subject,
				fmt.Sprintf("%s must be one of %s, got %s; using %q",
					key, strings.Join(choices, ", "), v, choices[0]),
				match.Suggest(v.Text(), choices, 1)...)
		}

		if key == mapping.ConfigFunctions {
			if _, err := functionSpecs(v); err != nil {
				d.AddWarning(diagnostic.CodeBadConfig, diagnostic.Position{}, subject, err.Error())
			}
		}
	}
}

// functionSpecs reads the "functions" @config entry: one spec string or a
// list of them.
func functionSpecs(v value.Value) ([]string, error) {
	if s, ok := v.AsString(); ok {
		return []string{s}, nil
	}

	seq, ok := v.AsSeq()
	if !ok {
		return nil, fmt.Errorf("functions must be a spec string or a list of them, got %s", v)
	}

	specs := make([]string, 0, seq.Len())

	for _, e := range seq.Elems() {
		s, ok := e.AsString()
		if !ok {
			return nil, fmt.Errorf("functions entries must be spec strings, got %s", e)
		}

		specs = append(specs, s)
	}

	return specs, nil
}

// loadFunctions registers every function the file declares, in order:
// functions_module, functions_file, the functions list, then @functions.
// Failures are reported and returned, never fatal.
func (r *Resolver) loadFunctions(d *diagnostic.Diagnostics) error {
	var errs error

	fail := func(pos mapping.Position, subject string, err error) {
		d.AddWarning(diagnostic.CodeFunctionUnresolved, position(pos), subject, err.Error())
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", subject, err))
	}

	if module := r.file.ConfigString(mapping.ConfigFunctionsModule, ""); module != "" {
		if _, err := registry.LoadModuleInto(r.funcs, module); err != nil {
			fail(mapping.Position{}, "@config."+mapping.ConfigFunctionsModule, err)
		}
	}

	if file := r.file.ConfigString(mapping.ConfigFunctionsFile, ""); file != "" {
		if _, err := registry.LoadPluginInto(r.funcs, r.path(file)); err != nil {
			fail(mapping.Position{}, "@config."+mapping.ConfigFunctionsFile, err)
		}
	}

	if v := r.file.ConfigValue(mapping.ConfigFunctions); !v.IsNull() {
		specs, _ := functionSpecs(v)
		for _, spec := range specs {
			if _, err := r.funcs.RegisterFromSpec(r.pluginSpec(spec)); err != nil {
				fail(mapping.Position{}, "@config."+mapping.ConfigFunctions, err)
			}
		}
	}

	for _, name := range slices.Sorted(maps.Keys(r.file.Functions)) {
		def := r.file.Functions[name]

		alias := def.Alias
		if alias == "" {
			alias = def.Name
		}

		if _, err := r.funcs.RegisterFromSpec(r.pluginSpec(def.Spec) + " as " + alias); err != nil {
			fail(def.Position, "@functions."+name, err)
		}
	}

	return errs
}

// pluginSpec makes the plugin path of a spec relative to BaseDir.
func (r *Resolver) pluginSpec(spec string) string {
	target, alias, hasAlias := strings.Cut(strings.TrimSpace(spec), " as ")

	i := strings.LastIndex(target, ":")
	if i <= 0 || !strings.HasSuffix(target[:i], ".so") {
		return spec
	}

	target = r.path(target[:i]) + target[i:]
	if hasAlias {
		return target + " as " + alias
	}

	return target
}

// loadLookups fills tables with the inline tables and those loaded from
// files. A file that fails to load leaves its table absent.
func (r *Resolver) loadLookups(tables map[string]*value.Map, d *diagnostic.Diagnostics) error {
	var errs error

	for _, name := range slices.Sorted(maps.Keys(r.file.Lookups)) {
		def := r.file.Lookups[name]

		if !def.IsFile() {
			tables[name] = def.Inline
			continue
		}

		table, err := LoadTable(r.path(def.File))
		if err != nil {
			d.AddWarning(diagnostic.CodeLookupLoad, position(def.Position), "@lookups."+name,
				fmt.Sprintf("lookup table %s is unavailable: %v", name, err))
			errs = multierr.Append(errs, fmt.Errorf("lookup %s: %w", name, err))

			continue
		}

		tables[name] = table
	}

	return errs
}

// LoadTable reads a lookup table from a JSON or YAML file. The format
// follows the extension; anything but .yaml and .yml is read as JSON.
func LoadTable(path string) (*value.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup file: %w", err)
	}

	var v value.Value

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v, err = value.DecodeYAML(data)
	default:
		v, err = value.DecodeJSON(data)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse lookup file %s: %w", path, err)
	}

	m, ok := v.AsMap()
	if !ok {
		return nil, fmt.Errorf("%w: %s holds a %s", ErrNotATable, path, v.Kind())
	}

	return m, nil
}
