package plan

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"schemamap/internal/diagnostic"
	"schemamap/internal/mapping"
	"schemamap/internal/registry"
	"schemamap/value"
)

// ErrInvalidPlan is returned when resolution reports errors.
var ErrInvalidPlan = errors.New("invalid mapping")

// Config holds configuration for the resolution process.
type Config struct {
	// BaseDir resolves relative lookup files and plugin paths. Empty means
	// the directory of the mapping file.
	BaseDir string
	// Funcs is the registry functions are loaded into and steps are bound
	// against. A fresh registry is used when nil.
	Funcs *registry.Registry
	// StrictMode fails resolution on warnings as well as errors.
	StrictMode bool
	// MaxSuggestions is the maximum number of "did you mean" suggestions.
	MaxSuggestions int
}

// DefaultConfig returns the default resolution configuration.
func DefaultConfig() Config {
	return Config{
		MaxSuggestions: 3,
	}
}

// Resolver performs the resolution pipeline.
type Resolver struct {
	file   *mapping.MappingFile
	config Config
	funcs  *registry.Registry
}

// NewResolver creates a new Resolver.
func NewResolver(file *mapping.MappingFile, config Config) *Resolver {
	funcs := config.Funcs
	if funcs == nil {
		funcs = registry.New()
	}

	if config.BaseDir == "" && file != nil && file.SourceName != "" {
		config.BaseDir = filepath.Dir(file.SourceName)
	}

	if config.MaxSuggestions <= 0 {
		config.MaxSuggestions = DefaultConfig().MaxSuggestions
	}

	config.Funcs = funcs

	return &Resolver{file: file, config: config, funcs: funcs}
}

// Resolve resolves file with config. See Resolver.Resolve.
func Resolve(file *mapping.MappingFile, config Config) (*Plan, error) {
	return NewResolver(file, config).Resolve()
}

// Resolve runs the full resolution pipeline and returns a Plan. The plan is
// returned alongside ErrInvalidPlan so callers can still print its
// diagnostics.
func (r *Resolver) Resolve() (*Plan, error) {
	if r.file == nil {
		return nil, errors.New("mapping file is required")
	}

	p := &Plan{
		Name:        planName(r.file),
		File:        r.file,
		Funcs:       r.funcs,
		Tables:      make(map[string]*value.Map),
		OmitNulls:   r.file.OmitNulls(),
		SkipMissing: r.file.SkipMissing(),
		config:      r.config,
	}

	r.checkConfig(&p.loadDiag)
	p.Warnings = multierr.Append(r.loadFunctions(&p.loadDiag), r.loadLookups(p.Tables, &p.loadDiag))

	return r.bind(p)
}

// Rebind binds the steps of p again against its registry, after functions
// were registered or removed. Tables and load warnings are kept.
func (p *Plan) Rebind() (*Plan, error) {
	r := &Resolver{file: p.File, config: p.config, funcs: p.Funcs}

	np := &Plan{
		Name:        p.Name,
		File:        p.File,
		Funcs:       p.Funcs,
		Tables:      p.Tables,
		OmitNulls:   p.OmitNulls,
		SkipMissing: p.SkipMissing,
		Warnings:    p.Warnings,
		config:      p.config,
		loadDiag:    p.loadDiag,
	}

	return r.bind(np)
}

func (r *Resolver) bind(p *Plan) (*Plan, error) {
	var diags diagnostic.Diagnostics

	p.Rules = r.resolveBody(r.file.Body, p.Tables, &diags)

	p.Diagnostics = diagnostic.Diagnostics{}
	p.Diagnostics.Merge(p.loadDiag)
	p.Diagnostics.Merge(diags)

	if err := p.Diagnostics.Error(); err != nil {
		return p, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}

	if r.config.StrictMode && len(p.Diagnostics.Warnings) > 0 {
		return p, fmt.Errorf("%w: strict mode: %d warning(s), first: %s",
			ErrInvalidPlan, len(p.Diagnostics.Warnings), p.Diagnostics.Warnings[0])
	}

	return p, nil
}

// planName is the "name" @config entry or the base name of the file.
func planName(file *mapping.MappingFile) string {
	if name := file.ConfigString(mapping.ConfigName, ""); name != "" {
		return name
	}

	if file.SourceName == "" {
		return ""
	}

	base := filepath.Base(file.SourceName)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (r *Resolver) path(name string) string {
	if filepath.IsAbs(name) || r.config.BaseDir == "" {
		return name
	}

	return filepath.Join(r.config.BaseDir, name)
}

func position(p mapping.Position) diagnostic.Position {
	return diagnostic.Position{Line: p.Line, Column: p.Column}
}
