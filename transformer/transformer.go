// Package transformer is the public entry point: it loads a mapping file
// and transforms records with it, through either backend.
package transformer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"schemamap/internal/diagnostic"
	"schemamap/internal/eval"
	"schemamap/internal/gen"
	"schemamap/internal/mapping"
	"schemamap/internal/parser"
	"schemamap/internal/plan"
	"schemamap/internal/registry"
	"schemamap/value"
)

// Func is an external function over Values.
type Func = registry.Func

// NativeFunc is an external function over plain Go values.
type NativeFunc = registry.NativeFunc

// runner is a backend bound to one plan.
type runner interface {
	Transform(record value.Value) (value.Value, error)
}

// Transformer applies one mapping file to records. It is safe for
// concurrent use; registering a function waits for running transforms.
type Transformer struct {
	mu   sync.RWMutex
	plan *plan.Plan
	run  runner
	opts options
}

// FromFile loads the mapping file at path.
func FromFile(path string, opts ...Option) (*Transformer, error) {
	file, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}

	return newTransformer(file, opts)
}

// FromString loads a mapping from source text. Relative lookup files are
// resolved against the working directory unless WithBaseDir says otherwise.
func FromString(src string, opts ...Option) (*Transformer, error) {
	file, err := parser.ParseString(src, "")
	if err != nil {
		return nil, err
	}

	return newTransformer(file, opts)
}

func newTransformer(file *mapping.MappingFile, opts []Option) (*Transformer, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	config := plan.DefaultConfig()
	config.Funcs = o.funcs
	config.BaseDir = o.baseDir
	config.StrictMode = o.strict

	p, err := plan.Resolve(file, config)
	if err != nil {
		return nil, err
	}

	t := &Transformer{opts: o}
	t.install(p)

	for _, w := range p.Diagnostics.Warnings {
		o.log.Warn(w.Message,
			zap.String("code", w.Code),
			zap.Int("line", w.Line),
			zap.String("subject", w.Subject),
			zap.Strings("suggestions", w.Suggestions))
	}

	return t, nil
}

// install makes p current. The caller holds the write lock or owns t.
func (t *Transformer) install(p *plan.Plan) {
	t.plan = p

	if t.opts.backend == Compile {
		var opts []gen.Option
		if t.opts.clock != nil {
			opts = append(opts, gen.WithClock(t.opts.clock))
		}

		if t.opts.uuids != nil {
			opts = append(opts, gen.WithUUIDs(t.opts.uuids))
		}

		t.run = gen.Compile(p, append(opts, gen.WithLogger(t.opts.log))...)

		return
	}

	var opts []eval.Option
	if t.opts.clock != nil {
		opts = append(opts, eval.WithClock(t.opts.clock))
	}

	if t.opts.uuids != nil {
		opts = append(opts, eval.WithUUIDs(t.opts.uuids))
	}

	t.run = eval.New(p, append(opts, eval.WithLogger(t.opts.log))...)
}

// Name is the mapping name: its "name" @config entry or the file name.
func (t *Transformer) Name() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.plan.Name
}

// Backend returns the backend in use.
func (t *Transformer) Backend() Backend {
	return t.opts.backend
}

// Transform maps one record. It fails only when an external function
// does; the error carries the line of the failing mapping.
func (t *Transformer) Transform(record value.Value) (out value.Value, err error) {
	t.mu.RLock()
	run := t.run
	t.mu.RUnlock()

	start := time.Now()
	defer func() { t.opts.metrics.ObserveRecord(t.opts.backend.String(), start, err) }()

	return run.Transform(record)
}

// TransformNative maps a record of plain Go values.
func (t *Transformer) TransformNative(record map[string]any) (map[string]any, error) {
	out, err := t.Transform(value.FromNative(record))
	if err != nil {
		return nil, err
	}

	m, _ := value.ToNative(out).(map[string]any)

	return m, nil
}

// TransformBatch maps records in order and stops at the first failure.
func (t *Transformer) TransformBatch(records []value.Value) ([]value.Value, error) {
	t.opts.metrics.ObserveBatch()

	out := make([]value.Value, 0, len(records))

	for i, r := range records {
		v, err := t.Transform(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		out = append(out, v)
	}

	return out, nil
}

// TransformBatchParallel maps records on up to workers goroutines, keeping
// their order. It stops at the first failure or when ctx is done; records
// already started finish first. External functions must be safe for
// concurrent use.
func (t *Transformer) TransformBatchParallel(ctx context.Context, records []value.Value, workers int) ([]value.Value, error) {
	if workers <= 1 {
		return t.TransformBatch(records)
	}

	t.opts.metrics.ObserveBatch()

	out := make([]value.Value, len(records))
	g, ctx := errgroup.WithContext(ctx)

	for w := range min(workers, len(records)) {
		g.Go(func() error {
			for i := w; i < len(records); i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}

				v, err := t.Transform(records[i])
				if err != nil {
					return fmt.Errorf("record %d: %w", i, err)
				}

				out[i] = v
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// RegisterFunction makes fn callable from the mapping under name. Steps
// naming it are bound again, so a function registered after construction
// takes effect for the next record.
func (t *Transformer) RegisterFunction(name string, fn Func) error {
	return t.register(func(r *registry.Registry) error { return r.Register(name, fn) })
}

// RegisterNative is RegisterFunction for a function over plain Go values.
func (t *Transformer) RegisterNative(name string, fn NativeFunc) error {
	return t.register(func(r *registry.Registry) error { return r.RegisterNative(name, fn) })
}

func (t *Transformer) register(add func(*registry.Registry) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := add(t.plan.Funcs); err != nil {
		return err
	}

	p, err := t.plan.Rebind()
	if err != nil && !errors.Is(err, plan.ErrInvalidPlan) {
		return err
	}

	if err != nil {
		// Only strict mode fails here; the new binding still runs.
		t.opts.log.Warn("rebinding after registration", zap.Error(err))
	}

	t.install(p)

	return nil
}

// Functions lists the registered external functions.
func (t *Transformer) Functions() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.plan.Funcs.Names()
}

// Warnings returns the load failures swallowed at construction: lookup
// files and function specs that could not be loaded. It is nil when
// everything loaded.
func (t *Transformer) Warnings() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.plan.Warnings
}

// WarningList is Warnings split into its parts.
func (t *Transformer) WarningList() []error {
	return multierr.Errors(t.Warnings())
}

// Diagnostics returns the resolution findings of the current binding.
func (t *Transformer) Diagnostics() diagnostic.Diagnostics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.plan.Diagnostics
}

// Plan returns the resolved plan in use.
func (t *Transformer) Plan() *plan.Plan {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.plan
}
