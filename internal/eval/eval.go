// Package eval is the interpreter backend: it walks a resolved plan once
// per record.
package eval

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"schemamap/internal/expr"
	"schemamap/internal/fieldpath"
	"schemamap/internal/plan"
	"schemamap/value"
)

// Error is a failure while running the mapping at Line. The only failures
// are external function calls, so Err is usually a *registry.CallError.
type Error struct {
	Line int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Evaluator runs a plan against records. It is safe for concurrent use as
// long as the external functions are.
type Evaluator struct {
	plan  *plan.Plan
	clock func() time.Time
	uuids func() string
	log   *zap.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock sets the time source of @now.
func WithClock(clock func() time.Time) Option {
	return func(e *Evaluator) { e.clock = clock }
}

// WithUUIDs sets the generator of @uuid.
func WithUUIDs(gen func() string) Option {
	return func(e *Evaluator) { e.uuids = gen }
}

// WithLogger sets the logger skipped mappings are reported to at debug
// level.
func WithLogger(log *zap.Logger) Option {
	return func(e *Evaluator) { e.log = log }
}

// New returns an Evaluator for p.
func New(p *plan.Plan, opts ...Option) *Evaluator {
	e := &Evaluator{
		plan:  p,
		clock: time.Now,
		uuids: NewUUID,
		log:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Plan returns the plan the evaluator runs.
func (e *Evaluator) Plan() *plan.Plan {
	return e.plan
}

// Transform maps one record. Reads that miss yield Null; only failing
// external functions return an error, as an *Error.
func (e *Evaluator) Transform(record value.Value) (value.Value, error) {
	out := value.NewMap()

	if err := e.runBody(e.plan.Rules, record, out); err != nil {
		return value.Null, err
	}

	result := value.FromMap(out)
	if e.plan.OmitNulls {
		result = OmitNulls(result)
	}

	return result, nil
}

func (e *Evaluator) runBody(rules []plan.Rule, record value.Value, out *value.Map) error {
	matched := false

	for _, r := range rules {
		switch t := r.(type) {
		case *plan.MappingRule:
			if err := e.runMapping(t, record, out); err != nil {
				return err
			}
		case *plan.BlockRule:
			if t.IsElse() {
				if matched {
					continue
				}
			} else {
				matched = Matches(t.Condition, record)
				if !matched {
					continue
				}
			}

			if err := e.runBody(t.Body, record, out); err != nil {
				return err
			}
		case *plan.GroupRule:
			if err := e.runBody(t.Body, record, out); err != nil {
				return err
			}
		}
	}

	return nil
}

func (e *Evaluator) runMapping(r *plan.MappingRule, record value.Value, out *value.Map) error {
	v, err := e.source(r.Source, record)
	if err != nil {
		return &Error{Line: r.Pos().Line, Err: err}
	}

	if v.IsNull() && (r.Source.Optional() || e.plan.SkipMissing) {
		if ce := e.log.Check(zap.DebugLevel, "mapping skipped"); ce != nil {
			ce.Write(zap.Int("line", r.Pos().Line), zap.Stringer("source", r.Mapping.Source))
		}

		return nil
	}

	v, err = ApplySteps(r.Steps, v, record, e.plan)
	if err != nil {
		return &Error{Line: r.Pos().Line, Err: err}
	}

	if !r.Discard {
		fieldpath.Set(out, r.Target, v)
	}

	return nil
}

func (e *Evaluator) source(s plan.Source, record value.Value) (value.Value, error) {
	switch s.Kind {
	case plan.SourcePath:
		return fieldpath.Get(record, s.Path), nil
	case plan.SourceMerge:
		return Merge(s.Merge, record), nil
	case plan.SourceExpr:
		return expr.Eval(s.Expr, expr.Env{Record: record, Funcs: e.plan.Funcs, Strict: s.Strict})
	case plan.SourceNow:
		return value.String(FormatNow(e.clock())), nil
	case plan.SourceUUID:
		return value.String(e.uuids()), nil
	default:
		return s.Constant, nil
	}
}
