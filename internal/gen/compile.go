package gen

import (
	"time"

	"go.uber.org/zap"

	"schemamap/internal/builtin"
	"schemamap/internal/eval"
	"schemamap/internal/expr"
	"schemamap/internal/fieldpath"
	"schemamap/internal/plan"
	"schemamap/internal/registry"
	"schemamap/value"
)

// Program is a plan lowered into closures: builtins are bound to their
// functions, arguments without paths are evaluated once and wildcard
// chains run as explicit per-element loops. It gives the same results as
// the interpreter for the same plan.
//
// Function calls are bound when the program is compiled; recompile after
// registering new functions.
type Program struct {
	plan  *plan.Plan
	body  []node
	clock func() time.Time
	uuids func() string
	log   *zap.Logger
}

// Option configures a Program.
type Option func(*Program)

// WithClock sets the time source of @now.
func WithClock(clock func() time.Time) Option {
	return func(p *Program) { p.clock = clock }
}

// WithUUIDs sets the generator of @uuid.
func WithUUIDs(gen func() string) Option {
	return func(p *Program) { p.uuids = gen }
}

// WithLogger sets the logger skipped mappings are reported to.
func WithLogger(log *zap.Logger) Option {
	return func(p *Program) { p.log = log }
}

type frame struct {
	record value.Value
	out    *value.Map
}

type nodeKind uint8

const (
	nodeMapping nodeKind = iota
	nodeWhen
	nodeElse
	nodeGroup
)

type node struct {
	kind nodeKind
	run  func(f *frame) error
	cond func(record value.Value) bool
	body []node
}

type valueFn func(record value.Value) (value.Value, error)

type stepFn func(v, record value.Value, env *builtin.Env) (value.Value, error)

// Compile lowers p into a Program.
func Compile(p *plan.Plan, opts ...Option) *Program {
	prog := &Program{
		plan:  p,
		clock: time.Now,
		uuids: eval.NewUUID,
		log:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(prog)
	}

	prog.body = prog.compileBody(p.Rules)

	return prog
}

// Plan returns the plan the program was compiled from.
func (p *Program) Plan() *plan.Plan {
	return p.plan
}

// Transform maps one record.
func (p *Program) Transform(record value.Value) (value.Value, error) {
	f := &frame{record: record, out: value.NewMap()}

	if err := runBody(p.body, f); err != nil {
		return value.Null, err
	}

	result := value.FromMap(f.out)
	if p.plan.OmitNulls {
		result = eval.OmitNulls(result)
	}

	return result, nil
}

func runBody(body []node, f *frame) error {
	matched := false

	for i := range body {
		n := &body[i]

		switch n.kind {
		case nodeMapping:
			if err := n.run(f); err != nil {
				return err
			}

			continue
		case nodeWhen:
			matched = n.cond(f.record)
			if !matched {
				continue
			}
		case nodeElse:
			if matched {
				continue
			}
		case nodeGroup:
		}

		if err := runBody(n.body, f); err != nil {
			return err
		}
	}

	return nil
}

func (p *Program) compileBody(rules []plan.Rule) []node {
	body := make([]node, 0, len(rules))

	for _, r := range rules {
		switch t := r.(type) {
		case *plan.MappingRule:
			body = append(body, node{kind: nodeMapping, run: p.compileMapping(t)})
		case *plan.BlockRule:
			if t.IsElse() {
				body = append(body, node{kind: nodeElse, body: p.compileBody(t.Body)})
				continue
			}

			c := t.Condition
			body = append(body, node{
				kind: nodeWhen,
				cond: func(record value.Value) bool { return eval.Matches(c, record) },
				body: p.compileBody(t.Body),
			})
		case *plan.GroupRule:
			body = append(body, node{kind: nodeGroup, body: p.compileBody(t.Body)})
		}
	}

	return body
}

func (p *Program) compileMapping(r *plan.MappingRule) func(f *frame) error {
	line := r.Pos().Line
	source := p.compileSource(r.Source)
	chain := p.compileChain(r.Steps)
	skipNull := r.Source.Optional() || p.plan.SkipMissing
	target := r.Target
	discard := r.Discard
	tables := p.plan.Tables

	if r.Strategy == plan.StrategyFanOut {
		chain = fanOut(chain)
	}

	return func(f *frame) error {
		v, err := source(f.record)
		if err != nil {
			return &eval.Error{Line: line, Err: err}
		}

		if v.IsNull() && skipNull {
			if ce := p.log.Check(zap.DebugLevel, "mapping skipped"); ce != nil {
				ce.Write(zap.Int("line", line), zap.Stringer("source", r.Mapping.Source))
			}

			return nil
		}

		if chain != nil {
			if v, err = chain(v, f.record, &builtin.Env{Tables: tables}); err != nil {
				return &eval.Error{Line: line, Err: err}
			}
		}

		if !discard {
			fieldpath.Set(f.out, target, v)
		}

		return nil
	}
}

func (p *Program) compileSource(s plan.Source) valueFn {
	switch s.Kind {
	case plan.SourcePath:
		path := s.Path
		return func(record value.Value) (value.Value, error) { return fieldpath.Get(record, path), nil }
	case plan.SourceMerge:
		m := s.Merge
		return func(record value.Value) (value.Value, error) { return eval.Merge(m, record), nil }
	case plan.SourceExpr:
		return p.compileExpr(s.Expr, s.Strict)
	case plan.SourceNow:
		return func(value.Value) (value.Value, error) { return value.String(eval.FormatNow(p.clock())), nil }
	case plan.SourceUUID:
		return func(value.Value) (value.Value, error) { return value.String(p.uuids()), nil }
	default:
		c := s.Constant
		return func(value.Value) (value.Value, error) { return c, nil }
	}
}

func (p *Program) compileExpr(n expr.Node, strict bool) valueFn {
	switch t := n.(type) {
	case *expr.Literal:
		c := t.Value
		return func(value.Value) (value.Value, error) { return c, nil }
	case *expr.PathRef:
		path := t.Path
		return func(record value.Value) (value.Value, error) { return fieldpath.Get(record, path), nil }
	case *expr.Neg:
		operand := p.compileExpr(t.Operand, strict)

		return func(record value.Value) (value.Value, error) {
			v, err := operand(record)
			if err != nil {
				return value.Null, err
			}

			return expr.Negate(v), nil
		}
	case *expr.Binary:
		left, right, op := p.compileExpr(t.Left, strict), p.compileExpr(t.Right, strict), t.Op

		return func(record value.Value) (value.Value, error) {
			l, err := left(record)
			if err != nil {
				return value.Null, err
			}

			r, err := right(record)
			if err != nil {
				return value.Null, err
			}

			return expr.Arith(op, l, r), nil
		}
	case *expr.Call:
		return p.compileCall(t, strict)
	default:
		return func(value.Value) (value.Value, error) { return value.Null, nil }
	}
}

func (p *Program) compileCall(c *expr.Call, strict bool) valueFn {
	args := make([]valueFn, 0, len(c.Args))
	for _, a := range c.Args {
		args = append(args, p.compileExpr(a, strict))
	}

	name, funcs := c.Name, p.plan.Funcs

	var apply func(vals []value.Value) (value.Value, error)

	switch {
	case funcs.Has(name):
		apply = func(vals []value.Value) (value.Value, error) { return funcs.Call(name, vals...) }
	case expr.IsAggregate(name):
		apply = func(vals []value.Value) (value.Value, error) {
			var a value.Value
			if len(vals) > 0 {
				a = vals[0]
			}

			return expr.Aggregate(name, a), nil
		}
	case strict:
		apply = func(vals []value.Value) (value.Value, error) {
			return value.Null, &registry.CallError{Name: name, Args: vals, Err: registry.ErrUnknownFunction}
		}
	default:
		apply = func([]value.Value) (value.Value, error) { return value.Null, nil }
	}

	return func(record value.Value) (value.Value, error) {
		vals := make([]value.Value, 0, len(args))

		for _, a := range args {
			v, err := a(record)
			if err != nil {
				return value.Null, err
			}

			vals = append(vals, v)
		}

		return apply(vals)
	}
}

// compileChain folds the steps into one function; nil means the chain is
// empty or only holds unresolved steps.
func (p *Program) compileChain(steps []plan.Step) stepFn {
	fns := make([]stepFn, 0, len(steps))

	for i := range steps {
		if fn := p.compileStep(&steps[i]); fn != nil {
			fns = append(fns, fn)
		}
	}

	if len(fns) == 0 {
		return nil
	}

	return func(v, record value.Value, env *builtin.Env) (value.Value, error) {
		var err error

		for _, fn := range fns {
			if v, err = fn(v, record, env); err != nil {
				return value.Null, err
			}
		}

		return v, nil
	}
}

func (p *Program) compileStep(s *plan.Step) stepFn {
	switch s.Binding {
	case plan.BindBuiltin:
		fn := builtin.Bind(s.Builtin)

		if !s.Dynamic {
			args := s.Static
			return func(v, _ value.Value, env *builtin.Env) (value.Value, error) { return fn(v, args, env), nil }
		}

		return func(v, record value.Value, env *builtin.Env) (value.Value, error) {
			return fn(v, s.ArgValues(record), env), nil
		}
	case plan.BindExternal:
		name, funcs := s.Name, p.plan.Funcs

		return func(v, record value.Value, _ *builtin.Env) (value.Value, error) {
			return funcs.CallElements(name, v, s.ArgValues(record)...)
		}
	default:
		return nil
	}
}

// fanOut runs chain once per element of a sequence input and collects the
// results. Other inputs go through chain directly.
func fanOut(chain stepFn) stepFn {
	if chain == nil {
		return nil
	}

	return func(v, record value.Value, env *builtin.Env) (value.Value, error) {
		seq, ok := v.AsSeq()
		if !ok {
			return chain(v, record, env)
		}

		out := value.NewSeq()

		for _, e := range seq.Elems() {
			r, err := chain(e, record, env)
			if err != nil {
				return value.Null, err
			}

			out.Append(r)
		}

		return value.FromSeq(out), nil
	}
}
