package plan

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"schemamap/internal/builtin"
	"schemamap/internal/diagnostic"
	"schemamap/internal/expr"
	"schemamap/internal/fieldpath"
	"schemamap/internal/mapping"
	"schemamap/internal/match"
	"schemamap/value"
)

// Strategy explanation constants.
const (
	explCopy      = "path copied as is"
	explTransform = "path run through the transform chain"
	explFanOut    = "wildcard source, chain applied per element"
	explMerge     = "parts merged with "
	explCompute   = "expression evaluated against the record"
	explConstant  = "literal value"
	explGenerated = "value generated per record"
	explDiscard   = "target is ~, the value is dropped"
)

// pinned builtins are never shadowed by external functions: they read the
// lookup tables or the state between when and else.
func pinned(k builtin.Kind) bool {
	return k == builtin.TableLookup || k == builtin.When || k == builtin.Else
}

func (r *Resolver) resolveBody(body []mapping.Node, tables map[string]*value.Map, d *diagnostic.Diagnostics) []Rule {
	rules := make([]Rule, 0, len(body))
	targets := make(map[string]mapping.Position)

	for _, n := range body {
		switch t := n.(type) {
		case *mapping.Mapping:
			rule := r.resolveMapping(t, tables, d)
			r.checkDuplicate(rule, targets, d)
			rules = append(rules, rule)
		case *mapping.ConditionalBlock:
			if len(t.Body) == 0 {
				d.AddInfo(diagnostic.CodeUnreachableMapping, position(t.Position), blockName(t), "block is empty")
			}

			rules = append(rules, &BlockRule{
				Condition: t.Condition,
				Body:      r.resolveBody(t.Body, tables, d),
				Position:  t.Position,
			})
		case *mapping.NestedBlock:
			rules = append(rules, &GroupRule{
				Body:     r.resolveBody(t.Body, tables, d),
				Position: t.Position,
			})
		}
	}

	return rules
}

func blockName(b *mapping.ConditionalBlock) string {
	if b.IsElse() {
		return "@else"
	}

	return "@when " + b.Condition.String()
}

// checkDuplicate warns about two mappings of one body writing the same
// plain target. Wildcard targets append, so they are exempt.
func (r *Resolver) checkDuplicate(rule *MappingRule, seen map[string]mapping.Position, d *diagnostic.Diagnostics) {
	if rule.Discard || rule.Target.HasWildcard() {
		return
	}

	key := rule.Target.String()
	if prev, ok := seen[key]; ok {
		d.AddWarning(diagnostic.CodeDuplicateTarget, position(rule.Mapping.Position), key,
			fmt.Sprintf("target is also written at line %d; the later mapping wins", prev.Line))
	}

	seen[key] = rule.Mapping.Position
}

func (r *Resolver) resolveMapping(m *mapping.Mapping, tables map[string]*value.Map, d *diagnostic.Diagnostics) *MappingRule {
	rule := &MappingRule{
		Mapping: m,
		Source:  r.resolveSource(m, d),
		Steps:   make([]Step, 0, len(m.Transforms)),
	}

	if t, ok := m.Target.(*mapping.PathTarget); ok {
		rule.Target = t.Path
	} else {
		rule.Discard = true
	}

	for _, t := range m.Transforms {
		rule.Steps = append(rule.Steps, r.bindStep(t, tables, d))
	}

	rule.Strategy, rule.Explanation = selectStrategy(rule)
	r.checkMapping(rule, d)

	return rule
}

func (r *Resolver) resolveSource(m *mapping.Mapping, d *diagnostic.Diagnostics) Source {
	switch s := m.Source.(type) {
	case *mapping.PathSource:
		return Source{Kind: SourcePath, Path: s.Path}
	case *mapping.ConstantSource:
		return Source{Kind: SourceConstant, Constant: s.Value}
	case *mapping.MergeExpr:
		return Source{Kind: SourceMerge, Merge: s}
	case *mapping.ComputeExpr:
		return r.resolveCompute(m, s, d)
	default:
		return Source{Kind: SourceConstant}
	}
}

func (r *Resolver) resolveCompute(m *mapping.Mapping, s *mapping.ComputeExpr, d *diagnostic.Diagnostics) Source {
	switch s.Kind {
	case mapping.ComputeNow, mapping.ComputeUUID:
		d.AddInfo(diagnostic.CodeNonDeterministic, position(m.Position), s.String(),
			"value differs on every record and run")

		if s.Kind == mapping.ComputeNow {
			return Source{Kind: SourceNow}
		}

		return Source{Kind: SourceUUID}
	}

	var (
		n   expr.Node
		err error
	)

	if s.Kind == mapping.ComputeCall {
		n, err = parseCall(s.Raw)
	} else {
		n, err = expr.Parse(s.Raw)
	}

	if err != nil {
		d.AddError(diagnostic.CodeExpressionSyntax, position(m.Position), s.String(), err.Error())
		return Source{Kind: SourceConstant}
	}

	known := slices.Concat(r.funcs.Names(), expr.Aggregates)

	for _, name := range expr.Calls(n) {
		if r.funcs.Has(name) || expr.IsAggregate(name) {
			continue
		}

		msg := fmt.Sprintf("function %s is not registered; the call yields null", name)
		if s.Kind == mapping.ComputeCall {
			msg = fmt.Sprintf("function %s is not registered; the mapping fails unless it is registered before use", name)
		}

		d.AddWarning(diagnostic.CodeUnknownFunction, position(m.Position), s.String(), msg,
			match.Suggest(name, known, r.config.MaxSuggestions)...)
	}

	return Source{Kind: SourceExpr, Expr: n, Strict: s.Kind == mapping.ComputeCall}
}

// parseCall reads the content of @call: "name(args...)", "name, args..."
// or a bare "name".
func parseCall(raw string) (expr.Node, error) {
	if n, err := expr.Parse(raw); err == nil {
		if _, ok := n.(*expr.Call); ok {
			return n, nil
		}
	}

	name, rest, _ := strings.Cut(raw, ",")

	name = strings.TrimSpace(name)
	if !fieldpath.IsIdent(name) {
		return nil, fmt.Errorf("%w %q: @call expects a function name", expr.ErrSyntax, raw)
	}

	return expr.Parse(name + "(" + rest + ")")
}

// bindStep binds a transform to a builtin or an external function. Names
// other than lookup, when and else bind to an external function first.
func (r *Resolver) bindStep(t mapping.Transform, tables map[string]*value.Map, d *diagnostic.Diagnostics) Step {
	step := Step{Name: t.Name, Args: t.Args, Position: t.Position}

	for _, a := range t.Args {
		if a.Kind == mapping.ArgPath {
			step.Dynamic = true
		}
	}

	if !step.Dynamic {
		step.Static = argValues(t.Args, value.Null)
	}

	kind, isBuiltin := builtin.Lookup(t.Name)

	switch {
	case isBuiltin && pinned(kind):
		step.Binding, step.Builtin = BindBuiltin, kind
	case r.funcs.Has(t.Name):
		step.Binding = BindExternal

		if isBuiltin {
			d.AddInfo(diagnostic.CodeExternalTransform, position(t.Position), t.Name,
				fmt.Sprintf("external function %s is used instead of the builtin", t.Name))
		}

		return step
	case isBuiltin:
		step.Binding, step.Builtin = BindBuiltin, kind
	default:
		step.Binding = BindUnresolved
		known := slices.Concat(builtin.Names(), r.funcs.Names())
		d.AddWarning(diagnostic.CodeUnknownTransform, position(t.Position), t.Name,
			fmt.Sprintf("unknown transform %s; the value passes through unchanged", t.Name),
			match.Suggest(t.Name, known, r.config.MaxSuggestions)...)

		return step
	}

	r.checkBuiltin(step, tables, d)

	return step
}

func (r *Resolver) checkBuiltin(step Step, tables map[string]*value.Map, d *diagnostic.Diagnostics) {
	pos := position(step.Position)

	if lo, hi := step.Builtin.Arity(); len(step.Args) < lo || (hi >= 0 && len(step.Args) > hi) {
		d.AddWarning(diagnostic.CodeBadArgument, pos, step.Name,
			fmt.Sprintf("%s takes %s, got %d",
				step.Name, arityText(lo, hi), len(step.Args)),
			step.Builtin.Signature())
	}

	switch step.Builtin {
	case builtin.Required:
		d.AddInfo(diagnostic.CodeRequiredNeverFails, pos, step.Name,
			"required never fails; a missing value passes through as null")
	case builtin.TableLookup:
		if len(step.Args) == 0 || step.Dynamic {
			return
		}

		name := strings.TrimPrefix(step.Static[0].Text(), "@")
		if _, ok := r.file.Lookups[name]; ok {
			return
		}

		d.AddWarning(diagnostic.CodeUnknownLookup, pos, name,
			fmt.Sprintf("lookup table %s is not defined; values pass through unchanged", name),
			match.Suggest(name, slices.Sorted(maps.Keys(tables)), r.config.MaxSuggestions)...)
	}
}

func arityText(lo, hi int) string {
	switch {
	case hi < 0:
		return fmt.Sprintf("at least %d argument(s)", lo)
	case lo == hi:
		return fmt.Sprintf("%d argument(s)", lo)
	default:
		return fmt.Sprintf("%d to %d arguments", lo, hi)
	}
}

// checkMapping reports mappings that do something other than what they
// probably mean.
func (r *Resolver) checkMapping(rule *MappingRule, d *diagnostic.Diagnostics) {
	pos := position(rule.Mapping.Position)
	src := rule.Mapping.Source.String()

	if rule.Source.Kind == SourcePath && rule.Source.Path.HasWildcard() &&
		!rule.Discard && !rule.Target.HasWildcard() {
		d.AddInfo(diagnostic.CodeWildcardMismatch, pos, src,
			fmt.Sprintf("wildcard source written to %s as one list", rule.Target))
	}

	if rule.Discard && !r.hasSideEffects(rule) {
		d.AddInfo(diagnostic.CodeUnreachableMapping, pos, src,
			"mapping has no effect: nothing is written and nothing external is called")
	}
}

func (r *Resolver) hasSideEffects(rule *MappingRule) bool {
	for _, s := range rule.Steps {
		if s.Binding != BindBuiltin {
			return true
		}
	}

	if rule.Source.Kind != SourceExpr {
		return false
	}

	for _, name := range expr.Calls(rule.Source.Expr) {
		if !expr.IsAggregate(name) {
			return true
		}
	}

	return false
}

// selectStrategy determines how a mapping is executed.
func selectStrategy(rule *MappingRule) (Strategy, string) {
	if rule.Discard {
		return StrategyDiscard, explDiscard
	}

	switch rule.Source.Kind {
	case SourceConstant:
		return StrategyConstant, explConstant
	case SourceMerge:
		return StrategyMerge, explMerge + rule.Source.Merge.Op.String()
	case SourceExpr:
		return StrategyCompute, explCompute
	case SourceNow, SourceUUID:
		return StrategyGenerated, explGenerated
	}

	switch {
	case len(rule.Steps) == 0:
		return StrategyCopy, explCopy
	case rule.Source.Path.HasWildcard() && ElementWise(rule.Steps):
		return StrategyFanOut, explFanOut
	default:
		return StrategyTransform, explTransform
	}
}
