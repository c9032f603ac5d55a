package plan

import (
	"schemamap/internal/builtin"
	"schemamap/internal/diagnostic"
	"schemamap/internal/expr"
	"schemamap/internal/fieldpath"
	"schemamap/internal/mapping"
	"schemamap/internal/registry"
	"schemamap/value"
)

// Plan is the final output of the resolution pipeline.
// It contains everything the interpreter and the code generator need.
type Plan struct {
	// Name is the transformer name: the "name" @config entry, or one
	// derived from the source file.
	Name string
	// File is the mapping file the plan was resolved from.
	File *mapping.MappingFile
	// Funcs holds the external functions steps and expressions call.
	Funcs *registry.Registry
	// Tables holds every lookup table that loaded.
	Tables map[string]*value.Map
	// Rules mirrors the mapping body.
	Rules []Rule
	// OmitNulls strips Null values from the output (null_handling: omit).
	OmitNulls bool
	// SkipMissing skips mappings whose source is Null (missing_fields: skip).
	SkipMissing bool
	// Diagnostics contains all warnings and errors from resolution.
	Diagnostics diagnostic.Diagnostics
	// Warnings aggregates the load failures that were swallowed.
	Warnings error

	config   Config
	loadDiag diagnostic.Diagnostics
}

// Rule is one node of the plan body: *MappingRule, *BlockRule or
// *GroupRule.
type Rule interface {
	Pos() mapping.Position
	rule()
}

// MappingRule is a resolved mapping.
type MappingRule struct {
	// Mapping is the AST node the rule was resolved from.
	Mapping *mapping.Mapping
	// Strategy describes how the backends execute the rule.
	Strategy Strategy
	// Source is the resolved value side.
	Source Source
	// Steps is the transform chain, bound.
	Steps []Step
	// Target is the output path. It is zero when Discard is set.
	Target fieldpath.Path
	// Discard marks a "~" target: the source and steps run, nothing is
	// written.
	Discard bool
	// Explanation describes why this strategy was chosen.
	Explanation string
}

// BlockRule is a @when block, or an @else block when Condition is nil.
// An @else block runs iff the @when block right before it did not match.
type BlockRule struct {
	Condition *mapping.Condition
	Body      []Rule
	Position  mapping.Position
}

// IsElse reports whether the block is an @else block.
func (b *BlockRule) IsElse() bool { return b.Condition == nil }

// GroupRule is a bare "{ ... }" block; its body always runs.
type GroupRule struct {
	Body     []Rule
	Position mapping.Position
}

func (r *MappingRule) Pos() mapping.Position { return r.Mapping.Position }
func (r *BlockRule) Pos() mapping.Position   { return r.Position }
func (r *GroupRule) Pos() mapping.Position   { return r.Position }

func (*MappingRule) rule() {}
func (*BlockRule) rule()   {}
func (*GroupRule) rule()   {}

// SourceKind tells resolved sources apart.
type SourceKind int

const (
	// SourcePath reads Path from the record.
	SourcePath SourceKind = iota
	// SourceConstant yields Constant.
	SourceConstant
	// SourceMerge concatenates or coalesces Merge's parts.
	SourceMerge
	// SourceExpr evaluates Expr against the record.
	SourceExpr
	// SourceNow yields the current UTC time.
	SourceNow
	// SourceUUID yields a random UUID.
	SourceUUID
)

// String returns a human-readable source kind.
func (k SourceKind) String() string {
	switch k {
	case SourcePath:
		return "path"
	case SourceConstant:
		return "constant"
	case SourceMerge:
		return "merge"
	case SourceExpr:
		return "expr"
	case SourceNow:
		return "now"
	case SourceUUID:
		return "uuid"
	default:
		return unknownStr
	}
}

const unknownStr = "unknown"

// Source is the resolved value side of a mapping.
type Source struct {
	Kind SourceKind
	// Path is set for SourcePath.
	Path fieldpath.Path
	// Constant is set for SourceConstant.
	Constant value.Value
	// Merge is set for SourceMerge.
	Merge *mapping.MergeExpr
	// Expr is set for SourceExpr.
	Expr expr.Node
	// Strict makes unknown functions in Expr fail (@call).
	Strict bool
}

// Optional reports whether a Null source skips the mapping.
func (s Source) Optional() bool {
	return s.Kind == SourcePath && s.Path.Optional
}

// Strategy describes how a mapping is executed.
type Strategy int

const (
	// StrategyCopy - path source written as is.
	StrategyCopy Strategy = iota
	// StrategyTransform - path source run through a transform chain.
	StrategyTransform
	// StrategyFanOut - wildcard source whose chain is applied element by
	// element in an explicit loop.
	StrategyFanOut
	// StrategyMerge - concatenation or coalescing of several parts.
	StrategyMerge
	// StrategyCompute - expression evaluated against the record.
	StrategyCompute
	// StrategyConstant - literal value.
	StrategyConstant
	// StrategyGenerated - @now or @uuid.
	StrategyGenerated
	// StrategyDiscard - "~" target, nothing is written.
	StrategyDiscard
)

// String returns a human-readable strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyCopy:
		return "copy"
	case StrategyTransform:
		return "transform"
	case StrategyFanOut:
		return "fan_out"
	case StrategyMerge:
		return "merge"
	case StrategyCompute:
		return "compute"
	case StrategyConstant:
		return "constant"
	case StrategyGenerated:
		return "generated"
	case StrategyDiscard:
		return "discard"
	default:
		return unknownStr
	}
}

// Binding tells what a step calls.
type Binding int

const (
	// BindBuiltin - a builtin transform.
	BindBuiltin Binding = iota
	// BindExternal - a function of the registry, called with the value
	// followed by the arguments.
	BindExternal
	// BindUnresolved - neither; the step passes its input through.
	BindUnresolved
)

// String returns a human-readable binding name.
func (b Binding) String() string {
	switch b {
	case BindBuiltin:
		return "builtin"
	case BindExternal:
		return "external"
	case BindUnresolved:
		return "unresolved"
	default:
		return unknownStr
	}
}

// Step is one bound transform.
type Step struct {
	Name    string
	Binding Binding
	// Builtin is set when Binding is BindBuiltin.
	Builtin builtin.Kind
	// Args are the arguments as written.
	Args []mapping.Arg
	// Static holds the evaluated arguments when none reads the record.
	Static []value.Value
	// Dynamic is set when an argument is a path into the record.
	Dynamic  bool
	Position mapping.Position
}

// ArgValues evaluates the step arguments against record. A bare word
// evaluates to its own name and a reference to "@name".
func (s *Step) ArgValues(record value.Value) []value.Value {
	if !s.Dynamic {
		return s.Static
	}

	return argValues(s.Args, record)
}

func argValues(args []mapping.Arg, record value.Value) []value.Value {
	out := make([]value.Value, len(args))

	for i, a := range args {
		switch a.Kind {
		case mapping.ArgWord:
			out[i] = value.String(a.Name)
		case mapping.ArgRef:
			out[i] = value.String("@" + a.Name)
		case mapping.ArgPath:
			out[i] = fieldpath.Get(record, a.Path)
		default:
			out[i] = a.Value
		}
	}

	return out
}

// ElementWise reports whether every step can run on one element of a
// sequence at a time with the same result as running on the sequence.
// External functions map over elements and unresolved steps pass values
// through. when and else share state across elements, so they never qualify.
func ElementWise(steps []Step) bool {
	for _, s := range steps {
		if s.Binding != BindBuiltin {
			continue
		}

		if s.Builtin.ArrayAware() {
			return false
		}

		if s.Builtin == builtin.When || s.Builtin == builtin.Else {
			return false
		}
	}

	return true
}

// MappingRules returns every mapping rule of body, including those in
// blocks, in source order.
func MappingRules(body []Rule) []*MappingRule {
	var out []*MappingRule

	for _, r := range body {
		switch t := r.(type) {
		case *MappingRule:
			out = append(out, t)
		case *BlockRule:
			out = append(out, MappingRules(t.Body)...)
		case *GroupRule:
			out = append(out, MappingRules(t.Body)...)
		}
	}

	return out
}
