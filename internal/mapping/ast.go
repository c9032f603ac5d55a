package mapping

import (
	"fmt"
	"strings"

	"schemamap/internal/fieldpath"
	"schemamap/value"
)

// Position is a line/column location in the mapping source.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// MappingFile is the root of a parsed mapping file. It is read-only once
// the parser returns it.
type MappingFile struct {
	// Config holds the @config entries in declaration order.
	Config *value.Map
	// Aliases maps alias names to their definitions.
	Aliases map[string]*AliasDefinition
	// Lookups maps lookup table names to their definitions.
	Lookups map[string]*LookupDefinition
	// Functions maps names declared in @functions to their specs.
	Functions map[string]*FunctionDefinition
	// Body holds mappings and blocks in source order.
	Body []Node
	// SourceName is the file the tree was parsed from, if any.
	SourceName string
}

// NewMappingFile returns an empty mapping file.
func NewMappingFile(sourceName string) *MappingFile {
	return &MappingFile{
		Config:     value.NewMap(),
		Aliases:    make(map[string]*AliasDefinition),
		Lookups:    make(map[string]*LookupDefinition),
		Functions:  make(map[string]*FunctionDefinition),
		SourceName: sourceName,
	}
}

// ConfigValue returns the @config entry for key, or Null.
func (f *MappingFile) ConfigValue(key string) value.Value {
	v, _ := f.Config.Get(key)
	return v
}

// ConfigString returns the text of a @config entry, or def when unset.
func (f *MappingFile) ConfigString(key, def string) string {
	v := f.ConfigValue(key)
	if v.IsNull() {
		return def
	}

	return v.Text()
}

// OmitNulls reports whether null_handling is "omit".
func (f *MappingFile) OmitNulls() bool {
	return f.ConfigString(ConfigNullHandling, NullKeep) == NullOmit
}

// SkipMissing reports whether missing_fields is "skip".
func (f *MappingFile) SkipMissing() bool {
	return f.ConfigString(ConfigMissingFields, "keep") == "skip"
}

// Recognized @config keys.
const (
	ConfigNullHandling    = "null_handling"
	ConfigMissingFields   = "missing_fields"
	ConfigFunctionsModule = "functions_module"
	ConfigFunctionsFile   = "functions_file"
	ConfigFunctions       = "functions"
	ConfigName            = "name"
)

// null_handling values.
const (
	NullKeep = "keep"
	NullOmit = "omit"
)

// Node is a body statement: *Mapping, *ConditionalBlock or *NestedBlock.
type Node interface {
	Pos() Position
	node()
}

// Mapping is one "source : target | transforms" rule.
type Mapping struct {
	Source     Source
	Target     Target
	Transforms TransformChain
	Position   Position
}

// ConditionalBlock is a @when block, or an @else block when Condition is
// nil. An @else block always directly follows its @when sibling.
type ConditionalBlock struct {
	Condition *Condition
	Body      []Node
	Position  Position
}

// IsElse reports whether the block is an @else block.
func (b *ConditionalBlock) IsElse() bool { return b.Condition == nil }

// NestedBlock is a bare "{ ... }" grouping.
type NestedBlock struct {
	Body     []Node
	Position Position
}

func (m *Mapping) Pos() Position          { return m.Position }
func (b *ConditionalBlock) Pos() Position { return b.Position }
func (b *NestedBlock) Pos() Position      { return b.Position }

func (*Mapping) node()          {}
func (*ConditionalBlock) node() {}
func (*NestedBlock) node()      {}

// Walk calls fn for every node in body, depth first, in source order.
// Returning false from fn skips the children of that node.
func Walk(body []Node, fn func(Node) bool) {
	for _, n := range body {
		if !fn(n) {
			continue
		}

		switch t := n.(type) {
		case *ConditionalBlock:
			Walk(t.Body, fn)
		case *NestedBlock:
			Walk(t.Body, fn)
		}
	}
}

// Mappings returns every mapping of body, including those in blocks.
func Mappings(body []Node) []*Mapping {
	var out []*Mapping

	Walk(body, func(n Node) bool {
		if m, ok := n.(*Mapping); ok {
			out = append(out, m)
		}

		return true
	})

	return out
}

// Source is the value side of a mapping: *PathSource, *MergeExpr,
// *ComputeExpr or *ConstantSource.
type Source interface {
	fmt.Stringer
	source()
}

// PathSource reads a path from the input record.
type PathSource struct {
	Path fieldpath.Path
}

// MergeOp selects how a merge expression combines its parts.
type MergeOp uint8

const (
	// MergeConcat joins the text of every part; Null parts are skipped.
	MergeConcat MergeOp = iota
	// MergeCoalesce yields the first non-null part.
	MergeCoalesce
)

func (o MergeOp) String() string {
	if o == MergeCoalesce {
		return "??"
	}

	return "+"
}

// MergePart is a path or a string literal inside a merge expression.
type MergePart struct {
	IsLiteral bool
	Literal   string
	Path      fieldpath.Path
}

func (p MergePart) String() string {
	if p.IsLiteral {
		return fmt.Sprintf("%q", p.Literal)
	}

	return p.Path.String()
}

// MergeExpr combines several parts with one operator.
type MergeExpr struct {
	Parts []MergePart
	Op    MergeOp
}

// ComputeKind tells the computed sources apart.
type ComputeKind uint8

const (
	ComputeCompute ComputeKind = iota
	ComputeCall
	ComputeExpression
	ComputeNow
	ComputeUUID
)

func (k ComputeKind) String() string {
	switch k {
	case ComputeCall:
		return "@call"
	case ComputeExpression:
		return "@expr"
	case ComputeNow:
		return "@now"
	case ComputeUUID:
		return "@uuid"
	default:
		return "@compute"
	}
}

// ComputeExpr is a computed source. Raw holds the text between the
// parentheses of @compute, @call and @expr; it is empty for @now and @uuid.
type ComputeExpr struct {
	Kind ComputeKind
	Raw  string
}

// ConstantSource is a literal source value.
type ConstantSource struct {
	Value value.Value
}

func (s *PathSource) String() string { return s.Path.String() }

func (s *MergeExpr) String() string {
	parts := make([]string, len(s.Parts))
	for i, p := range s.Parts {
		parts[i] = p.String()
	}

	return strings.Join(parts, " "+s.Op.String()+" ")
}

func (s *ComputeExpr) String() string {
	if s.Kind == ComputeNow || s.Kind == ComputeUUID {
		return s.Kind.String()
	}

	return s.Kind.String() + "(" + s.Raw + ")"
}

func (s *ConstantSource) String() string { return s.Value.String() }

func (*PathSource) source()     {}
func (*MergeExpr) source()      {}
func (*ComputeExpr) source()    {}
func (*ConstantSource) source() {}

// Target is the output side of a mapping: *PathTarget or *SkipTarget.
type Target interface {
	fmt.Stringer
	target()
}

// PathTarget writes the value at a path of the output record.
type PathTarget struct {
	Path fieldpath.Path
}

// SkipTarget ("~") evaluates the source and discards the result.
type SkipTarget struct{}

func (t *PathTarget) String() string { return t.Path.String() }
func (*SkipTarget) String() string   { return "~" }

func (*PathTarget) target() {}
func (*SkipTarget) target() {}

// CompareOp is a condition operator.
type CompareOp uint8

const (
	OpEq CompareOp = iota
	OpNe
	OpGt
	OpLt
	OpGe
	OpLe
)

func (o CompareOp) String() string {
	return [...]string{"==", "!=", ">", "<", ">=", "<="}[o]
}

// Condition guards a @when block.
type Condition struct {
	Field fieldpath.Path
	Op    CompareOp
	Value value.Value
}

func (c *Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, c.Value)
}

// ArgKind tells transform argument forms apart.
type ArgKind uint8

const (
	// ArgLiteral is a string, number, boolean, null, or inline {...} / [...].
	ArgLiteral ArgKind = iota
	// ArgWord is a bare identifier; it evaluates to its own name.
	ArgWord
	// ArgRef is an "@name" reference to a lookup table or constant.
	ArgRef
	// ArgPath is a dotted, indexed or rooted path read from the input.
	ArgPath
)

// Arg is one transform argument.
type Arg struct {
	Kind  ArgKind
	Value value.Value
	Name  string
	Path  fieldpath.Path
}

// Literal returns a literal argument.
func Literal(v value.Value) Arg { return Arg{Kind: ArgLiteral, Value: v} }

func (a Arg) String() string {
	switch a.Kind {
	case ArgWord:
		return a.Name
	case ArgRef:
		return "@" + a.Name
	case ArgPath:
		return a.Path.String()
	default:
		return a.Value.String()
	}
}

// Transform is one step of a transform chain.
type Transform struct {
	Name string
	Args []Arg
	// IsAlias marks an "@name" alias reference before expansion.
	IsAlias  bool
	Position Position
}

func (t Transform) String() string {
	var b strings.Builder

	if t.IsAlias {
		b.WriteByte('@')
	}

	b.WriteString(t.Name)

	if len(t.Args) > 0 {
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}

		b.WriteString("(" + strings.Join(args, ", ") + ")")
	}

	return b.String()
}

// TransformChain is applied left to right.
type TransformChain []Transform

func (c TransformChain) String() string {
	parts := make([]string, len(c))
	for i, t := range c {
		parts[i] = t.String()
	}

	return strings.Join(parts, " | ")
}

// AliasDefinition is a named, reusable transform chain with optional
// positional parameters.
type AliasDefinition struct {
	Name       string
	Params     []string
	Transforms TransformChain
	Position   Position
}

// LookupDefinition is an inline table or a file to load one from.
type LookupDefinition struct {
	Name     string
	Inline   *value.Map
	File     string
	Position Position
}

// IsFile reports whether the table is loaded from a file.
func (d *LookupDefinition) IsFile() bool { return d.Inline == nil }

// FunctionDefinition declares an external function by spec string,
// "module_or_file:function[ as alias]".
type FunctionDefinition struct {
	Name     string
	Spec     string
	Alias    string
	Position Position
}

// FullSpec renders the spec with its alias suffix, the form the function
// registry parses.
func (d *FunctionDefinition) FullSpec() string {
	if d.Alias == "" {
		return d.Spec
	}

	return d.Spec + " as " + d.Alias
}
