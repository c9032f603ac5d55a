// Package expr implements the small expression language inside @compute,
// @call and @expr sources: literals, paths, function calls, unary minus and
// the four arithmetic operators with the usual precedence.
//
// Calls resolve against the external function registry first and then
// against the aggregates sum, count, avg, min and max. Arithmetic is done
// in float64; a Null or non-numeric operand, or a division by zero, yields
// Null.
package expr

import (
	"strings"

	"schemamap/internal/fieldpath"
	"schemamap/value"
)

// Node is an expression tree node.
type Node interface {
	String() string
	node()
}

// Literal is a constant.
type Literal struct {
	Value value.Value
}

// PathRef reads a path from the record.
type PathRef struct {
	Path fieldpath.Path
}

// Call applies a function to its evaluated arguments.
type Call struct {
	Name string
	Args []Node
}

// Neg negates its operand.
type Neg struct {
	Operand Node
}

// Op is a binary arithmetic operator.
type Op byte

const (
	OpAdd Op = '+'
	OpSub Op = '-'
	OpMul Op = '*'
	OpDiv Op = '/'
)

// Binary is an arithmetic operation.
type Binary struct {
	Op          Op
	Left, Right Node
}

func (n *Literal) String() string { return n.Value.String() }
func (n *PathRef) String() string { return n.Path.String() }
func (n *Neg) String() string     { return "-" + n.Operand.String() }

func (n *Call) String() string {
	args := make([]string, 0, len(n.Args))
	for _, a := range n.Args {
		args = append(args, a.String())
	}

	return n.Name + "(" + strings.Join(args, ", ") + ")"
}

func (n *Binary) String() string {
	return "(" + n.Left.String() + " " + string(n.Op) + " " + n.Right.String() + ")"
}

func (*Literal) node() {}
func (*PathRef) node() {}
func (*Call) node()    {}
func (*Neg) node()     {}
func (*Binary) node()  {}

// Aggregates are the function names evaluated natively when no external
// function of that name is registered.
var Aggregates = []string{"sum", "count", "avg", "min", "max"}

// IsAggregate reports whether name is one of Aggregates.
func IsAggregate(name string) bool {
	switch name {
	case "sum", "count", "avg", "min", "max":
		return true
	default:
		return false
	}
}

// Walk calls fn for n and every node below it, parents first.
func Walk(n Node, fn func(Node)) {
	fn(n)

	switch t := n.(type) {
	case *Call:
		for _, a := range t.Args {
			Walk(a, fn)
		}
	case *Neg:
		Walk(t.Operand, fn)
	case *Binary:
		Walk(t.Left, fn)
		Walk(t.Right, fn)
	}
}

// Calls returns the names of every function called in n, in order of
// appearance, without duplicates.
func Calls(n Node) []string {
	var names []string

	seen := make(map[string]bool)

	Walk(n, func(n Node) {
		if c, ok := n.(*Call); ok && !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	})

	return names
}
