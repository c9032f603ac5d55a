// Package lexer turns mapping-file text into tokens.
//
// Newlines are significant (they separate statements) and are emitted as
// tokens; '#' comments are dropped. Lexing only fails on an unterminated
// string: any other unexpected character becomes an Unknown token and is
// left for the parser to reject.
package lexer

import (
	"fmt"

	"schemamap/value"
)

//go:generate go tool stringer -type=Kind -linecomment -output=kind_string.go

// Kind is the type of a token.
type Kind uint8

const (
	EOF     Kind = iota // end of input
	Newline             // newline
	Ident               // identifier
	String              // string
	Number              // number
	Bool                // boolean
	Null                // null

	Config    // @config
	Aliases   // @aliases
	Lookups   // @lookups
	Functions // @functions
	When      // @when
	Else      // @else
	Compute   // @compute
	Call      // @call
	Expr      // @expr
	Now       // @now
	UUID      // @uuid
	Repeat    // @repeat
	Collect   // @collect

	Colon    // ':'
	Pipe     // '|'
	Dot      // '.'
	Comma    // ','
	Plus     // '+'
	Minus    // '-'
	Star     // '*'
	Slash    // '/'
	Coalesce // '??'
	Question // '?'
	At       // '@'
	Tilde    // '~'
	Assign   // '='
	Eq       // '=='
	Ne       // '!='
	Gt       // '>'
	Lt       // '<'
	Ge       // '>='
	Le       // '<='
	LBracket // '['
	RBracket // ']'
	LBrace   // '{'
	RBrace   // '}'
	LParen   // '('
	RParen   // ')'

	Unknown // unknown character
)

// IsDirective reports whether k is one of the @-keywords.
func (k Kind) IsDirective() bool {
	return k >= Config && k <= Collect
}

// IsComparison reports whether k is a comparison operator.
func (k Kind) IsComparison() bool {
	return k == Assign || (k >= Eq && k <= Le)
}

var directives = map[string]Kind{
	"config":    Config,
	"aliases":   Aliases,
	"lookups":   Lookups,
	"functions": Functions,
	"when":      When,
	"else":      Else,
	"compute":   Compute,
	"call":      Call,
	"expr":      Expr,
	"now":       Now,
	"uuid":      UUID,
	"repeat":    Repeat,
	"collect":   Collect,
}

var twoCharOps = map[string]Kind{
	"??": Coalesce,
	"==": Eq,
	"!=": Ne,
	">=": Ge,
	"<=": Le,
}

var singleCharOps = map[rune]Kind{
	':': Colon,
	'|': Pipe,
	'.': Dot,
	',': Comma,
	'+': Plus,
	'-': Minus,
	'*': Star,
	'/': Slash,
	'?': Question,
	'@': At,
	'~': Tilde,
	'=': Assign,
	'>': Gt,
	'<': Lt,
	'[': LBracket,
	']': RBracket,
	'{': LBrace,
	'}': RBrace,
	'(': LParen,
	')': RParen,
}

// Token is one lexeme.
type Token struct {
	Kind Kind
	// Text is the lexeme as written; for strings it is the decoded content.
	Text string
	// Value holds the literal for String, Number, Bool and Null tokens.
	Value  value.Value
	Line   int
	Column int
}

// Pos renders the token position as "line:column".
func (t Token) Pos() string {
	return fmt.Sprintf("%d:%d", t.Line, t.Column)
}

// Describe renders the token for error messages.
func (t Token) Describe() string {
	switch t.Kind {
	case EOF, Newline:
		return t.Kind.String()
	case String:
		return Quote(t.Text)
	case Ident, Number, Unknown:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	default:
		return t.Kind.String()
	}
}

// Error is a lexing failure with its position.
type Error struct {
	Message string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}
