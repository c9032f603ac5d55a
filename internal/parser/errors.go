package parser

import (
	"fmt"

	"schemamap/internal/lexer"
	"schemamap/internal/mapping"
)

// Error is a grammar violation. Parsing stops at the first one.
type Error struct {
	Message string
	Line    int
	Column  int
	// Source is the name of the mapping file, if known.
	Source string
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Source, e.Line, e.Column, e.Message)
	}

	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// Pos returns the location of the error.
func (e *Error) Pos() mapping.Position {
	return mapping.Position{Line: e.Line, Column: e.Column}
}

func (p *parser) errorf(tok lexer.Token, format string, args ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
		Source:  p.file.SourceName,
	}
}

func (p *parser) errorAt(pos mapping.Position, format string, args ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Line:    pos.Line,
		Column:  pos.Column,
		Source:  p.file.SourceName,
	}
}

func (p *parser) unexpected(tok lexer.Token, want string) *Error {
	return p.errorf(tok, "expected %s, got %s", want, tok.Describe())
}
