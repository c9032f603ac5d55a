package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostic codes.
const (
	CodeUnknownTransform    = "unknown-transform"
	CodeUnknownLookup       = "unknown-lookup"
	CodeLookupLoad          = "lookup-load"
	CodeFunctionUnresolved  = "function-unresolved"
	CodeUnknownFunction     = "unknown-function"
	CodeBadArgument         = "bad-argument"
	CodeUnknownConfig       = "unknown-config"
	CodeBadConfig           = "bad-config"
	CodeDuplicateTarget     = "duplicate-target"
	CodeNonDeterministic    = "non-deterministic"
	CodeWildcardMismatch    = "wildcard-mismatch"
	CodeRequiredNeverFails  = "required-never-fails"
	CodeUnreachableMapping  = "unreachable-mapping"
	CodeExpressionSyntax    = "expression-syntax"
	CodeExternalTransform   = "external-transform"
	CodeMissingFieldsPolicy = "missing-fields"
)

// Diagnostics holds all diagnostic information from resolution.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Line and Column locate the finding in the mapping file (0 if unknown).
	Line   int
	Column int
	// Subject names what the finding is about (a target path, a table...).
	Subject string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Position locates a diagnostic in the mapping source.
type Position struct {
	Line   int
	Column int
}

// Add records a diagnostic of the given severity.
func (d *Diagnostics) Add(sev Severity, code string, pos Position, subject, message string, suggestions ...string) {
	diag := Diagnostic{
		Severity:    sev,
		Code:        code,
		Message:     message,
		Line:        pos.Line,
		Column:      pos.Column,
		Subject:     subject,
		Suggestions: suggestions,
	}

	switch sev {
	case SeverityError:
		d.Errors = append(d.Errors, diag)
	case SeverityWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code string, pos Position, subject, message string, suggestions ...string) {
	d.Add(SeverityError, code, pos, subject, message, suggestions...)
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code string, pos Position, subject, message string, suggestions ...string) {
	d.Add(SeverityWarning, code, pos, subject, message, suggestions...)
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code string, pos Position, subject, message string) {
	d.Add(SeverityInfo, code, pos, subject, message)
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// All returns errors, then warnings, then infos.
func (d *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, 0, len(d.Errors)+len(d.Warnings)+len(d.Infos))
	out = append(out, d.Errors...)
	out = append(out, d.Warnings...)

	return append(out, d.Infos...)
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Line > 0 {
		prefix = append(prefix, fmt.Sprintf("%d:%d", d.Line, d.Column))
	}

	if d.Subject != "" {
		prefix = append(prefix, d.Subject)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
