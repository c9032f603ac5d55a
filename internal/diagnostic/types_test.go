package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostics_AddAndMerge(t *testing.T) {
	var d Diagnostics

	assert.True(t, d.IsValid())
	require.NoError(t, d.Error())

	d.AddWarning(CodeUnknownTransform, Position{Line: 3, Column: 14}, "titlcase", "unknown transform", "titlecase")
	d.AddInfo(CodeMissingFieldsPolicy, Position{}, "", "missing fields are skipped")

	var other Diagnostics
	other.AddError(CodeExpressionSyntax, Position{Line: 5, Column: 1}, "total", "unexpected ')'")

	d.Merge(other)

	assert.True(t, d.HasErrors())
	assert.Len(t, d.All(), 3)
	assert.Equal(t, SeverityError, d.All()[0].Severity)
	require.EqualError(t, d.Error(), "5:1 total: [expression-syntax] unexpected ')'")
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{
		Code:        CodeUnknownTransform,
		Message:     `unknown transform "titlcase"`,
		Line:        2,
		Column:      7,
		Suggestions: []string{"titlecase"},
	}

	assert.Equal(t, `2:7: [unknown-transform] unknown transform "titlcase" (did you mean titlecase?)`, d.String())
	assert.Equal(t, "plain", Diagnostic{Message: "plain"}.String())
	assert.Equal(t, "warning", SeverityWarning.String())
}
