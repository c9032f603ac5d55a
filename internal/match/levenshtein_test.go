package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"trim", "trim", 0},
		{"", "abc", 3},
		{"a", "b", 1},
		{"kitten", "sitting", 3},
		{"titlecase", "title_case", 1},
		{"lowercse", "lowercase", 1},
		{"héllo", "hello", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, Levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.expected, Levenshtein(tt.b, tt.a))
		})
	}
}

func TestLevenshteinNormalized(t *testing.T) {
	assert.InDelta(t, 1.0, LevenshteinNormalized("", ""), 0.001)
	assert.InDelta(t, 0.0, LevenshteinNormalized("abc", "xyz"), 0.001)
	assert.InDelta(t, 1.0-3.0/7.0, LevenshteinNormalized("kitten", "sitting"), 0.001)
}

func TestNormalizedLevenshteinScore(t *testing.T) {
	assert.InDelta(t, 1.0, NormalizedLevenshteinScore("toInt", "to_int"), 0.001)
	assert.InDelta(t, 1.0, NormalizedLevenshteinScore("REGEX-REPLACE", "regex_replace"), 0.001)
	assert.Less(t, NormalizedLevenshteinScore("mask", "pad_right"), 0.5)
}

func BenchmarkLevenshtein(b *testing.B) {
	for b.Loop() {
		Levenshtein("collapse_spaces", "colapse_space")
	}
}
