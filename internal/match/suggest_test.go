package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankCandidates(t *testing.T) {
	got := RankCandidates("titlcase", []string{"trim", "titlecase", "capitalize", "title"})

	require.Len(t, got, 4)
	assert.Equal(t, "titlecase", got.Best().Name)
	assert.Equal(t, 1, got[0].Distance)
}

func TestSuggest(t *testing.T) {
	known := []string{"clean", "money", "cleanup", "status"}

	assert.Equal(t, []string{"clean", "cleanup"}, Suggest("cleen", known, 2))
	assert.Empty(t, Suggest("zzzzzz", known, 3))
	assert.Equal(t, []string{"cleanup"}, Suggest("clean", known, 2)[:1])
}

func TestCandidateList_Empty(t *testing.T) {
	var c CandidateList

	assert.Nil(t, c.Best())
	assert.Empty(t, c.Top(3))
}
