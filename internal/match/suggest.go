package match

import (
	"sort"
)

// Candidate is a known name scored against a requested one.
type Candidate struct {
	Name string
	// Score is the normalized similarity (0-1, higher is closer).
	Score float64
	// Distance is the raw edit distance between the names as written.
	Distance int
}

// CandidateList is a list of candidates, best first.
type CandidateList []Candidate

// DefaultMinScore is the similarity below which a name is not offered as a
// suggestion.
const DefaultMinScore = 0.5

// RankCandidates scores every known name against name and returns them
// best first. Ties are broken by edit distance, then alphabetically.
func RankCandidates(name string, known []string) CandidateList {
	norm := NormalizeIdent(name)

	out := make(CandidateList, 0, len(known))
	for _, k := range known {
		out = append(out, Candidate{
			Name:     k,
			Score:    LevenshteinNormalized(norm, NormalizeIdent(k)),
			Distance: Levenshtein(name, k),
		})
	}

	sort.Sort(out)

	return out
}

// Suggest returns up to limit known names close enough to name to be worth
// offering as a correction.
func Suggest(name string, known []string, limit int) []string {
	var out []string

	for _, c := range RankCandidates(name, known).AboveThreshold(DefaultMinScore).Top(limit) {
		if c.Name != name {
			out = append(out, c.Name)
		}
	}

	return out
}

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less implements sort.Interface.
func (c CandidateList) Less(i, j int) bool {
	if c[i].Score != c[j].Score {
		return c[i].Score > c[j].Score
	}

	if c[i].Distance != c[j].Distance {
		return c[i].Distance < c[j].Distance
	}

	return c[i].Name < c[j].Name
}

// Top returns the top n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n >= len(c) {
		return c
	}

	return c[:n]
}

// Best returns the best candidate, or nil if there are none.
func (c CandidateList) Best() *Candidate {
	if len(c) == 0 {
		return nil
	}

	return &c[0]
}

// AboveThreshold returns the candidates scoring at least threshold.
func (c CandidateList) AboveThreshold(threshold float64) CandidateList {
	var result CandidateList

	for _, cand := range c {
		if cand.Score >= threshold {
			result = append(result, cand)
		}
	}

	return result
}
