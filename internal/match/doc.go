// Package match finds near-miss names for diagnostics.
//
// When a mapping file references an alias, transform, lookup table or
// function that does not exist, the parser and the planner ask this package
// for the closest known names and report them as "did you mean" hints.
//
// Key functions:
//   - NormalizeIdent: folds case and separators so "toInt" meets "to_int"
//   - Levenshtein: edit distance between two names
//   - RankCandidates / Suggest: ordered near misses for a name
package match
