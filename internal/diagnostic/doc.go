// Package diagnostic collects findings about a mapping file.
//
// Resolution never stops at the first problem. Every unknown transform,
// unresolved function, unreadable lookup file or suspicious rule is
// recorded with a stable code, the source position and, where possible,
// suggested corrections, so that "schemamap check" can report them all at
// once.
package diagnostic
