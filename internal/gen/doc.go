// Package gen is the compiled backend. It lowers a resolved plan two ways:
//
//   - Compile builds a Program of closures that runs in process and gives
//     the same results as the interpreter.
//   - Generate renders standalone Go source: a transformer type with one
//     straight-line method per mapping, plus a copy of the prelude package
//     that implements the builtins over plain Go values.
//
// Source generation uses text/template + go/format. Generated code never
// imports this module; it needs only the prelude's third-party imports.
package gen
