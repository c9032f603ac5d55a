// Package plan turns a parsed mapping file into a Plan that both backends
// execute.
//
// Resolution pipeline:
//  1. Register the external functions the file declares (@functions,
//     functions_module, functions_file, functions) into the registry
//  2. Load the lookup tables, inline or from JSON/YAML files
//  3. For every mapping:
//     - classify the source (path, constant, merge, compute, generated)
//     - bind each transform step to a builtin or an external function
//     - pick a Strategy describing how the backends execute it
//  4. Emit diagnostics (unknown transforms and lookups, bad arity,
//     duplicate targets, non-deterministic sources, expression errors)
//
// Load failures are best effort: a table or function that cannot be loaded
// is left absent, reported as a warning and collected in Plan.Warnings.
package plan
