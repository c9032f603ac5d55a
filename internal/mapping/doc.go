// Package mapping defines the syntax tree of a SchemaMap mapping file.
//
// A mapping file declares, per output field, where the value comes from,
// which transforms to apply and under which condition the rule fires:
//
//	@config {
//	    null_handling: "omit"
//	}
//
//	@aliases {
//	    clean: trim | collapse_spaces
//	    money(places): to_float | round(places)
//	}
//
//	@lookups {
//	    status: { "A": "ACTIVE", "I": "INACTIVE" }
//	    country: "countries.json"
//	}
//
//	@functions {
//	    tax: "billing:calculate_tax as tax"
//	}
//
//	user.first_name : profile.firstName | @clean | titlecase
//	first + " " + last : profile.fullName
//	nickname ?? first : profile.display
//	items[*].qty : lines[*].quantity | to_int
//	@compute(sum(items[*].price)) : totals.gross
//	@now : meta.generatedAt
//
//	@when status == "shipped" {
//	    tracking : shipment.tracking
//	}
//	@else {
//	    "pending" : shipment.state
//	}
//
// # Sources
//
//   - Paths: "a.b", "items[0]", "items[-1]", "items[*].price", with a trailing
//     "?" marking the path optional
//   - Merges: parts joined with "+" (concatenate) or "??" (first non-null)
//   - Computed values: @compute(...), @call(...), @expr(...), @now, @uuid
//   - Constants: strings, numbers, true, false, null
//
// # Targets
//
// A target is a path without "?" or "~", which evaluates the source and
// writes nothing.
//
// # Aliases
//
// Alias references ("@clean") are expanded by the parser, so the mappings
// of a parsed tree never contain a Transform with IsAlias set. Alias
// definitions keep their references as written.
package mapping
