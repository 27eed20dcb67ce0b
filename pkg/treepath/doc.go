// Package treepath addresses and manipulates nodes inside nested
// map[string]any / []any structures, the shape produced by decoding JSON
// into generic Go values.
//
// A Path is a sequence of components, each either a map key (string) or a
// slice index (int). The canonical string form separates keys with dots and
// wraps indices in brackets:
//
//	company.members[0].name
//
// parses to ["company", "members", 0, "name"]. Parse and String round-trip
// for every well-formed path.
//
// On top of the path algebra the package offers the tree operations the
// asset store is built from:
//
//   - Get resolves a path, optionally recording every visited node or
//     aborting early at a caller-chosen node kind.
//   - Set writes a value, materializing intermediate containers whose type
//     is chosen by the next component (string -> map, int -> slice) and
//     extending slices with nil padding.
//   - Delete removes and returns the addressed value.
//   - Walk yields the nodes along a path one at a time and lets the caller
//     splice in replacements for missing components, which the store uses
//     to create permission-checked directories on demand.
//
// All operations mutate the given tree in place; none of them are
// goroutine-safe on their own.
package treepath
