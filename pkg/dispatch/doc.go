// Package dispatch selects between variants of an operation by inspecting
// the call arguments, the moral equivalent of overloading for functions
// taking a map of named arguments.
//
// A Namespace holds an ordered list of variants. Each variant declares
// constraints on named arguments: P(pred) requires the argument and its
// predicate, Opt(pred) tolerates absence, Absent() forbids presence.
// Select walks the variants in registration order and returns the handler
// of the first whose constraints accept the arguments; with no match it
// returns ErrNoVariant. Registration order is therefore part of the
// interface: put the most specific variants first.
//
// Predicates are plain func(any) bool values with consistent results.
// The package ships the usual combinators (When, Either, OneOf, Not) and
// leaf predicates for types, ranges, lengths and regular expressions.
package dispatch
