// Package store implements a permissioned, content-addressable asset store
// behind a POSIX-style namespace.
//
// An asset couples an action with its configuration, permissions and the
// result of its last run. Assets register with a monotonically increasing id
// and mount into a directory tree of nested maps, where the "" key of every
// directory holds its permissions. Acquiring a path walks the tree under
// the caller's identity, following links and gating every step on execute
// access; updating an asset runs its action under an update strategy that
// decides between an in-place run, a run on a clone, or a make-style
// conditional rebuild over its dependencies.
//
// Backends persist asset records and the tree as self-describing JSON, to a
// directory of files or a BoltDB database.
package store
