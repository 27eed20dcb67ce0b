// Package reload executes Go script files through an embedded interpreter
// and keeps them fresh: loaded entry points are cached per file and symbol,
// and a file watcher drops the cache when a script changes on disk. The
// ScriptedAction type makes such entry points usable as asset actions.
package reload
