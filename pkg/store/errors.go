package store

import "errors"

var (
	// ErrNotFound flags paths or ids that resolve to nothing.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied flags operations the current identity may not
	// perform.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidPath flags store paths with index components or other
	// malformed shapes.
	ErrInvalidPath = errors.New("invalid path")
	// ErrNotDirectory flags directory operations on non-directory nodes.
	ErrNotDirectory = errors.New("not a directory")
	// ErrNotEmpty flags removal of directories that still hold entries.
	ErrNotEmpty = errors.New("directory not empty")
	// ErrInvalidEntry flags directory entries of a shape the store does not
	// understand.
	ErrInvalidEntry = errors.New("invalid directory entry")
	// ErrLinkLoop flags symbolic link chains beyond the traversal depth cap.
	ErrLinkLoop = errors.New("too many levels of symbolic links")
)
