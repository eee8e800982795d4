package frozenfs

import "errors"

// Sentinel errors surfaced by Freezer and Dir operations. Checked with
// errors.Is; callers should not match on error text.
var (
	// ErrInvalidInput is returned when a path given to Freeze contains a
	// non-name component (absolute prefix, ".", "..", or an empty segment).
	ErrInvalidInput = errors.New("frozenfs: invalid path")
	// ErrNotFound is returned when a path component does not exist.
	ErrNotFound = errors.New("frozenfs: not found")
	// ErrNotADirectory is returned when an intermediate path component
	// resolves to something other than a directory.
	ErrNotADirectory = errors.New("frozenfs: not a directory")
	// ErrFilesystemLoop is returned when Dir.Get detects a symlink cycle.
	ErrFilesystemLoop = errors.New("frozenfs: filesystem loop")
	// ErrLeavesDir is returned when a path (or a symlink target it
	// traverses) would resolve outside the Dir it was looked up on.
	ErrLeavesDir = errors.New("frozenfs: path leaves directory")
	// ErrNotUTF8 is wrapped by the error returned when a File fails
	// UTF-8 decoding on conversion to TextFile; that error also names
	// the file's relative path.
	ErrNotUTF8 = errors.New("frozenfs: file is not valid utf-8")
)
