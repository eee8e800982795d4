// Package frozenfs implements the frozen filesystem: read-only
// directory/file/symlink views rooted in a scratch diagnostics
// directory, built by "freezing" live on-disk trees.
package frozenfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

// Freezer tracks which paths (relative to its diagnostics root) have
// already been frozen. Freezing a directory subsumes any previously
// frozen paths nested under it: they are dropped from the freezer's
// own tracking map (though still reachable through the new Dir) so the
// map stays proportional to the number of frozen roots, not to the
// total file count.
type Freezer struct {
	mu             sync.Mutex
	diagnosticsDir string
	frozen         map[string]DirEntry
}

// New constructs a Freezer rooted at diagnosticsDir. Paths passed to
// Freeze are interpreted relative to this root.
func New(diagnosticsDir string) *Freezer {
	return &Freezer{
		diagnosticsDir: diagnosticsDir,
		frozen:         make(map[string]DirEntry),
	}
}

// Freeze freezes the on-disk object at relativePath (relative to the
// diagnostics root) and returns the resulting DirEntry. On success the
// object and everything it transitively contains is made read-only at
// the OS level. Freezing an already-frozen path is idempotent and does
// not re-touch OS permissions.
func (fz *Freezer) Freeze(relativePath string) (DirEntry, error) {
	components, err := freezeComponents(relativePath)
	if err != nil {
		return nil, err
	}

	fz.mu.Lock()
	defer fz.mu.Unlock()

	if existing, ok := fz.frozen[relativePath]; ok {
		return existing, nil
	}

	cur := fz.diagnosticsDir
	var lastInfo os.FileInfo
	for i, part := range components {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if err != nil {
			return nil, classifyStatError(err)
		}
		if i != len(components)-1 && !info.IsDir() {
			return nil, ErrNotADirectory
		}
		lastInfo = info
	}

	entry, err := fz.freezeTerminal(relativePath, cur, lastInfo)
	if err != nil {
		return nil, err
	}

	fz.frozen[relativePath] = entry
	fz.collapse(relativePath)
	return entry, nil
}

// collapse removes tracking entries nested under relativePath; they
// remain reachable through the just-frozen Dir's own index. Must be
// called with mu held.
func (fz *Freezer) collapse(relativePath string) {
	prefix := relativePath + "/"
	for k := range fz.frozen {
		if k != relativePath && strings.HasPrefix(k, prefix) {
			delete(fz.frozen, k)
		}
	}
}

func classifyStatError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, syscall.ENOTDIR) {
		return ErrNotADirectory
	}
	return err
}

// freezeTerminal classifies and freezes the object at absolutePath
// (already Lstat'd into info), recursing into directories.
func (fz *Freezer) freezeTerminal(relativePath, absolutePath string, info os.FileInfo) (DirEntry, error) {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(absolutePath)
		if err != nil {
			return nil, err
		}
		return &Symlink{target: target}, nil

	case info.IsDir():
		return fz.freezeDir(relativePath, absolutePath)

	default:
		if err := os.Chmod(absolutePath, info.Mode().Perm()&0o500); err != nil {
			return nil, err
		}
		return newFile(absolutePath, relativePath), nil
	}
}

// freezeDir recursively freezes every child of a directory, then sets
// the directory itself read-only. OS errors during the walk are
// reported without rolling back permission changes already applied to
// siblings.
func (fz *Freezer) freezeDir(relativePath, absolutePath string) (*Dir, error) {
	entries, err := os.ReadDir(absolutePath)
	if err != nil {
		return nil, err
	}

	contents := make(map[string]DirEntry, len(entries))
	for _, de := range entries {
		childRelative := de.Name()
		if relativePath != "" {
			childRelative = relativePath + "/" + de.Name()
		}
		childAbsolute := filepath.Join(absolutePath, de.Name())

		info, err := os.Lstat(childAbsolute)
		if err != nil {
			return nil, classifyStatError(err)
		}
		child, err := fz.freezeTerminal(childRelative, childAbsolute, info)
		if err != nil {
			return nil, err
		}
		contents[de.Name()] = child
	}

	if err := os.Chmod(absolutePath, 0o500); err != nil {
		return nil, err
	}
	return newDir(contents), nil
}

// DiagnosticsDir returns the scratch root this Freezer is rooted at.
func (fz *Freezer) DiagnosticsDir() string {
	return fz.diagnosticsDir
}
