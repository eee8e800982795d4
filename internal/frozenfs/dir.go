package frozenfs

import (
	"fmt"
	"iter"
	"strings"
)

// Dir is a frozen, read-only directory: a mapping from name to child
// entry. Dirs are cheap to share — *Dir is itself the shared-ownership
// handle, and contents is never mutated after construction.
type Dir struct {
	contents map[string]DirEntry
}

func newDir(contents map[string]DirEntry) *Dir {
	return &Dir{contents: contents}
}

// Entries lazily iterates the directory's immediate children. Order is
// unspecified (Go map iteration order).
func (d *Dir) Entries() iter.Seq2[string, DirEntry] {
	return func(yield func(string, DirEntry) bool) {
		for name, entry := range d.contents {
			if !yield(name, entry) {
				return
			}
		}
	}
}

// GetEntry retrieves the immediate child named name, or (nil, false) if
// there is none. Unlike Get/GetNofollow this does not recurse.
func (d *Dir) GetEntry(name string) (DirEntry, bool) {
	e, ok := d.contents[name]
	return e, ok
}

// GetNofollow retrieves the entry at path under this Dir without ever
// following a symlink or a "." / ".." component. If an intermediate
// component is not a directory (including a symlink, a file, or an
// explicit "." / ".."), it fails with ErrNotADirectory. An absolute
// path fails with ErrLeavesDir. The empty path returns d itself.
func (d *Dir) GetNofollow(path string) (DirEntry, error) {
	components, absolute := splitPathComponents(path)
	if absolute {
		return nil, ErrLeavesDir
	}

	cur := d
	for i, c := range components {
		if classifyComponent(c) != componentNormal {
			return nil, ErrNotADirectory
		}
		entry, ok := cur.contents[c]
		if !ok {
			return nil, ErrNotFound
		}
		if i == len(components)-1 {
			return entry, nil
		}
		next, ok := AsDir(entry)
		if !ok {
			return nil, ErrNotADirectory
		}
		cur = next
	}
	return cur, nil
}

// Get retrieves the entry at path under this Dir, resolving relative
// symlinks as it goes. Absolute paths, and symlinks or ".." sequences
// that would step outside this Dir, fail with ErrLeavesDir. Symlink
// cycles and pathological chains are detected in polynomial time by an
// iterative work-list that memoises visited (directory, remaining-path)
// states, rather than a naive recursive substitute-and-reparse that
// would blow up exponentially on a deep, high-arity chain of symlinks.
func (d *Dir) Get(path string) (ResolvedEntry, error) {
	components, absolute := splitPathComponents(path)
	if absolute {
		return nil, ErrLeavesDir
	}

	stack := []*Dir{d}
	pending := components
	visited := make(map[string]struct{})

	for {
		key := visitKey(stack[len(stack)-1], pending)
		if _, seen := visited[key]; seen {
			return nil, ErrFilesystemLoop
		}
		visited[key] = struct{}{}

		if len(pending) == 0 {
			return stack[len(stack)-1], nil
		}

		c, rest := pending[0], pending[1:]
		switch classifyComponent(c) {
		case componentCurDir:
			pending = rest
			continue
		case componentParentDir:
			if len(stack) == 1 {
				return nil, ErrLeavesDir
			}
			stack = stack[:len(stack)-1]
			pending = rest
			continue
		}

		top := stack[len(stack)-1]
		entry, ok := top.contents[c]
		if !ok {
			return nil, ErrNotFound
		}
		switch e := entry.(type) {
		case *Dir:
			stack = append(stack, e)
			pending = rest
		case *File:
			if len(rest) != 0 {
				return nil, ErrNotADirectory
			}
			return e, nil
		case *Symlink:
			if strings.HasPrefix(e.target, "/") {
				return nil, ErrLeavesDir
			}
			targetComponents, targetAbsolute := splitPathComponents(e.target)
			if targetAbsolute {
				return nil, ErrLeavesDir
			}
			next := make([]string, 0, len(targetComponents)+len(rest))
			next = append(next, targetComponents...)
			next = append(next, rest...)
			pending = next
		default:
			return nil, fmt.Errorf("frozenfs: unexpected DirEntry type %T", entry)
		}
	}
}

func visitKey(d *Dir, pending []string) string {
	return fmt.Sprintf("%p\x00%s", d, strings.Join(pending, "/"))
}
