// Package loadsource implements the first tool in every run: freezing
// the configured input directory into a read-only RawSource
// representation that every downstream tool reads from instead of
// touching the live filesystem again.
package loadsource

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jra3/harvest/internal/frozenfs"
	"github.com/jra3/harvest/internal/id"
	"github.com/jra3/harvest/internal/ir"
	"github.com/jra3/harvest/internal/tool"

	"github.com/dustin/go-humanize"
)

// RawSource is the frozen view of the configured input tree.
type RawSource struct {
	dir *frozenfs.Dir
}

func (RawSource) Name() string { return "raw_source" }

func (r RawSource) String() string {
	return fmt.Sprintf("RawSource(%d top-level entries)", countEntries(r.dir))
}

// Dir returns the frozen root directory, for downstream tools that walk
// or look up files within it.
func (r RawSource) Dir() *frozenfs.Dir {
	return r.dir
}

// Materialize recreates the frozen tree under path, for diagnostics
// inspection. Files are symlinked back to their frozen, read-only
// originals via CopyRO rather than duplicated.
func (r RawSource) Materialize(path string) error {
	return materializeDir(r.dir, path, "")
}

func materializeDir(d *frozenfs.Dir, outputRoot, relative string) error {
	absolute := filepath.Join(outputRoot, relative)
	if err := os.MkdirAll(absolute, 0o755); err != nil {
		return fmt.Errorf("materialize %s: %w", relative, err)
	}
	for name, entry := range d.Entries() {
		childRelative := name
		if relative != "" {
			childRelative = relative + "/" + name
		}
		if child, ok := frozenfs.AsDir(entry); ok {
			if err := materializeDir(child, outputRoot, childRelative); err != nil {
				return err
			}
			continue
		}
		if file, ok := frozenfs.AsFile(entry); ok {
			dest := filepath.Join(outputRoot, childRelative)
			if err := file.CopyRO(dest); err != nil {
				return fmt.Errorf("materialize %s: %w", childRelative, err)
			}
			continue
		}
		// Symlinks recorded during freezing are not re-created standalone;
		// they only matter as part of a resolved path lookup.
	}
	return nil
}

func countEntries(d *frozenfs.Dir) int {
	n := 0
	for range d.Entries() {
		n++
	}
	return n
}

// LoadSource is the Tool that performs the freeze.
type LoadSource struct {
	directory string
}

// New constructs a LoadSource tool that will freeze directory.
func New(directory string) *LoadSource {
	return &LoadSource{directory: directory}
}

func (l *LoadSource) Name() string { return "load_source" }

func (l *LoadSource) Run(ctx tool.RunContext, inputs []id.Id) (ir.Representation, error) {
	parent := filepath.Dir(l.directory)
	base := filepath.Base(l.directory)

	fz := frozenfs.New(parent)
	entry, err := fz.Freeze(base)
	if err != nil {
		return nil, fmt.Errorf("freeze input directory %s: %w", l.directory, err)
	}
	dir, ok := frozenfs.AsDir(entry)
	if !ok {
		return nil, fmt.Errorf("input path %s is not a directory", l.directory)
	}

	total := countEntries(dir)
	ctx.Reporter.Logf("froze %s: %s top-level entries", l.directory, humanize.Comma(int64(total)))
	return RawSource{dir: dir}, nil
}
