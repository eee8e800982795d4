// Package fuseview exposes a frozen directory tree as a read-only FUSE
// mount, so a frozen RawSource (or any other frozenfs.Dir) can be
// browsed with ordinary filesystem tools while a run is being debugged.
// Every write-capable go-fuse interface the teacher's mount implemented
// is deliberately left unimplemented here: frozenfs.Dir/File are
// immutable by construction, so this view only ever reads them.
package fuseview

import (
	"context"
	"log"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/jra3/harvest/internal/frozenfs"
)

// View is a mountable read-only FUSE filesystem over a frozen directory.
type View struct {
	fs.Inode
	dir   *frozenfs.Dir
	debug bool
}

// New constructs a View rooted at dir.
func New(dir *frozenfs.Dir, debug bool) *View {
	return &View{dir: dir, debug: debug}
}

// Mount mounts the view at mountpoint and returns the running server.
func (v *View) Mount(mountpoint string) (*fuse.Server, error) {
	opts := &fs.Options{
		MountOptions: fuse.MountOptions{
			Name:   "harvest",
			FsName: "harvest-frozen",
			Debug:  v.debug,
		},
	}
	return fs.Mount(mountpoint, v, opts)
}

var _ = (fs.NodeReaddirer)((*View)(nil))
var _ = (fs.NodeLookuper)((*View)(nil))

func (v *View) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	return readdir(v.dir, v.debug)
}

func (v *View) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	return lookup(&v.Inode, ctx, v.dir, name, v.debug)
}

// dirNode is a non-root directory within the mounted tree.
type dirNode struct {
	fs.Inode
	dir   *frozenfs.Dir
	debug bool
}

var _ = (fs.NodeReaddirer)((*dirNode)(nil))
var _ = (fs.NodeLookuper)((*dirNode)(nil))

func (n *dirNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	return readdir(n.dir, n.debug)
}

func (n *dirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	return lookup(&n.Inode, ctx, n.dir, name, n.debug)
}

func readdir(dir *frozenfs.Dir, debug bool) (fs.DirStream, syscall.Errno) {
	if debug {
		log.Printf("[fuseview] Readdir")
	}
	var entries []fuse.DirEntry
	for name, entry := range dir.Entries() {
		mode := uint32(fuse.S_IFREG)
		if _, ok := frozenfs.AsDir(entry); ok {
			mode = fuse.S_IFDIR
		} else if _, ok := frozenfs.AsSymlink(entry); ok {
			mode = fuse.S_IFLNK
		}
		entries = append(entries, fuse.DirEntry{Name: name, Mode: mode})
	}
	return fs.NewListDirStream(entries), fs.OK
}

func lookup(parent *fs.Inode, ctx context.Context, dir *frozenfs.Dir, name string, debug bool) (*fs.Inode, syscall.Errno) {
	if debug {
		log.Printf("[fuseview] Lookup %s", name)
	}
	entry, ok := dir.GetEntry(name)
	if !ok {
		return nil, syscall.ENOENT
	}

	if child, ok := frozenfs.AsDir(entry); ok {
		node := parent.NewInode(ctx, &dirNode{dir: child, debug: debug}, fs.StableAttr{Mode: fuse.S_IFDIR})
		return node, fs.OK
	}
	if file, ok := frozenfs.AsFile(entry); ok {
		node := parent.NewInode(ctx, &fileNode{file: file, debug: debug}, fs.StableAttr{Mode: fuse.S_IFREG})
		return node, fs.OK
	}
	if link, ok := frozenfs.AsSymlink(entry); ok {
		node := parent.NewInode(ctx, &symlinkNode{target: link.Target(), debug: debug}, fs.StableAttr{Mode: fuse.S_IFLNK})
		return node, fs.OK
	}
	return nil, syscall.ENOENT
}

// fileNode is a frozen, read-only regular file.
type fileNode struct {
	fs.Inode
	file  *frozenfs.File
	debug bool
}

var _ = (fs.NodeOpener)((*fileNode)(nil))
var _ = (fs.NodeReader)((*fileNode)(nil))

func (n *fileNode) Open(ctx context.Context, flags uint32) (fh fs.FileHandle, fuseFlags uint32, errno syscall.Errno) {
	if n.debug {
		log.Printf("[fuseview] Open %s", n.file.RelativePath())
	}
	return nil, fuse.FOPEN_DIRECT_IO, fs.OK
}

func (n *fileNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := n.file.Bytes()
	if err != nil {
		log.Printf("[fuseview] read %s: %v", n.file.RelativePath(), err)
		return nil, syscall.EIO
	}
	if off >= int64(len(data)) {
		return fuse.ReadResultData(nil), fs.OK
	}
	end := int(off) + len(dest)
	if end > len(data) {
		end = len(data)
	}
	return fuse.ReadResultData(data[off:end]), fs.OK
}

// symlinkNode reproduces a frozen symlink's target.
type symlinkNode struct {
	fs.Inode
	target string
	debug  bool
}

var _ = (fs.NodeReadlinker)((*symlinkNode)(nil))

func (n *symlinkNode) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	return []byte(n.target), fs.OK
}
