package scanner

import (
	"context"
	"io/fs"
	"path"
	"strings"
	"time"
)

// fakeFS is an in-memory FS whose nodes can be rigged to fail.
type fakeFS struct {
	nodes map[string]*fakeNode
}

type fakeNode struct {
	name     string
	mode     fs.FileMode
	size     int64
	children []string

	listErr  error // ReadDir of this node
	lstatErr error // Lstat and Stat of this node
	infoErr  error // DirEntry.Info of this node
}

func newFakeFS(root string) *fakeFS {
	f := &fakeFS{nodes: map[string]*fakeNode{}}
	f.nodes[root] = &fakeNode{name: path.Base(root), mode: fs.ModeDir | 0o755}
	return f
}

func (f *fakeFS) add(p string, n *fakeNode) *fakeNode {
	n.name = path.Base(p)
	f.nodes[p] = n
	if parent, ok := f.nodes[path.Dir(p)]; ok {
		parent.children = append(parent.children, n.name)
	}
	return n
}

func (f *fakeFS) file(p string, size int64) *fakeNode {
	return f.add(p, &fakeNode{mode: 0o644, size: size})
}

func (f *fakeFS) dir(p string) *fakeNode {
	return f.add(p, &fakeNode{mode: fs.ModeDir | 0o755})
}

func (f *fakeFS) lookup(op, name string) (*fakeNode, error) {
	n, ok := f.nodes[name]
	if !ok {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return n, nil
}

func (f *fakeFS) ReadDir(ctx context.Context, name string) ([]fs.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := f.lookup("open", name)
	if err != nil {
		return nil, err
	}
	if n.listErr != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: n.listErr}
	}
	out := make([]fs.DirEntry, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, fakeEntry{node: f.nodes[path.Join(name, c)]})
	}
	return out, nil
}

func (f *fakeFS) Lstat(name string) (fs.FileInfo, error) {
	n, err := f.lookup("lstat", name)
	if err != nil {
		return nil, err
	}
	if n.lstatErr != nil {
		return nil, &fs.PathError{Op: "lstat", Path: name, Err: n.lstatErr}
	}
	return fakeInfo{n}, nil
}

func (f *fakeFS) Stat(name string) (fs.FileInfo, error) { return f.Lstat(name) }

func (f *fakeFS) Abs(name string) (string, error) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return path.Clean(name), nil
}

func (f *fakeFS) EvalSymlinks(name string) (string, error) {
	if _, err := f.lookup("lstat", name); err != nil {
		return "", err
	}
	return name, nil
}

func (f *fakeFS) Readlink(name string) (string, error) {
	return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrInvalid}
}

func (f *fakeFS) Join(elem ...string) string { return path.Join(elem...) }

type fakeEntry struct{ node *fakeNode }

func (e fakeEntry) Name() string      { return e.node.name }
func (e fakeEntry) IsDir() bool       { return e.node.mode.IsDir() }
func (e fakeEntry) Type() fs.FileMode { return e.node.mode.Type() }
func (e fakeEntry) Info() (fs.FileInfo, error) {
	if e.node.infoErr != nil {
		return nil, &fs.PathError{Op: "lstat", Path: e.node.name, Err: e.node.infoErr}
	}
	return fakeInfo{e.node}, nil
}

type fakeInfo struct{ node *fakeNode }

func (i fakeInfo) Name() string       { return i.node.name }
func (i fakeInfo) Size() int64        { return i.node.size }
func (i fakeInfo) Mode() fs.FileMode  { return i.node.mode }
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return i.node.mode.IsDir() }
func (i fakeInfo) Sys() any           { return nil }
