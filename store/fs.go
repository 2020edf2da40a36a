package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// FS reads templates from an fs.FS. A FS must be instantiated through NewFS
// or NewDir, its empty value is not usable.
type FS struct {
	fsys fs.FS
	root string
}

// NewFS returns a FS that reads templates from fsys, resolving template paths
// against root, a directory within fsys. An empty root is the top of fsys.
func NewFS(fsys fs.FS, root string) *FS {
	return &FS{fsys: fsys, root: root}
}

// NewDir returns a FS reading templates from a directory on the local disk.
func NewDir(dir string) *FS {
	return NewFS(os.DirFS(dir), "")
}

// ReadTemplate returns the contents of the template at p.
func (s *FS) ReadTemplate(_ context.Context, p string) ([]byte, error) {
	name := resolve(s.root, p)
	contents, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", name, err)
	}
	return contents, nil
}

// resolve joins p to root, without letting p climb out of root.
func resolve(root, p string) string {
	name := strings.TrimPrefix(path.Join("/", root, path.Join("/", p)), "/")
	if name == "" {
		return "."
	}
	return name
}
