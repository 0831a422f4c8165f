// ABOUTME: Asset storage backed by any fs.FS
// ABOUTME: Resolves engine asset paths to raw bytes with a NotFound sentinel
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when an asset does not exist
	ErrNotFound = errors.New("asset not found")

	// ErrInvalidPath is returned for paths that escape the storage root
	ErrInvalidPath = errors.New("invalid asset path")
)

// FS reads assets from an fs.FS
type FS struct {
	fsys fs.FS
}

// NewFS wraps an fs.FS such as an embed.FS or fstest.MapFS
func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// NewDir reads assets from a directory on disk
func NewDir(root string) *FS {
	return &FS{fsys: os.DirFS(root)}
}

// ReadAsset returns the bytes stored at assetPath
func (s *FS) ReadAsset(assetPath string) ([]byte, error) {
	name, err := CleanPath(assetPath)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(s.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, assetPath)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", assetPath, err)
	}
	return data, nil
}

// List returns every regular file path in the storage, sorted
func (s *FS) List() ([]string, error) {
	var paths []string
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// CleanPath converts a caller supplied asset path to a slash separated
// fs.FS name relative to the storage root
func CleanPath(assetPath string) (string, error) {
	name := path.Clean(strings.TrimPrefix(filepath.ToSlash(assetPath), "/"))
	if !fs.ValidPath(name) || name == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, assetPath)
	}
	return name, nil
}
