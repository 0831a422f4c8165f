// ABOUTME: In-memory asset storage loaded from archives
// ABOUTME: Extracts zip, tar and compressed tar asset packs with mholt/archives
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/mholt/archives"
)

// Memory holds assets in memory
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory creates an empty in-memory storage
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// Put stores data under assetPath, replacing any previous content
func (m *Memory) Put(assetPath string, data []byte) error {
	name, err := CleanPath(assetPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	return nil
}

// Delete removes an asset. Missing assets are ignored.
func (m *Memory) Delete(assetPath string) {
	name, err := CleanPath(assetPath)
	if err != nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
}

// ReadAsset returns the bytes stored at assetPath
func (m *Memory) ReadAsset(assetPath string) ([]byte, error) {
	name, err := CleanPath(assetPath)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, assetPath)
	}
	return data, nil
}

// List returns every stored asset path, sorted
func (m *Memory) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadArchive extracts every regular file of an archive into memory
func LoadArchive(ctx context.Context, archivePath string) (*Memory, error) {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("cannot open archive: %w", err)
	}
	defer archiveFile.Close()

	format, reader, err := archives.Identify(ctx, archivePath, archiveFile)
	if err != nil {
		return nil, fmt.Errorf("cannot identify archive format: %w", err)
	}

	extractor, ok := format.(archives.Extractor)
	if !ok {
		return nil, fmt.Errorf("format %s does not support extraction", format.Extension())
	}

	// Zip and 7z need the original file for seeking
	var archiveReader io.Reader = reader
	switch format.(type) {
	case archives.Zip, archives.SevenZip:
		if _, err := archiveFile.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind archive: %w", err)
		}
		archiveReader = archiveFile
	}

	mem := NewMemory()
	err = extractor.Extract(ctx, archiveReader, func(ctx context.Context, f archives.FileInfo) error {
		if !f.Mode().IsRegular() {
			return nil
		}

		src, err := f.Open()
		if err != nil {
			return err
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.NameInArchive, err)
		}

		if err := mem.Put(f.NameInArchive, data); err != nil {
			log.Printf("Skipping archive entry %q: %v", f.NameInArchive, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", archivePath, err)
	}

	log.Printf("Loaded %d assets from %s", len(mem.files), archivePath)
	return mem, nil
}
