// Package source abstracts access to code unit content so analyses can
// run against the filesystem or in-memory snapshots interchangeably.
package source

import (
	"fmt"
	"os"
	"sort"
)

// ContentSource provides file content for analysis.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// Filesystem reads content from the local filesystem.
type Filesystem struct{}

// NewFilesystem creates a filesystem-backed content source.
func NewFilesystem() *Filesystem {
	return &Filesystem{}
}

// Read returns the content of the file at path from disk.
func (f *Filesystem) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Map serves content from an in-memory map keyed by path.
// Useful for tests and for callers that already hold content.
type Map struct {
	files map[string][]byte
}

// NewMap creates a content source over the given path-to-content map.
// The map is not copied; callers must not mutate it afterwards.
func NewMap(files map[string][]byte) *Map {
	return &Map{files: files}
}

// Read returns the content registered for path.
func (m *Map) Read(path string) ([]byte, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("no content for %s", path)
	}
	return content, nil
}

// Paths returns all registered paths in sorted order.
func (m *Map) Paths() []string {
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
