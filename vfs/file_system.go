// Package vfs holds the in-memory project file system and the engine that
// applies edit operations to it.
package vfs

import (
	"sort"
)

// FileRecord is one file of the project. Binary records carry base64 data
// and a MIME type as Kind.
type FileRecord struct {
	Content  string `json:"content"`
	Kind     string `json:"type"`
	IsBinary bool   `json:"isBinary,omitempty"`
}

// FileSystem maps a path to its record. Values handed out by a Store are
// snapshots and must not be mutated; use Clone first.
type FileSystem map[string]FileRecord

// Clone returns an independent copy.
func (fs FileSystem) Clone() FileSystem {
	out := make(FileSystem, len(fs))
	for path, record := range fs {
		out[path] = record
	}
	return out
}

// Paths returns every path in lexical order.
func (fs FileSystem) Paths() []string {
	paths := make([]string, 0, len(fs))
	for path := range fs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (fs FileSystem) Get(path string) (FileRecord, bool) {
	record, ok := fs[path]
	return record, ok
}

// Equal reports whether both file systems hold the same paths and records.
func (fs FileSystem) Equal(other FileSystem) bool {
	if len(fs) != len(other) {
		return false
	}
	for path, record := range fs {
		if o, ok := other[path]; !ok || o != record {
			return false
		}
	}
	return true
}
