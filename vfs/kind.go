package vfs

import (
	"path"
	"strings"
)

// DefaultKind tags text files whose path has no extension.
const DefaultKind = "txt"

// KindFromPath returns the text after the last dot of the final path
// element, or DefaultKind.
func KindFromPath(p string) string {
	ext := strings.TrimPrefix(path.Ext(p), ".")
	if ext == "" {
		return DefaultKind
	}
	return ext
}
