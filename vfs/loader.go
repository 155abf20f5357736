package vfs

import (
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/suvo-labs/suvo/embed_data"
	"github.com/suvo-labs/suvo/utils"
)

// MaxSeedFileSize is the largest file LoadDir reads.
const MaxSeedFileSize = 512 * 1024

// Bootstrap returns the starter project every new session begins with.
func Bootstrap() (FileSystem, error) {
	entries, err := fs.ReadDir(embed_data.Templates, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read starter templates: %w", err)
	}

	out := make(FileSystem, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := fs.ReadFile(embed_data.Templates, "templates/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", entry.Name(), err)
		}
		out[entry.Name()] = FileRecord{Content: string(content), Kind: KindFromPath(entry.Name())}
	}
	return out, nil
}

// LoadDir seeds a file system from a directory on disk. Text files become
// text records, images become binary records, everything else is skipped.
// Paths use forward slashes relative to root.
func LoadDir(root string) (FileSystem, error) {
	patterns, err := utils.GetIgnorePatterns(root)
	if err != nil {
		return nil, err
	}

	out := FileSystem{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if utils.IsDefaultIgnored(rel) || utils.IsIgnored(rel, patterns) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info: %s, error: %w", rel, err)
		}
		if info.Size() > MaxSeedFileSize {
			log.Debug("skipping large file", "path", rel, "size", info.Size())
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file: %s, error: %w", rel, err)
		}

		record, ok := recordFromBytes(rel, raw)
		if !ok {
			log.Debug("skipping unsupported file", "path", rel)
			return nil
		}
		out[rel] = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func recordFromBytes(path string, raw []byte) (FileRecord, bool) {
	if len(raw) == 0 {
		return FileRecord{Kind: KindFromPath(path)}, true
	}
	m := mimetype.Detect(raw)
	for mt := m; mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return FileRecord{Content: string(raw), Kind: KindFromPath(path)}, true
		}
	}
	if strings.HasPrefix(m.String(), "image/") {
		return FileRecord{
			Content:  base64.StdEncoding.EncodeToString(raw),
			Kind:     detectMime(raw),
			IsBinary: true,
		}, true
	}
	return FileRecord{}, false
}
