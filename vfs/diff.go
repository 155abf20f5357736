package vfs

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/zeebo/xxh3"
)

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// FileChange summarizes how one path differs between two file systems.
type FileChange struct {
	Path         string
	Kind         ChangeKind
	Binary       bool
	LinesAdded   int
	LinesRemoved int
}

// Fingerprint hashes a record's kind and content.
func Fingerprint(record FileRecord) uint64 {
	return xxh3.HashString(record.Kind + "\x00" + record.Content)
}

// Diff lists the paths that differ between before and after, ordered by path.
func Diff(before, after FileSystem) []FileChange {
	dmp := diffmatchpatch.New()
	var changes []FileChange

	paths := before.Paths()
	for _, p := range after.Paths() {
		if _, ok := before[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		old, hadOld := before[path]
		cur, hasCur := after[path]

		switch {
		case !hadOld:
			change := FileChange{Path: path, Kind: ChangeAdded, Binary: cur.IsBinary}
			if !cur.IsBinary {
				change.LinesAdded = countLines(cur.Content)
			}
			changes = append(changes, change)
		case !hasCur:
			change := FileChange{Path: path, Kind: ChangeRemoved, Binary: old.IsBinary}
			if !old.IsBinary {
				change.LinesRemoved = countLines(old.Content)
			}
			changes = append(changes, change)
		case Fingerprint(old) != Fingerprint(cur) || old.IsBinary != cur.IsBinary:
			change := FileChange{Path: path, Kind: ChangeModified, Binary: old.IsBinary || cur.IsBinary}
			if !change.Binary {
				change.LinesAdded, change.LinesRemoved = lineStats(dmp, old.Content, cur.Content)
			}
			changes = append(changes, change)
		}
	}

	return changes
}

func lineStats(dmp *diffmatchpatch.DiffMatchPatch, oldContent, newContent string) (added, removed int) {
	a, b, lineArray := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += countLines(d.Text)
		}
	}
	return added, removed
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
