package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	before := FileSystem{
		"index.html": {Content: "<p>a</p>\n<p>b</p>\n", Kind: "html"},
		"old.js":     {Content: "one\ntwo", Kind: "js"},
		"same.css":   {Content: "body{}", Kind: "css"},
		"logo.png":   {Content: "AAAA", Kind: "image/png", IsBinary: true},
	}
	after := FileSystem{
		"index.html": {Content: "<p>a</p>\n<p>c</p>\n<p>d</p>\n", Kind: "html"},
		"same.css":   {Content: "body{}", Kind: "css"},
		"new.js":     {Content: "x\ny\nz\n", Kind: "js"},
		"logo.png":   {Content: "BBBB", Kind: "image/png", IsBinary: true},
	}

	changes := Diff(before, after)

	require.Len(t, changes, 4)
	assert.Equal(t, FileChange{Path: "index.html", Kind: ChangeModified, LinesAdded: 2, LinesRemoved: 1}, changes[0])
	assert.Equal(t, FileChange{Path: "logo.png", Kind: ChangeModified, Binary: true}, changes[1])
	assert.Equal(t, FileChange{Path: "new.js", Kind: ChangeAdded, LinesAdded: 3}, changes[2])
	assert.Equal(t, FileChange{Path: "old.js", Kind: ChangeRemoved, LinesRemoved: 2}, changes[3])
}

func TestDiff_Identical(t *testing.T) {
	assert.Empty(t, Diff(baseFS(), baseFS()))
}

func TestFingerprint(t *testing.T) {
	a := FileRecord{Content: "x", Kind: "js"}
	assert.Equal(t, Fingerprint(a), Fingerprint(FileRecord{Content: "x", Kind: "js"}))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(FileRecord{Content: "x", Kind: "ts"}))
}
