package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suvo-labs/suvo/vfs"
)

func TestOutlineCache_ReusesUnchangedFiles(t *testing.T) {
	cache := NewOutlineCache()
	fs := vfs.FileSystem{
		"a.js": {Content: "function a() {}", Kind: "js"},
		"b.js": {Content: "class B {}", Kind: "js"},
	}

	first := cache.Outline(fs)
	second := cache.Outline(fs)
	assert.Equal(t, first, second)

	stats := cache.Stats()
	assert.EqualValues(t, 4, stats.TotalRequests)
	assert.EqualValues(t, 2, stats.CacheMisses)
	assert.EqualValues(t, 2, stats.CacheHits)
	assert.Equal(t, 2, stats.Entries)
}

func TestOutlineCache_EvictsChangedFiles(t *testing.T) {
	cache := NewOutlineCache()
	fs := vfs.FileSystem{"a.js": {Content: "function a() {}", Kind: "js"}}
	cache.Outline(fs)

	fs["a.js"] = vfs.FileRecord{Content: "function renamed() {}", Kind: "js"}
	outline := cache.Outline(fs)

	assert.Contains(t, outline, "function: renamed")
	assert.NotContains(t, outline, "function: a\n")
	assert.Equal(t, 1, cache.Stats().Entries)
}

func TestOutlineCache_Lines(t *testing.T) {
	cache := NewOutlineCache()
	lines, err := cache.Lines(vfs.FileRecord{Content: "const go = () => 1;", Kind: "js"})
	require.NoError(t, err)
	assert.Equal(t, []string{"arrow_function: go"}, lines)

	cache.Reset()
	assert.Zero(t, cache.Stats().TotalRequests)
	assert.Zero(t, cache.Stats().Entries)
}

func TestBuilder_UsesCache(t *testing.T) {
	b := NewBuilder(true)
	fs := vfs.FileSystem{"script.js": {Content: "function go() {}", Kind: "js"}}

	b.UserPrompt("one", fs)
	text := b.UserPrompt("two", fs)

	assert.Contains(t, text, "**File: script.js**\nfunction: go")
	assert.EqualValues(t, 1, b.Cache.Stats().CacheHits)
}
