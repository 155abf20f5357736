package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDefaultIgnored(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"index.html", false},
		{"node_modules/react/index.js", true},
		{"src/.git/HEAD", true},
		{"build/app.exe", true},
		{"suvo-config.yaml", true},
		{"logs/server.LOG", true},
		{"distance.js", false},
		{"src/dist/bundle.js", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDefaultIgnored(tt.path), tt.path)
	}
}

func TestIsIgnored(t *testing.T) {
	patterns := []string{"*.md", "notes/", "secret.txt"}

	assert.True(t, IsIgnored("README.md", patterns))
	assert.True(t, IsIgnored("docs/guide.md", patterns))
	assert.True(t, IsIgnored("notes/todo.txt", patterns))
	assert.True(t, IsIgnored("config/secret.txt", patterns))
	assert.False(t, IsIgnored("index.html", patterns))
	assert.False(t, IsIgnored("index.html", nil))
}

func TestGetIgnorePatterns(t *testing.T) {
	ClearIgnoreCache()
	dir := t.TempDir()

	patterns, err := GetIgnorePatterns(dir)
	require.NoError(t, err)
	assert.Empty(t, patterns)

	content := "# comment\n\n*.md\nnotes/\nnode_modules\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, IgnoreFileName), []byte(content), 0o644))

	patterns, err = GetIgnorePatterns(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.md", "notes/"}, patterns)

	cached, err := GetIgnorePatterns(dir)
	require.NoError(t, err)
	assert.Equal(t, patterns, cached)
}
