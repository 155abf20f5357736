package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suvo-labs/suvo/vfs"
)

// Test that turns with 1, 0 and 2 operations get versions 1, none and 2
func TestManager_Versioning(t *testing.T) {
	m := NewManager()

	cp, ok := m.Record("t1", 1, vfs.FileSystem{})
	require.True(t, ok)
	assert.Equal(t, 1, cp.Version)

	_, ok = m.Record("t2", 0, vfs.FileSystem{})
	assert.False(t, ok)

	cp, ok = m.Record("t3", 2, vfs.FileSystem{})
	require.True(t, ok)
	assert.Equal(t, 2, cp.Version)
	assert.Equal(t, "t3", cp.TurnID)

	assert.Equal(t, 2, m.Latest())
	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, "t1", list[0].TurnID)
	assert.Equal(t, "t3", list[1].TurnID)
}

// Test that snapshots are independent of later changes
func TestManager_RestoreIsDeepCopy(t *testing.T) {
	m := NewManager()
	before := vfs.FileSystem{"a.js": {Content: "1", Kind: "js"}}

	_, ok := m.Record("t1", 1, before)
	require.True(t, ok)

	before["a.js"] = vfs.FileRecord{Content: "changed", Kind: "js"}
	before["b.js"] = vfs.FileRecord{Content: "new", Kind: "js"}

	restored, err := m.Restore(1)
	require.NoError(t, err)
	assert.Equal(t, vfs.FileSystem{"a.js": {Content: "1", Kind: "js"}}, restored)

	restored["c.js"] = vfs.FileRecord{}
	again, err := m.Restore(1)
	require.NoError(t, err)
	assert.Len(t, again, 1)

	// Later checkpoints survive a restore
	_, ok = m.Record("t2", 3, restored)
	require.True(t, ok)
	_, err = m.Restore(1)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Latest())
}

func TestManager_UnknownVersion(t *testing.T) {
	m := NewManager()

	_, err := m.Restore(1)
	assert.ErrorIs(t, err, ErrUnknownVersion)

	_, err = m.Get(-1)
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestManager_Reset(t *testing.T) {
	m := NewManager()
	m.Record("t1", 1, vfs.FileSystem{})
	m.Record("t2", 1, vfs.FileSystem{})

	m.Reset()

	assert.Equal(t, 0, m.Latest())
	assert.Empty(t, m.List())
	cp, ok := m.Record("t3", 1, vfs.FileSystem{})
	require.True(t, ok)
	assert.Equal(t, 1, cp.Version)
}
