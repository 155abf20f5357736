// Package checkpoint numbers the turns that changed the project and keeps
// the file system each of them started from.
package checkpoint

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/suvo-labs/suvo/vfs"
)

var ErrUnknownVersion = errors.New("unknown checkpoint version")

// Checkpoint is the state captured for one versioned turn.
type Checkpoint struct {
	Version    int
	TurnID     string
	Operations int
	CreatedAt  time.Time
	// Before is the file system as it was immediately before the turn applied.
	Before vfs.FileSystem
}

// Manager assigns versions and stores snapshots. It is safe for concurrent use.
type Manager struct {
	mu          sync.RWMutex
	last        int
	checkpoints map[int]Checkpoint
	now         func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		checkpoints: make(map[int]Checkpoint),
		now:         time.Now,
	}
}

// Record versions a finished turn. Turns with no operations get no version
// and the second return value is false.
func (m *Manager) Record(turnID string, operations int, before vfs.FileSystem) (Checkpoint, bool) {
	if operations <= 0 {
		return Checkpoint{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.last++
	cp := Checkpoint{
		Version:    m.last,
		TurnID:     turnID,
		Operations: operations,
		CreatedAt:  m.now(),
		Before:     before.Clone(),
	}
	m.checkpoints[cp.Version] = cp
	return cp, true
}

// Latest returns the highest version assigned so far, or 0.
func (m *Manager) Latest() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

func (m *Manager) Get(version int) (Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.checkpoints[version]
	if !ok {
		return Checkpoint{}, fmt.Errorf("version %d: %w", version, ErrUnknownVersion)
	}
	cp.Before = cp.Before.Clone()
	return cp, nil
}

// List returns all checkpoints ordered by version.
func (m *Manager) List() []Checkpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Checkpoint, 0, len(m.checkpoints))
	for _, cp := range m.checkpoints {
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// Restore returns a copy of the snapshot stored for version. Versions and
// later checkpoints are left untouched.
func (m *Manager) Restore(version int) (vfs.FileSystem, error) {
	cp, err := m.Get(version)
	if err != nil {
		return nil, err
	}
	return cp.Before, nil
}

// Reset forgets every checkpoint and restarts numbering at 1.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = 0
	m.checkpoints = make(map[int]Checkpoint)
}
