package vfs

import (
	"sync"
	"sync/atomic"
)

// Snapshot is published to subscribers after every replacement.
type Snapshot struct {
	Revision   uint64
	FileSystem FileSystem
}

// Store holds the current file system. Replacement is a whole-value pointer
// swap, so readers never observe a partially applied batch.
type Store struct {
	current  atomic.Pointer[Snapshot]
	revision atomic.Uint64

	mu          sync.RWMutex
	subscribers map[chan Snapshot]struct{}
}

func NewStore(initial FileSystem) *Store {
	s := &Store{subscribers: make(map[chan Snapshot]struct{})}
	if initial == nil {
		initial = FileSystem{}
	}
	s.current.Store(&Snapshot{FileSystem: initial.Clone()})
	return s
}

// Load returns the current snapshot. Callers must not mutate it.
func (s *Store) Load() FileSystem {
	return s.current.Load().FileSystem
}

// Revision counts replacements since the store was created.
func (s *Store) Revision() uint64 {
	return s.current.Load().Revision
}

// Replace installs next as the current file system and notifies subscribers.
// The store takes ownership of next.
func (s *Store) Replace(next FileSystem) Snapshot {
	if next == nil {
		next = FileSystem{}
	}
	snap := Snapshot{Revision: s.revision.Add(1), FileSystem: next}
	s.current.Store(&snap)
	s.publish(snap)
	return snap
}

// Subscribe returns a channel that receives the latest snapshot after each
// replacement. The caller must call Unsubscribe when done.
func (s *Store) Subscribe() chan Snapshot {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Store) Unsubscribe(ch chan Snapshot) {
	s.mu.Lock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()
}

// publish never blocks. A slow subscriber keeps only the newest snapshot.
func (s *Store) publish(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
