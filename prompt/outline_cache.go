package prompt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/suvo-labs/suvo/vfs"
)

// CacheStats tracks cache performance metrics
type CacheStats struct {
	TotalRequests int64
	CacheHits     int64
	CacheMisses   int64
	Entries       int
	LastResetTime time.Time
}

// OutlineCache keeps parsed outlines keyed by content fingerprint, so a file
// is parsed again only after its content changes. Entries not used by the
// latest Outline call are evicted.
type OutlineCache struct {
	mutex   sync.Mutex
	entries map[uint64][]string
	stats   CacheStats
}

func NewOutlineCache() *OutlineCache {
	return &OutlineCache{
		entries: make(map[uint64][]string),
		stats:   CacheStats{LastResetTime: time.Now()},
	}
}

// Lines returns the outline of record, parsing it on a miss.
func (c *OutlineCache) Lines(record vfs.FileRecord) ([]string, error) {
	key := vfs.Fingerprint(record)

	c.mutex.Lock()
	c.stats.TotalRequests++
	if lines, ok := c.entries[key]; ok {
		c.stats.CacheHits++
		c.mutex.Unlock()
		return lines, nil
	}
	c.stats.CacheMisses++
	c.mutex.Unlock()

	lines, err := OutlineFile([]byte(record.Content))
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	c.entries[key] = lines
	c.mutex.Unlock()
	return lines, nil
}

// Outline renders the outline of every JavaScript file in fs and evicts the
// entries of files that are gone or changed.
func (c *OutlineCache) Outline(fs vfs.FileSystem) string {
	keep := make(map[uint64]struct{})
	var sb strings.Builder
	for _, path := range fs.Paths() {
		record := fs[path]
		if record.IsBinary || (record.Kind != "js" && record.Kind != "mjs") {
			continue
		}
		keep[vfs.Fingerprint(record)] = struct{}{}
		lines, err := c.Lines(record)
		if err != nil {
			log.Debug("outline skipped", "path", path, "err", err)
			continue
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "**File: %s**\n%s\n", path, strings.Join(lines, "\n"))
	}
	c.retain(keep)
	return strings.TrimSpace(sb.String())
}

// retain drops every entry whose fingerprint is not in keep.
func (c *OutlineCache) retain(keep map[uint64]struct{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key := range c.entries {
		if _, ok := keep[key]; !ok {
			delete(c.entries, key)
		}
	}
}

// Stats returns a copy of the current counters.
func (c *OutlineCache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	stats := c.stats
	stats.Entries = len(c.entries)
	return stats
}

// Reset clears entries and counters.
func (c *OutlineCache) Reset() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[uint64][]string)
	c.stats = CacheStats{LastResetTime: time.Now()}
}
