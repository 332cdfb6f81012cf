package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/voxpilot/voxpilot/internal/model"
	"github.com/voxpilot/voxpilot/internal/platform"
)

// cacheEntry holds a cached element tree with its timestamp.
type cacheEntry struct {
	elements  []model.Element
	timestamp time.Time
}

// SnapshotCache provides a TTL-based cache for accessibility tree snapshots.
// Searches within one command often re-read the same scope (primary pass,
// alternate passes); the cache keeps those from hammering the OS API. A TTL
// of 0 disables caching.
type SnapshotCache struct {
	mu      sync.Mutex
	entries map[platform.Scope]cacheEntry
	ttl     time.Duration
}

// NewSnapshotCache creates a new cache.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		entries: make(map[platform.Scope]cacheEntry),
		ttl:     ttl,
	}
}

// Snapshot returns cached elements if within TTL, otherwise reads fresh.
func (c *SnapshotCache) Snapshot(ctx context.Context, reader platform.TreeReader, scope platform.Scope) ([]model.Element, error) {
	if c.ttl == 0 {
		return reader.Snapshot(ctx, scope)
	}

	c.mu.Lock()
	if entry, ok := c.entries[scope]; ok && time.Since(entry.timestamp) < c.ttl {
		elements := entry.elements
		c.mu.Unlock()
		return elements, nil
	}
	c.mu.Unlock()

	elements, err := reader.Snapshot(ctx, scope)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[scope] = cacheEntry{elements: elements, timestamp: time.Now()}
	c.mu.Unlock()

	return elements, nil
}

// Invalidate removes the cache entry for the given scope. Called after any
// executed action, since the action likely changed the UI.
func (c *SnapshotCache) Invalidate(scope platform.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, scope)
}

// InvalidateAll clears the entire cache.
func (c *SnapshotCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[platform.Scope]cacheEntry)
}
