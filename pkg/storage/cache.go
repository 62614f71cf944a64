package storage

import (
	"container/list"
	"sync"
	"time"

	"github.com/vjranagit/qprops/pkg/calibration"
)

// snapshotCache is an LRU cache with TTL for decoded snapshots. Snapshots
// are immutable after construction, so cached copies never go stale short
// of being replaced wholesale.
type snapshotCache struct {
	capacity int
	ttl      time.Duration
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	lru      *list.List
}

// cacheEntry represents one cached snapshot.
type cacheEntry struct {
	key       string
	props     *calibration.BackendProperties
	timestamp time.Time
	element   *list.Element
}

// newSnapshotCache creates a new snapshot cache.
func newSnapshotCache(capacity int, ttl time.Duration) *snapshotCache {
	return &snapshotCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*cacheEntry),
		lru:      list.New(),
	}
}

// Get retrieves a cached snapshot.
func (sc *snapshotCache) Get(key string) (*calibration.BackendProperties, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	entry, exists := sc.entries[key]
	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > sc.ttl {
		sc.removeLocked(key)
		return nil, false
	}

	sc.lru.MoveToFront(entry.element)
	return entry.props, true
}

// Put stores a snapshot in the cache.
func (sc *snapshotCache) Put(key string, props *calibration.BackendProperties) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if entry, exists := sc.entries[key]; exists {
		entry.props = props
		entry.timestamp = time.Now()
		sc.lru.MoveToFront(entry.element)
		return
	}

	entry := &cacheEntry{
		key:       key,
		props:     props,
		timestamp: time.Now(),
	}
	entry.element = sc.lru.PushFront(entry)
	sc.entries[key] = entry

	if sc.lru.Len() > sc.capacity {
		oldest := sc.lru.Back()
		if oldest != nil {
			sc.removeLocked(oldest.Value.(*cacheEntry).key)
		}
	}
}

// removeLocked removes an entry from the cache (must hold lock).
func (sc *snapshotCache) removeLocked(key string) {
	if entry, exists := sc.entries[key]; exists {
		sc.lru.Remove(entry.element)
		delete(sc.entries, key)
	}
}

// Clear clears all cache entries.
func (sc *snapshotCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.entries = make(map[string]*cacheEntry)
	sc.lru = list.New()
}

// Size returns the current cache size.
func (sc *snapshotCache) Size() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.entries)
}
