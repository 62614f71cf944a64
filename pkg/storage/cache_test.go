package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/vjranagit/qprops/pkg/calibration"
)

func cachedSnapshot(t *testing.T, backend string) *calibration.BackendProperties {
	t.Helper()

	props, err := calibration.New(backend, "1.0.0", time.Now().UTC(), nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("Failed to build snapshot: %v", err)
	}
	return props
}

func TestSnapshotCache(t *testing.T) {
	cache := newSnapshotCache(100, 1*time.Minute)

	// Test cache miss
	if _, ok := cache.Get("alder@1"); ok {
		t.Error("Expected cache miss, got hit")
	}

	// Test cache put and get
	props := cachedSnapshot(t, "alder")
	cache.Put("alder@1", props)

	cached, ok := cache.Get("alder@1")
	if !ok {
		t.Fatal("Expected cache hit, got miss")
	}
	if cached.BackendName != "alder" {
		t.Errorf("Expected backend alder, got %s", cached.BackendName)
	}
}

func TestSnapshotCacheTTL(t *testing.T) {
	// Short TTL for testing
	cache := newSnapshotCache(100, 50*time.Millisecond)

	cache.Put("alder@1", cachedSnapshot(t, "alder"))

	// Should be in cache
	if _, ok := cache.Get("alder@1"); !ok {
		t.Error("Expected cache hit")
	}

	// Wait for expiration
	time.Sleep(100 * time.Millisecond)

	if _, ok := cache.Get("alder@1"); ok {
		t.Error("Expected cache miss after TTL")
	}
}

func TestSnapshotCacheEviction(t *testing.T) {
	cache := newSnapshotCache(3, 1*time.Minute)

	for i := 0; i < 4; i++ {
		cache.Put(fmt.Sprintf("alder@%d", i), cachedSnapshot(t, "alder"))
	}

	if cache.Size() != 3 {
		t.Errorf("Expected cache size 3, got %d", cache.Size())
	}

	// Oldest entry was evicted
	if _, ok := cache.Get("alder@0"); ok {
		t.Error("Expected oldest entry to be evicted")
	}
	if _, ok := cache.Get("alder@3"); !ok {
		t.Error("Expected newest entry to be cached")
	}
}

func TestSnapshotCacheClear(t *testing.T) {
	cache := newSnapshotCache(100, 1*time.Minute)

	cache.Put("alder@1", cachedSnapshot(t, "alder"))
	cache.Put("alder@2", cachedSnapshot(t, "alder"))
	cache.Clear()

	if cache.Size() != 0 {
		t.Errorf("Expected empty cache after clear, got %d entries", cache.Size())
	}
}
