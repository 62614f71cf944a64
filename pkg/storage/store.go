// Package storage persists calibration snapshots in an embedded BadgerDB
// instance. Payloads are zstd-compressed plain-form JSON; a per-backend
// version index is rebuilt from the key space on open.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/vjranagit/qprops/pkg/calibration"
)

// ErrSnapshotNotFound reports a backend or version with no stored snapshot.
var ErrSnapshotNotFound = errors.New("snapshot not found")

const keyPrefix = "snap/"

// Store is the contract for snapshot persistence.
type Store interface {
	// Put stores a snapshot and returns the record ID assigned to it.
	Put(ctx context.Context, props *calibration.BackendProperties) (string, error)

	// Get returns the snapshot a backend reported at an exact update time.
	Get(ctx context.Context, backend string, at time.Time) (*calibration.BackendProperties, error)

	// Latest returns the most recently updated snapshot for a backend.
	Latest(ctx context.Context, backend string) (*calibration.BackendProperties, error)

	// Versions lists every stored update time for a backend, oldest first.
	Versions(ctx context.Context, backend string) ([]time.Time, error)

	// Close closes the store.
	Close() error
}

// Config holds store configuration.
type Config struct {
	Path             string
	CompressionLevel int
	CacheCapacity    int
	CacheTTL         time.Duration
}

// DefaultConfig returns default store configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:             "./data",
		CompressionLevel: 3,
		CacheCapacity:    128,
		CacheTTL:         5 * time.Minute,
	}
}

// snapshotEnvelope is the stored record: identity metadata plus the
// compressed plain-form document.
type snapshotEnvelope struct {
	ID        string    `json:"id"`
	Backend   string    `json:"backend"`
	UpdatedAt time.Time `json:"updated_at"`
	Payload   []byte    `json:"payload"`
}

// badgerStore implements Store using BadgerDB.
type badgerStore struct {
	cfg        *Config
	db         *badger.DB
	compressor *Compressor
	cache      *snapshotCache
	mu         sync.RWMutex
	versions   map[string][]int64
}

// NewStore opens a snapshot store rooted at cfg.Path.
func NewStore(cfg *Config) (Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.Path, "badger"))
	opts.Logger = nil // Disable BadgerDB logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	compressor, err := NewCompressor(cfg.CompressionLevel)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}

	s := &badgerStore{
		cfg:        cfg,
		db:         db,
		compressor: compressor,
		cache:      newSnapshotCache(cfg.CacheCapacity, cfg.CacheTTL),
		versions:   make(map[string][]int64),
	}

	if err := s.loadVersions(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to rebuild version index: %w", err)
	}
	return s, nil
}

// Put implements Store.Put.
func (s *badgerStore) Put(ctx context.Context, props *calibration.BackendProperties) (string, error) {
	if props == nil {
		return "", fmt.Errorf("snapshot is required")
	}
	if props.BackendName == "" {
		return "", fmt.Errorf("backend name is required")
	}

	raw, err := json.Marshal(props.ToPlain())
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	env := snapshotEnvelope{
		ID:        uuid.NewString(),
		Backend:   props.BackendName,
		UpdatedAt: props.LastUpdateDate,
		Payload:   s.compressor.Compress(raw),
	}
	value, err := json.Marshal(&env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}

	key := snapshotKey(props.BackendName, props.LastUpdateDate.UnixNano())
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	s.mu.Lock()
	s.addVersionLocked(props.BackendName, props.LastUpdateDate.UnixNano())
	s.mu.Unlock()

	// Stored snapshots are immutable, so the decoded copy can be cached
	// immediately.
	s.cache.Put(cacheKey(props.BackendName, props.LastUpdateDate.UnixNano()), props)

	return env.ID, nil
}

// Get implements Store.Get.
func (s *badgerStore) Get(ctx context.Context, backend string, at time.Time) (*calibration.BackendProperties, error) {
	return s.getAt(backend, at.UnixNano())
}

// Latest implements Store.Latest.
func (s *badgerStore) Latest(ctx context.Context, backend string) (*calibration.BackendProperties, error) {
	s.mu.RLock()
	versions := s.versions[backend]
	var nano int64
	if len(versions) > 0 {
		nano = versions[len(versions)-1]
	}
	s.mu.RUnlock()

	if len(versions) == 0 {
		return nil, fmt.Errorf("backend %q: %w", backend, ErrSnapshotNotFound)
	}
	return s.getAt(backend, nano)
}

// Versions implements Store.Versions.
func (s *badgerStore) Versions(ctx context.Context, backend string) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nanos, ok := s.versions[backend]
	if !ok {
		return nil, fmt.Errorf("backend %q: %w", backend, ErrSnapshotNotFound)
	}
	times := make([]time.Time, len(nanos))
	for i, nano := range nanos {
		times[i] = time.Unix(0, nano).UTC()
	}
	return times, nil
}

// Close implements Store.Close.
func (s *badgerStore) Close() error {
	if s.compressor != nil {
		s.compressor.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *badgerStore) getAt(backend string, nano int64) (*calibration.BackendProperties, error) {
	key := cacheKey(backend, nano)
	if props, ok := s.cache.Get(key); ok {
		return props, nil
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(backend, nano))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = append([]byte{}, val...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("backend %q at %s: %w", backend, time.Unix(0, nano).UTC(), ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var env snapshotEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	raw, err := s.compressor.Decompress(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	var plain map[string]any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	props, err := calibration.FromPlain(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild snapshot: %w", err)
	}

	s.cache.Put(key, props)
	return props, nil
}

// loadVersions rebuilds the in-memory version index by scanning keys only.
func (s *badgerStore) loadVersions() error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			backend, nano, err := parseSnapshotKey(it.Item().Key())
			if err != nil {
				return err
			}
			s.addVersionLocked(backend, nano)
		}
		return nil
	})
}

func (s *badgerStore) addVersionLocked(backend string, nano int64) {
	for _, existing := range s.versions[backend] {
		if existing == nano {
			return
		}
	}
	// Copy before sorting so slices handed to readers stay untouched.
	versions := append([]int64(nil), s.versions[backend]...)
	versions = append(versions, nano)
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	s.versions[backend] = versions
}

// snapshotKey builds the storage key for one backend version. The nano
// component is fixed-width so lexical and chronological order agree.
func snapshotKey(backend string, nano int64) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d", keyPrefix, backend, nano))
}

func parseSnapshotKey(key []byte) (string, int64, error) {
	rest, ok := strings.CutPrefix(string(key), keyPrefix)
	if !ok {
		return "", 0, fmt.Errorf("malformed snapshot key %q", key)
	}
	idx := strings.LastIndexByte(rest, '/')
	if idx < 0 {
		return "", 0, fmt.Errorf("malformed snapshot key %q", key)
	}
	nano, err := strconv.ParseInt(rest[idx+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed snapshot key %q: %w", key, err)
	}
	return rest[:idx], nano, nil
}

func cacheKey(backend string, nano int64) string {
	return backend + "@" + strconv.FormatInt(nano, 10)
}
