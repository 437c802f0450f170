// Package hints persists path cache contents across restarts.
//
// A hint says "object (device, inode) was last seen at path". Hints are
// never trusted: they are loaded into the path cache, and the cache
// re-validates every entry with lstat before returning it, so a stale
// hint costs at most one miss.
package hints

import (
	"context"
	"sync"
)

// Hint is one persisted path cache entry.
type Hint struct {
	Device uint32 `json:"dev"`
	Inode  uint32 `json:"ino"`
	Path   string `json:"path"`
}

// Store loads and saves hints.
//
// Save replaces the whole stored set. Load returns hints in the order they
// were saved, which is least recently used first.
type Store interface {
	Load(ctx context.Context) ([]Hint, error)
	Save(ctx context.Context, hints []Hint) error
	Close() error
}

// MemoryStore keeps hints in process memory. It is mainly useful in tests
// and as a stand-in when persistence is disabled.
type MemoryStore struct {
	mu    sync.Mutex
	hints []Hint
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context) ([]Hint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Hint(nil), s.hints...), nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, hints []Hint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hints = append([]Hint(nil), hints...)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
