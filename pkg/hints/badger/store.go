// Package badger stores path cache hints in a BadgerDB database.
//
// Key layout:
//
//	hint:<seq u64 big-endian>  ->  JSON {"dev", "ino", "path"}
//
// The sequence number preserves save order, so iteration yields hints
// least recently used first.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/nfsfh/internal/logger"
	"github.com/marmos91/nfsfh/pkg/hints"
)

var hintPrefix = []byte("hint:")

// Config configures the badger hint store.
type Config struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string `mapstructure:"path" yaml:"path"`

	// SyncWrites makes every save durable before returning.
	SyncWrites bool `mapstructure:"sync_writes" yaml:"sync_writes"`

	// InMemory keeps the database in memory only (tests).
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory,omitempty"`
}

// Store is a hints.Store backed by BadgerDB.
type Store struct {
	mu sync.Mutex
	db *badgerdb.DB
}

var _ hints.Store = (*Store)(nil)

// New opens (creating if needed) the hint database.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Path == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger hint store: path is required")
	}

	dir := cfg.Path
	if cfg.InMemory {
		dir = ""
	}
	opts := badgerdb.DefaultOptions(dir).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLoggingLevel(badgerdb.WARNING).
		WithCompression(options.None)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.Path, err)
	}

	return &Store{db: db}, nil
}

// Load implements hints.Store.
func (s *Store) Load(ctx context.Context) ([]hints.Hint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []hints.Hint
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = hintPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			var h hints.Hint
			if err := json.Unmarshal(value, &h); err != nil {
				// A corrupt hint is only a lost hint.
				logger.Warn("Skipping undecodable hint %x: %v", item.Key(), err)
				continue
			}
			out = append(out, h)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load hints: %w", err)
	}

	return out, nil
}

// Save implements hints.Store. The previous set is dropped first.
func (s *Store) Save(ctx context.Context, list []hints.Hint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DropPrefix(hintPrefix); err != nil {
		return fmt.Errorf("failed to drop old hints: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i, h := range list {
		value, err := json.Marshal(h)
		if err != nil {
			return fmt.Errorf("failed to encode hint: %w", err)
		}
		if err := wb.Set(hintKey(uint64(i)), value); err != nil {
			return fmt.Errorf("failed to write hint: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to flush hints: %w", err)
	}
	return nil
}

// Close implements hints.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

func hintKey(seq uint64) []byte {
	key := make([]byte, len(hintPrefix)+8)
	copy(key, hintPrefix)
	binary.BigEndian.PutUint64(key[len(hintPrefix):], seq)
	return key
}
