package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
)

type levelDBEntry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LevelDB is a disk-backed Store. Entries carry their own expiry and
// are evicted lazily on read, so a restart keeps warm summaries without
// ever serving stale ones.
type LevelDB struct {
	db         *leveldb.DB
	defaultTTL time.Duration

	now func() time.Time
}

// NewLevelDB opens (or creates) a LevelDB cache at path
func NewLevelDB(path string, defaultTTL time.Duration) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb cache: %w", err)
	}
	return &LevelDB{db: db, defaultTTL: defaultTTL, now: time.Now}, nil
}

// Get returns the cached value, or ErrNotFound
func (l *LevelDB) Get(_ context.Context, key string) (string, error) {
	data, err := l.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("leveldb get: %w", err)
	}

	var entry levelDBEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Unreadable entries are treated as absent and dropped
		_ = l.db.Delete([]byte(key), nil)
		return "", ErrNotFound
	}
	if l.now().After(entry.ExpiresAt) {
		_ = l.db.Delete([]byte(key), nil)
		return "", ErrNotFound
	}
	return entry.Value, nil
}

// Set stores value under key
func (l *LevelDB) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = l.defaultTTL
	}
	data, err := json.Marshal(levelDBEntry{Value: value, ExpiresAt: l.now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := l.db.Put([]byte(key), data, nil); err != nil {
		return fmt.Errorf("leveldb put: %w", err)
	}
	return nil
}

// Delete removes key
func (l *LevelDB) Delete(_ context.Context, key string) error {
	if err := l.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("leveldb delete: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (l *LevelDB) Close() error {
	return l.db.Close()
}
