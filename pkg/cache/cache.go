package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inboxpilot/inboxpilot/pkg/config"
)

var (
	// ErrNotFound is returned when a key is absent or its entry expired
	ErrNotFound = errors.New("cache: key not found")

	// ErrClosed is returned after Close
	ErrClosed = errors.New("cache: store closed")
)

// Store is a TTL key/value cache for derived artifacts such as message
// summaries. Entries are disposable: losing the cache never loses user
// data, only recomputation time.
type Store interface {
	// Get returns the value for key, or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key for the given TTL. Zero TTL means the
	// backend default.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources
	Close() error
}

// New builds a Store from configuration
func New(cfg config.CacheConfig) (Store, error) {
	ttl, err := cfg.GetTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid cache ttl: %w", err)
	}

	switch cfg.Type {
	case "", "memory":
		return NewMemory(ttl), nil
	case "leveldb":
		return NewLevelDB(cfg.Path, ttl)
	case "redis":
		return NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix, ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Type)
	}
}
