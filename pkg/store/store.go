package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/modsentry/modsentry/pkg/config"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("store: key not found")

// Store is keyed JSON persistence for engine state. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get decodes the value at key into v
	Get(ctx context.Context, key string, v interface{}) error

	// Put encodes v and writes it at key
	Put(ctx context.Context, key string, v interface{}) error

	// Delete removes a key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Keys lists stored keys with the given prefix
	Keys(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// Open builds a store from config
func Open(cfg *config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "file":
		return NewFileStore(cfg.DataDir, cfg.MaxRetries)
	case "redis":
		return NewRedisStore(cfg.RedisURL, cfg.KeyPrefix, cfg.DatabaseNum, cfg.MaxRetries)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
