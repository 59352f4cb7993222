package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// FileStore keeps each key in its own JSON file under a data
// directory. Writes go through a temp file and an atomic rename so a
// crash never leaves a half-written value behind.
type FileStore struct {
	mu         sync.RWMutex
	dir        string
	maxRetries int
}

// NewFileStore creates the data directory and returns a file store
func NewFileStore(dir string, maxRetries int) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &FileStore{dir: dir, maxRetries: maxRetries}, nil
}

// Get decodes the value at key into v
func (fs *FileStore) Get(ctx context.Context, key string, v interface{}) error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.path(key))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Put encodes v and writes it at key, retrying transient failures
func (fs *FileStore) Put(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	write := func() error {
		tmp := fs.path(key) + ".tmp"
		if err := os.WriteFile(tmp, data, 0644); err != nil {
			return err
		}
		return os.Rename(tmp, fs.path(key))
	}

	bo := backoff.WithContext(newBackoff(fs.maxRetries), ctx)
	if err := backoff.Retry(write, bo); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes a key
func (fs *FileStore) Delete(ctx context.Context, key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	err := os.Remove(fs.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys with the given prefix
func (fs *FileStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Close is a no-op for the file store
func (fs *FileStore) Close() error { return nil }

// path escapes the key so slashes and colons stay out of filenames
func (fs *FileStore) path(key string) string {
	return filepath.Join(fs.dir, url.PathEscape(key)+".json")
}

func newBackoff(maxRetries int) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = time.Second
	return backoff.WithMaxRetries(bo, uint64(maxRetries-1))
}
