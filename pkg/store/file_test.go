package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modsentry/modsentry/pkg/config"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir(), 3)
	require.NoError(t, err)

	require.NoError(t, fs.Put(ctx, "reputation:alice", &record{Name: "alice", Count: 7}))

	var got record
	require.NoError(t, fs.Get(ctx, "reputation:alice", &got))
	assert.Equal(t, record{Name: "alice", Count: 7}, got)
}

func TestFileStoreMissingKey(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir(), 3)
	require.NoError(t, err)

	var got record
	assert.ErrorIs(t, fs.Get(ctx, "nope", &got), ErrNotFound)
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir(), 3)
	require.NoError(t, err)

	require.NoError(t, fs.Put(ctx, "k", &record{}))
	require.NoError(t, fs.Delete(ctx, "k"))

	var got record
	assert.ErrorIs(t, fs.Get(ctx, "k", &got), ErrNotFound)

	// Deleting a missing key is not an error
	assert.NoError(t, fs.Delete(ctx, "k"))
}

func TestFileStoreKeysPrefix(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir(), 3)
	require.NoError(t, err)

	require.NoError(t, fs.Put(ctx, "reputation:a", &record{}))
	require.NoError(t, fs.Put(ctx, "reputation:b", &record{}))
	require.NoError(t, fs.Put(ctx, "thresholds:ch", &record{}))

	keys, err := fs.Keys(ctx, "reputation:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"reputation:a", "reputation:b"}, keys)
}

func TestFileStoreEscapesKeys(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir(), 3)
	require.NoError(t, err)

	// Keys with separators must not escape the data directory
	key := "behavior:user/../../etc"
	require.NoError(t, fs.Put(ctx, key, &record{Count: 1}))

	var got record
	require.NoError(t, fs.Get(ctx, key, &got))
	assert.Equal(t, 1, got.Count)
}

func TestOpenSelectsBackend(t *testing.T) {
	st, err := Open(&config.StorageConfig{Backend: "file", DataDir: t.TempDir(), MaxRetries: 1})
	require.NoError(t, err)
	defer st.Close()
	_, ok := st.(*FileStore)
	assert.True(t, ok)

	_, err = Open(&config.StorageConfig{Backend: "bogus"})
	assert.Error(t, err)
}
