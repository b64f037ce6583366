package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	require.NoError(t, store.Put(ctx, "reports/r00_s00.txt", []byte("a")))
	require.NoError(t, store.Put(ctx, "reports/r01_s00.txt", []byte("b")))
	require.NoError(t, store.Put(ctx, "summary.json", []byte("[]")))

	data, err := store.Get(ctx, "reports/r01_s00.txt")
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))

	keys, err := store.List(ctx, "reports")
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/r00_s00.txt", "reports/r01_s00.txt"}, keys)

	_, err = store.Get(ctx, "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	keys, err = store.List(ctx, "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = Open(ctx, "s3://")
	assert.Error(t, err)
}
