package badger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/shopit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := OpenBackend(file, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	boom := errors.New("boom")

	err = backend.WithTransaction(ctx, func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = backend.WithTransaction(ctx, func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestKeys_RejectEmpty(t *testing.T) {
	_, err := makeImageKey("")
	assert.ErrorIs(t, err, storage.ErrInvalidKey)
	_, err = makeTargetKey("")
	assert.ErrorIs(t, err, storage.ErrInvalidKey)
	_, err = makeViewKey("")
	assert.ErrorIs(t, err, storage.ErrInvalidKey)
}

func TestKeys_DistinctPrefixes(t *testing.T) {
	target, err := makeTargetKey("room-1")
	require.NoError(t, err)
	view, err := makeViewKey("room-1")
	require.NoError(t, err)
	assert.NotEqual(t, target, view)
	assert.Equal(t, "dtgt:room-1", string(target))
}
