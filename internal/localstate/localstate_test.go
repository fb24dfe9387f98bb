package localstate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(Driver("bolt"))
	require.ErrorIs(t, err, ErrInvalidDriver)
}

func TestNew_FileRequiresDir(t *testing.T) {
	_, err := New(DriverFile)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_RedisRequiresClient(t *testing.T) {
	_, err := New(DriverRedis)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

// roundTrip exercises the Store contract shared by all drivers.
func roundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, KeyCartItems)
	require.NoError(t, err)
	assert.False(t, ok, "missing key should report ok=false")

	require.NoError(t, store.Set(ctx, KeyCartItems, []byte(`{"p1":2}`)))
	got, ok, err := store.Get(ctx, KeyCartItems)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"p1":2}`), got)

	// Overwrite.
	require.NoError(t, store.Set(ctx, KeyCartItems, []byte(`{}`)))
	got, ok, err = store.Get(ctx, KeyCartItems)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{}`), got)

	require.NoError(t, store.Delete(ctx, KeyCartItems))
	_, ok, err = store.Get(ctx, KeyCartItems)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	require.NoError(t, store.Delete(ctx, KeyCartItems))
}

func TestMemoryStore(t *testing.T) {
	store, err := New(DriverMemory)
	require.NoError(t, err)
	defer store.Close()
	roundTrip(t, store)
}

func TestFileStore(t *testing.T) {
	store, err := New(DriverFile, WithDir(t.TempDir()))
	require.NoError(t, err)
	defer store.Close()
	roundTrip(t, store)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := New(DriverFile, WithDir(dir))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyAccessToken, []byte("tok")))
	require.NoError(t, store.Close())

	reopened, err := New(DriverFile, WithDir(dir))
	require.NoError(t, err)
	got, ok, err := reopened.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("tok"), got)
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := New(DriverFile, WithDir(dir))
	require.NoError(t, err)

	for range 10 {
		require.NoError(t, store.Set(context.Background(), KeyCartItems, []byte("x")))
	}

	matches, err := filepath.Glob(filepath.Join(dir, ".tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileStore_KeysAreSandboxed(t *testing.T) {
	dir := t.TempDir()
	store, err := New(DriverFile, WithDir(dir))
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "../escape", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "..")
}
