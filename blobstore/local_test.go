package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Store  = (*LocalStore)(nil)
	_ Getter = (*LocalStore)(nil)
	_ Store  = (*MemoryStore)(nil)
	_ Store  = (*Compressed)(nil)
	_ Store  = (*Throttled)(nil)
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)

	ctx := context.Background()

	name := "vp_tree.l.database"
	data := []byte("hello world, this is a test blob for vpdb")

	require.NoError(t, store.Put(ctx, name, data))

	_, err := os.Stat(filepath.Join(tmpDir, name))
	require.NoError(t, err)

	blob, err := store.Open(ctx, name)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	all, err := ReadAll(ctx, store, name)
	require.NoError(t, err)
	assert.Equal(t, data, all)

	// Replace in place
	require.NoError(t, store.Put(ctx, name, []byte("replaced")))
	all, err = store.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(all))

	require.NoError(t, store.Delete(ctx, name))
	_, err = store.Open(ctx, name)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice is not an error.
	require.NoError(t, store.Delete(ctx, name))
}

func TestLocalStore_EmptyBlob(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "empty", nil))

	data, err := ReadAll(ctx, store, "empty")
	require.NoError(t, err)
	assert.Empty(t, data)

	blob, err := store.Open(ctx, "empty")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(0), blob.Size())

	_, err = blob.ReadAt(ctx, make([]byte, 1), 0)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLocalStore_List(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	for _, name := range []string{"vp_tree.lnnnnl.database", "vp_tree.l.database", "other.txt"} {
		require.NoError(t, store.Put(ctx, name, []byte(name)))
	}
	// Leftovers from an interrupted write and subdirectories are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vp_tree.l.database.tmp-999"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vp_tree.sub"), 0o755))

	names, err := store.List(ctx, "vp_tree.")
	require.NoError(t, err)
	assert.Equal(t, []string{"vp_tree.l.database", "vp_tree.lnnnnl.database"}, names)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "a", data))
	data[0] = 'z' // the store keeps its own copy

	got, err := ReadAll(ctx, store, "a")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	blob, err := store.Open(ctx, "a")
	require.NoError(t, err)
	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 1)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "bc", string(buf[:n]))

	require.NoError(t, store.Put(ctx, "b", nil))
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
	assert.Equal(t, 2, store.Len())

	require.NoError(t, store.Delete(ctx, "a"))
	assert.Equal(t, 1, store.Len())
}
