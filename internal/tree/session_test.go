package tree

import (
	"context"
	"testing"

	"github.com/hupe1980/vpdb/blobstore"
	"github.com/hupe1980/vpdb/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionDefersWrites(t *testing.T) {
	ctx := context.Background()
	fs := testutil.NewFaultStore(blobstore.NewMemoryStore())
	cfg := Config{LeafCapacity: 16, ShardDepth: 2}
	tr := newTestTreeConfig(t, fs, cfg)
	recs := testutil.NewRNG(20).Records(500, 1)

	s := tr.Begin()
	for _, rec := range recs {
		require.NoError(t, s.Insert(ctx, rec))
	}
	assert.Equal(t, 0, fs.Puts())
	assert.Equal(t, 500, s.Pending())

	require.NoError(t, s.Close(ctx))
	assert.Positive(t, fs.Puts())
	assert.ErrorIs(t, s.Insert(ctx, recs[0]), ErrSessionClosed)
	require.NoError(t, s.Close(ctx))

	report, err := tr.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK(), report.Violations)
	assert.Equal(t, uint64(500), report.Records)
	assert.Equal(t, uint64(500), report.DistinctIDs)
	assert.Empty(t, report.OrphanShards)
}

func TestSessionMatchesSingleInserts(t *testing.T) {
	ctx := context.Background()
	recs := testutil.NewRNG(21).Records(300, 1)

	single := blobstore.NewMemoryStore()
	insertAll(t, newTestTree(t, single, 8, 2), recs)

	batched := blobstore.NewMemoryStore()
	tr := newTestTree(t, batched, 8, 2)
	s := tr.Begin()
	for _, rec := range recs {
		require.NoError(t, s.Insert(ctx, rec))
	}
	require.NoError(t, s.Close(ctx))

	// Same seed, same insertion order: identical blobs.
	names, err := single.List(ctx, "")
	require.NoError(t, err)
	batchedNames, err := batched.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, names, batchedNames)

	for _, name := range names {
		a, err := single.Get(ctx, name)
		require.NoError(t, err)
		b, err := batched.Get(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, a, b, name)
	}
}

func TestSessionPeriodicFlush(t *testing.T) {
	ctx := context.Background()
	fs := testutil.NewFaultStore(blobstore.NewMemoryStore())
	tr := newTestTreeConfig(t, fs, Config{LeafCapacity: 16, ShardDepth: 2, FlushEvery: 50})

	s := tr.Begin()
	for _, rec := range testutil.NewRNG(22).Records(120, 1) {
		require.NoError(t, s.Insert(ctx, rec))
	}
	assert.Positive(t, fs.Puts())
	assert.Equal(t, 20, s.Pending())

	// Flushed inserts are visible to readers before Close.
	size, err := tr.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), size)

	require.NoError(t, s.Close(ctx))
	size, err = tr.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(120), size)
}

func TestSessionAbort(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	tr := newTestTree(t, store, 16, 2)

	s := tr.Begin()
	for _, rec := range testutil.NewRNG(23).Records(50, 1) {
		require.NoError(t, s.Insert(ctx, rec))
	}
	s.Abort()

	assert.Equal(t, 0, store.Len())
	assert.ErrorIs(t, s.Flush(ctx), ErrSessionClosed)
}

func TestSessionFlushFailure(t *testing.T) {
	ctx := context.Background()
	fs := testutil.NewFaultStore(blobstore.NewMemoryStore())
	tr := newTestTree(t, fs, 16, 8)
	recs := testutil.NewRNG(24).Records(20, 1)

	insertAll(t, tr, recs[:10])
	before, err := blobstore.ReadAll(ctx, fs, RootPath().FileName())
	require.NoError(t, err)

	s := tr.Begin()
	for _, rec := range recs[10:] {
		require.NoError(t, s.Insert(ctx, rec))
	}
	fs.FailNextPut(1)
	require.ErrorIs(t, s.Close(ctx), testutil.ErrInjected)

	after, err := blobstore.ReadAll(ctx, fs, RootPath().FileName())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSessionRetryAfterFailedFlush(t *testing.T) {
	ctx := context.Background()
	fs := testutil.NewFaultStore(blobstore.NewMemoryStore())
	tr := newTestTree(t, fs, 4, 1)
	recs := testutil.NewRNG(25).Records(5, 1)
	insertAll(t, tr, recs[:4])

	s := tr.Begin()
	require.NoError(t, s.Insert(ctx, recs[4]))
	fs.FailNextPut(3)
	require.ErrorIs(t, s.Close(ctx), testutil.ErrInjected)

	size, err := tr.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), size)

	s = tr.Begin()
	require.NoError(t, s.Insert(ctx, recs[4]))
	require.NoError(t, s.Close(ctx))

	size, err = tr.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), size)

	report, err := tr.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK(), report.Violations)
	assert.Zero(t, report.DuplicateIDs)
	assert.Empty(t, report.OrphanShards)
}
