package integration_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vpdb"
	"github.com/hupe1980/vpdb/descriptor"
	"github.com/hupe1980/vpdb/testutil"
)

// Readers never block on the writer and never observe a torn shard.
func TestConcurrentReadersDuringWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := vpdb.Open(ctx, dir, vpdb.WithLeafCapacity(32), vpdb.WithShardDepth(2), vpdb.WithSeed(11))
	require.NoError(t, err)
	defer db.Close()

	rng := testutil.NewRNG(200)
	initial := rng.Records(500, 1)
	_, err = db.InsertBatch(ctx, initial)
	require.NoError(t, err)

	more := rng.Records(500, 501)

	var (
		wg   sync.WaitGroup
		done = make(chan struct{})
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for _, rec := range more {
			if err := db.Insert(ctx, rec); err != nil {
				t.Errorf("insert %d: %v", rec.ID, err)
				return
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for r := 0; r < 4; r++ {
		g.Go(func() error {
			i := 0
			for {
				select {
				case <-done:
					return nil
				default:
				}
				q := initial[(i*7+r)%len(initial)]
				res, err := db.Search(gctx, q.Descriptor, 5)
				if err != nil {
					return err
				}
				best, ok := res.Best()
				if !ok || best.Distance != 0 {
					t.Errorf("query %d: best %+v", q.ID, best)
				}
				i++
			}
		})
	}

	require.NoError(t, g.Wait())
	wg.Wait()

	size, err := db.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), size)

	report, err := db.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK(), report.Violations)
	assert.Empty(t, report.OrphanShards)
}

func TestConcurrentWritersSerialize(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t, vpdb.WithLeafCapacity(16), vpdb.WithShardDepth(2))

	rng := testutil.NewRNG(201)
	batches := make([][]descriptor.Record, 4)
	for i := range batches {
		batches[i] = rng.Records(250, uint64(i*250+1))
	}

	var g errgroup.Group
	for _, batch := range batches {
		g.Go(func() error {
			_, err := db.InsertBatch(ctx, batch)
			return err
		})
	}
	for i := 0; i < 100; i++ {
		rec := descriptor.Record{ID: uint64(10_000 + i), Descriptor: rng.Descriptor()}
		g.Go(func() error { return db.Insert(ctx, rec) })
	}
	require.NoError(t, g.Wait())

	report, err := db.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK(), report.Violations)
	assert.Equal(t, uint64(1100), report.Records)
	assert.Equal(t, uint64(1100), report.DistinctIDs)
}
