package benchmark_test

import (
	"context"
	"testing"

	"github.com/hupe1980/vpdb"
	"github.com/hupe1980/vpdb/descriptor"
	"github.com/hupe1980/vpdb/testutil"
)

const (
	benchLeafCapacity = 512
	benchShardDepth   = 4
)

// openIndex opens a fresh on-disk index in a temp dir.
func openIndex(b *testing.B, opts ...vpdb.Option) *vpdb.DB {
	b.Helper()
	base := []vpdb.Option{
		vpdb.WithLeafCapacity(benchLeafCapacity),
		vpdb.WithShardDepth(benchShardDepth),
		vpdb.WithSeed(1),
	}
	db, err := vpdb.Open(context.Background(), b.TempDir(), append(base, opts...)...)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = db.Close() })
	return db
}

// loadedIndex opens an index holding n random records and returns the
// records alongside it.
func loadedIndex(b *testing.B, n int, opts ...vpdb.Option) (*vpdb.DB, []descriptor.Record) {
	b.Helper()
	db := openIndex(b, opts...)
	records := testutil.NewRNG(2).Records(n, 1)
	if _, err := db.InsertBatch(context.Background(), records); err != nil {
		b.Fatal(err)
	}
	return db, records
}

func queries(n int) []descriptor.Descriptor {
	rng := testutil.NewRNG(3)
	out := make([]descriptor.Descriptor, n)
	for i := range out {
		out[i] = rng.Descriptor()
	}
	return out
}
