package benchmark_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/vpdb"
	"github.com/hupe1980/vpdb/blobstore"
	"github.com/hupe1980/vpdb/descriptor"
	"github.com/hupe1980/vpdb/testutil"
)

func BenchmarkInsert(b *testing.B) {
	b.ReportAllocs()

	ctx := context.Background()
	db := openIndex(b)
	records := testutil.NewRNG(1).Records(b.N, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := db.Insert(ctx, records[i]); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkInsertBatch(b *testing.B) {
	for _, c := range []blobstore.Compression{blobstore.CompressionNone, blobstore.CompressionLZ4, blobstore.CompressionZSTD} {
		b.Run(c.String(), func(b *testing.B) {
			b.ReportAllocs()

			ctx := context.Background()
			db := openIndex(b, vpdb.WithCompression(c))
			records := testutil.NewRNG(1).Records(b.N, 1)

			b.ResetTimer()
			if _, err := db.InsertBatch(ctx, records); err != nil {
				b.Fatal(err)
			}
		})
	}
}

func BenchmarkSearch(b *testing.B) {
	for _, size := range []int{10_000, 100_000} {
		for _, exact := range []bool{false, true} {
			b.Run(fmt.Sprintf("n=%d/exact=%t", size, exact), func(b *testing.B) {
				benchmarkSearch(b, size, 10, vpdb.WithExactPruning(exact))
			})
		}
	}
}

func benchmarkSearch(b *testing.B, size, k int, opts ...vpdb.Option) {
	ctx := context.Background()
	db, _ := loadedIndex(b, size, opts...)
	qs := queries(256)

	var comparisons uint64
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := db.Search(ctx, qs[i%len(qs)], k)
		if err != nil {
			b.Fatal(err)
		}
		comparisons += res.Comparisons
	}
	b.ReportMetric(float64(comparisons)/float64(b.N), "comparisons/op")
}

func BenchmarkSearchBatch(b *testing.B) {
	ctx := context.Background()
	db, _ := loadedIndex(b, 50_000, vpdb.WithSearchWorkers(8))
	qs := queries(64)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := db.SearchBatch(ctx, qs, 10); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDistance(b *testing.B) {
	qs := queries(2)
	var sink uint32
	for i := 0; i < b.N; i++ {
		sink += descriptor.Distance(qs[0], qs[1])
	}
	_ = sink
}
