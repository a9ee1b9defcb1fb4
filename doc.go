// Package vpdb is a disk-resident nearest-neighbour index for 32-byte image
// feature descriptors.
//
// Records are kept in a vantage-point tree whose subtrees are split into
// shard blobs, one blob per ShardDepth logical levels. Only the shards on
// the path of an operation are loaded, so the index can grow far beyond
// memory. Every shard rewrite replaces the whole blob atomically: readers
// see either the old or the new shard, never a torn one.
//
// # Quick Start
//
//	ctx := context.Background()
//	db, err := vpdb.Open(ctx, "./index")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	_ = db.Insert(ctx, descriptor.Record{ID: 1, Descriptor: d})
//
//	res, _ := db.Search(ctx, query, 10)
//	for _, n := range res.Neighbors {
//	    fmt.Println(n.ID, n.Distance)
//	}
//
// # Bulk Loading
//
// InsertBatch keeps every touched shard in memory and writes each one once
// per flush instead of once per record:
//
//	n, err := db.InsertBatch(ctx, records)
//
// # Storage
//
// Shards live in a local directory by default. Any blobstore.Store can be
// used instead, e.g. S3 or MinIO:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("descriptors/"))
//	db, _ := vpdb.Open(ctx, "", vpdb.WithStore(store), vpdb.WithCompression(blobstore.CompressionZSTD))
//
// # Distances
//
// Distances are squared Euclidean distances over the 32 descriptor bytes.
// The default search prunes with the triangle inequality applied to squared
// distances, which is fast but may miss true neighbours. WithExactPruning
// applies it to Euclidean distances and always matches an exhaustive scan.
package vpdb
