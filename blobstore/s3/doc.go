// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("index/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	db, err := vpdb.Open(ctx, vpdb.WithStore(store))
//
// Shards are written with the multipart upload manager, so large shards are
// split into parts and uploaded concurrently. S3 object writes are atomic,
// which gives the same torn-write guarantee as the local store.
package s3
