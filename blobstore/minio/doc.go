// Package minio provides a blobstore.Store implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible servers such as Ceph, Garage and
// SeaweedFS, and needs no AWS SDK.
//
// # Basic Usage
//
//	store, err := minio.New(ctx, minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "descriptors",
//	    Prefix:    "index/",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	db, err := vpdb.Open(ctx, vpdb.WithStore(store))
//
// Each shard is written with a single PutObject call, which the server
// applies atomically.
package minio
