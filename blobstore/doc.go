// Package blobstore provides the storage abstraction behind shard files.
//
// Every shard of the tree is one blob that is read whole and replaced whole.
// Store implementations must make Put atomic so that readers never observe a
// partially written shard.
//
// # Built-in Implementations
//
//   - LocalStore: a directory on the local filesystem (mmap reads, temp-file + rename writes)
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Wrappers
//
//   - Compressed: zstd or lz4 envelopes around shard bytes
//   - Throttled: rate-limits write bandwidth through a resource.Controller
//
// Implement Store to plug in another backend. Implementations must be safe
// for concurrent use.
package blobstore
