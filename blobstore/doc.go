// Package blobstore provides the storage abstraction behind durable contact
// snapshots.
//
// BlobStore is the interface for reading and writing whole blobs.
// Implementations must be safe for concurrent use and must make Put atomic:
// a reader sees either the previous content or the new one, never a mix.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for tests and ephemeral deployments
//   - LocalStore: local filesystem with temp-file + rename writes
//   - s3.Store: Amazon S3
//   - minio.Store: MinIO and other S3-compatible services
package blobstore
