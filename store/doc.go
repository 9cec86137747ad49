// Package store holds contact records, the source of truth the search index
// is rebuilt from at startup.
//
// Records are keyed by normalized email (see model.NormalizeKey) while the
// stored Name and Email keep the case the user entered.
//
// # Implementations
//
//   - MemoryStore: in-process maps, lost on restart
//   - SnapshotStore: a MemoryStore that rewrites a snapshot blob through a
//     blobstore.BlobStore after every mutation
//   - dynamodb.Store: an AWS DynamoDB table
package store
