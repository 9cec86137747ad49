// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "contactbook/")
//
// # Features
//
//   - Range reads
//   - Uploads through the SDK upload manager with CRC32C checksums
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
