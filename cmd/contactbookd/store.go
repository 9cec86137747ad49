package main

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/contactbook"
	"github.com/hupe1980/contactbook/blobstore"
	minioblob "github.com/hupe1980/contactbook/blobstore/minio"
	s3blob "github.com/hupe1980/contactbook/blobstore/s3"
	"github.com/hupe1980/contactbook/codec"
	"github.com/hupe1980/contactbook/store"
	ddbstore "github.com/hupe1980/contactbook/store/dynamodb"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
}

type storeOptions struct {
	Backend     string
	Path        string
	Bucket      string
	Prefix      string
	Table       string
	Codec       string
	Compression string
	MinIO       minioOptions
}

// openStore builds the record store named by o.Backend. release frees
// resources held outside the store, such as the local directory lock.
func openStore(ctx context.Context, o storeOptions, logger *contactbook.Logger) (st store.Store, release func(), err error) {
	release = func() {}

	switch o.Backend {
	case "memory", "":
		return store.NewMemoryStore(), release, nil

	case "dynamodb":
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		return ddbstore.New(awsddb.NewFromConfig(cfg), o.Table), release, nil
	}

	var blobs blobstore.BlobStore
	switch o.Backend {
	case "local":
		local := blobstore.NewLocalStore(o.Path)
		lock, err := local.Lock()
		if err != nil {
			return nil, nil, fmt.Errorf("lock %s: %w", o.Path, err)
		}
		release = func() {
			if err := lock.Close(); err != nil {
				logger.Warn("failed to release store lock", "path", o.Path, "error", err)
			}
		}
		blobs = local

	case "s3":
		if o.Bucket == "" {
			return nil, nil, errors.New("store.bucket is required for the s3 backend")
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		blobs = s3blob.NewStore(awss3.NewFromConfig(cfg), o.Bucket, o.Prefix)

	case "minio":
		if o.Bucket == "" {
			return nil, nil, errors.New("store.bucket is required for the minio backend")
		}
		client, err := minio.New(o.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(o.MinIO.AccessKey, o.MinIO.SecretKey, ""),
			Secure: o.MinIO.Secure,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("minio client: %w", err)
		}
		ms := minioblob.NewStore(client, o.Bucket, o.Prefix)
		if err := ms.EnsureBucket(ctx); err != nil {
			return nil, nil, fmt.Errorf("ensure bucket %s: %w", o.Bucket, err)
		}
		blobs = ms

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", o.Backend)
	}

	c, ok := codec.ByName(o.Codec)
	if !ok {
		release()
		return nil, nil, fmt.Errorf("unknown codec %q", o.Codec)
	}
	comp, ok := codec.CompressorByName(o.Compression)
	if !ok {
		release()
		return nil, nil, fmt.Errorf("unknown compression %q", o.Compression)
	}

	snap, err := store.OpenSnapshotStore(ctx, blobs, store.WithCodec(c), store.WithCompressor(comp))
	if err != nil {
		release()
		return nil, nil, err
	}
	return snap, release, nil
}
