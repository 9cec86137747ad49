// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works against MinIO and other S3-compatible services (Ceph, Garage,
// SeaweedFS) without pulling in the AWS SDK.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "contacts", "contactbook/")
package minio
