package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for reading and atomically replacing blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// ReadAll opens name and reads the whole blob.
func ReadAll(ctx context.Context, s BlobStore, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	buf := make([]byte, b.Size())
	if len(buf) == 0 {
		return buf, nil
	}

	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return nil, fmt.Errorf("blobstore: read %s: %w", name, err)
	}
	if n != len(buf) {
		return nil, fmt.Errorf("blobstore: read %s: short read %d of %d bytes", name, n, len(buf))
	}
	return buf, nil
}
