package main

import (
	"context"
	"testing"

	"github.com/hupe1980/contactbook"
	"github.com/hupe1980/contactbook/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_Memory(t *testing.T) {
	st, release, err := openStore(context.Background(), storeOptions{Backend: "memory"}, contactbook.NoopLogger())
	require.NoError(t, err)
	defer release()
	assert.IsType(t, &store.MemoryStore{}, st)
}

func TestOpenStore_Invalid(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		opts storeOptions
	}{
		{"UnknownBackend", storeOptions{Backend: "sqlite"}},
		{"UnknownCodec", storeOptions{Backend: "local", Path: t.TempDir(), Codec: "xml"}},
		{"UnknownCompression", storeOptions{Backend: "local", Path: t.TempDir(), Compression: "brotli"}},
		{"S3WithoutBucket", storeOptions{Backend: "s3"}},
		{"MinIOWithoutBucket", storeOptions{Backend: "minio"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := openStore(ctx, tt.opts, contactbook.NoopLogger())
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("debug", "json")
	require.NoError(t, err)
	_, err = newLogger("loud", "text")
	assert.Error(t, err)
	_, err = newLogger("info", "xml")
	assert.Error(t, err)
}
