//go:build unix

package main

import (
	"context"
	"testing"

	"github.com/hupe1980/contactbook"
	"github.com/hupe1980/contactbook/blobstore"
	"github.com/hupe1980/contactbook/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_LocalPersistsAndLocks(t *testing.T) {
	ctx := context.Background()
	o := storeOptions{Backend: "local", Path: t.TempDir(), Codec: "go-json", Compression: "zstd"}

	st, release, err := openStore(ctx, o, contactbook.NoopLogger())
	require.NoError(t, err)

	_, _, err = openStore(ctx, o, contactbook.NoopLogger())
	require.ErrorIs(t, err, blobstore.ErrLocked)

	_, err = st.Create(ctx, model.Contact{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	require.NoError(t, st.Close())
	release()

	st, release, err = openStore(ctx, o, contactbook.NoopLogger())
	require.NoError(t, err)
	defer release()

	c, err := st.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", c.Name)
}
