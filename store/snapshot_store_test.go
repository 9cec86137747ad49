package store

import (
	"context"
	"testing"

	"github.com/hupe1980/contactbook/blobstore"
	"github.com/hupe1980/contactbook/codec"
	"github.com/hupe1980/contactbook/internal/fs"
	"github.com/hupe1980/contactbook/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStore(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		s, err := OpenSnapshotStore(context.Background(), blobstore.NewMemoryStore())
		require.NoError(t, err)
		return s
	})
}

func TestSnapshotStore_Reopen(t *testing.T) {
	ctx := context.Background()

	for _, comp := range []codec.Compressor{codec.None{}, codec.Zstd{}, codec.LZ4{}} {
		t.Run(comp.Name(), func(t *testing.T) {
			blobs := blobstore.NewLocalStore(t.TempDir())

			s, err := OpenSnapshotStore(ctx, blobs, WithCompressor(comp), WithCodec(codec.JSON{}))
			require.NoError(t, err)

			alice, err := s.Create(ctx, model.Contact{Name: "Alice", Email: "alice@example.com"})
			require.NoError(t, err)
			bob, err := s.Create(ctx, model.Contact{Name: "Bob", Email: "bob@example.com"})
			require.NoError(t, err)
			_, err = s.Update(ctx, bob.Email, model.Contact{Name: "Robert", Email: bob.Email})
			require.NoError(t, err)
			_, err = s.Delete(ctx, alice.Email)
			require.NoError(t, err)
			require.NoError(t, s.Close())

			// Reopen with the default options; the header selects the decoder.
			r, err := OpenSnapshotStore(ctx, blobs)
			require.NoError(t, err)

			list, err := r.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []model.Contact{{ID: bob.ID, Name: "Robert", Email: "bob@example.com"}}, list)

			c, err := r.Create(ctx, model.Contact{Name: "Carol", Email: "carol@example.com"})
			require.NoError(t, err)
			assert.Greater(t, c.ID, bob.ID)
		})
	}
}

func TestSnapshotStore_FailedWriteRollsBack(t *testing.T) {
	ctx := context.Background()
	ffs := fs.NewFaultyFS(nil)
	blobs := blobstore.NewLocalStore(t.TempDir(), blobstore.WithFileSystem(ffs))

	s, err := OpenSnapshotStore(ctx, blobs)
	require.NoError(t, err)

	alice, err := s.Create(ctx, model.Contact{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)

	ffs.AddRule(DefaultSnapshotName, fs.Fault{FailAfterBytes: -1, FailOnSync: true})

	_, err = s.Create(ctx, model.Contact{Name: "Bob", Email: "bob@example.com"})
	require.ErrorIs(t, err, fs.ErrInjected)

	_, err = s.Update(ctx, alice.Email, model.Contact{Name: "Alicia", Email: "alicia@example.com"})
	require.ErrorIs(t, err, fs.ErrInjected)

	_, err = s.Delete(ctx, alice.Email)
	require.ErrorIs(t, err, fs.ErrInjected)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Contact{alice}, list)

	ffs.ClearRules()
	r, err := OpenSnapshotStore(ctx, blobs)
	require.NoError(t, err)
	list, err = r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Contact{alice}, list)
}

func TestOpenSnapshotStore_Corrupt(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()

	good, err := encodeSnapshot(snapshotDoc{NextID: 2, Contacts: []model.Contact{{ID: 1, Name: "a", Email: "a@x.io"}}}, codec.GoJSON{}, codec.Zstd{})
	require.NoError(t, err)

	flipped := append([]byte(nil), good...)
	flipped[len(flipped)-1] ^= 0xFF

	dup, err := encodeSnapshot(snapshotDoc{NextID: 3, Contacts: []model.Contact{
		{ID: 1, Name: "a", Email: "a@x.io"},
		{ID: 2, Name: "b", Email: "A@X.io"},
	}}, codec.GoJSON{}, codec.None{})
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"BadMagic", []byte("NOTSNAP")},
		{"Truncated", good[:len(snapshotMagic)+3]},
		{"Checksum", flipped},
		{"DuplicateEmail", dup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, blobs.Put(ctx, DefaultSnapshotName, tt.data))
			_, err := OpenSnapshotStore(ctx, blobs)
			assert.ErrorIs(t, err, ErrCorruptSnapshot)
		})
	}
}

func TestDecodeSnapshot_UnknownCodec(t *testing.T) {
	data, err := encodeSnapshot(snapshotDoc{NextID: 1}, fakeCodec{codec.JSON{}}, codec.None{})
	require.NoError(t, err)

	_, err = decodeSnapshot(data)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
	assert.ErrorContains(t, err, "msgpack")
}

type fakeCodec struct{ codec.JSON }

func (fakeCodec) Name() string { return "msgpack" }
