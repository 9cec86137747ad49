package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/contactbook/blobstore"
	"github.com/hupe1980/contactbook/codec"
	"github.com/hupe1980/contactbook/model"
)

// DefaultSnapshotName is the blob the SnapshotStore reads and writes.
const DefaultSnapshotName = "contacts.snap"

// SnapshotStore is a MemoryStore made durable by rewriting a snapshot blob
// after every mutation. A mutation returns only after its snapshot is
// written; if the write fails the mutation is rolled back.
type SnapshotStore struct {
	mu    sync.Mutex // serializes mutations with their snapshot writes
	mem   *MemoryStore
	blobs blobstore.BlobStore
	name  string
	codec codec.Codec
	comp  codec.Compressor
}

// SnapshotOption configures a SnapshotStore.
type SnapshotOption func(*SnapshotStore)

// WithSnapshotName sets the blob name of the snapshot.
func WithSnapshotName(name string) SnapshotOption {
	return func(s *SnapshotStore) { s.name = name }
}

// WithCodec sets the codec for newly written snapshots.
func WithCodec(c codec.Codec) SnapshotOption {
	return func(s *SnapshotStore) { s.codec = c }
}

// WithCompressor sets the compressor for newly written snapshots.
func WithCompressor(c codec.Compressor) SnapshotOption {
	return func(s *SnapshotStore) { s.comp = c }
}

// OpenSnapshotStore opens the store kept in blobs, loading the existing
// snapshot if there is one. Snapshots written with any built-in codec and
// compressor can be read, whatever the options say.
func OpenSnapshotStore(ctx context.Context, blobs blobstore.BlobStore, optFns ...SnapshotOption) (*SnapshotStore, error) {
	s := &SnapshotStore{
		mem:   NewMemoryStore(),
		blobs: blobs,
		name:  DefaultSnapshotName,
		codec: codec.Default,
		comp:  codec.None{},
	}
	for _, fn := range optFns {
		fn(s)
	}

	data, err := blobstore.ReadAll(ctx, blobs, s.name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return s, nil
		}
		return nil, fmt.Errorf("store: load snapshot: %w", err)
	}

	doc, err := decodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	if err := s.mem.restore(doc.Contacts, doc.NextID); err != nil {
		return nil, err
	}
	return s, nil
}

// mutate applies fn to the memory store and persists the result.
func (s *SnapshotStore) mutate(ctx context.Context, fn func() (model.Contact, error)) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, prevNext := s.mem.state()

	c, err := fn()
	if err != nil {
		return model.Contact{}, err
	}

	if err := s.persist(ctx); err != nil {
		// restore only fails on duplicate keys, which prev cannot contain.
		_ = s.mem.restore(prev, prevNext)
		return model.Contact{}, err
	}
	return c, nil
}

func (s *SnapshotStore) persist(ctx context.Context) error {
	contacts, next := s.mem.state()

	data, err := encodeSnapshot(snapshotDoc{NextID: next, Contacts: contacts}, s.codec, s.comp)
	if err != nil {
		return err
	}
	if err := s.blobs.Put(ctx, s.name, data); err != nil {
		return fmt.Errorf("store: write snapshot: %w", err)
	}
	return nil
}

// Create implements Store.
func (s *SnapshotStore) Create(ctx context.Context, c model.Contact) (model.Contact, error) {
	return s.mutate(ctx, func() (model.Contact, error) { return s.mem.Create(ctx, c) })
}

// Get implements Store.
func (s *SnapshotStore) Get(ctx context.Context, email string) (model.Contact, error) {
	return s.mem.Get(ctx, email)
}

// Update implements Store.
func (s *SnapshotStore) Update(ctx context.Context, email string, c model.Contact) (model.Contact, error) {
	return s.mutate(ctx, func() (model.Contact, error) { return s.mem.Update(ctx, email, c) })
}

// Delete implements Store.
func (s *SnapshotStore) Delete(ctx context.Context, email string) (model.Contact, error) {
	return s.mutate(ctx, func() (model.Contact, error) { return s.mem.Delete(ctx, email) })
}

// List implements Store.
func (s *SnapshotStore) List(ctx context.Context) ([]model.Contact, error) {
	return s.mem.List(ctx)
}

// Close implements Store. The snapshot is already current, so Close writes nothing.
func (s *SnapshotStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.Close()
}
