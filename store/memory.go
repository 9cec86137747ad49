package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/contactbook/model"
)

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]model.ID
	records map[model.ID]model.Contact
	live    *roaring64.Bitmap // IDs of stored records, iterated in order by List
	nextID  model.ID
	closed  bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEmail: make(map[string]model.ID),
		records: make(map[model.ID]model.Contact),
		live:    roaring64.New(),
		nextID:  1,
	}
}

// Create implements Store.
func (m *MemoryStore) Create(ctx context.Context, c model.Contact) (model.Contact, error) {
	if err := ctx.Err(); err != nil {
		return model.Contact{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return model.Contact{}, ErrClosed
	}
	if _, ok := m.byEmail[c.Key()]; ok {
		return model.Contact{}, ErrDuplicate
	}

	c.ID = m.nextID
	m.nextID++
	m.put(c)
	return c, nil
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, email string) (model.Contact, error) {
	if err := ctx.Err(); err != nil {
		return model.Contact{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return model.Contact{}, ErrClosed
	}
	id, ok := m.byEmail[model.NormalizeKey(email)]
	if !ok {
		return model.Contact{}, ErrNotFound
	}
	return m.records[id], nil
}

// Update implements Store.
func (m *MemoryStore) Update(ctx context.Context, email string, c model.Contact) (model.Contact, error) {
	if err := ctx.Err(); err != nil {
		return model.Contact{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return model.Contact{}, ErrClosed
	}

	key := model.NormalizeKey(email)
	id, ok := m.byEmail[key]
	if !ok {
		return model.Contact{}, ErrNotFound
	}
	if newKey := c.Key(); newKey != key {
		if _, taken := m.byEmail[newKey]; taken {
			return model.Contact{}, ErrDuplicate
		}
		delete(m.byEmail, key)
	}

	c.ID = id
	m.put(c)
	return c, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, email string) (model.Contact, error) {
	if err := ctx.Err(); err != nil {
		return model.Contact{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return model.Contact{}, ErrClosed
	}

	key := model.NormalizeKey(email)
	id, ok := m.byEmail[key]
	if !ok {
		return model.Contact{}, ErrNotFound
	}

	c := m.records[id]
	delete(m.byEmail, key)
	delete(m.records, id)
	m.live.Remove(uint64(id))
	return c, nil
}

// List implements Store.
func (m *MemoryStore) List(ctx context.Context) ([]model.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	return m.listLocked(), nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int(m.live.GetCardinality())
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryStore) listLocked() []model.Contact {
	out := make([]model.Contact, 0, m.live.GetCardinality())
	it := m.live.Iterator()
	for it.HasNext() {
		out = append(out, m.records[model.ID(it.Next())])
	}
	return out
}

// put stores c under its ID, replacing an existing record with that ID.
func (m *MemoryStore) put(c model.Contact) {
	if old, ok := m.records[c.ID]; ok {
		if k := old.Key(); m.byEmail[k] == c.ID {
			delete(m.byEmail, k)
		}
	}
	m.records[c.ID] = c
	m.byEmail[c.Key()] = c.ID
	m.live.Add(uint64(c.ID))
	if c.ID >= m.nextID {
		m.nextID = c.ID + 1
	}
}

// state returns a copy of the records and the next ID to assign.
func (m *MemoryStore) state() ([]model.Contact, model.ID) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(), m.nextID
}

// restore replaces the contents of the store.
func (m *MemoryStore) restore(contacts []model.Contact, nextID model.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.byEmail)
	clear(m.records)
	m.live.Clear()
	m.nextID = max(nextID, 1)

	for _, c := range contacts {
		if c.ID == 0 {
			return fmt.Errorf("%w: contact %q has no id", ErrCorruptSnapshot, c.Email)
		}
		if _, dup := m.byEmail[c.Key()]; dup {
			return fmt.Errorf("%w: duplicate email %q", ErrCorruptSnapshot, c.Email)
		}
		m.put(c)
	}
	return nil
}
