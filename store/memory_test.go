package store

import (
	"context"
	"testing"

	"github.com/hupe1980/contactbook/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore runs the behavior every Store implementation shares.
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateGet", func(t *testing.T) {
		s := newStore(t)

		c, err := s.Create(ctx, model.Contact{Name: "Alice", Email: "Alice@Example.com"})
		require.NoError(t, err)
		assert.NotZero(t, c.ID)
		assert.Equal(t, "Alice@Example.com", c.Email)

		got, err := s.Get(ctx, "alice@example.COM")
		require.NoError(t, err)
		assert.Equal(t, c, got)

		_, err = s.Get(ctx, "bob@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(ctx, model.Contact{Name: "Alice", Email: "alice@example.com"})
		require.NoError(t, err)

		_, err = s.Create(ctx, model.Contact{Name: "Other", Email: "ALICE@example.com"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("ListAscendingID", func(t *testing.T) {
		s := newStore(t)

		var ids []model.ID
		for _, email := range []string{"c@x.io", "a@x.io", "b@x.io"} {
			c, err := s.Create(ctx, model.Contact{Name: "n", Email: email})
			require.NoError(t, err)
			ids = append(ids, c.ID)
		}

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, c := range list {
			assert.Equal(t, ids[i], c.ID)
		}
	})

	t.Run("UpdateName", func(t *testing.T) {
		s := newStore(t)

		c, err := s.Create(ctx, model.Contact{Name: "Alice", Email: "alice@example.com"})
		require.NoError(t, err)

		u, err := s.Update(ctx, "ALICE@example.com", model.Contact{Name: "Alicia", Email: c.Email})
		require.NoError(t, err)
		assert.Equal(t, c.ID, u.ID)
		assert.Equal(t, "Alicia", u.Name)

		got, err := s.Get(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Alicia", got.Name)
	})

	t.Run("UpdateEmail", func(t *testing.T) {
		s := newStore(t)

		c, err := s.Create(ctx, model.Contact{Name: "Alice", Email: "alice@example.com"})
		require.NoError(t, err)
		_, err = s.Create(ctx, model.Contact{Name: "Bob", Email: "bob@example.com"})
		require.NoError(t, err)

		_, err = s.Update(ctx, c.Email, model.Contact{Name: c.Name, Email: "BOB@example.com"})
		assert.ErrorIs(t, err, ErrDuplicate)

		u, err := s.Update(ctx, c.Email, model.Contact{Name: c.Name, Email: "alice@new.org"})
		require.NoError(t, err)
		assert.Equal(t, c.ID, u.ID)

		_, err = s.Get(ctx, "alice@example.com")
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := s.Get(ctx, "alice@new.org")
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)

		// Case-only change keeps the key.
		u, err = s.Update(ctx, "alice@new.org", model.Contact{Name: c.Name, Email: "Alice@New.org"})
		require.NoError(t, err)
		assert.Equal(t, "Alice@New.org", u.Email)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Update(ctx, "nobody@example.com", model.Contact{Name: "x", Email: "nobody@example.com"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)

		c, err := s.Create(ctx, model.Contact{Name: "Alice", Email: "alice@example.com"})
		require.NoError(t, err)

		d, err := s.Delete(ctx, "Alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, c, d)

		_, err = s.Delete(ctx, "alice@example.com")
		assert.ErrorIs(t, err, ErrNotFound)

		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)

		// IDs are not reused.
		c2, err := s.Create(ctx, model.Contact{Name: "Alice", Email: "alice@example.com"})
		require.NoError(t, err)
		assert.Greater(t, c2.ID, c.ID)
	})

	t.Run("Closed", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Close())

		_, err := s.Create(ctx, model.Contact{Name: "Alice", Email: "alice@example.com"})
		assert.ErrorIs(t, err, ErrClosed)
		_, err = s.List(ctx)
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestMemoryStore(t *testing.T) {
	testStore(t, func(*testing.T) Store { return NewMemoryStore() })
}

func TestMemoryStore_Len(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, model.Contact{Name: "a", Email: "a@x.io"})
	require.NoError(t, err)
	_, err = s.Create(ctx, model.Contact{Name: "b", Email: "b@x.io"})
	require.NoError(t, err)
	_, err = s.Delete(ctx, "a@x.io")
	require.NoError(t, err)

	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().Create(ctx, model.Contact{Name: "a", Email: "a@x.io"})
	assert.ErrorIs(t, err, context.Canceled)
}
