package store

import (
	"context"
	"errors"

	"github.com/hupe1980/contactbook/model"
)

var (
	// ErrNotFound is returned when no record is stored under an email.
	ErrNotFound = errors.New("store: contact not found")

	// ErrDuplicate is returned when a record with the same normalized email exists.
	ErrDuplicate = errors.New("store: email already exists")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")
)

// Store persists contact records.
//
// Lookups take an email in any case; implementations normalize it.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create stores c under a new ID and returns the stored record.
	Create(ctx context.Context, c model.Contact) (model.Contact, error)
	// Get returns the record stored under email.
	Get(ctx context.Context, email string) (model.Contact, error)
	// Update replaces the record stored under email with c, keeping its ID.
	// c.Email may differ from email, which moves the record to a new key.
	Update(ctx context.Context, email string, c model.Contact) (model.Contact, error)
	// Delete removes the record stored under email and returns it.
	Delete(ctx context.Context, email string) (model.Contact, error)
	// List returns all records in ascending ID order.
	List(ctx context.Context) ([]model.Contact, error)
	// Close releases resources held by the store.
	Close() error
}
