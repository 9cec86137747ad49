package index

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned for empty keys and keys that are not valid UTF-8.
	ErrInvalidKey = errors.New("invalid key")

	// ErrNotFound is returned when a contact is not present in the index.
	ErrNotFound = errors.New("not found")

	// ErrExists is returned when adding an email that is already indexed.
	ErrExists = errors.New("already exists")

	// ErrBootstrapped is returned when Bootstrap is called on a live index.
	ErrBootstrapped = errors.New("index already bootstrapped")

	// ErrInconsistent is returned by Verify when the two tries disagree.
	ErrInconsistent = errors.New("index inconsistent")
)

// KeyError describes a rejected key.
type KeyError struct {
	Field string // "name" or "email"
	Key   string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("invalid %s key %q", e.Field, e.Key)
}

func (e *KeyError) Unwrap() error { return ErrInvalidKey }
