package contactbook

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/contactbook/index"
	"github.com/hupe1980/contactbook/store"
	"github.com/hupe1980/contactbook/validate"
)

var (
	// ErrNotFound is returned when no contact has the given email.
	ErrNotFound = errors.New("contact not found")

	// ErrConflict is returned when the email is already used by another contact.
	ErrConflict = errors.New("contact already exists")

	// ErrInvalidArgument is returned for input the index cannot hold.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClosed is returned by operations on a closed Book.
	ErrClosed = errors.New("contact book closed")
)

// ValidationError reports rejected input per field ("name", "email").
type ValidationError struct {
	Fields validate.Errors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap makes a ValidationError match ErrInvalidArgument.
func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}

	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, index.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, store.ErrDuplicate), errors.Is(err, index.ErrExists):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, index.ErrInvalidKey):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	case errors.Is(err, store.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return err
}
