package contactbook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/contactbook/index"
	"github.com/hupe1980/contactbook/model"
	"github.com/hupe1980/contactbook/page"
	"github.com/hupe1980/contactbook/store"
	"github.com/hupe1980/contactbook/validate"
)

// Book is a contact book: a record store plus a search index mirroring it.
//
// Mutations write the store first and then the index, under one mutex, so
// the index never shows a contact the store rejected. Reads and searches run
// concurrently with each other and with mutations.
type Book struct {
	mu        sync.Mutex // serializes mutations
	store     store.Store
	index     *index.ContactIndex
	validator *validate.Validator
	logger    *Logger
	metrics   MetricsCollector
	pageSize  int
	closed    atomic.Bool
}

// Open rebuilds the search index from st and returns a ready Book.
func Open(ctx context.Context, st store.Store, optFns ...Option) (*Book, error) {
	o := applyOptions(optFns)

	b := &Book{
		store:     st,
		index:     index.New(),
		validator: o.validator,
		logger:    o.logger,
		metrics:   o.metricsCollector,
		pageSize:  o.pageSize,
	}
	if b.validator == nil {
		b.validator = validate.New(validate.ExistsFunc(b.exists))
	}

	start := time.Now()
	n, err := b.bootstrap(ctx)
	took := time.Since(start)

	b.logger.LogBootstrap(ctx, n, took, err)
	b.metrics.RecordBootstrap(n, took, err)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Book) bootstrap(ctx context.Context) (int, error) {
	contacts, err := b.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list contacts: %w", err)
	}
	n, err := b.index.Bootstrap(contacts)
	if err != nil {
		return n, fmt.Errorf("bootstrap index: %w", translateError(err))
	}
	return n, nil
}

// exists reports whether email is taken in the store or in the index.
func (b *Book) exists(ctx context.Context, email string) (bool, error) {
	if b.index.Contains(email) {
		return true, nil
	}
	_, err := b.store.Get(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Ready reports whether the Book serves requests.
func (b *Book) Ready() bool {
	return !b.closed.Load() && b.index.Bootstrapped()
}

// Create validates and stores a new contact and adds it to the index.
func (b *Book) Create(ctx context.Context, name, email string) (c model.Contact, err error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)

	start := time.Now()
	defer func() {
		b.logger.LogCreate(ctx, email, err)
		b.metrics.RecordCreate(time.Since(start), err)
	}()

	if b.closed.Load() {
		return model.Contact{}, ErrClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	errs, err := b.validator.Validate(ctx, name, email)
	if err != nil {
		return model.Contact{}, err
	}
	if len(errs) > 0 {
		return model.Contact{}, &ValidationError{Fields: errs}
	}

	c, err = b.store.Create(ctx, model.Contact{Name: name, Email: email})
	if err != nil {
		return model.Contact{}, translateError(err)
	}

	if err := b.index.Add(c.Name, c.Email); err != nil {
		// Keep store and index in step: undo the record the index refused.
		// The undo must run even if the caller has gone away.
		if _, derr := b.store.Delete(context.WithoutCancel(ctx), c.Email); derr != nil {
			b.logger.ErrorContext(ctx, "rollback after index failure failed",
				"email", c.Email,
				"error", derr,
			)
		}
		return model.Contact{}, translateError(err)
	}
	return c, nil
}

// Rename changes the name of the contact stored under email.
func (b *Book) Rename(ctx context.Context, email, newName string) (c model.Contact, err error) {
	newName = strings.TrimSpace(newName)

	start := time.Now()
	defer func() {
		b.logger.LogUpdate(ctx, "rename", email, err)
		b.metrics.RecordUpdate(time.Since(start), err)
	}()

	if b.closed.Load() {
		return model.Contact{}, ErrClosed
	}
	if msg := validate.ValidateName(newName); msg != "" {
		return model.Contact{}, &ValidationError{Fields: validate.Errors{"name": msg}}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	old, err := b.store.Get(ctx, email)
	if err != nil {
		return model.Contact{}, translateError(err)
	}

	c, err = b.store.Update(ctx, old.Email, model.Contact{Name: newName, Email: old.Email})
	if err != nil {
		return model.Contact{}, translateError(err)
	}

	if err := b.index.Rename(old.Name, c.Name, c.Email); err != nil {
		return c, b.outOfSync(ctx, "rename", c.Email, err)
	}
	return c, nil
}

// ChangeEmail moves the contact stored under oldEmail to newEmail.
func (b *Book) ChangeEmail(ctx context.Context, oldEmail, newEmail string) (c model.Contact, err error) {
	newEmail = strings.TrimSpace(newEmail)

	start := time.Now()
	defer func() {
		b.logger.LogUpdate(ctx, "change_email", oldEmail, err)
		b.metrics.RecordUpdate(time.Since(start), err)
	}()

	if b.closed.Load() {
		return model.Contact{}, ErrClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	old, err := b.store.Get(ctx, oldEmail)
	if err != nil {
		return model.Contact{}, translateError(err)
	}

	// A case-only change keeps the key, so the email is not taken by another contact.
	sameKey := model.NormalizeKey(newEmail) == old.Key()
	v := b.validator
	if sameKey {
		v = validate.New(nil)
	}

	msg, err := v.ValidateEmail(ctx, newEmail)
	if err != nil {
		return model.Contact{}, err
	}
	if msg != "" {
		return model.Contact{}, &ValidationError{Fields: validate.Errors{"email": msg}}
	}

	c, err = b.store.Update(ctx, old.Email, model.Contact{Name: old.Name, Email: newEmail})
	if err != nil {
		return model.Contact{}, translateError(err)
	}
	if sameKey {
		return c, nil
	}

	if err := b.index.ChangeEmail(old.Name, old.Email, c.Email); err != nil {
		return c, b.outOfSync(ctx, "change_email", c.Email, err)
	}
	return c, nil
}

// Delete removes the contact stored under email and returns it.
func (b *Book) Delete(ctx context.Context, email string) (c model.Contact, err error) {
	start := time.Now()
	defer func() {
		b.logger.LogDelete(ctx, email, err)
		b.metrics.RecordDelete(time.Since(start), err)
	}()

	if b.closed.Load() {
		return model.Contact{}, ErrClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c, err = b.store.Delete(ctx, email)
	if err != nil {
		return model.Contact{}, translateError(err)
	}

	if err := b.index.Remove(c.Name, c.Email); err != nil {
		return c, b.outOfSync(ctx, "delete", c.Email, err)
	}
	return c, nil
}

// outOfSync reports an index update that failed after the store accepted
// the change. This only happens when the store was modified behind the
// Book's back.
func (b *Book) outOfSync(ctx context.Context, op, email string, err error) error {
	b.logger.ErrorContext(ctx, "search index out of sync with store",
		"op", op,
		"email", email,
		"error", err,
	)
	return fmt.Errorf("%s: store updated but index was not: %w", op, translateError(err))
}

// Get returns the contact stored under email.
func (b *Book) Get(ctx context.Context, email string) (model.Contact, error) {
	if b.closed.Load() {
		return model.Contact{}, ErrClosed
	}
	c, err := b.store.Get(ctx, email)
	return c, translateError(err)
}

// List returns one page of all contacts in creation order. number is the
// 1-based page number as sent by a client; see page.Paginate.
func (b *Book) List(ctx context.Context, number string) (page.Page[model.Contact], error) {
	if b.closed.Load() {
		return page.Page[model.Contact]{}, ErrClosed
	}
	contacts, err := b.store.List(ctx)
	if err != nil {
		return page.Page[model.Contact]{}, translateError(err)
	}
	return page.Paginate(contacts, number, b.pageSize), nil
}

// Search returns one page of the contacts whose name or email starts with
// query. Matching ignores case; a blank query matches every contact.
func (b *Book) Search(ctx context.Context, query, number string) (p page.Page[model.Entry], err error) {
	start := time.Now()
	results := 0
	defer func() {
		b.logger.LogSearch(ctx, query, results, err)
		b.metrics.RecordSearch(results, time.Since(start), err)
	}()

	if b.closed.Load() {
		return page.Page[model.Entry]{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return page.Page[model.Entry]{}, err
	}

	entries := b.index.Search(strings.TrimSpace(query))
	results = len(entries)
	return page.Paginate(entries, number, b.pageSize), nil
}

// Stats returns the size of the search index.
func (b *Book) Stats() index.Stats {
	return b.index.Stats()
}

// Verify checks that the search index is internally consistent.
func (b *Book) Verify() error {
	return b.index.Verify()
}

// Close closes the Book and its store. Close is idempotent.
func (b *Book) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Close()
}
