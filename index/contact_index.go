package index

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/hupe1980/contactbook/model"
	"golang.org/x/sync/errgroup"
)

// ContactIndex answers prefix queries over contact names and emails.
//
// It owns an EmailTrie and a NameTrie and keeps them consistent: for every
// indexed contact the email maps to its name and the name lists its email.
// Mutations hold the write lock across both tries; Search holds the read
// lock. ContactIndex is safe for concurrent use.
//
// The index mirrors the record store and never decides on its own whether a
// contact may exist. Callers write the record store first and then apply the
// same change here.
type ContactIndex struct {
	mu           sync.RWMutex
	emails       *EmailTrie
	names        *NameTrie
	bootstrapped bool
}

// Stats describes the size of a ContactIndex.
type Stats struct {
	Contacts   int // indexed emails
	Names      int // distinct names
	EmailNodes int
	NameNodes  int
}

// New returns an empty ContactIndex.
func New() *ContactIndex {
	return &ContactIndex{
		emails: NewEmailTrie(),
		names:  NewNameTrie(),
	}
}

// Bootstrap builds the index from the full set of contacts held by the
// record store. It may be called once, on an empty index; a failed bootstrap
// leaves the index empty.
func (ci *ContactIndex) Bootstrap(contacts []model.Contact) (int, error) {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if ci.bootstrapped || ci.emails.Len() > 0 {
		return 0, ErrBootstrapped
	}

	for _, c := range contacts {
		name, email, err := normalizePair(c.Name, c.Email)
		if err != nil {
			ci.reset()
			return 0, fmt.Errorf("bootstrap contact %d: %w", c.ID, err)
		}
		if !ci.emails.Insert(email, name) {
			ci.reset()
			return 0, fmt.Errorf("bootstrap contact %d: email %q: %w", c.ID, email, ErrExists)
		}
		ci.addName(name, email)
	}

	ci.bootstrapped = true
	return len(contacts), nil
}

// Bootstrapped reports whether Bootstrap completed.
func (ci *ContactIndex) Bootstrapped() bool {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return ci.bootstrapped
}

// Add indexes a new contact. It returns ErrExists, and changes nothing, if
// the email is already indexed.
func (ci *ContactIndex) Add(name, email string) error {
	name, email, err := normalizePair(name, email)
	if err != nil {
		return err
	}

	ci.mu.Lock()
	defer ci.mu.Unlock()

	if _, ok := ci.emails.Lookup(email); ok {
		return fmt.Errorf("email %q: %w", email, ErrExists)
	}
	ci.emails.Insert(email, name)
	ci.addName(name, email)
	return nil
}

// Rename moves the contact with the given email from oldName to newName.
// It returns ErrNotFound, and changes nothing, unless email is indexed
// under oldName.
func (ci *ContactIndex) Rename(oldName, newName, email string) error {
	oldName, email, err := normalizePair(oldName, email)
	if err != nil {
		return err
	}
	newName, err = normalize("name", newName)
	if err != nil {
		return err
	}

	ci.mu.Lock()
	defer ci.mu.Unlock()

	if err := ci.checkLocked(oldName, email); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}

	ci.emails.Update(email, newName)
	ci.names.Delete(oldName, email)
	ci.addName(newName, email)
	return nil
}

// ChangeEmail moves the contact named name from oldEmail to newEmail. It
// returns ErrNotFound unless oldEmail is indexed under name, and ErrExists if
// newEmail belongs to another contact. A failed call changes nothing.
func (ci *ContactIndex) ChangeEmail(name, oldEmail, newEmail string) error {
	name, oldEmail, err := normalizePair(name, oldEmail)
	if err != nil {
		return err
	}
	newEmail, err = normalize("email", newEmail)
	if err != nil {
		return err
	}

	ci.mu.Lock()
	defer ci.mu.Unlock()

	if err := ci.checkLocked(name, oldEmail); err != nil {
		return err
	}
	if oldEmail == newEmail {
		return nil
	}
	if _, ok := ci.emails.Lookup(newEmail); ok {
		return fmt.Errorf("email %q: %w", newEmail, ErrExists)
	}

	ci.emails.Delete(oldEmail)
	ci.names.Delete(name, oldEmail)
	ci.emails.Insert(newEmail, name)
	ci.addName(name, newEmail)
	return nil
}

// Remove drops the contact (name, email) from both tries. It returns
// ErrNotFound, and changes nothing, unless email is indexed under name.
func (ci *ContactIndex) Remove(name, email string) error {
	name, email, err := normalizePair(name, email)
	if err != nil {
		return err
	}

	ci.mu.Lock()
	defer ci.mu.Unlock()

	if err := ci.checkLocked(name, email); err != nil {
		return err
	}
	ci.emails.Delete(email)
	ci.names.Delete(name, email)
	return nil
}

// Search returns every contact whose name or email starts with query, after
// normalization. Email matches come first, then name matches; each email is
// reported once. An empty query matches every contact.
//
// The order follows the tries' byte order and may change as contacts are
// added and removed.
func (ci *ContactIndex) Search(query string) []model.Entry {
	q := model.NormalizeKey(query)

	ci.mu.RLock()
	defer ci.mu.RUnlock()

	var byEmail, byName []model.Entry

	var g errgroup.Group
	g.Go(func() error {
		byEmail = ci.emails.Search(q)
		return nil
	})
	g.Go(func() error {
		byName = ci.names.Search(q)
		return nil
	})
	_ = g.Wait()

	return merge(byEmail, byName)
}

// Lookup returns the indexed name of the contact with the given email.
func (ci *ContactIndex) Lookup(email string) (string, bool) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return ci.emails.Lookup(model.NormalizeKey(email))
}

// Contains reports whether email is indexed.
func (ci *ContactIndex) Contains(email string) bool {
	_, ok := ci.Lookup(email)
	return ok
}

// Emails returns the emails indexed under name.
func (ci *ContactIndex) Emails(name string) []string {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	emails, _ := ci.names.Emails(model.NormalizeKey(name))
	return emails
}

// Len returns the number of indexed contacts.
func (ci *ContactIndex) Len() int {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return ci.emails.Len()
}

// Stats returns the current size of the index.
func (ci *ContactIndex) Stats() Stats {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return Stats{
		Contacts:   ci.emails.Len(),
		Names:      ci.names.Len(),
		EmailNodes: ci.emails.NodeCount(),
		NameNodes:  ci.names.NodeCount(),
	}
}

// Verify checks both tries and their agreement: every email maps to a name
// that lists it, and every listed email maps back to that name exactly once.
// A non-nil error means a bug in the caller or in the index; Verify is meant
// for tests and diagnostics.
func (ci *ContactIndex) Verify() error {
	ci.mu.RLock()
	defer ci.mu.RUnlock()

	if err := ci.emails.Check(); err != nil {
		return fmt.Errorf("email trie: %w", err)
	}
	if err := ci.names.Check(); err != nil {
		return fmt.Errorf("name trie: %w", err)
	}

	var err error
	ci.emails.t.Walk("", func(email, name string) bool {
		if !ci.names.Contains(name, email) {
			err = fmt.Errorf("%w: email %q maps to %q which does not list it", ErrInconsistent, email, name)
		}
		return err == nil
	})
	if err != nil {
		return err
	}

	listed := 0
	ci.names.t.Walk("", func(name string, emails []string) bool {
		for _, email := range emails {
			listed++
			if got, ok := ci.emails.Lookup(email); !ok || got != name {
				err = fmt.Errorf("%w: name %q lists %q which maps to %q", ErrInconsistent, name, email, got)
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	if listed != ci.emails.Len() {
		return fmt.Errorf("%w: %d emails listed under names, %d indexed", ErrInconsistent, listed, ci.emails.Len())
	}
	return nil
}

// addName appends email to an existing name or inserts the name.
func (ci *ContactIndex) addName(name, email string) {
	if !ci.names.Update(name, email) {
		ci.names.Insert(name, email)
	}
}

func (ci *ContactIndex) checkLocked(name, email string) error {
	current, ok := ci.emails.Lookup(email)
	if !ok {
		return fmt.Errorf("email %q: %w", email, ErrNotFound)
	}
	if current != name || !ci.names.Contains(name, email) {
		return fmt.Errorf("email %q under name %q: %w", email, name, ErrNotFound)
	}
	return nil
}

func (ci *ContactIndex) reset() {
	ci.emails = NewEmailTrie()
	ci.names = NewNameTrie()
}

func merge(lists ...[]model.Entry) []model.Entry {
	n := 0
	for _, l := range lists {
		n += len(l)
	}

	out := make([]model.Entry, 0, n)
	pos := make(map[string]int, n)
	for _, l := range lists {
		for _, e := range l {
			if i, ok := pos[e.Email]; ok {
				out[i] = e
				continue
			}
			pos[e.Email] = len(out)
			out = append(out, e)
		}
	}
	return out
}

func normalize(field, s string) (string, error) {
	k := model.NormalizeKey(s)
	if k == "" || !utf8.ValidString(k) {
		return "", &KeyError{Field: field, Key: s}
	}
	return k, nil
}

func normalizePair(name, email string) (string, string, error) {
	n, err := normalize("name", name)
	if err != nil {
		return "", "", err
	}
	e, err := normalize("email", email)
	if err != nil {
		return "", "", err
	}
	return n, e, nil
}
