package index

import (
	"fmt"

	"github.com/hupe1980/contactbook/internal/trie"
	"github.com/hupe1980/contactbook/model"
)

// EmailTrie maps an email to the name of the contact that owns it.
//
// Keys are expected to be normalized and non-empty. EmailTrie is not safe for
// concurrent use; ContactIndex serializes access.
type EmailTrie struct {
	t *trie.Trie[string]
}

// NewEmailTrie returns an empty EmailTrie.
func NewEmailTrie() *EmailTrie {
	return &EmailTrie{t: trie.New[string]()}
}

// Insert stores name under email, overwriting any previous name.
// It reports whether email was new.
func (e *EmailTrie) Insert(email, name string) bool {
	return e.t.Upsert(email, func(string, bool) string { return name })
}

// Update replaces the name stored under an existing email.
// It reports false, and changes nothing, if email is not present.
func (e *EmailTrie) Update(email, name string) bool {
	return e.t.Update(email, func(string) string { return name })
}

// Delete removes email. It reports false if email was not present.
func (e *EmailTrie) Delete(email string) bool {
	return e.t.Delete(email)
}

// Lookup returns the name stored under email.
func (e *EmailTrie) Lookup(email string) (string, bool) {
	return e.t.Get(email)
}

// Search returns every (name, email) pair whose email starts with prefix, in
// ascending byte order of the email.
func (e *EmailTrie) Search(prefix string) []model.Entry {
	var entries []model.Entry
	e.t.Walk(prefix, func(email, name string) bool {
		entries = append(entries, model.Entry{Name: name, Email: email})
		return true
	})
	return entries
}

// Len returns the number of emails.
func (e *EmailTrie) Len() int { return e.t.Len() }

// NodeCount returns the number of trie nodes, including the root.
func (e *EmailTrie) NodeCount() int { return e.t.NodeCount() }

// Check verifies the structural invariants of the trie and that no email
// maps to an empty name.
func (e *EmailTrie) Check() error {
	if err := e.t.Check(); err != nil {
		return err
	}
	var err error
	e.t.Walk("", func(email, name string) bool {
		if name == "" {
			err = fmt.Errorf("%w: email %q has an empty name", ErrInconsistent, email)
		}
		return err == nil
	})
	return err
}
