package index

import (
	"fmt"
	"slices"

	"github.com/hupe1980/contactbook/internal/trie"
	"github.com/hupe1980/contactbook/model"
)

// NameTrie maps a name to the emails of every contact with that name.
//
// Emails under one name keep their insertion order. Keys are expected to be
// normalized and non-empty. NameTrie is not safe for concurrent use;
// ContactIndex serializes access.
type NameTrie struct {
	t *trie.Trie[[]string]
}

// NewNameTrie returns an empty NameTrie.
func NewNameTrie() *NameTrie {
	return &NameTrie{t: trie.New[[]string]()}
}

// Insert appends email to the emails of name, creating name if needed.
// Duplicates are not filtered. It reports whether name was new.
func (n *NameTrie) Insert(name, email string) bool {
	return n.t.Upsert(name, func(old []string, _ bool) []string {
		return append(old, email)
	})
}

// Update appends email to an existing name. It reports false, and changes
// nothing, if name is not present.
func (n *NameTrie) Update(name, email string) bool {
	return n.t.Update(name, func(old []string) []string {
		return append(old, email)
	})
}

// Delete removes one occurrence of email from name. The name itself is
// removed, and its path pruned, once its last email is gone. It reports
// false if name does not hold email.
func (n *NameTrie) Delete(name, email string) bool {
	emails, ok := n.t.Get(name)
	if !ok {
		return false
	}
	i := slices.Index(emails, email)
	if i < 0 {
		return false
	}
	if len(emails) == 1 {
		return n.t.Delete(name)
	}
	return n.t.Update(name, func(old []string) []string {
		return slices.Delete(old, i, i+1)
	})
}

// Emails returns a copy of the emails stored under name.
func (n *NameTrie) Emails(name string) ([]string, bool) {
	emails, ok := n.t.Get(name)
	if !ok {
		return nil, false
	}
	return slices.Clone(emails), true
}

// Contains reports whether name holds email.
func (n *NameTrie) Contains(name, email string) bool {
	emails, ok := n.t.Get(name)
	return ok && slices.Contains(emails, email)
}

// Search returns one (name, email) pair per email of every name starting
// with prefix, in ascending byte order of the name.
func (n *NameTrie) Search(prefix string) []model.Entry {
	var entries []model.Entry
	n.t.Walk(prefix, func(name string, emails []string) bool {
		for _, email := range emails {
			entries = append(entries, model.Entry{Name: name, Email: email})
		}
		return true
	})
	return entries
}

// Len returns the number of distinct names.
func (n *NameTrie) Len() int { return n.t.Len() }

// NodeCount returns the number of trie nodes, including the root.
func (n *NameTrie) NodeCount() int { return n.t.NodeCount() }

// Check verifies the structural invariants of the trie and that no name
// holds an empty email list.
func (n *NameTrie) Check() error {
	if err := n.t.Check(); err != nil {
		return err
	}
	var err error
	n.t.Walk("", func(name string, emails []string) bool {
		if len(emails) == 0 {
			err = fmt.Errorf("%w: name %q has no emails", ErrInconsistent, name)
		}
		return err == nil
	})
	return err
}
