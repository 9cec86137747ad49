package model

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ID is the record store's identifier for a contact.
type ID uint64

// Contact is a single record of the contact book.
type Contact struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// String returns a string representation of the Contact.
func (c Contact) String() string {
	return fmt.Sprintf("Contact(%d:%s <%s>)", c.ID, c.Name, c.Email)
}

// Key returns the normalized email of the contact.
func (c Contact) Key() string {
	return NormalizeKey(c.Email)
}

// Entry returns the normalized (name, email) pair the index holds for c.
func (c Contact) Entry() Entry {
	return Entry{Name: NormalizeKey(c.Name), Email: NormalizeKey(c.Email)}
}

// Entry is a (name, email) pair produced by prefix search.
type Entry struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NormalizeKey returns the canonical form of s used for every index key:
// Unicode NFC composition followed by lower-casing.
//
// Invalid UTF-8 is returned unchanged so that callers can reject it.
func NormalizeKey(s string) string {
	if !utf8.ValidString(s) {
		return s
	}
	// A Caser keeps state and must not be shared between goroutines.
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}
