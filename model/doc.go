// Package model defines core types used throughout contactbook.
//
// # Types
//
//   - Contact: a stored record (ID, Name, Email) as held by a record store
//   - Entry: a (Name, Email) pair as returned by prefix search
//
// # Keys
//
// The record store preserves the case a contact was created with. Every index
// and lookup key is derived with NormalizeKey, so "Alice@Example.com" and
// "alice@example.com" address the same contact.
package model
