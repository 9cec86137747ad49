// Package index provides the in-memory prefix index over contacts.
//
// Two tries are kept side by side:
//
//   - EmailTrie: email → name. An email is unique, so each key holds one name.
//   - NameTrie: name → emails. Several contacts may share a name, so each key
//     holds the ordered list of their emails.
//
// ContactIndex coordinates both tries. It is the only type callers should
// mutate: every contact-level operation (Add, Rename, ChangeEmail, Remove)
// is applied to both tries under one write lock, so a concurrent Search never
// sees one trie updated and the other not.
//
// # Lifecycle
//
// The index holds no state of its own on disk. It is built once at startup
// from the record store with Bootstrap and then mirrors every committed
// record store mutation:
//
//	idx := index.New()
//	if _, err := idx.Bootstrap(contacts); err != nil { ... }
//	_ = idx.Add("alice", "alice@example.com")
//	entries := idx.Search("ali")
//
// # Keys
//
// All keys are normalized with model.NormalizeKey before they reach a trie.
// Empty keys and keys that are not valid UTF-8 are rejected with
// ErrInvalidKey.
package index
