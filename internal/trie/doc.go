// Package trie implements a byte-indexed prefix tree with a generic payload.
//
// Each node keeps its children in a sorted label slice with a parallel child
// slice, so memory is proportional to the number of live edges and iteration
// is always in ascending byte order. Search and delete use explicit stacks;
// key length is never bounded by the goroutine stack.
//
// The trie is not safe for concurrent use. Callers serialize access.
package trie
