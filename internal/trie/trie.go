package trie

import (
	"errors"
	"fmt"
	"iter"
)

// ErrCorrupt is returned by Check when a structural invariant does not hold.
var ErrCorrupt = errors.New("trie: invariant violation")

// Trie is a prefix tree over the bytes of string keys.
//
// A key is present when the node at the end of its path is terminal. Every
// terminal node carries a payload of type P. Non-terminal nodes carry the
// zero payload and exist only while they lead to a terminal node.
type Trie[P any] struct {
	root  *node[P]
	nodes int // including the root
	keys  int
}

// New returns an empty trie.
func New[P any]() *Trie[P] {
	return &Trie[P]{root: &node[P]{}, nodes: 1}
}

// Len returns the number of keys in the trie.
func (t *Trie[P]) Len() int { return t.keys }

// NodeCount returns the number of nodes in the trie, including the root.
// An empty trie has exactly one node.
func (t *Trie[P]) NodeCount() int { return t.nodes }

// Upsert walks key from the root, creating missing nodes, marks the final
// node terminal and replaces its payload with fn(old, existed).
//
// It returns true if key was not present before. An empty key is a no-op and
// returns false; callers must reject empty keys.
func (t *Trie[P]) Upsert(key string, fn func(old P, existed bool) P) bool {
	if key == "" {
		return false
	}
	n := t.root
	for i := 0; i < len(key); i++ {
		c, created := n.addChild(key[i])
		if created {
			t.nodes++
		}
		n = c
	}
	existed := n.terminal
	if !existed {
		n.terminal = true
		t.keys++
	}
	n.payload = fn(n.payload, existed)
	return !existed
}

// Update replaces the payload of an existing key with fn(old). It never
// creates nodes and reports false if key is not present.
func (t *Trie[P]) Update(key string, fn func(old P) P) bool {
	n := t.find(key)
	if n == nil || !n.terminal {
		return false
	}
	n.payload = fn(n.payload)
	return true
}

// Get returns the payload stored under key.
func (t *Trie[P]) Get(key string) (P, bool) {
	n := t.find(key)
	if n == nil || !n.terminal {
		var zero P
		return zero, false
	}
	return n.payload, true
}

// Delete removes key and prunes every ancestor that no longer leads to a
// terminal node. It reports false if key was not present.
func (t *Trie[P]) Delete(key string) bool {
	if key == "" {
		return false
	}
	path := make([]*node[P], 0, len(key)+1)
	n := t.root
	path = append(path, n)
	for i := 0; i < len(key); i++ {
		if n = n.child(key[i]); n == nil {
			return false
		}
		path = append(path, n)
	}
	if !n.terminal {
		return false
	}

	var zero P
	n.terminal = false
	n.payload = zero
	t.keys--

	// Unwind: stop at the first node that is terminal or still has children.
	for i := len(key); i > 0; i-- {
		if !path[i].free() {
			break
		}
		path[i-1].removeChild(key[i-1])
		t.nodes--
	}
	return true
}

// Walk calls fn for every key starting with prefix, in ascending byte order,
// until fn returns false. A prefix that is not on any path visits nothing.
func (t *Trie[P]) Walk(prefix string, fn func(key string, payload P) bool) {
	start := t.find(prefix)
	if start == nil {
		return
	}

	buf := []byte(prefix)
	if start.terminal && !fn(prefix, start.payload) {
		return
	}

	type frame struct {
		n     *node[P]
		depth int
		label byte
	}
	var stack []frame
	push := func(n *node[P], depth int) {
		// Reverse order so the smallest label is popped first.
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n: n.children[i], depth: depth, label: n.labels[i]})
		}
	}

	push(start, len(buf))
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		buf = append(buf[:f.depth], f.label)
		if f.n.terminal && !fn(string(buf), f.n.payload) {
			return
		}
		push(f.n, len(buf))
	}
}

// All returns an iterator over the keys starting with prefix and their
// payloads, in ascending byte order.
func (t *Trie[P]) All(prefix string) iter.Seq2[string, P] {
	return func(yield func(string, P) bool) {
		t.Walk(prefix, yield)
	}
}

// Check verifies the structural invariants: sorted unique labels, no
// unpruned nodes, a non-terminal root and matching node and key counts.
func (t *Trie[P]) Check() error {
	if t.root.terminal {
		return fmt.Errorf("%w: root is terminal", ErrCorrupt)
	}

	nodes, keys := 0, 0
	stack := []*node[P]{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++
		if n.terminal {
			keys++
		}
		if n != t.root && n.free() {
			return fmt.Errorf("%w: unpruned empty node", ErrCorrupt)
		}
		if len(n.labels) != len(n.children) {
			return fmt.Errorf("%w: %d labels for %d children", ErrCorrupt, len(n.labels), len(n.children))
		}
		for i, c := range n.children {
			if c == nil {
				return fmt.Errorf("%w: nil child for label %#x", ErrCorrupt, n.labels[i])
			}
			if i > 0 && n.labels[i-1] >= n.labels[i] {
				return fmt.Errorf("%w: labels out of order", ErrCorrupt)
			}
			stack = append(stack, c)
		}
	}

	if nodes != t.nodes {
		return fmt.Errorf("%w: counted %d nodes, tracked %d", ErrCorrupt, nodes, t.nodes)
	}
	if keys != t.keys {
		return fmt.Errorf("%w: counted %d keys, tracked %d", ErrCorrupt, keys, t.keys)
	}
	return nil
}

func (t *Trie[P]) find(key string) *node[P] {
	n := t.root
	for i := 0; i < len(key) && n != nil; i++ {
		n = n.child(key[i])
	}
	return n
}
