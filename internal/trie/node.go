package trie

import "slices"

type node[P any] struct {
	labels   []byte     // sorted ascending
	children []*node[P] // children[i] is reached by labels[i]
	terminal bool
	payload  P
}

func (n *node[P]) child(b byte) *node[P] {
	i, ok := slices.BinarySearch(n.labels, b)
	if !ok {
		return nil
	}
	return n.children[i]
}

// addChild returns the child reached by b, creating it if absent.
func (n *node[P]) addChild(b byte) (*node[P], bool) {
	i, ok := slices.BinarySearch(n.labels, b)
	if ok {
		return n.children[i], false
	}
	c := &node[P]{}
	n.labels = slices.Insert(n.labels, i, b)
	n.children = slices.Insert(n.children, i, c)
	return c, true
}

func (n *node[P]) removeChild(b byte) bool {
	i, ok := slices.BinarySearch(n.labels, b)
	if !ok {
		return false
	}
	n.labels = slices.Delete(n.labels, i, i+1)
	n.children = slices.Delete(n.children, i, i+1)
	if len(n.labels) == 0 {
		n.labels, n.children = nil, nil
	}
	return true
}

// free reports whether the node carries nothing and may be pruned.
func (n *node[P]) free() bool {
	return !n.terminal && len(n.children) == 0
}
