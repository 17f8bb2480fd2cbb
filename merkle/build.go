package merkle

import (
	"sort"
)

// Functions

// buildRoot constructs a fresh hash tree bottom-up over
// all blocks of the supplied index and returns its root.
// The tree shape depends only on the number of keys and
// their order, so two replicas holding the same records
// always build structurally identical trees with equal
// digests, irrespective of insertion order.
func buildRoot(index map[string]*DataBlock) *Node {

	// Zero keys: no tree at all.
	if len(index) == 0 {
		return nil
	}

	// Extract all keys and sort them ascending
	// on their byte representation.
	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Create one leaf per key, in key order.
	level := make([]*Node, 0, len(keys))
	for _, key := range keys {

		block := index[key]

		level = append(level, &Node{
			Hash:     LeafHash(block),
			Leaf:     true,
			Block:    block,
			KeyRange: [][]byte{block.Key},
		})
	}

	// Pair adjacent nodes left-to-right into parents
	// until a single node remains.
	for len(level) > 1 {
		level = buildLevel(level)
	}

	return level[0]
}

// buildLevel pairs the nodes of one tree level into
// their parents. An odd trailing node is paired with a
// deep copy of itself so that the tree stays strictly
// binary and the pairing pass uniform. The copy never
// shares mutable state with the original node.
func buildLevel(level []*Node) []*Node {

	parents := make([]*Node, 0, ((len(level) + 1) / 2))

	for i := 0; i < len(level); i += 2 {

		left := level[i]

		var right *Node
		var keyRange [][]byte

		if (i + 1) < len(level) {
			// Regular pair: sibling ranges are disjoint
			// and already ordered, append them.
			right = level[i+1]
			keyRange = make([][]byte, 0, (len(left.KeyRange) + len(right.KeyRange)))
			keyRange = append(keyRange, left.KeyRange...)
			keyRange = append(keyRange, right.KeyRange...)
		} else {
			// Odd trailing node: duplicate it. The union
			// of a range with itself is the range.
			right = left.copyNode()
			keyRange = left.KeyRange
		}

		parents = append(parents, &Node{
			Hash:     internalHash(left.Hash, right.Hash),
			Left:     left,
			Right:    right,
			KeyRange: keyRange,
		})
	}

	return parents
}
