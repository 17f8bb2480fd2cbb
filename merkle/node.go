package merkle

import (
	"bytes"
	"sort"
)

// Structs

// Node is one node of the binary hash tree. A node
// exclusively owns its children, there are no back
// references and no sharing of nodes across trees.
// Leaves reference the data block they digest, internal
// nodes carry their two children.
type Node struct {
	Hash     Digest
	Leaf     bool
	Block    *DataBlock
	Left     *Node
	Right    *Node
	KeyRange [][]byte
}

// Functions

// covers reports whether the supplied key falls into the
// ordered key range of this node. KeyRange is sorted
// ascending, so a binary search suffices.
func (n *Node) covers(key []byte) bool {

	i := sort.Search(len(n.KeyRange), func(i int) bool {
		return bytes.Compare(n.KeyRange[i], key) >= 0
	})

	return (i < len(n.KeyRange)) && bytes.Equal(n.KeyRange[i], key)
}

// copyNode creates a deep copy of the subtree rooted at
// this node. Data blocks are copied as well so that the
// duplicate never shares mutable state with the original.
func (n *Node) copyNode() *Node {

	if n == nil {
		return nil
	}

	copied := &Node{
		Hash:     n.Hash,
		Leaf:     n.Leaf,
		Left:     n.Left.copyNode(),
		Right:    n.Right.copyNode(),
		KeyRange: n.KeyRange,
	}

	if n.Block != nil {

		copied.Block = &DataBlock{
			Key:    make([]byte, len(n.Block.Key)),
			Value:  make([]byte, len(n.Block.Value)),
			VClock: n.Block.VClock.Copy(),
		}

		copy(copied.Block.Key, n.Block.Key)
		copy(copied.Block.Value, n.Block.Value)
	}

	return copied
}
