package merkle

import (
	"sync"

	"github.com/go-pluto/entropy/vclock"
	uuid "github.com/satori/go.uuid"
)

// Structs

// Tree bundles the authoritative key to data block index
// of one replica shard with the derived hash tree over
// it. The root is a rebuildable cache: mutations mark it
// stale and the next read rebuilds or patches it. A
// published root is never mutated in place, so readers
// holding a Snapshot keep seeing a consistent tree while
// writers move on.
type Tree struct {
	lock   *sync.RWMutex
	index  map[string]*DataBlock
	root   *Node
	stale  bool
	snapID string
}

// Snapshot is an immutable point-in-time view of one
// tree: its published root, the sorted keys it covers
// and an identifier for correlating log entries across
// replicas. Snapshots stay valid after further mutations
// of the originating tree.
type Snapshot struct {
	ID   string
	Root *Node
	Keys [][]byte
}

// Functions

// InitTree returns an empty initialized new tree.
func InitTree() *Tree {

	return &Tree{
		lock:  new(sync.RWMutex),
		index: make(map[string]*DataBlock),
	}
}

// Update upserts the versioned record for supplied key.
// The key must be non-empty and the vector clock non-nil,
// otherwise a validation error is returned before any
// state changes. If the cached root is fresh and the key
// already occupies a leaf, only the affected root-to-leaf
// path is recomputed, otherwise the root is marked stale
// for a full rebuild on next read.
func (t *Tree) Update(key []byte, value []byte, vc vclock.VClock) error {

	block, err := InitDataBlock(key, value, vc)
	if err != nil {
		return err
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	_, replaces := t.index[string(block.Key)]
	t.index[string(block.Key)] = block

	// Replacing the value under an existing key keeps
	// the leaf count and therefore the tree shape, so
	// the single affected path can be patched in place
	// of a full rebuild.
	if replaces && !t.stale && (t.root != nil) {
		t.root = applyLeafUpdate(t.root, block)
		t.publish()
		return nil
	}

	t.stale = true

	return nil
}

// Delete removes the record stored under supplied key
// and invalidates the cached root. Deleting an absent
// key is a no-op, not an error, and leaves the cached
// root untouched.
func (t *Tree) Delete(key []byte) {

	t.lock.Lock()
	defer t.lock.Unlock()

	if _, found := t.index[string(key)]; !found {
		return
	}

	delete(t.index, string(key))
	t.stale = true
}

// RootHash returns the digest of the current root,
// rebuilding the tree first if a mutation left the
// cached root stale. An empty tree yields the zero
// digest.
func (t *Tree) RootHash() Digest {

	t.lock.Lock()
	defer t.lock.Unlock()

	t.ensureFresh()

	if t.root == nil {
		return Digest{}
	}

	return t.root.Hash
}

// Snapshot publishes the current tree state as an
// immutable point-in-time view, rebuilding first if
// needed. The returned snapshot is safe to traverse
// concurrently with further mutations of this tree.
func (t *Tree) Snapshot() *Snapshot {

	t.lock.Lock()
	defer t.lock.Unlock()

	t.ensureFresh()

	snap := &Snapshot{
		ID:   t.snapID,
		Root: t.root,
	}

	if t.root != nil {
		snap.Keys = t.root.KeyRange
	}

	return snap
}

// Compare diffs this tree against the other one and
// returns the set of keys that are provably or
// conservatively inconsistent between the two. See
// CompareSnapshots for the exact contract.
func (t *Tree) Compare(other *Tree) *CompareResult {
	return CompareSnapshots(t.Snapshot(), other.Snapshot(), 0)
}

// CompareWithBudget behaves like Compare but aborts
// after visiting at most budget node pairs, flagging
// the returned result as partial. A budget of zero
// means no limit.
func (t *Tree) CompareWithBudget(other *Tree, budget int) *CompareResult {
	return CompareSnapshots(t.Snapshot(), other.Snapshot(), budget)
}

// Len returns the number of keys currently held.
func (t *Tree) Len() int {

	t.lock.RLock()
	defer t.lock.RUnlock()

	return len(t.index)
}

// Keys returns a sorted copy of all keys currently held.
func (t *Tree) Keys() [][]byte {

	snap := t.Snapshot()

	keys := make([][]byte, len(snap.Keys))
	copy(keys, snap.Keys)

	return keys
}

// ensureFresh rebuilds the cached root from the index
// if a prior mutation invalidated it. Expects the write
// lock to be held.
func (t *Tree) ensureFresh() {

	if !t.stale {
		return
	}

	t.root = buildRoot(t.index)
	t.stale = false
	t.publish()
}

// publish stamps the freshly built or patched root with
// a new snapshot identifier. Expects the write lock to
// be held.
func (t *Tree) publish() {
	t.snapID = uuid.NewV4().String()
}

// applyLeafUpdate walks from supplied node towards the
// leaf holding the block's key and returns a patched copy
// of the path with all digests on it recomputed. Subtrees
// off the path are shared with the previous root, which
// is safe because published nodes are never mutated. Both
// children are considered, so a duplicated trailing leaf
// and its copy are patched together.
func applyLeafUpdate(n *Node, block *DataBlock) *Node {

	if n.Leaf {

		return &Node{
			Hash:     LeafHash(block),
			Leaf:     true,
			Block:    block,
			KeyRange: n.KeyRange,
		}
	}

	left := n.Left
	right := n.Right
	patched := false

	if left.covers(block.Key) {
		left = applyLeafUpdate(left, block)
		patched = true
	}

	if right.covers(block.Key) {
		right = applyLeafUpdate(right, block)
		patched = true
	}

	if !patched {
		return n
	}

	return &Node{
		Hash:     internalHash(left.Hash, right.Hash),
		Left:     left,
		Right:    right,
		KeyRange: n.KeyRange,
	}
}
