package merkle

import (
	"sort"
)

// Structs

// CompareResult is the outcome of diffing two tree
// snapshots: the deduplicated set of keys that are
// provably or conservatively inconsistent between the
// two replicas. NodesVisited counts the node pairs the
// comparison touched, Partial is set when a visit
// budget ran out before the traversal completed.
type CompareResult struct {
	inconsistent map[string]struct{}
	NodesVisited int
	Partial      bool
}

// comparison carries the traversal state of one
// CompareSnapshots run.
type comparison struct {
	result *CompareResult
	budget int
}

// Functions

// initCompareResult returns an empty initialized
// new comparison result.
func initCompareResult() *CompareResult {

	return &CompareResult{
		inconsistent: make(map[string]struct{}),
	}
}

// Keys returns the inconsistent keys in ascending
// order. The set never contains duplicates, even when
// several traversal branches touched the same range.
func (res *CompareResult) Keys() [][]byte {

	keys := make([][]byte, 0, len(res.inconsistent))
	for key := range res.inconsistent {
		keys = append(keys, []byte(key))
	}

	sort.Slice(keys, func(i int, j int) bool {
		return string(keys[i]) < string(keys[j])
	})

	return keys
}

// Len returns the number of inconsistent keys.
func (res *CompareResult) Len() int {
	return len(res.inconsistent)
}

// Contains reports whether supplied key is part
// of the inconsistent set.
func (res *CompareResult) Contains(key []byte) bool {
	_, found := res.inconsistent[string(key)]
	return found
}

// add inserts all keys of supplied ranges into the
// inconsistent set.
func (res *CompareResult) add(ranges ...[][]byte) {

	for _, keyRange := range ranges {

		for _, key := range keyRange {
			res.inconsistent[string(key)] = struct{}{}
		}
	}
}

// CompareSnapshots diffs two tree snapshots and reports
// which keys might differ between them. Equal digests
// prune entire subtrees, two differing leaves contribute
// their keys, and a structural mismatch between a leaf
// and an internal node conservatively contributes the
// key ranges of both sides, since no finer alignment is
// possible without a shared partitioning scheme. A
// positive budget caps the number of node pairs visited;
// exceeding it aborts the traversal and flags the result
// as partial.
func CompareSnapshots(a *Snapshot, b *Snapshot, budget int) *CompareResult {

	res := initCompareResult()

	// Both trees empty: nothing can diverge.
	if (a.Root == nil) && (b.Root == nil) {
		return res
	}

	// Exactly one tree empty: every key of the
	// populated side is missing on the other.
	if a.Root == nil {
		res.add(b.Keys)
		return res
	}

	if b.Root == nil {
		res.add(a.Keys)
		return res
	}

	cmp := &comparison{
		result: res,
		budget: budget,
	}
	cmp.walk(a.Root, b.Root)

	return res
}

// walk recursively compares two nodes at the same
// pairing position. It returns false once the visit
// budget is exhausted, terminating the traversal.
func (cmp *comparison) walk(a *Node, b *Node) bool {

	if (cmp.budget > 0) && (cmp.result.NodesVisited >= cmp.budget) {
		cmp.result.Partial = true
		return false
	}

	cmp.result.NodesVisited++

	// Equal digests prove equal content up to hash
	// collision probability, prune this subtree pair.
	if a.Hash == b.Hash {
		return true
	}

	// Two leaves at the same position: their keys
	// differ in content or identity either way.
	if a.Leaf && b.Leaf {
		cmp.result.add(a.KeyRange, b.KeyRange)
		return true
	}

	// One leaf against an internal node: one side's
	// subtree is shallower here, no further alignment
	// is possible. Conservatively report both ranges.
	if a.Leaf || b.Leaf {
		cmp.result.add(a.KeyRange, b.KeyRange)
		return true
	}

	// Both internal: descend position-wise.
	if !cmp.walk(a.Left, b.Left) {
		return false
	}

	return cmp.walk(a.Right, b.Right)
}
