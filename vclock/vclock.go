package vclock

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Constants

// Possible outcomes of comparing two vector
// clocks with respect to causality.
const (
	Equal Ordering = iota
	Before
	After
	Concurrent
)

// Structs

// Ordering expresses the causal relation
// between two vector clocks.
type Ordering int

// VClock maps the name of a replica to the number
// of versions of an item this replica produced. It
// is the version stamp attached to every data block
// handed to the anti-entropy layer.
type VClock map[string]uint32

// Functions

// InitVClock returns an empty initialized
// new vector clock.
func InitVClock() VClock {
	return make(VClock)
}

// Copy creates a deep copy of the vector clock so
// that callers can hand it on without sharing the
// underlying map.
func (vc VClock) Copy() VClock {

	copied := make(VClock, len(vc))
	for node, entry := range vc {
		copied[node] = entry
	}

	return copied
}

// Incr increments the entry of supplied node by
// one, creating the entry if it was not present.
func (vc VClock) Incr(node string) {
	vc[node] = vc[node] + 1
}

// Merge folds the entries of the other vector clock
// into this one, keeping the maximum counter per node.
func (vc VClock) Merge(other VClock) {

	for node, entry := range other {

		if entry > vc[node] {
			vc[node] = entry
		}
	}
}

// Compare determines the causal relation between this
// vector clock and the other one. It returns Before if
// this clock is dominated by the other, After if it
// dominates the other, Equal if all entries match, and
// Concurrent if neither dominates.
func (vc VClock) Compare(other VClock) Ordering {

	dominates := false
	dominated := false

	// Walk entries of this clock and check
	// them against the other clock.
	for node, entry := range vc {

		if entry > other[node] {
			dominates = true
		} else if entry < other[node] {
			dominated = true
		}
	}

	// Entries only present in the other clock
	// dominate every missing entry in this one.
	for node, entry := range other {

		if _, found := vc[node]; !found && (entry > 0) {
			dominated = true
		}
	}

	if dominates && dominated {
		return Concurrent
	}

	if dominates {
		return After
	}

	if dominated {
		return Before
	}

	return Equal
}

// CanonicalBytes returns the deterministic byte form of
// this vector clock: per-node 'node:counter' strings sorted
// ascending by node name and joined by semicola. Two vector
// clocks carrying the same entries produce identical bytes
// no matter in which order the entries were inserted or how
// the underlying map iterates.
func (vc VClock) CanonicalBytes() []byte {

	// Extract all node names and sort them.
	nodes := make([]string, 0, len(vc))
	for node := range vc {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	buf := new(bytes.Buffer)

	for i, node := range nodes {

		if i > 0 {
			buf.WriteByte(';')
		}

		fmt.Fprintf(buf, "%s:%d", node, vc[node])
	}

	return buf.Bytes()
}

// String returns the wire representation of this vector
// clock, identical to its canonical byte form.
func (vc VClock) String() string {
	return string(vc.CanonicalBytes())
}

// Parse reads a vector clock back from its wire
// representation produced by String.
func Parse(text string) (VClock, error) {

	vc := InitVClock()

	// An empty string denotes the empty clock.
	if text == "" {
		return vc, nil
	}

	// Otherwise, split at semicola.
	pairs := strings.Split(text, ";")

	for _, pair := range pairs {

		// Split pairs at last colon so that node
		// names containing colons stay intact.
		i := strings.LastIndex(pair, ":")
		if i < 1 {
			return nil, errors.Errorf("malformed vector clock entry '%s'", pair)
		}

		// Convert entry string to uint32.
		entryBig, err := strconv.ParseUint(pair[(i+1):], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed counter in vector clock entry '%s'", pair)
		}

		vc[pair[:i]] = uint32(entryBig)
	}

	return vc, nil
}
