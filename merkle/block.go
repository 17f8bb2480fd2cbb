package merkle

import (
	"bytes"

	"github.com/go-pluto/entropy/vclock"
	"github.com/pkg/errors"
)

// Variables

// Validation errors returned before any mutation
// takes place.
var (
	ErrEmptyKey  = errors.New("key must not be empty")
	ErrNilVClock = errors.New("vector clock must not be nil")
)

// Structs

// DataBlock is one versioned record of the dataset: a
// key, its current value and the vector clock stamping
// this version. Blocks are owned exclusively by the tree
// holding them and are treated as immutable once hashed
// for a tree snapshot.
type DataBlock struct {
	Key    []byte
	Value  []byte
	VClock vclock.VClock
}

// Functions

// InitDataBlock validates the supplied record parts and
// bundles deep copies of them into a new DataBlock, so
// that callers keep no aliases into tree-owned state.
func InitDataBlock(key []byte, value []byte, vc vclock.VClock) (*DataBlock, error) {

	if len(key) == 0 {
		return nil, ErrEmptyKey
	}

	if vc == nil {
		return nil, ErrNilVClock
	}

	block := &DataBlock{
		Key:    make([]byte, len(key)),
		Value:  make([]byte, len(value)),
		VClock: vc.Copy(),
	}

	copy(block.Key, key)
	copy(block.Value, value)

	return block, nil
}

// CanonicalBytes returns the deterministic byte form of
// this block that the leaf hash is computed over: the key,
// followed by the value, followed by the canonical byte
// form of the vector clock.
func (block *DataBlock) CanonicalBytes() []byte {

	buf := new(bytes.Buffer)

	buf.Write(block.Key)
	buf.Write(block.Value)
	buf.Write(block.VClock.CanonicalBytes())

	return buf.Bytes()
}
