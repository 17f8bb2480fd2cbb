package merkle

import (
	"fmt"
	"sync"
	"testing"

	"github.com/go-pluto/entropy/vclock"
	"github.com/stretchr/testify/assert"
)

// Functions

// TestUpdateValidation verifies that malformed records
// are rejected before any state changes.
func TestUpdateValidation(t *testing.T) {

	tree := InitTree()

	err := tree.Update([]byte(""), []byte("value"), vclock.VClock{"n1": 1})
	assert.Equal(t, ErrEmptyKey, err)

	err = tree.Update([]byte("key"), []byte("value"), nil)
	assert.Equal(t, ErrNilVClock, err)

	// Nothing was mutated, the tree is still empty.
	assert.Equal(t, 0, tree.Len())
	assert.True(t, tree.RootHash().IsZero())
}

// TestKeys verifies that Keys returns the sorted
// keyset of the tree.
func TestKeys(t *testing.T) {

	tree := fillTree(t, map[string]string{
		"echo":  "1",
		"alpha": "2",
		"mike":  "3",
	})

	keys := tree.Keys()
	assert.Equal(t, [][]byte{[]byte("alpha"), []byte("echo"), []byte("mike")}, keys)

	// The returned slice is a copy, reordering it
	// must not corrupt the tree's own key range.
	keys[0], keys[2] = keys[2], keys[0]
	assert.Equal(t, [][]byte{[]byte("alpha"), []byte("echo"), []byte("mike")}, tree.Keys())
}

// TestSnapshotIDChanges verifies that every published
// root carries a fresh snapshot identifier.
func TestSnapshotIDChanges(t *testing.T) {

	tree := fillTree(t, map[string]string{"a": "1"})

	first := tree.Snapshot().ID
	assert.NotEqual(t, "", first)

	// A fresh root keeps its identifier.
	assert.Equal(t, first, tree.Snapshot().ID)

	// Any mutation publishes a new one.
	assert.Nil(t, tree.Update([]byte("a"), []byte("2"), vclock.VClock{"n1": 2}))
	second := tree.Snapshot().ID
	assert.NotEqual(t, first, second)
}

// TestConcurrentCompare verifies that traversals over
// snapshots run safely while the tree keeps mutating.
func TestConcurrentCompare(t *testing.T) {

	pairs := make(map[string]string)
	for i := 0; i < 128; i++ {
		pairs[fmt.Sprintf("key%03d", i)] = "value"
	}

	one := fillTree(t, pairs)
	two := fillTree(t, pairs)

	wg := new(sync.WaitGroup)

	// Readers compare the two trees repeatedly.
	for r := 0; r < 4; r++ {

		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := 0; i < 50; i++ {
				res := one.Compare(two)
				assert.False(t, res.Partial)
			}
		}()
	}

	// A writer keeps mutating one of the trees.
	wg.Add(1)
	go func() {
		defer wg.Done()

		for i := 0; i < 50; i++ {
			key := fmt.Sprintf("key%03d", (i % 128))
			err := one.Update([]byte(key), []byte(fmt.Sprintf("value%d", i)), vclock.VClock{"n1": uint32(i)})
			assert.Nil(t, err)
		}
	}()

	wg.Wait()
}
