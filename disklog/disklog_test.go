package disklog

import (
	"path/filepath"
	"testing"

	"github.com/go-pluto/entropy/merkle"
	"github.com/go-pluto/entropy/vclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Functions

// TestLogRoundTrip executes a white-box unit test on
// persisting, walking and removing data blocks.
func TestLogRoundTrip(t *testing.T) {

	path := filepath.Join(t.TempDir(), "blocks.db")

	log, err := OpenLog(path)
	require.Nil(t, err)

	// Persist three versioned records.
	blocks := map[string]string{
		"bravo":   "value-b",
		"alpha":   "value-a",
		"charlie": "",
	}

	for key, value := range blocks {

		block, err := merkle.InitDataBlock([]byte(key), []byte(value), vclock.VClock{"n1": 4, "n2": 1})
		require.Nil(t, err)

		assert.Nil(t, log.Put(block))
	}

	// Walk has to return them in ascending key order
	// with values and vector clocks intact.
	walked := make([]string, 0, 3)
	err = log.Walk(func(block *merkle.DataBlock) error {
		walked = append(walked, string(block.Key))
		assert.Equal(t, blocks[string(block.Key)], string(block.Value))
		assert.Equal(t, uint32(4), block.VClock["n1"])
		assert.Equal(t, uint32(1), block.VClock["n2"])
		return nil
	})
	assert.Nil(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, walked)

	// Replacing a key keeps one entry per key.
	block, err := merkle.InitDataBlock([]byte("alpha"), []byte("replaced"), vclock.VClock{"n1": 5})
	require.Nil(t, err)
	assert.Nil(t, log.Put(block))

	// Removing keys, including absent ones, succeeds.
	assert.Nil(t, log.Remove([]byte("bravo")))
	assert.Nil(t, log.Remove([]byte("unknown")))

	assert.Nil(t, log.Close())

	// Reopen and verify what survived the restart.
	log, err = OpenLog(path)
	require.Nil(t, err)
	defer log.Close()

	walked = walked[:0]
	err = log.Walk(func(block *merkle.DataBlock) error {
		walked = append(walked, string(block.Key))
		if string(block.Key) == "alpha" {
			assert.Equal(t, "replaced", string(block.Value))
			assert.Equal(t, uint32(5), block.VClock["n1"])
		}
		return nil
	})
	assert.Nil(t, err)
	assert.Equal(t, []string{"alpha", "charlie"}, walked)
}

// TestLogRestoresTree verifies that a tree refilled from
// the log matches the tree the records originally built.
func TestLogRestoresTree(t *testing.T) {

	path := filepath.Join(t.TempDir(), "blocks.db")

	log, err := OpenLog(path)
	require.Nil(t, err)

	original := merkle.InitTree()

	for _, key := range []string{"k1", "k2", "k3", "k4", "k5"} {

		vc := vclock.VClock{"n1": 7}

		require.Nil(t, original.Update([]byte(key), []byte("value-"+key), vc))

		block, err := merkle.InitDataBlock([]byte(key), []byte("value-"+key), vc)
		require.Nil(t, err)
		require.Nil(t, log.Put(block))
	}

	require.Nil(t, log.Close())

	// Simulate a restart: refill a fresh tree from disk.
	log, err = OpenLog(path)
	require.Nil(t, err)
	defer log.Close()

	restored := merkle.InitTree()
	err = log.Walk(func(block *merkle.DataBlock) error {
		return restored.Update(block.Key, block.Value, block.VClock)
	})
	assert.Nil(t, err)

	assert.Equal(t, original.RootHash(), restored.RootHash())
}
