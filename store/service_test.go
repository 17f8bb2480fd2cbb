package store

import (
	"path/filepath"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-pluto/entropy/disklog"
	"github.com/go-pluto/entropy/merkle"
	"github.com/go-pluto/entropy/vclock"
)

// Functions

// TestServiceValidation verifies that validation errors
// of the tree surface through the service unchanged.
func TestServiceValidation(t *testing.T) {

	s := NewService(merkle.InitTree(), nil, nil, 0)

	err := s.Update([]byte(""), []byte("value"), vclock.VClock{"n1": 1})
	assert.Equal(t, merkle.ErrEmptyKey, err)

	err = s.Update([]byte("key"), []byte("value"), nil)
	assert.Equal(t, merkle.ErrNilVClock, err)

	assert.True(t, s.RootHash().IsZero())
}

// TestServiceCompare verifies the compare path of the
// service including its configured visit budget.
func TestServiceCompare(t *testing.T) {

	local := NewService(merkle.InitTree(), nil, nil, 0)
	peer := merkle.InitTree()

	for _, key := range []string{"a", "b", "c", "d"} {
		require.Nil(t, local.Update([]byte(key), []byte("value"), vclock.VClock{"n1": 1}))
		require.Nil(t, peer.Update([]byte(key), []byte("value"), vclock.VClock{"n1": 1}))
	}

	// Identical datasets do not diverge.
	res := local.Compare(peer.Snapshot())
	assert.Equal(t, 0, res.Len())
	assert.False(t, res.Partial)

	// One divergent key is pinpointed.
	require.Nil(t, peer.Update([]byte("c"), []byte("changed"), vclock.VClock{"n1": 2}))

	res = local.Compare(peer.Snapshot())
	assert.Equal(t, 1, res.Len())
	assert.True(t, res.Contains([]byte("c")))

	// A tight budget yields a partial result.
	budgeted := NewService(merkle.InitTree(), nil, nil, 1)
	for _, key := range []string{"a", "b", "c", "d"} {
		require.Nil(t, budgeted.Update([]byte(key), []byte("other"), vclock.VClock{"n1": 1}))
	}

	res = budgeted.Compare(peer.Snapshot())
	assert.True(t, res.Partial)
}

// TestServiceRestart verifies that a service refills its
// index from the block log and reaches the same root
// digest it had before the restart.
func TestServiceRestart(t *testing.T) {

	path := filepath.Join(t.TempDir(), "blocks.db")

	blockLog, err := disklog.OpenLog(path)
	require.Nil(t, err)

	s := NewLoggingService(NewService(merkle.InitTree(), blockLog, NopMetrics(), 0), log.NewNopLogger())

	for _, key := range []string{"k1", "k2", "k3", "k4", "k5"} {
		require.Nil(t, s.Update([]byte(key), []byte("value-"+key), vclock.VClock{"n1": 2}))
	}

	// One record is replaced, one removed again.
	require.Nil(t, s.Update([]byte("k2"), []byte("replaced"), vclock.VClock{"n1": 3}))
	require.Nil(t, s.Delete([]byte("k4")))

	before := s.RootHash()
	require.Nil(t, blockLog.Close())

	// Restart: fresh log handle, fresh tree, replay.
	blockLog, err = disklog.OpenLog(path)
	require.Nil(t, err)
	defer blockLog.Close()

	restarted := NewService(merkle.InitTree(), blockLog, NopMetrics(), 0)
	require.Nil(t, restarted.Init())

	assert.Equal(t, before, restarted.RootHash())
	assert.Equal(t, 4, len(restarted.Keys()))
}
