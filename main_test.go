package main

import (
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-pluto/entropy/merkle"
	"github.com/go-pluto/entropy/sched"
	"github.com/go-pluto/entropy/store"
	"github.com/go-pluto/entropy/vclock"
)

// Functions

// TestInitLogger executes a white-box unit test
// on implemented initLogger() function.
func TestInitLogger(t *testing.T) {

	for _, loglevel := range []string{"debug", "info", "warn", "error", "bogus"} {
		assert.NotNil(t, initLogger(loglevel))
	}
}

// TestPullRepairer verifies that one anti-entropy round
// with the pulling repairer converges two diverged
// in-memory replicas.
func TestPullRepairer(t *testing.T) {

	one := store.NewService(merkle.InitTree(), nil, nil, 0)
	two := store.NewService(merkle.InitTree(), nil, nil, 0)

	for _, key := range []string{"a", "b", "c", "d", "e", "f"} {
		require.Nil(t, one.Update([]byte(key), []byte("value"), vclock.VClock{"r1": 1}))
		require.Nil(t, two.Update([]byte(key), []byte("value"), vclock.VClock{"r1": 1}))
	}

	// Replica two moves ahead on two keys.
	require.Nil(t, two.Update([]byte("b"), []byte("ahead"), vclock.VClock{"r1": 1, "r2": 1}))
	require.Nil(t, two.Update([]byte("e"), []byte("ahead"), vclock.VClock{"r1": 1, "r2": 2}))

	assert.NotEqual(t, one.RootHash(), two.RootHash())

	rep := &pullRepairer{
		logger: log.NewNopLogger(),
		local:  one,
		peers:  map[string]store.Service{"replica-2": two},
	}

	scheduler := sched.InitScheduler(
		log.NewNopLogger(),
		nil,
		one,
		[]sched.Peer{sched.InitLocalPeer("replica-2", two)},
		rep,
		0,
	)
	scheduler.RunOnce()

	assert.Equal(t, one.RootHash(), two.RootHash())
}

// TestPullRepairerConcurrent verifies that concurrent
// versions are left untouched: picking a winner is the
// conflict resolution layer's business.
func TestPullRepairerConcurrent(t *testing.T) {

	one := store.NewService(merkle.InitTree(), nil, nil, 0)
	two := store.NewService(merkle.InitTree(), nil, nil, 0)

	// Both replicas advanced the same key independently.
	require.Nil(t, one.Update([]byte("key"), []byte("mine"), vclock.VClock{"r1": 2}))
	require.Nil(t, two.Update([]byte("key"), []byte("theirs"), vclock.VClock{"r2": 2}))

	rep := &pullRepairer{
		logger: log.NewNopLogger(),
		local:  one,
		peers:  map[string]store.Service{"replica-2": two},
	}

	res := one.Compare(two.Snapshot())
	require.Nil(t, rep.Repair("replica-2", res.Keys()))

	// Neither side changed.
	snap := one.Snapshot()
	assert.Equal(t, []byte("key"), snap.Root.Block.Key)
	assert.Equal(t, []byte("mine"), snap.Root.Block.Value)
}
