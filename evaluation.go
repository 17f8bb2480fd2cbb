package main

import (
	"fmt"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/go-pluto/entropy/config"
	"github.com/go-pluto/entropy/merkle"
	"github.com/go-pluto/entropy/sched"
	"github.com/go-pluto/entropy/store"
	"github.com/go-pluto/entropy/vclock"
)

// Structs

// logRepairer only reports divergent keys. It stands in
// for a real repair engine where none is wired up.
type logRepairer struct {
	logger log.Logger
}

// pullRepairer resolves divergent keys between two
// in-process replicas: it pulls the peer's version when
// its vector clock dominates the local one and reports
// concurrent versions as conflicts. It exists for the
// evaluation mode, real deployments bring their own
// repair engine.
type pullRepairer struct {
	logger log.Logger
	local  store.Service
	peers  map[string]store.Service
}

// Functions

// Repair logs the handed-over keys and drops them.
func (rep logRepairer) Repair(peer string, keys [][]byte) error {

	level.Info(rep.logger).Log(
		"msg", "divergent keys detected, no repair engine wired up",
		"peer", peer,
		"numKeys", len(keys),
	)

	return nil
}

// Repair pulls dominating versions of supplied keys
// from the named peer into the local replica.
func (rep *pullRepairer) Repair(peer string, keys [][]byte) error {

	peerService, found := rep.peers[peer]
	if !found {
		return fmt.Errorf("unknown peer '%s'", peer)
	}

	// Index the peer's blocks by key once.
	peerBlocks := make(map[string]*merkle.DataBlock)
	if snap := peerService.Snapshot(); snap.Root != nil {
		collectBlocks(snap.Root, peerBlocks)
	}

	localBlocks := make(map[string]*merkle.DataBlock)
	if snap := rep.local.Snapshot(); snap.Root != nil {
		collectBlocks(snap.Root, localBlocks)
	}

	for _, key := range keys {

		peerBlock, found := peerBlocks[string(key)]
		if !found {
			// Key only exists locally, nothing to pull.
			continue
		}

		localBlock, found := localBlocks[string(key)]
		if !found {

			// Key missing locally, adopt the peer's version.
			err := rep.local.Update(peerBlock.Key, peerBlock.Value, peerBlock.VClock)
			if err != nil {
				return err
			}
			continue
		}

		switch localBlock.VClock.Compare(peerBlock.VClock) {

		case vclock.Before:
			// Peer version dominates, pull it.
			err := rep.local.Update(peerBlock.Key, peerBlock.Value, peerBlock.VClock)
			if err != nil {
				return err
			}

		case vclock.Concurrent:
			level.Warn(rep.logger).Log(
				"msg", "concurrent versions, conflict resolution is not this layer's business",
				"key", string(key),
				"localVClock", localBlock.VClock.String(),
				"peerVClock", peerBlock.VClock.String(),
			)
		}
	}

	return nil
}

// collectBlocks walks a snapshot and indexes the leaf
// blocks by key. Duplicated trailing leaves overwrite
// each other with equal content.
func collectBlocks(n *merkle.Node, out map[string]*merkle.DataBlock) {

	if n.Leaf {
		out[string(n.Block.Key)] = n.Block
		return
	}

	collectBlocks(n.Left, out)
	collectBlocks(n.Right, out)
}

// runEvaluation spins up two in-memory replicas, lets
// them diverge, runs one anti-entropy round and reports
// whether their root digests converged.
func runEvaluation(logger log.Logger, conf *config.Config) {

	one := store.NewService(merkle.InitTree(), nil, store.NopMetrics(), conf.Sync.CompareBudget)
	two := store.NewService(merkle.InitTree(), nil, store.NopMetrics(), conf.Sync.CompareBudget)

	// Both replicas share a base dataset.
	for i := 0; i < 32; i++ {

		key := []byte(fmt.Sprintf("key%02d", i))
		value := []byte(fmt.Sprintf("value%02d", i))
		vc := vclock.VClock{"replica-1": 1}

		if err := one.Update(key, value, vc); err != nil {
			level.Error(logger).Log("msg", "failed to seed replica", "err", err)
			os.Exit(1)
		}
		if err := two.Update(key, value, vc); err != nil {
			level.Error(logger).Log("msg", "failed to seed replica", "err", err)
			os.Exit(1)
		}
	}

	// Replica two moves ahead on a handful of keys.
	for _, i := range []int{3, 17, 28} {

		key := []byte(fmt.Sprintf("key%02d", i))

		err := two.Update(key, []byte("diverged"), vclock.VClock{"replica-1": 1, "replica-2": 1})
		if err != nil {
			level.Error(logger).Log("msg", "failed to diverge replica", "err", err)
			os.Exit(1)
		}
	}

	level.Info(logger).Log(
		"msg", "replicas diverged",
		"rootOne", one.RootHash().String(),
		"rootTwo", two.RootHash().String(),
	)

	// One anti-entropy round from replica one against
	// replica two, pulling dominating versions.
	rep := &pullRepairer{
		logger: logger,
		local:  one,
		peers:  map[string]store.Service{"replica-2": two},
	}

	scheduler := sched.InitScheduler(
		logger,
		sched.NopMetrics(),
		one,
		[]sched.Peer{sched.InitLocalPeer("replica-2", two)},
		rep,
		conf.Sync.IntervalDur,
	)
	scheduler.RunOnce()

	converged := one.RootHash() == two.RootHash()

	level.Info(logger).Log(
		"msg", "evaluation round finished",
		"rootOne", one.RootHash().String(),
		"rootTwo", two.RootHash().String(),
		"converged", converged,
	)

	if !converged {
		os.Exit(1)
	}
}
