package sched

import (
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"

	"github.com/go-pluto/entropy/merkle"
	"github.com/go-pluto/entropy/store"
)

// Structs

// Metrics bundles the instruments the scheduler feeds.
type Metrics struct {
	Rounds       metrics.Counter
	RootMatches  metrics.Counter
	TreesFetched metrics.Counter
	KeysRepaired metrics.Counter
}

// Scheduler periodically checks all configured peers for
// divergence: a cheap root digest equality check first,
// a full tree comparison only on mismatch, and finally a
// hand-over of the possibly divergent keys to the repair
// engine. Which replica holds the correct version per key
// is the repair engine's business, not the scheduler's.
type Scheduler struct {
	lock     *sync.Mutex
	logger   log.Logger
	metrics  *Metrics
	local    store.Service
	peers    []Peer
	repairer Repairer
	interval time.Duration
	wg       *sync.WaitGroup
	shutdown chan struct{}
}

// Interfaces

// Peer is one remote replica as seen by the scheduler.
// Implementations wrap whatever transport the deployment
// uses, the scheduler never talks to the network itself.
type Peer interface {

	// Name identifies the peer in logs and repairs.
	Name() string

	// RootHash fetches the peer's current root digest.
	RootHash() (merkle.Digest, error)

	// Tree fetches the peer's current tree snapshot.
	Tree() (*merkle.Snapshot, error)
}

// Repairer consumes the keys a comparison flagged as
// possibly divergent and fetches or merges authoritative
// versions per key.
type Repairer interface {
	Repair(peer string, keys [][]byte) error
}

// Functions

// NopMetrics returns a metrics bundle discarding
// every observation.
func NopMetrics() *Metrics {

	return &Metrics{
		Rounds:       discard.NewCounter(),
		RootMatches:  discard.NewCounter(),
		TreesFetched: discard.NewCounter(),
		KeysRepaired: discard.NewCounter(),
	}
}

// InitScheduler returns an initialized scheduler over
// supplied local service, peers and repair engine. Call
// Run to start the background loop and Stop to end it.
func InitScheduler(logger log.Logger, m *Metrics, local store.Service, peers []Peer, repairer Repairer, interval time.Duration) *Scheduler {

	if m == nil {
		m = NopMetrics()
	}

	return &Scheduler{
		lock:     new(sync.Mutex),
		logger:   logger,
		metrics:  m,
		local:    local,
		peers:    peers,
		repairer: repairer,
		interval: interval,
		wg:       new(sync.WaitGroup),
		shutdown: make(chan struct{}),
	}
}

// Run starts the anti-entropy loop in a background
// routine. One round against all peers runs per
// configured interval tick.
func (sched *Scheduler) Run() {

	sched.wg.Add(1)

	go func() {

		defer sched.wg.Done()

		ticker := time.NewTicker(sched.interval)
		defer ticker.Stop()

		for {

			select {

			case <-sched.shutdown:
				level.Info(sched.logger).Log("msg", "anti-entropy loop shutting down")
				return

			case <-ticker.C:
				sched.RunOnce()
			}
		}
	}()
}

// Stop signals the background loop to end and waits
// for the current round to finish.
func (sched *Scheduler) Stop() {
	close(sched.shutdown)
	sched.wg.Wait()
}

// RunOnce performs one full anti-entropy round against
// all configured peers.
func (sched *Scheduler) RunOnce() {

	// Rounds never overlap, a slow comparison simply
	// delays the next one.
	sched.lock.Lock()
	defer sched.lock.Unlock()

	sched.metrics.Rounds.Add(1)

	for _, peer := range sched.peers {
		sched.syncPeer(peer)
	}
}

// syncPeer checks one peer for divergence and hands
// flagged keys to the repair engine.
func (sched *Scheduler) syncPeer(peer Peer) {

	logger := log.With(sched.logger, "peer", peer.Name())

	peerRoot, err := peer.RootHash()
	if err != nil {
		level.Warn(logger).Log("msg", "failed to fetch root digest from peer", "err", err)
		return
	}

	// Equal root digests prove equal datasets, the
	// common case costs one digest exchange.
	if peerRoot == sched.local.RootHash() {
		sched.metrics.RootMatches.Add(1)
		level.Debug(logger).Log("msg", "root digests match, no comparison needed")
		return
	}

	peerTree, err := peer.Tree()
	if err != nil {
		level.Warn(logger).Log("msg", "failed to fetch tree snapshot from peer", "err", err)
		return
	}
	sched.metrics.TreesFetched.Add(1)

	res := sched.local.Compare(peerTree)
	if res.Len() == 0 {

		// Roots differed but the comparison found
		// nothing, e.g. because the peer mutated
		// between the two fetches.
		level.Debug(logger).Log("msg", "comparison found no divergent keys")
		return
	}

	keys := res.Keys()

	err = sched.repairer.Repair(peer.Name(), keys)
	if err != nil {
		level.Warn(logger).Log("msg", "repair engine rejected divergent keys", "numKeys", len(keys), "err", err)
		return
	}

	sched.metrics.KeysRepaired.Add(float64(len(keys)))

	level.Info(logger).Log(
		"msg", "handed divergent keys to repair engine",
		"numKeys", len(keys),
		"partial", res.Partial,
	)
}
