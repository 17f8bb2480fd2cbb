package store

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/pkg/errors"

	"github.com/go-pluto/entropy/disklog"
	"github.com/go-pluto/entropy/merkle"
	"github.com/go-pluto/entropy/vclock"
)

// Structs

// Metrics bundles the instruments the store service
// feeds. Use NopMetrics when no collection is wanted.
type Metrics struct {
	Updates          metrics.Counter
	Deletes          metrics.Counter
	Compares         metrics.Counter
	CompareVisits    metrics.Histogram
	InconsistentKeys metrics.Counter
}

type service struct {
	tree     *merkle.Tree
	blockLog *disklog.Log
	metrics  *Metrics
	budget   int
}

// Interfaces

// Service defines the replica-local dataset interface the
// write path and the anti-entropy scheduler work against.
type Service interface {

	// Init refills the in-memory index from the block
	// log, e.g. after a restart, and builds the tree.
	Init() error

	// Update upserts the versioned record for supplied
	// key and mirrors it into the block log.
	Update(key []byte, value []byte, vc vclock.VClock) error

	// Delete removes the record under supplied key. An
	// absent key is a no-op, not an error.
	Delete(key []byte) error

	// RootHash returns the current root digest, the
	// zero digest for an empty dataset.
	RootHash() merkle.Digest

	// Snapshot publishes an immutable view of the local
	// tree, e.g. for handing to a comparing peer.
	Snapshot() *merkle.Snapshot

	// Compare diffs the local tree against a peer's
	// snapshot and reports possibly divergent keys.
	Compare(peer *merkle.Snapshot) *merkle.CompareResult

	// Keys returns the sorted keyset currently held.
	Keys() [][]byte
}

// Functions

// NopMetrics returns a metrics bundle discarding
// every observation.
func NopMetrics() *Metrics {

	return &Metrics{
		Updates:          discard.NewCounter(),
		Deletes:          discard.NewCounter(),
		Compares:         discard.NewCounter(),
		CompareVisits:    discard.NewHistogram(),
		InconsistentKeys: discard.NewCounter(),
	}
}

// NewService bundles supplied tree, optional block log
// and metrics into the replica-local dataset service.
// A non-positive compare budget means unbounded
// comparisons.
func NewService(tree *merkle.Tree, blockLog *disklog.Log, m *Metrics, compareBudget int) Service {

	if m == nil {
		m = NopMetrics()
	}

	return &service{
		tree:     tree,
		blockLog: blockLog,
		metrics:  m,
		budget:   compareBudget,
	}
}

// Init walks all blocks persisted in the block log and
// replays them into the in-memory index, then builds
// the hash tree once.
func (s *service) Init() error {

	if s.blockLog == nil {
		return nil
	}

	err := s.blockLog.Walk(func(block *merkle.DataBlock) error {
		return s.tree.Update(block.Key, block.Value, block.VClock)
	})
	if err != nil {
		return errors.Wrap(err, "replaying block log into index failed")
	}

	// Build the tree eagerly so that the first root
	// hash request after startup is O(1).
	s.tree.RootHash()

	return nil
}

// Update validates and upserts the record, then mirrors
// it into the block log.
func (s *service) Update(key []byte, value []byte, vc vclock.VClock) error {

	err := s.tree.Update(key, value, vc)
	if err != nil {
		return err
	}

	s.metrics.Updates.Add(1)

	if s.blockLog != nil {

		// The tree validated the parts above, so this
		// cannot fail validation again.
		block, err := merkle.InitDataBlock(key, value, vc)
		if err != nil {
			return err
		}

		err = s.blockLog.Put(block)
		if err != nil {
			return errors.Wrap(err, "mirroring update into block log failed")
		}
	}

	return nil
}

// Delete removes the record under supplied key from
// index and block log.
func (s *service) Delete(key []byte) error {

	s.tree.Delete(key)
	s.metrics.Deletes.Add(1)

	if s.blockLog != nil {

		err := s.blockLog.Remove(key)
		if err != nil {
			return errors.Wrap(err, "mirroring delete into block log failed")
		}
	}

	return nil
}

// RootHash returns the current root digest.
func (s *service) RootHash() merkle.Digest {
	return s.tree.RootHash()
}

// Snapshot publishes the current local tree state.
func (s *service) Snapshot() *merkle.Snapshot {
	return s.tree.Snapshot()
}

// Compare diffs the local tree against the supplied
// peer snapshot, honoring the configured visit budget.
func (s *service) Compare(peer *merkle.Snapshot) *merkle.CompareResult {

	res := merkle.CompareSnapshots(s.tree.Snapshot(), peer, s.budget)

	s.metrics.Compares.Add(1)
	s.metrics.CompareVisits.Observe(float64(res.NodesVisited))
	s.metrics.InconsistentKeys.Add(float64(res.Len()))

	return res
}

// Keys returns the sorted keyset currently held.
func (s *service) Keys() [][]byte {
	return s.tree.Keys()
}
