package store

import (
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/go-pluto/entropy/merkle"
	"github.com/go-pluto/entropy/vclock"
)

// Structs

type loggingService struct {
	logger  log.Logger
	service Service
}

// Functions

// NewLoggingService wraps a provided existing
// service with the provided logger.
func NewLoggingService(s Service, logger log.Logger) Service {

	return &loggingService{
		logger:  logger,
		service: s,
	}
}

// Init wraps this service's Init method
// with added logging capabilities.
func (s *loggingService) Init() error {

	err := s.service.Init()

	logger := log.With(s.logger,
		"method", "Init",
	)

	if err != nil {
		level.Warn(logger).Log("msg", "failed to replay block log into index", "err", err)
	} else {
		level.Info(logger).Log("msg", "index replayed from block log", "numKeys", len(s.service.Keys()))
	}

	return err
}

// Update wraps this service's Update method
// with added logging capabilities.
func (s *loggingService) Update(key []byte, value []byte, vc vclock.VClock) error {

	err := s.service.Update(key, value, vc)

	logger := log.With(s.logger,
		"method", "Update",
		"key", string(key),
	)

	if err != nil {
		level.Warn(logger).Log("msg", "failed to perform operation Update correctly", "err", err)
	} else {
		level.Debug(logger).Log()
	}

	return err
}

// Delete wraps this service's Delete method
// with added logging capabilities.
func (s *loggingService) Delete(key []byte) error {

	err := s.service.Delete(key)

	logger := log.With(s.logger,
		"method", "Delete",
		"key", string(key),
	)

	if err != nil {
		level.Warn(logger).Log("msg", "failed to perform operation Delete correctly", "err", err)
	} else {
		level.Debug(logger).Log()
	}

	return err
}

// RootHash wraps this service's RootHash method
// with added logging capabilities.
func (s *loggingService) RootHash() merkle.Digest {
	return s.service.RootHash()
}

// Snapshot wraps this service's Snapshot method
// with added logging capabilities.
func (s *loggingService) Snapshot() *merkle.Snapshot {
	return s.service.Snapshot()
}

// Compare wraps this service's Compare method
// with added logging capabilities.
func (s *loggingService) Compare(peer *merkle.Snapshot) *merkle.CompareResult {

	res := s.service.Compare(peer)

	logger := log.With(s.logger,
		"method", "Compare",
		"peerSnapshot", peer.ID,
		"numInconsistent", res.Len(),
		"nodesVisited", res.NodesVisited,
	)

	if res.Partial {
		level.Warn(logger).Log("msg", "comparison aborted by visit budget, result is partial")
	} else {
		level.Debug(logger).Log()
	}

	return res
}

// Keys wraps this service's Keys method
// with added logging capabilities.
func (s *loggingService) Keys() [][]byte {
	return s.service.Keys()
}
