package sched

import (
	"github.com/go-pluto/entropy/merkle"
	"github.com/go-pluto/entropy/store"
)

// Structs

// LocalPeer adapts an in-process store service to the
// Peer interface. It serves tests and single-process
// evaluation setups, deployments substitute a transport
// backed implementation.
type LocalPeer struct {
	name    string
	service store.Service
}

// Functions

// InitLocalPeer bundles supplied name and service
// into an in-process peer.
func InitLocalPeer(name string, service store.Service) *LocalPeer {

	return &LocalPeer{
		name:    name,
		service: service,
	}
}

// Name identifies this peer.
func (peer *LocalPeer) Name() string {
	return peer.name
}

// RootHash returns the wrapped service's root digest.
func (peer *LocalPeer) RootHash() (merkle.Digest, error) {
	return peer.service.RootHash(), nil
}

// Tree returns the wrapped service's current snapshot.
func (peer *LocalPeer) Tree() (*merkle.Snapshot, error) {
	return peer.service.Snapshot(), nil
}
