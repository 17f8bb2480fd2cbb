/*
Package vclock implements the vector clock type that stamps every versioned
data block fed into the hash-tree layer of entropy.

CAUTION! Consider these two requirements:
* The canonical byte form produced by CanonicalBytes is part of the hashing
  contract between replicas. All replicas of a dataset must run the same
  version of this package, otherwise equal data hashes differently and the
  comparison layer reports false divergence.
* A VClock is a plain map and not(!) safe for concurrent mutation. Access
  is expected to be synchronized by outside measures, e.g. by the owning
  tree's lock.
*/
package vclock
