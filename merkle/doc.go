/*
Package merkle implements the content-addressed hash tree upon that the
anti-entropy parts of entropy are built. Each replica owns one Tree per
dataset shard: an authoritative key to data block index plus a derived,
rebuildable binary hash tree over it. Two replicas detect which keys might
have diverged by exchanging root digests and, on mismatch, comparing their
trees pairwise.

CAUTION! Consider these two requirements:
* Equal subtree digests are taken as proof of equal subtree content. This
  holds up to the collision probability of SHA-256 and is not(!) checked at
  runtime. A collision would silently mask real divergence.
* The comparison aligns nodes by pairing position. When two replicas hold
  genuinely different keysets their trees differ in shape for reasons
  unrelated to value divergence, and the structural-mismatch branch will
  conservatively report entire key ranges instead of the precise delta.
  Compare over-reports in that case, it never under-reports.
*/
package merkle
