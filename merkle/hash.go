package merkle

import (
	"encoding/hex"

	sha256 "github.com/minio/sha256-simd"
)

// Constants

// DigestSize is the size in bytes of all leaf,
// internal and root digests.
const DigestSize = 32

// Structs

// Digest is a 256 bit SHA-2 digest. The zero value
// is the root digest of an empty tree.
type Digest [DigestSize]byte

// Functions

// IsZero reports whether this digest is the
// all-zero digest of an empty tree.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// String returns the hex representation of this digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// LeafHash computes the digest of one data block over
// its canonical byte representation. It is a pure
// function: two logically identical blocks hash
// identically no matter how their vector clocks were
// constructed or iterated.
func LeafHash(block *DataBlock) Digest {
	return sha256.Sum256(block.CanonicalBytes())
}

// internalHash computes the digest of an internal node
// from the digests of its two children.
func internalHash(left Digest, right Digest) Digest {

	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])

	var d Digest
	copy(d[:], h.Sum(nil))

	return d
}
