package fair

import (
	"crypto/sha256"
	"encoding/binary"
)

// Domain-separation tags. Commitment derivation and chain advancement feed
// the hash with distinct tags so a published commitment can never be confused
// with, or forged into, a chain head.
const (
	TagCommitment uint64 = 0
	TagChainStep  uint64 = 1
)

// HashFunc is the two-argument hash primitive H(a, tag) the engine is built
// on. Any substitute must be collision-resistant, preimage-resistant, and
// keep the 256-bit codomain so the modulo-6 outcome reduction stays unbiased.
type HashFunc func(a Element, tag uint64) Element

// SHA256Hash is the default primitive: SHA-256 over the element bytes
// followed by the big-endian tag.
func SHA256Hash(a Element, tag uint64) Element {
	var buf [ElementSize + 8]byte
	copy(buf[:ElementSize], a[:])
	binary.BigEndian.PutUint64(buf[ElementSize:], tag)
	return Element(sha256.Sum256(buf[:]))
}
