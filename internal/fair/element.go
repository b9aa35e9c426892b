// Package fair implements the provably-fair dice engine: a deterministic
// hash chain advanced from a secret seed, a published commitment that binds
// the publisher to that seed before any outcome is revealed, and the
// verification path that lets any third party reproduce the outcomes once
// the seed is disclosed.
package fair

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// ElementSize is the width of a field element in bytes.
const ElementSize = 32

// Element is a field element: a 256-bit value in the hash codomain. Seeds,
// chain heads, checkpoints, and commitments are all elements.
type Element [ElementSize]byte

var elementMax = new(big.Int).Lsh(big.NewInt(1), ElementSize*8)

// ParseElement parses an element from a decimal string or a 0x-prefixed
// hexadecimal string. A bare 64-character hex string is also accepted, which
// is the format String produces.
func ParseElement(value string) (Element, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Element{}, fmt.Errorf("element value is required")
	}

	var parsed *big.Int
	var ok bool
	switch {
	case strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X"):
		parsed, ok = new(big.Int).SetString(trimmed[2:], 16)
	case len(trimmed) == hex.EncodedLen(ElementSize):
		parsed, ok = new(big.Int).SetString(trimmed, 16)
	default:
		parsed, ok = new(big.Int).SetString(trimmed, 10)
	}
	if !ok {
		return Element{}, fmt.Errorf("malformed element %q", value)
	}
	if parsed.Sign() < 0 {
		return Element{}, fmt.Errorf("element must be non-negative, got %q", value)
	}
	if parsed.Cmp(elementMax) >= 0 {
		return Element{}, fmt.Errorf("element %q exceeds %d bits", value, ElementSize*8)
	}
	return ElementFromBig(parsed), nil
}

// ElementFromBig converts a non-negative big integer into an element. Values
// wider than 256 bits are truncated to their low-order bytes.
func ElementFromBig(value *big.Int) Element {
	var e Element
	value.FillBytes(e[:])
	return e
}

// ElementFromUint64 builds an element holding a small integer, primarily for
// tests and human-entered seeds.
func ElementFromUint64(value uint64) Element {
	return ElementFromBig(new(big.Int).SetUint64(value))
}

// Big returns the element as a big integer.
func (e Element) Big() *big.Int {
	return new(big.Int).SetBytes(e[:])
}

// IsZero reports whether every byte of the element is zero.
func (e Element) IsZero() bool {
	return e == Element{}
}

// String renders the element as 64 lowercase hex characters.
func (e Element) String() string {
	return hex.EncodeToString(e[:])
}
