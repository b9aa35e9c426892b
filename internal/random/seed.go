// Package random provides cryptographic seed generation helpers.
//
// The fairness guarantee of the hash chain is conditional on the seed being
// secret and high-entropy; this package is how publishers get such seeds.
package random

import (
	crand "crypto/rand"
	"fmt"

	"github.com/heyztb/cairoroller/internal/fair"
)

// NewSeed generates a random field-element seed using crypto/rand.
func NewSeed() (fair.Element, error) {
	var seed fair.Element
	if _, err := crand.Read(seed[:]); err != nil {
		return fair.Element{}, fmt.Errorf("read random seed: %w", err)
	}
	return seed, nil
}
