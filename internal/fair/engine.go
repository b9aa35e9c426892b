package fair

import (
	"errors"
	"math/big"
)

// Sides is the number of faces on the die.
const Sides = 6

// ErrInvalidCount indicates a roll batch was requested with a non-positive
// count. A caller asking for zero rolls is almost certainly a bug, so the
// engine rejects it instead of returning an empty success.
var ErrInvalidCount = errors.New("roll count must be positive")

var sides = big.NewInt(Sides)

// Engine advances hash chains and extracts dice outcomes from them. The
// zero-value configuration uses the SHA-256 primitive; WithHash substitutes
// another one. Every method is a pure function of its inputs: the engine
// holds no chain state, so a single Engine can serve any number of
// independent chains concurrently.
type Engine struct {
	hash HashFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithHash substitutes the hash primitive used for commitment derivation and
// chain advancement.
func WithHash(hash HashFunc) Option {
	return func(e *Engine) {
		if hash != nil {
			e.hash = hash
		}
	}
}

// NewEngine builds an engine with the default SHA-256 primitive unless
// overridden by options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{hash: SHA256Hash}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DeriveCommitment turns a secret seed into the publishable commitment.
// Total over all elements; the commitment tag keeps the result disjoint from
// any chain head derived from the same seed.
func (e *Engine) DeriveCommitment(seed Element) Element {
	return e.hash(seed, TagCommitment)
}

// Advance computes the next chain head from the current one.
func (e *Engine) Advance(head Element) Element {
	return e.hash(head, TagChainStep)
}

// ExtractOutcome reduces a chain head to a die face in [1, Sides]. The
// codomain is 2^256, so modulo bias over six faces is immaterial.
func (e *Engine) ExtractOutcome(head Element) int {
	mod := new(big.Int).Mod(head.Big(), sides)
	// mod is in [0, 5]; the shift can never leave [1, 6].
	return int(mod.Int64()) + 1
}

// AdvanceAndRoll performs one atomic chain step: advance the head, then
// extract the outcome from the new head.
func (e *Engine) AdvanceAndRoll(head Element) (Element, int) {
	next := e.Advance(head)
	return next, e.ExtractOutcome(next)
}

// Roll produces count outcomes starting from the supplied head, which may be
// a fresh seed or a previously returned checkpoint. Outcomes are returned in
// production order together with the final head; resuming from that head is
// bit-identical to never having stopped.
func (e *Engine) Roll(start Element, count int) ([]int, Element, error) {
	if count <= 0 {
		return nil, Element{}, ErrInvalidCount
	}

	outcomes := make([]int, 0, count)
	head := start
	for i := 0; i < count; i++ {
		var outcome int
		head, outcome = e.AdvanceAndRoll(head)
		outcomes = append(outcomes, outcome)
	}
	return outcomes, head, nil
}

// Start begins a fresh chain from a secret seed. It is Roll under a name
// that makes session-opening call sites read clearly.
func (e *Engine) Start(seed Element, count int) ([]int, Element, error) {
	return e.Roll(seed, count)
}

// Resume continues a chain from a checkpoint returned by an earlier batch.
func (e *Engine) Resume(checkpoint Element, count int) ([]int, Element, error) {
	return e.Roll(checkpoint, count)
}

// Verify checks a revealed seed against a claimed commitment and outcome
// sequence. It recomputes the commitment and replays the chain, comparing
// element-wise. A mismatch reports false; verification never fails with an
// error for well-formed inputs, and an empty claimed sequence verifies only
// the commitment.
func (e *Engine) Verify(seed Element, commitment Element, outcomes []int) bool {
	if e.DeriveCommitment(seed) != commitment {
		return false
	}
	if len(outcomes) == 0 {
		return true
	}
	replayed, _, err := e.Roll(seed, len(outcomes))
	if err != nil {
		return false
	}
	for i, outcome := range replayed {
		if outcome != outcomes[i] {
			return false
		}
	}
	return true
}
