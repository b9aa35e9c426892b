// Package storage defines persistence contracts for roll sessions.
//
// A persisted session holds everything publishable: the commitment, the
// latest checkpoint, and the outcomes rolled so far. The secret seed is
// never stored; it stays with the publisher until the reveal.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested session record is missing.
	ErrNotFound = errors.New("session not found")
	// ErrAlreadyExists indicates a session with the same id already exists.
	ErrAlreadyExists = errors.New("session already exists")
)

// Session is one commit-reveal roll session.
type Session struct {
	ID         string
	Commitment string // hex-encoded element
	Checkpoint string // hex-encoded element, the latest chain head
	RollCount  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SessionStore persists sessions and their ordered outcomes.
type SessionStore interface {
	// CreateSession inserts a new session record.
	CreateSession(ctx context.Context, session Session) error
	// GetSession returns the session with the given id.
	GetSession(ctx context.Context, id string) (Session, error)
	// AdvanceSession moves a session's checkpoint forward and appends the
	// outcomes produced by the batch, in production order. The roll count
	// and update time move together with the checkpoint so the stored
	// session always describes a single consistent chain position.
	AdvanceSession(ctx context.Context, id string, checkpoint string, outcomes []int, updatedAt time.Time) error
	// ListOutcomes returns every outcome of a session in production order.
	ListOutcomes(ctx context.Context, id string) ([]int, error)
	// Close releases the underlying resources.
	Close() error
}
