// Package service orchestrates provably-fair roll sessions over persistent
// storage. It owns the mapping from engine and storage errors to caller
// facing status codes; the fair engine itself stays free of transport
// concerns.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/heyztb/cairoroller/internal/fair"
	"github.com/heyztb/cairoroller/internal/platform/id"
	"github.com/heyztb/cairoroller/internal/roller/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Service starts, continues, and verifies roll sessions.
type Service struct {
	engine *fair.Engine
	store  storage.SessionStore
	now    func() time.Time
	newID  func() (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithEngine substitutes the fair engine, primarily to swap the hash
// primitive.
func WithEngine(engine *fair.Engine) Option {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithClock substitutes the time source used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator substitutes the session id generator.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// New builds a session service backed by the provided store.
func New(store storage.SessionStore, opts ...Option) *Service {
	s := &Service{
		engine: fair.NewEngine(),
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  id.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Batch describes the publishable result of one roll batch.
type Batch struct {
	SessionID  string
	Commitment fair.Element
	Outcomes   []int
	Checkpoint fair.Element
}

// Session is the stored view of a session plus its full outcome history.
type Session struct {
	ID         string
	Commitment fair.Element
	Checkpoint fair.Element
	Outcomes   []int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// StartSession opens a new session: derives the commitment from the secret
// seed, rolls the first batch, and persists the commitment, checkpoint, and
// outcomes. The seed itself is never stored.
func (s *Service) StartSession(ctx context.Context, seed fair.Element, count int) (Batch, error) {
	if s == nil || s.store == nil {
		return Batch{}, status.Error(codes.FailedPrecondition, "session store is not configured")
	}

	commitment := s.engine.DeriveCommitment(seed)
	outcomes, checkpoint, err := s.engine.Start(seed, count)
	if err != nil {
		if errors.Is(err, fair.ErrInvalidCount) {
			return Batch{}, status.Error(codes.InvalidArgument, err.Error())
		}
		return Batch{}, status.Errorf(codes.Internal, "roll batch: %v", err)
	}

	sessionID, err := s.newID()
	if err != nil {
		return Batch{}, status.Errorf(codes.Internal, "generate session id: %v", err)
	}
	now := s.now()
	if err := s.store.CreateSession(ctx, storage.Session{
		ID:         sessionID,
		Commitment: commitment.String(),
		Checkpoint: checkpoint.String(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		return Batch{}, storageStatus("create session", err)
	}
	if err := s.store.AdvanceSession(ctx, sessionID, checkpoint.String(), outcomes, now); err != nil {
		return Batch{}, storageStatus("record first batch", err)
	}

	return Batch{
		SessionID:  sessionID,
		Commitment: commitment,
		Outcomes:   outcomes,
		Checkpoint: checkpoint,
	}, nil
}

// ContinueSession resumes a stored session from its checkpoint and appends
// count more outcomes. The result carries only the new outcomes; the
// returned checkpoint supersedes the stored one.
func (s *Service) ContinueSession(ctx context.Context, sessionID string, count int) (Batch, error) {
	if s == nil || s.store == nil {
		return Batch{}, status.Error(codes.FailedPrecondition, "session store is not configured")
	}
	if sessionID == "" {
		return Batch{}, status.Error(codes.InvalidArgument, "session id is required")
	}
	if count <= 0 {
		return Batch{}, status.Error(codes.InvalidArgument, fair.ErrInvalidCount.Error())
	}

	stored, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Batch{}, storageStatus("load session", err)
	}
	commitment, checkpoint, err := parseStoredElements(stored)
	if err != nil {
		return Batch{}, status.Errorf(codes.Internal, "corrupt session %s: %v", sessionID, err)
	}

	outcomes, next, err := s.engine.Resume(checkpoint, count)
	if err != nil {
		return Batch{}, status.Errorf(codes.Internal, "resume batch: %v", err)
	}
	if err := s.store.AdvanceSession(ctx, sessionID, next.String(), outcomes, s.now()); err != nil {
		return Batch{}, storageStatus("record batch", err)
	}

	return Batch{
		SessionID:  sessionID,
		Commitment: commitment,
		Outcomes:   outcomes,
		Checkpoint: next,
	}, nil
}

// GetSession returns a stored session with its full outcome history.
func (s *Service) GetSession(ctx context.Context, sessionID string) (Session, error) {
	if s == nil || s.store == nil {
		return Session{}, status.Error(codes.FailedPrecondition, "session store is not configured")
	}
	if sessionID == "" {
		return Session{}, status.Error(codes.InvalidArgument, "session id is required")
	}

	stored, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, storageStatus("load session", err)
	}
	commitment, checkpoint, err := parseStoredElements(stored)
	if err != nil {
		return Session{}, status.Errorf(codes.Internal, "corrupt session %s: %v", sessionID, err)
	}
	outcomes, err := s.store.ListOutcomes(ctx, sessionID)
	if err != nil {
		return Session{}, storageStatus("load outcomes", err)
	}

	return Session{
		ID:         stored.ID,
		Commitment: commitment,
		Checkpoint: checkpoint,
		Outcomes:   outcomes,
		CreatedAt:  stored.CreatedAt,
		UpdatedAt:  stored.UpdatedAt,
	}, nil
}

// VerifySession checks a revealed seed against a stored session: the
// commitment must match, the replayed chain must reproduce every stored
// outcome in order, and the replayed final head must equal the stored
// checkpoint. A failed check reports false, not an error.
func (s *Service) VerifySession(ctx context.Context, sessionID string, seed fair.Element) (bool, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}

	if !s.engine.Verify(seed, session.Commitment, session.Outcomes) {
		return false, nil
	}
	if len(session.Outcomes) == 0 {
		return session.Checkpoint == seed, nil
	}
	_, head, err := s.engine.Roll(seed, len(session.Outcomes))
	if err != nil {
		return false, status.Errorf(codes.Internal, "replay chain: %v", err)
	}
	return head == session.Checkpoint, nil
}

func parseStoredElements(session storage.Session) (commitment, checkpoint fair.Element, err error) {
	commitment, err = fair.ParseElement(session.Commitment)
	if err != nil {
		return fair.Element{}, fair.Element{}, fmt.Errorf("parse commitment: %w", err)
	}
	checkpoint, err = fair.ParseElement(session.Checkpoint)
	if err != nil {
		return fair.Element{}, fair.Element{}, fmt.Errorf("parse checkpoint: %w", err)
	}
	return commitment, checkpoint, nil
}

func storageStatus(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, "session not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "session already exists")
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}
