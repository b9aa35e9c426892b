package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/heyztb/cairoroller/internal/roller/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "roller.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
	if _, err := Open("   "); err == nil {
		t.Fatal("expected blank path error")
	}
}

func TestCreateGetSessionRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.August, 23, 10, 0, 0, 0, time.UTC)
	input := storage.Session{
		ID:         "sess-1",
		Commitment: "81a4b95877202d85bdf6ffb12a4e96e99bc3fb0c20f01445fd3a073b1d967bd9",
		Checkpoint: "abaa41f7c3f0b836d118f4361beb144e9789a813d0397f63324c21a6c14f814f",
		RollCount:  3,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.CreateSession(context.Background(), input); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := store.GetSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.ID != input.ID {
		t.Fatalf("id = %q, want %q", got.ID, input.ID)
	}
	if got.Commitment != input.Commitment {
		t.Fatalf("commitment = %q, want %q", got.Commitment, input.Commitment)
	}
	if got.Checkpoint != input.Checkpoint {
		t.Fatalf("checkpoint = %q, want %q", got.Checkpoint, input.Checkpoint)
	}
	if got.RollCount != 3 {
		t.Fatalf("roll count = %d, want 3", got.RollCount)
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps = %v/%v, want %v", got.CreatedAt, got.UpdatedAt, now)
	}
}

func TestCreateSessionValidatesFields(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	cases := []struct {
		name    string
		session storage.Session
	}{
		{"missing id", storage.Session{Commitment: "c", Checkpoint: "h"}},
		{"missing commitment", storage.Session{ID: "s", Checkpoint: "h"}},
		{"missing checkpoint", storage.Session{ID: "s", Commitment: "c"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := store.CreateSession(context.Background(), tc.session); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSessionReturnsAlreadyExistsOnDuplicate(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	session := storage.Session{ID: "dup", Commitment: "c", Checkpoint: "h"}
	if err := store.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("create initial session: %v", err)
	}

	err := store.CreateSession(context.Background(), session)
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate create error = %v, want %v", err, storage.ErrAlreadyExists)
	}
}

func TestGetSessionReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetSession(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestAdvanceSessionAppendsOutcomesInOrder(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.CreateSession(context.Background(), storage.Session{
		ID: "sess-adv", Commitment: "c", Checkpoint: "h0",
	}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	first := time.Date(2026, time.August, 23, 11, 0, 0, 0, time.UTC)
	if err := store.AdvanceSession(context.Background(), "sess-adv", "h1", []int{1, 6, 2}, first); err != nil {
		t.Fatalf("first advance: %v", err)
	}
	second := first.Add(time.Minute)
	if err := store.AdvanceSession(context.Background(), "sess-adv", "h2", []int{2, 1}, second); err != nil {
		t.Fatalf("second advance: %v", err)
	}

	session, err := store.GetSession(context.Background(), "sess-adv")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Checkpoint != "h2" {
		t.Fatalf("checkpoint = %q, want h2", session.Checkpoint)
	}
	if session.RollCount != 5 {
		t.Fatalf("roll count = %d, want 5", session.RollCount)
	}
	if !session.UpdatedAt.Equal(second) {
		t.Fatalf("updated at = %v, want %v", session.UpdatedAt, second)
	}

	outcomes, err := store.ListOutcomes(context.Background(), "sess-adv")
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	want := []int{1, 6, 2, 2, 1}
	if len(outcomes) != len(want) {
		t.Fatalf("outcomes = %v, want %v", outcomes, want)
	}
	for i := range want {
		if outcomes[i] != want[i] {
			t.Fatalf("outcomes = %v, want %v", outcomes, want)
		}
	}
}

func TestAdvanceSessionRequiresExistingSession(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	err := store.AdvanceSession(context.Background(), "missing", "h1", []int{3}, time.Now())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestListOutcomesRequiresExistingSession(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.ListOutcomes(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestListOutcomesEmptySession(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.CreateSession(context.Background(), storage.Session{
		ID: "sess-empty", Commitment: "c", Checkpoint: "h0",
	}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	outcomes, err := store.ListOutcomes(context.Background(), "sess-empty")
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected no outcomes, got %v", outcomes)
	}
}
