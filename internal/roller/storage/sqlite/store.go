// Package sqlite provides a SQLite-backed roll session store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/heyztb/cairoroller/internal/platform/storage/sqlitemigrate"
	"github.com/heyztb/cairoroller/internal/roller/storage"
	"github.com/heyztb/cairoroller/internal/roller/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists roll sessions in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite session store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateSession inserts one session record.
func (s *Store) CreateSession(ctx context.Context, session storage.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sessionID := strings.TrimSpace(session.ID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(session.Commitment) == "" {
		return fmt.Errorf("commitment is required")
	}
	if strings.TrimSpace(session.Checkpoint) == "" {
		return fmt.Errorf("checkpoint is required")
	}
	createdAt := session.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := session.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (id, commitment, checkpoint, roll_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID,
		session.Commitment,
		session.Checkpoint,
		session.RollCount,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns the session with the given id.
func (s *Store) GetSession(ctx context.Context, id string) (storage.Session, error) {
	if err := ctx.Err(); err != nil {
		return storage.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Session{}, fmt.Errorf("storage is not configured")
	}

	var session storage.Session
	var createdAt, updatedAt int64
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, commitment, checkpoint, roll_count, created_at, updated_at
		 FROM sessions WHERE id = ?`,
		strings.TrimSpace(id),
	).Scan(&session.ID, &session.Commitment, &session.Checkpoint, &session.RollCount, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Session{}, storage.ErrNotFound
		}
		return storage.Session{}, fmt.Errorf("select session: %w", err)
	}
	session.CreatedAt = fromMillis(createdAt)
	session.UpdatedAt = fromMillis(updatedAt)
	return session, nil
}

// AdvanceSession moves the checkpoint forward and appends a batch of
// outcomes in one transaction, so a crash can never leave the stored
// checkpoint and the stored outcomes describing different chain positions.
func (s *Store) AdvanceSession(ctx context.Context, id string, checkpoint string, outcomes []int, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(checkpoint) == "" {
		return fmt.Errorf("checkpoint is required")
	}
	if len(outcomes) == 0 {
		return fmt.Errorf("at least one outcome is required")
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin advance transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var rollCount int
	err = tx.QueryRowContext(ctx, "SELECT roll_count FROM sessions WHERE id = ?", strings.TrimSpace(id)).Scan(&rollCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("select roll count: %w", err)
	}

	for i, outcome := range outcomes {
		if _, err := tx.ExecContext(
			ctx,
			"INSERT INTO rolls (session_id, seq, outcome) VALUES (?, ?, ?)",
			strings.TrimSpace(id),
			rollCount+i,
			outcome,
		); err != nil {
			return fmt.Errorf("insert roll %d: %w", rollCount+i, err)
		}
	}

	if _, err := tx.ExecContext(
		ctx,
		"UPDATE sessions SET checkpoint = ?, roll_count = ?, updated_at = ? WHERE id = ?",
		checkpoint,
		rollCount+len(outcomes),
		toMillis(updatedAt),
		strings.TrimSpace(id),
	); err != nil {
		return fmt.Errorf("update session checkpoint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit advance transaction: %w", err)
	}
	return nil
}

// ListOutcomes returns a session's outcomes in production order.
func (s *Store) ListOutcomes(ctx context.Context, id string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var exists int
	err := s.sqlDB.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", strings.TrimSpace(id)).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		"SELECT outcome FROM rolls WHERE session_id = ? ORDER BY seq",
		strings.TrimSpace(id),
	)
	if err != nil {
		return nil, fmt.Errorf("select rolls: %w", err)
	}
	defer rows.Close()

	var outcomes []int
	for rows.Next() {
		var outcome int
		if err := rows.Scan(&outcome); err != nil {
			return nil, fmt.Errorf("scan roll: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rolls: %w", err)
	}
	return outcomes, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.SessionStore = (*Store)(nil)
