package sqlitemigrate

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApplyMigrationsRunsUpSections(t *testing.T) {
	db := openMemoryDB(t)
	migrations := fstest.MapFS{
		"0001_sessions.sql": &fstest.MapFile{Data: []byte(`
-- +migrate Up
CREATE TABLE sessions (id TEXT PRIMARY KEY);
-- +migrate Down
DROP TABLE sessions;
`)},
	}

	if err := ApplyMigrations(db, migrations); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if _, err := db.Exec("INSERT INTO sessions (id) VALUES ('s1')"); err != nil {
		t.Fatalf("expected sessions table to exist: %v", err)
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	db := openMemoryDB(t)
	migrations := fstest.MapFS{
		"0001_rolls.sql": &fstest.MapFile{Data: []byte(`
-- +migrate Up
CREATE TABLE rolls (seq INTEGER PRIMARY KEY);
`)},
	}

	if err := ApplyMigrations(db, migrations); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	// A second run must skip the already-applied file instead of failing on
	// the duplicate CREATE TABLE.
	if err := ApplyMigrations(db, migrations); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	var applied int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count applied: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 applied migration, got %d", applied)
	}
}

func TestApplyMigrationsRunsInLexicalOrder(t *testing.T) {
	db := openMemoryDB(t)
	migrations := fstest.MapFS{
		"0002_rolls.sql": &fstest.MapFile{Data: []byte(`
-- +migrate Up
CREATE TABLE rolls (session_id TEXT REFERENCES sessions(id));
`)},
		"0001_sessions.sql": &fstest.MapFile{Data: []byte(`
-- +migrate Up
CREATE TABLE sessions (id TEXT PRIMARY KEY);
`)},
	}

	if err := ApplyMigrations(db, migrations); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
}

func TestApplyMigrationsRequiresDB(t *testing.T) {
	if err := ApplyMigrations(nil, fstest.MapFS{}); err == nil {
		t.Fatal("expected missing db error")
	}
}

func TestExtractUpMigration(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"no markers", "CREATE TABLE a (id);", "CREATE TABLE a (id);"},
		{"up only", "-- +migrate Up\nCREATE TABLE b (id);", "\nCREATE TABLE b (id);"},
		{"up and down", "-- +migrate Up\nCREATE TABLE c (id);\n-- +migrate Down\nDROP TABLE c;", "\nCREATE TABLE c (id);\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractUpMigration(tc.content); got != tc.want {
				t.Fatalf("extract = %q, want %q", got, tc.want)
			}
		})
	}
}
