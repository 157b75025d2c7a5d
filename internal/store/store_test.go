package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/alan/internal/planner"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"plans", "runs"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found after idempotent opens", table)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"user_version": "2",
	} {
		got, err := s.pragma(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

// signatureKeyedDB writes a database in the layout where plans were keyed by
// signature alone.
func signatureKeyedDB(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`
		CREATE TABLE plans (
			signature TEXT PRIMARY KEY,
			path      TEXT NOT NULL,
			optimizer TEXT NOT NULL,
			run_id    TEXT NOT NULL,
			hits      INTEGER NOT NULL DEFAULT 0,
			seq       INTEGER NOT NULL
		);
		CREATE TABLE runs (
			seq       INTEGER PRIMARY KEY AUTOINCREMENT,
			id        TEXT NOT NULL UNIQUE,
			scenario  TEXT NOT NULL,
			optimizer TEXT NOT NULL,
			value     REAL NOT NULL,
			steps     INTEGER NOT NULL,
			plans_hit INTEGER NOT NULL DEFAULT 0
		);
		INSERT INTO plans (signature, path, optimizer, run_id, hits, seq)
			VALUES ('sig', '[[0,1]]', 'greedy', 'run-old', 4, 1);
		PRAGMA user_version = 1;
	`)
	require.NoError(t, err)
}

func TestOpen_UpgradesSignatureKeyedPlans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	signatureKeyedDB(t, path)

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	v, err := s.pragma("user_version")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	plans, err := s.ReadPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "run-old", plans[0].RunID)
	assert.Equal(t, int64(4), plans[0].Hits)

	// the same signature now takes a second optimizer
	optimal := planner.PlanKey{Signature: "sig", Optimizer: "optimal"}
	require.NoError(t, s.Plans("run-new").SavePath(ctx, optimal, planner.Path{{0, 1}}))
	plans, err = s.ReadPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 2)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 9")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	assert.Error(t, err)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}
