package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version.
//
//	1: plans keyed by signature alone
//	2: plans keyed by (signature, optimizer)
const schemaVersion = 2

// upgradePlansKey rebuilds a version 1 plans table under the composite key.
// Every stored row already names its optimizer, so no path is lost.
const upgradePlansKey = `
ALTER TABLE plans RENAME TO plans_v1;
CREATE TABLE plans (
    signature  TEXT NOT NULL,
    optimizer  TEXT NOT NULL,
    path       TEXT NOT NULL,
    run_id     TEXT NOT NULL,
    hits       INTEGER NOT NULL DEFAULT 0,
    seq        INTEGER NOT NULL,
    PRIMARY KEY (signature, optimizer)
);
INSERT INTO plans (signature, optimizer, path, run_id, hits, seq)
    SELECT signature, optimizer, path, run_id, hits, seq FROM plans_v1;
DROP TABLE plans_v1;
`

// Store is a plan and run database.
// Thread-safety: database/sql serializes access; all methods are safe for
// concurrent use.
type Store struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at path, brings its schema up
// to date and returns it. Opening the same file again is harmless.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open plan database: %w", err)
	}
	// one writer; a single connection keeps pragmas and transactions together
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open plan database %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func prepare(db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch version {
	case schemaVersion:
		return nil
	case 0:
		if _, err := db.Exec(schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	case 1:
		if err := inTx(db, upgradePlansKey); err != nil {
			return fmt.Errorf("upgrade plans key: %w", err)
		}
	default:
		return fmt.Errorf("schema version %d is newer than supported version %d", version, schemaVersion)
	}
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

func inTx(db *sql.DB, stmts string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(stmts); err != nil {
		return err
	}
	return tx.Commit()
}

// nextSeq returns the next logical sequence number for table.
func nextSeq(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	var seq int64
	q := fmt.Sprintf("SELECT COALESCE(MAX(seq), 0) + 1 FROM %s", table)
	if err := tx.QueryRowContext(ctx, q).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}

// pragma returns the current value of a pragma as text.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return value, nil
}
