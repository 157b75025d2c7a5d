package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/alan/internal/planner"
)

// PlanStore is the planner.PathCache view of a Store. Paths it writes are
// attributed to one run.
type PlanStore struct {
	s     *Store
	runID string
}

var _ planner.PathCache = (*PlanStore)(nil)

// Plans returns a PathCache that records runID on every path it saves.
func (s *Store) Plans(runID string) *PlanStore {
	return &PlanStore{s: s, runID: runID}
}

// LoadPath implements planner.PathCache. Only a path saved by the same
// optimizer matches. A hit increments the row's hit count.
func (p *PlanStore) LoadPath(ctx context.Context, key planner.PlanKey) (planner.Path, bool, error) {
	var data string
	err := p.s.db.QueryRowContext(ctx,
		`SELECT path FROM plans WHERE signature = ? AND optimizer = ?`,
		key.Signature, key.Optimizer).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load path: %w", err)
	}

	path, err := unmarshalPath(data)
	if err != nil {
		return nil, false, err
	}
	if _, err := p.s.db.ExecContext(ctx,
		`UPDATE plans SET hits = hits + 1 WHERE signature = ? AND optimizer = ?`,
		key.Signature, key.Optimizer); err != nil {
		return nil, false, fmt.Errorf("load path: %w", err)
	}
	return path, true, nil
}

// SavePath implements planner.PathCache. An existing row for the key is
// replaced and its hit count reset.
func (p *PlanStore) SavePath(ctx context.Context, key planner.PlanKey, path planner.Path) error {
	data, err := marshalPath(path)
	if err != nil {
		return fmt.Errorf("save path: %w", err)
	}

	tx, err := p.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save path: %w", err)
	}
	defer tx.Rollback()

	seq, err := nextSeq(ctx, tx, "plans")
	if err != nil {
		return fmt.Errorf("save path: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO plans (signature, optimizer, path, run_id, hits, seq)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT(signature, optimizer) DO UPDATE SET
			path = excluded.path,
			run_id = excluded.run_id,
			hits = 0,
			seq = excluded.seq
	`, key.Signature, key.Optimizer, data, p.runID, seq)
	if err != nil {
		return fmt.Errorf("save path: %w", err)
	}
	return tx.Commit()
}

// Plan is a stored contraction path with its provenance.
type Plan struct {
	Signature string       `json:"signature"`
	Path      planner.Path `json:"path"`
	Optimizer string       `json:"optimizer"`
	RunID     string       `json:"run_id"`
	Hits      int64        `json:"hits"`
	Seq       int64        `json:"seq"`
}

// ReadPlans returns every stored plan ordered by seq.
// Returns an empty slice (not nil) if none exist.
func (s *Store) ReadPlans(ctx context.Context) ([]Plan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT signature, path, optimizer, run_id, hits, seq
		FROM plans
		ORDER BY seq ASC, signature COLLATE BINARY ASC, optimizer ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	plans := []Plan{}
	for rows.Next() {
		var pl Plan
		var data string
		if err := rows.Scan(&pl.Signature, &data, &pl.Optimizer, &pl.RunID, &pl.Hits, &pl.Seq); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		if pl.Path, err = unmarshalPath(data); err != nil {
			return nil, err
		}
		plans = append(plans, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return plans, nil
}
