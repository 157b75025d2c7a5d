package store

import (
	"context"
	"fmt"
)

// Run is one recorded evaluation.
type Run struct {
	ID        string  `json:"id"`
	Scenario  string  `json:"scenario"`
	Optimizer string  `json:"optimizer"`
	Value     float64 `json:"value"`
	Steps     int     `json:"steps"`
	PlansHit  int64   `json:"plans_hit"`
	Seq       int64   `json:"seq"`
}

// WriteRun records an evaluation. Writing the same run ID twice is a no-op.
func (s *Store) WriteRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, optimizer, value, steps, plans_hit)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, r.ID, r.Scenario, r.Optimizer, r.Value, r.Steps, r.PlansHit)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// ReadRuns returns the runs of scenario ordered by seq, or every run when
// scenario is empty. Returns an empty slice (not nil) if none exist.
func (s *Store) ReadRuns(ctx context.Context, scenario string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario, optimizer, value, steps, plans_hit, seq
		FROM runs
		WHERE ? = '' OR scenario = ?
		ORDER BY seq ASC
	`, scenario, scenario)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Scenario, &r.Optimizer, &r.Value, &r.Steps, &r.PlansHit, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
