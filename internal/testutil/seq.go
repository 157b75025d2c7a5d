package testutil

import "sync/atomic"

// Sequence hands out 1, 2, 3, ... in call order. The harness numbers the
// planning calls of a run with it so snapshots never depend on wall time.
// Safe for concurrent use.
type Sequence struct {
	n atomic.Int64
}

// Next returns the next number.
func (s *Sequence) Next() int64 { return s.n.Add(1) }

// Last returns the most recent number handed out, or 0 before the first.
func (s *Sequence) Last() int64 { return s.n.Load() }
