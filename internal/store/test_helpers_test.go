package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/alan/internal/axis"
	"github.com/roach88/alan/internal/planner"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// chainProblem builds a -- b -- c sharing elimination axes K1 and K2.
// Fresh axes are created on every call; the signature stays the same.
func chainProblem() planner.Problem {
	p := axis.MustNew("p", 2)
	k1 := axis.MustNew("K1", 3)
	k2 := axis.MustNew("K2", 4)
	return planner.Problem{
		Inputs:    [][]*axis.Axis{{p, k1}, {k1, k2}, {p, k2}},
		Eliminate: []*axis.Axis{k1, k2},
	}
}
