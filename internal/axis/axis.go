package axis

import (
	"fmt"
	"sync/atomic"
)

// ids hands out axis identities. The first axis gets ID 1.
var ids atomic.Uint64

// Axis is a named dimension of fixed size with pointer identity.
type Axis struct {
	id    uint64
	size  int
	label string
}

// New creates a fresh axis. Size must be at least 1.
func New(label string, size int) (*Axis, error) {
	if size < 1 {
		return nil, fmt.Errorf("axis %q: size must be >= 1, got %d", label, size)
	}
	return &Axis{id: ids.Add(1), size: size, label: label}, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when the size is known to be valid.
func MustNew(label string, size int) *Axis {
	a, err := New(label, size)
	if err != nil {
		panic(err)
	}
	return a
}

// ID returns the identity token of the axis.
func (a *Axis) ID() uint64 { return a.id }

// Size returns the number of positions along the axis.
func (a *Axis) Size() int { return a.size }

// Label returns the display label. Labels are not unique.
func (a *Axis) Label() string { return a.label }

// String formats the axis as label#id(size).
func (a *Axis) String() string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s#%d(%d)", a.label, a.id, a.size)
}
