package lp

import (
	"fmt"
	"sort"

	"github.com/roach88/alan/internal/axis"
	"github.com/roach88/alan/internal/fault"
	"github.com/roach88/alan/internal/tensor"
)

// Kind tags the contents of an Entry.
type Kind int

const (
	// KindTensor is a leaf log-probability tensor.
	KindTensor Kind = iota + 1

	// KindNode is a nested sub-plate.
	KindNode
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTensor:
		return "tensor"
	case KindNode:
		return "node"
	}
	return "invalid"
}

// Entry is either a tensor or a nested Node. Branch on Kind.
type Entry struct {
	kind   Kind
	tensor *tensor.Tensor
	node   *Node
}

// TensorEntry wraps a leaf log-probability tensor.
func TensorEntry(t *tensor.Tensor) Entry {
	return Entry{kind: KindTensor, tensor: t}
}

// NodeEntry wraps a sub-plate.
func NodeEntry(n *Node) Entry {
	return Entry{kind: KindNode, node: n}
}

// Kind returns the entry's tag.
func (e Entry) Kind() Kind { return e.kind }

// Tensor returns the tensor of a KindTensor entry, nil otherwise.
func (e Entry) Tensor() *tensor.Tensor { return e.tensor }

// Node returns the sub-plate of a KindNode entry, nil otherwise.
func (e Entry) Node() *Node { return e.node }

// Node is one level of the log-probability tree.
//
// INVARIANTS:
//   - every name in the elimination-axis map is also an entry name
//   - entries are never modified after construction
type Node struct {
	plates  []*axis.Axis
	ks      map[string]*axis.Axis
	entries map[string]Entry
}

// NewNode builds a Node from entries, the active plate axes (outermost
// first) and the elimination axis of each latent entry. The maps and slice
// are copied.
func NewNode(entries map[string]Entry, plates []*axis.Axis, ks map[string]*axis.Axis) (*Node, error) {
	for name, k := range ks {
		if _, ok := entries[name]; !ok {
			return nil, fault.NewMissingEntryError(name)
		}
		if k == nil {
			return nil, fault.NewAxisError(name, "<nil>", "nil elimination axis")
		}
	}
	for name, e := range entries {
		switch {
		case e.kind == KindTensor && e.tensor != nil:
		case e.kind == KindNode && e.node != nil:
		default:
			return nil, fault.NewShapeError("entry %q is empty or has an invalid kind", name)
		}
	}
	if dups := axis.Duplicates(plates); len(dups) > 0 {
		return nil, fault.NewAxisError("", dups[0].String(), "plate axis repeated in scope")
	}

	n := &Node{
		plates:  append([]*axis.Axis(nil), plates...),
		ks:      make(map[string]*axis.Axis, len(ks)),
		entries: make(map[string]Entry, len(entries)),
	}
	for name, k := range ks {
		n.ks[name] = k
	}
	for name, e := range entries {
		n.entries[name] = e
	}
	return n, nil
}

// MustNode is like NewNode but panics on error.
// Use only in tests or with literal trees.
func MustNode(entries map[string]Entry, plates []*axis.Axis, ks map[string]*axis.Axis) *Node {
	n, err := NewNode(entries, plates, ks)
	if err != nil {
		panic(err)
	}
	return n
}

// Plates returns the active plate axes, outermost first.
func (n *Node) Plates() []*axis.Axis {
	return append([]*axis.Axis(nil), n.plates...)
}

// ElimAxis returns the elimination axis owned by name.
func (n *Node) ElimAxis(name string) (*axis.Axis, bool) {
	k, ok := n.ks[name]
	return k, ok
}

// ElimAxes returns the elimination axes of the node's latent entries,
// ordered by entry name.
func (n *Node) ElimAxes() []*axis.Axis {
	names := make([]string, 0, len(n.ks))
	for name := range n.ks {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*axis.Axis, len(names))
	for i, name := range names {
		out[i] = n.ks[name]
	}
	return out
}

// Entry returns the entry stored under name.
func (n *Node) Entry(name string) (Entry, bool) {
	e, ok := n.entries[name]
	return e, ok
}

// Names returns the entry names in sorted order.
func (n *Node) Names() []string {
	names := make([]string, 0, len(n.entries))
	for name := range n.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries.
func (n *Node) Len() int { return len(n.entries) }

// String formats the node for debugging.
func (n *Node) String() string {
	return fmt.Sprintf("Node{plates=%v, entries=%v}", n.plates, n.Names())
}
