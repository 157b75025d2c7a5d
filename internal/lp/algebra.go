package lp

import (
	"fmt"
	"math"
	"sort"

	"github.com/roach88/alan/internal/axis"
	"github.com/roach88/alan/internal/fault"
	"github.com/roach88/alan/internal/tensor"
)

// Difference returns target - proposal, where the receiver is the target.
//
// Both nodes must share plate axes and elimination axes by identity, and
// every proposal entry must exist in the target with the same kind. Tensor
// entries are subtracted elementwise, sub-plates recursively. Names present
// only in the target (likelihood terms) pass through unchanged.
func (n *Node) Difference(proposal *Node) (*Node, error) {
	return n.difference(proposal, "")
}

func (n *Node) difference(q *Node, path string) (*Node, error) {
	if !axis.SameSequence(n.plates, q.plates) {
		return nil, &fault.Error{
			Code:    fault.CodeAxis,
			Message: fmt.Sprintf("active plate axes differ: target %v, proposal %v", n.plates, q.plates),
			Path:    path,
		}
	}

	for _, name := range unionKeys(n.ks, q.ks) {
		tk, inT := n.ks[name]
		qk, inQ := q.ks[name]
		switch {
		case !inT || !inQ:
			err := fault.NewAxisError(name, axisString(tk, qk), "elimination axis declared on one side only")
			err.Path = path
			return nil, err
		case tk != qk:
			err := fault.NewAxisError(name, tk.String(), fmt.Sprintf("elimination axis differs: target %s, proposal %s", tk, qk))
			err.Path = path
			return nil, err
		}
	}

	var extra []string
	for name := range q.entries {
		if _, ok := n.entries[name]; !ok {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		return nil, fault.NewExtraNamesError(path, extra)
	}

	out := make(map[string]Entry, len(n.entries))
	for name, te := range n.entries {
		qe, ok := q.entries[name]
		if !ok {
			out[name] = te
			continue
		}
		if te.kind != qe.kind {
			return nil, fault.NewKindError(path, name, te.kind.String(), qe.kind.String())
		}
		switch te.kind {
		case KindTensor:
			out[name] = TensorEntry(tensor.Sub(te.tensor, qe.tensor))
		case KindNode:
			sub, err := te.node.difference(qe.node, fault.JoinPath(path, name))
			if err != nil {
				return nil, err
			}
			out[name] = NodeEntry(sub)
		}
	}
	return NewNode(out, n.plates, n.ks)
}

// Normalize subtracts log(K) from every tensor entry, where K is the size of
// the entry's own elimination axis, and normalizes sub-plates recursively.
// Tensor entries without an elimination axis are left unchanged.
//
// Each latent entry may carry no elimination axis of this node other than
// its own; anything else means a variable's log-probability depends on
// another variable's samples, which is a construction error upstream.
func (n *Node) Normalize() (*Node, error) {
	return n.normalize("")
}

func (n *Node) normalize(path string) (*Node, error) {
	all := n.ElimAxes()
	out := make(map[string]Entry, len(n.entries))
	for name, e := range n.entries {
		if e.kind == KindNode {
			sub, err := e.node.normalize(fault.JoinPath(path, name))
			if err != nil {
				return nil, err
			}
			out[name] = NodeEntry(sub)
			continue
		}

		own, latent := n.ks[name]
		if !latent {
			out[name] = e
			continue
		}
		for _, a := range e.tensor.Axes() {
			if a != own && axis.Contains(all, a) {
				err := fault.NewContaminationError(name, a.String())
				err.Path = path
				return nil, err
			}
		}
		out[name] = TensorEntry(tensor.AddScalar(e.tensor, -math.Log(float64(own.Size()))))
	}
	return NewNode(out, n.plates, n.ks)
}

func unionKeys(a, b map[string]*axis.Axis) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		set[k] = struct{}{}
	}
	for k := range b {
		set[k] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func axisString(a, b *axis.Axis) string {
	if a != nil {
		return a.String()
	}
	return b.String()
}
