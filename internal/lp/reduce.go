package lp

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/alan/internal/axis"
	"github.com/roach88/alan/internal/fault"
	"github.com/roach88/alan/internal/reduce"
	"github.com/roach88/alan/internal/tensor"
)

// backFn maps the gradient of a node's reduced value onto a tree of
// gradients shaped like the node.
type backFn func(grad *tensor.Tensor) (*Node, error)

// Reduce collapses the tree bottom-up and returns the node's value: a
// scalar when no plate axes are in scope, otherwise a tensor over the outer
// plates.
//
// Sub-plate entries are reduced first; independent siblings run
// concurrently up to r.Parallelism(). All elimination axes of the node are
// then removed jointly by r, and finally the innermost plate axis, if any,
// is summed out.
func (n *Node) Reduce(ctx context.Context, r *reduce.Reducer) (*tensor.Tensor, error) {
	v, _, err := n.reduce(ctx, r, "", false)
	return v, err
}

// ReduceWithGrad is Reduce plus the gradient of the sum of the reduced
// value with respect to every leaf tensor. The gradients come back as a
// tree shaped like the receiver, each tensor aligned with its leaf.
func (n *Node) ReduceWithGrad(ctx context.Context, r *reduce.Reducer) (*tensor.Tensor, *Node, error) {
	v, back, err := n.reduce(ctx, r, "", true)
	if err != nil {
		return nil, nil, err
	}
	grads, err := back(tensor.Scalar(1))
	if err != nil {
		return nil, nil, fmt.Errorf("reverse pass: %w", err)
	}
	return v, grads, nil
}

func (n *Node) reduce(ctx context.Context, r *reduce.Reducer, path string, withGrad bool) (*tensor.Tensor, backFn, error) {
	names := n.Names()
	if len(names) == 0 {
		err := fault.NewInvariantError("node has no entries to reduce")
		err.Path = path
		return nil, nil, err
	}

	vals := make([]*tensor.Tensor, len(names))
	backs := make([]backFn, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Parallelism())
	for i, name := range names {
		i, name := i, name
		e := n.entries[name]
		if e.kind == KindTensor {
			vals[i] = e.tensor
			continue
		}
		g.Go(func() error {
			v, b, err := e.node.reduce(gctx, r, fault.JoinPath(path, name), withGrad)
			if err != nil {
				return err
			}
			vals[i], backs[i] = v, b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	pre, tr, err := r.Reduce(ctx, vals, n.ElimAxes())
	if err != nil {
		return nil, nil, fmt.Errorf("reduce %q: %w", path, err)
	}

	out := pre
	var plate *axis.Axis
	if len(n.plates) > 0 {
		plate = n.plates[len(n.plates)-1]
		out = tensor.Sum(pre, plate)
	}
	slog.Debug("node reduced", "path", path, "entries", len(names), "plate", plate, "result", out.Axes())

	if !withGrad {
		return out, nil, nil
	}

	back := func(grad *tensor.Tensor) (*Node, error) {
		if plate != nil && !pre.Has(plate) {
			grad = tensor.Scale(grad, float64(plate.Size()))
		}
		gs, err := tr.Backward(grad)
		if err != nil {
			return nil, err
		}
		entries := make(map[string]Entry, len(names))
		for i, name := range names {
			if n.entries[name].kind == KindTensor {
				entries[name] = TensorEntry(gs[i])
				continue
			}
			sub, err := backs[i](gs[i])
			if err != nil {
				return nil, err
			}
			entries[name] = NodeEntry(sub)
		}
		return NewNode(entries, n.plates, n.ks)
	}
	return out, back, nil
}

// Evidence estimates the log-evidence of target under proposal: the
// proposal is normalized by its sample counts, subtracted from the target,
// and the difference reduced to a scalar. Both trees must be rooted outside
// any plate.
func Evidence(ctx context.Context, r *reduce.Reducer, target, proposal *Node) (float64, error) {
	q, err := proposal.Normalize()
	if err != nil {
		return 0, fmt.Errorf("normalize proposal: %w", err)
	}
	d, err := target.Difference(q)
	if err != nil {
		return 0, fmt.Errorf("difference: %w", err)
	}
	v, err := d.Reduce(ctx, r)
	if err != nil {
		return 0, err
	}
	if v.Rank() != 0 {
		return 0, fault.NewInvariantError("reduced value still carries axes %v", v.Axes())
	}
	return v.Item()
}
