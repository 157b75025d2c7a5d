package planner

import (
	"context"

	"github.com/roach88/alan/internal/axis"
)

// Greedy repeatedly merges the pair of tensors whose merge shrinks the
// working set the most. Pairs sharing an axis are preferred over outer
// products.
type Greedy struct{}

// Name implements Optimizer.
func (Greedy) Name() string { return "greedy" }

// Optimize implements Optimizer.
func (Greedy) Optimize(ctx context.Context, p Problem) (Path, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(p.Inputs) == 1 {
		return Path{{0}}, nil
	}

	working := append([][]*axis.Axis(nil), p.Inputs...)
	var path Path
	for len(working) > 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bi, bj := -1, -1
		var best greedyKey
		for i := 0; i < len(working); i++ {
			for j := i + 1; j < len(working); j++ {
				k := scorePair(working, i, j, p.Eliminate)
				if bi < 0 || k.less(best) {
					bi, bj, best = i, j, k
				}
			}
		}
		path = append(path, []int{bi, bj})
		working = merge(working, []int{bi, bj}, p.Eliminate)
	}
	return path, nil
}

type greedyKey struct {
	disjoint bool
	delta    int
	combined int
}

func (k greedyKey) less(o greedyKey) bool {
	if k.disjoint != o.disjoint {
		return !k.disjoint
	}
	if k.delta != o.delta {
		return k.delta < o.delta
	}
	return k.combined < o.combined
}

func scorePair(working [][]*axis.Axis, i, j int, eliminate []*axis.Axis) greedyKey {
	a, b := working[i], working[j]
	_, result := combine([][]*axis.Axis{a, b}, without(working, i, j), eliminate)
	return greedyKey{
		disjoint: len(axis.Intersect(a, b)) == 0,
		delta:    axis.Volume(result) - axis.Volume(a) - axis.Volume(b),
		combined: axis.Volume(axis.Union(a, b)),
	}
}

// merge applies one step to the working list.
func merge(working [][]*axis.Axis, ops []int, eliminate []*axis.Axis) [][]*axis.Axis {
	group := make([][]*axis.Axis, 0, len(ops))
	for _, i := range ops {
		group = append(group, working[i])
	}
	rest := without(working, ops...)
	_, result := combine(group, rest, eliminate)
	return append(rest, result)
}

// without returns working minus the given positions, preserving order.
func without(working [][]*axis.Axis, drop ...int) [][]*axis.Axis {
	out := make([][]*axis.Axis, 0, len(working))
outer:
	for i, w := range working {
		for _, d := range drop {
			if i == d {
				continue outer
			}
		}
		out = append(out, w)
	}
	return out
}
