package planner

import (
	"context"

	"github.com/roach88/alan/internal/axis"
)

// Optimal searches every pairwise contraction order and returns the one
// with the smallest peak combined size, breaking ties by total size.
// The search is exponential in the number of inputs; use Auto to bound it.
type Optimal struct{}

// Name implements Optimizer.
func (Optimal) Name() string { return "optimal" }

// Optimize implements Optimizer.
func (Optimal) Optimize(ctx context.Context, p Problem) (Path, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(p.Inputs) == 1 {
		return Path{{0}}, nil
	}

	// Seed the bound with the greedy answer so pruning starts tight.
	seed, err := Greedy{}.Optimize(ctx, p)
	if err != nil {
		return nil, err
	}
	seedCost, err := Evaluate(p, seed)
	if err != nil {
		return nil, err
	}

	s := &search{ctx: ctx, eliminate: p.Eliminate, best: seedCost, bestPath: seed}
	s.dfs(append([][]*axis.Axis(nil), p.Inputs...), nil, Cost{})
	if s.err != nil {
		return nil, s.err
	}
	return s.bestPath, nil
}

type search struct {
	ctx       context.Context
	eliminate []*axis.Axis
	best      Cost
	bestPath  Path

	// err is set once the context is done; the search unwinds without
	// visiting further branches.
	err error
}

func (s *search) dfs(working [][]*axis.Axis, path Path, c Cost) {
	if s.err != nil {
		return
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return
	}
	if len(working) == 1 {
		if c.less(s.best) {
			s.best = c
			s.bestPath = append(Path(nil), path...)
		}
		return
	}
	if !c.less(s.best) {
		return
	}
	for i := 0; i < len(working); i++ {
		for j := i + 1; j < len(working); j++ {
			v := axis.Volume(axis.Union(working[i], working[j]))
			next := Cost{Peak: max(c.Peak, v), Total: c.Total + v}
			if !next.less(s.best) {
				continue
			}
			s.dfs(merge(working, []int{i, j}, s.eliminate), append(path, []int{i, j}), next)
		}
	}
}
