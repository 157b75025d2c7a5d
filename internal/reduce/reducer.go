package reduce

import (
	"context"
	"log/slog"

	"github.com/roach88/alan/internal/axis"
	"github.com/roach88/alan/internal/fault"
	"github.com/roach88/alan/internal/planner"
	"github.com/roach88/alan/internal/tensor"
)

// Policy controls what a Region keeps after its forward pass.
type Policy int

const (
	// Recompute keeps only the inputs and replays the step on demand.
	Recompute Policy = iota

	// Retain keeps the combined tensor and the output for the reverse pass.
	Retain
)

// String returns the policy name.
func (p Policy) String() string {
	if p == Retain {
		return "retain"
	}
	return "recompute"
}

// Reducer executes planned log-domain eliminations.
// A Reducer holds no per-call state and is safe for concurrent use if its
// optimizer is.
type Reducer struct {
	optimizer   planner.Optimizer
	policy      Policy
	parallelism int
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithOptimizer sets the contraction-order strategy.
//
// Default: planner.NewAuto()
func WithOptimizer(o planner.Optimizer) Option {
	return func(r *Reducer) {
		r.optimizer = o
	}
}

// WithPolicy sets the recompute policy.
//
// Default: Recompute
func WithPolicy(p Policy) Option {
	return func(r *Reducer) {
		r.policy = p
	}
}

// WithParallelism sets how many independent sibling sub-trees callers may
// reduce at once. Values below 1 are treated as 1.
//
// Default: 1 (sequential)
func WithParallelism(n int) Option {
	return func(r *Reducer) {
		r.parallelism = max(n, 1)
	}
}

// New creates a Reducer.
func New(opts ...Option) *Reducer {
	r := &Reducer{
		optimizer:   planner.NewAuto(),
		policy:      Recompute,
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Parallelism returns the configured sibling parallelism.
func (r *Reducer) Parallelism() int { return r.parallelism }

// Policy returns the configured recompute policy.
func (r *Reducer) Policy() Policy { return r.policy }

// Reduce eliminates ks jointly from lps and returns the remaining tensor
// with a Trace for the reverse pass. The result equals the log-sum-exp over
// ks of the elementwise sum of lps, whatever order the optimizer chose.
func (r *Reducer) Reduce(ctx context.Context, lps []*tensor.Tensor, ks []*axis.Axis) (*tensor.Tensor, *Trace, error) {
	prob := planner.Problem{
		Inputs:    make([][]*axis.Axis, len(lps)),
		Eliminate: ks,
	}
	for i, lp := range lps {
		prob.Inputs[i] = lp.Axes()
	}

	steps, err := planner.Plan(ctx, r.optimizer, prob)
	if err != nil {
		return nil, nil, err
	}

	type slot struct {
		t   *tensor.Tensor
		src source
	}
	working := make([]slot, len(lps))
	for i, lp := range lps {
		working[i] = slot{t: lp, src: source{input: i, region: -1}}
	}

	tr := &Trace{inputs: lps, steps: steps}
	for n, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		picked := make(map[int]bool, len(step.Operands))
		for _, i := range step.Operands {
			picked[i] = true
		}

		var group []*tensor.Tensor
		var srcs []source
		var rest []slot
		for i, s := range working {
			if picked[i] {
				group = append(group, s.t)
				srcs = append(srcs, s.src)
			} else {
				rest = append(rest, s)
			}
		}

		reg := newRegion(group, step.Eliminate, r.policy)
		out := reg.forward()
		tr.regions = append(tr.regions, reg)
		tr.operands = append(tr.operands, srcs)

		slog.Debug("reduction step",
			"step", n,
			"operands", len(group),
			"eliminate", step.Eliminate,
			"result", step.Result)

		working = append(rest, slot{t: out, src: source{input: -1, region: n}})
	}

	if len(working) != 1 {
		return nil, nil, fault.NewInvariantError("%d tensors remain after reduction, want 1", len(working))
	}
	tr.result = working[0].t
	return tr.result, tr, nil
}

// LogSumExpSum is the direct, unplanned reduction: the log-sum-exp over ks
// of the elementwise sum of lps. Reduce must agree with it.
func LogSumExpSum(lps []*tensor.Tensor, ks []*axis.Axis) *tensor.Tensor {
	return tensor.LogSumExp(tensor.Add(lps...), ks...)
}
