package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/roach88/alan/internal/checker"
	"github.com/roach88/alan/internal/fault"
	"github.com/roach88/alan/internal/lp"
	"github.com/roach88/alan/internal/model"
	"github.com/roach88/alan/internal/planner"
	"github.com/roach88/alan/internal/reduce"
	"github.com/roach88/alan/internal/tensor"
	"github.com/roach88/alan/internal/testutil"
)

// RunIDGenerator produces the ID attached to a run.
type RunIDGenerator interface {
	Generate() string
}

// Option configures Run.
type Option func(*config)

type config struct {
	optimizer   planner.Optimizer
	cache       planner.PathCache
	policy      reduce.Policy
	parallelism int
	runIDs      RunIDGenerator
	logger      *slog.Logger
}

// WithOptimizer sets the contraction-order optimizer. Defaults to
// planner.NewAuto().
func WithOptimizer(o planner.Optimizer) Option {
	return func(c *config) {
		c.optimizer = o
	}
}

// WithPlanCache memoizes plans in cache.
func WithPlanCache(cache planner.PathCache) Option {
	return func(c *config) {
		c.cache = cache
	}
}

// WithPolicy sets the reducer's memory policy.
func WithPolicy(p reduce.Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithParallelism sets how many sibling sub-trees reduce at once.
// Defaults to 1, which keeps plan records in a stable order.
func WithParallelism(n int) Option {
	return func(c *config) {
		c.parallelism = n
	}
}

// WithRunIDGenerator overrides the fixed run ID.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(c *config) {
		c.runIDs = g
	}
}

// WithLogger sets the logger. Defaults to one that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// recorder wraps an optimizer and records every call.
type recorder struct {
	inner planner.Optimizer
	seq   testutil.Sequence

	mu    sync.Mutex
	plans []PlanRecord
}

func (r *recorder) Name() string { return r.inner.Name() }

func (r *recorder) Optimize(ctx context.Context, p planner.Problem) (planner.Path, error) {
	path, err := r.inner.Optimize(ctx, p)
	if err != nil {
		return nil, err
	}
	sig, err := planner.Signature(p)
	if err != nil {
		return nil, err
	}
	cost, err := planner.Evaluate(p, path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, PlanRecord{
		Seq:       r.seq.Next(),
		Signature: sig[:12],
		Inputs:    len(p.Inputs),
		Eliminate: len(p.Eliminate),
		Path:      path,
		Peak:      cost.Peak,
		Total:     cost.Total,
	})
	return path, nil
}

// Run executes a scenario.
//
// Execution flow:
//  1. Check the CUE model pair, if the scenario names one
//  2. Build axes and the target (and proposal) trees
//  3. Evaluate: lp.Evidence with a proposal, Node.Reduce without
//  4. Run the reverse pass, if requested
//  5. Evaluate assertions
//
// Evaluation failures are recorded in Result.Err. The returned error is
// reserved for scenarios that cannot run at all.
func Run(ctx context.Context, s *Scenario, opts ...Option) (*Result, error) {
	cfg := &config{
		optimizer:   planner.NewAuto(),
		parallelism: 1,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.runIDs == nil {
		cfg.runIDs = testutil.NewFixedRunIDGenerator(s.RunID)
	}

	inner := cfg.optimizer
	if cfg.cache != nil {
		inner = planner.NewCached(inner, cfg.cache)
	}
	rec := &recorder{inner: inner}
	r := reduce.New(
		reduce.WithOptimizer(rec),
		reduce.WithPolicy(cfg.policy),
		reduce.WithParallelism(cfg.parallelism),
	)

	result := NewResult(s.Name, cfg.runIDs.Generate())
	result.Mode = "reduce"
	if s.Proposal != nil {
		result.Mode = "evidence"
	}
	log := cfg.logger.With("scenario", s.Name, "run", result.RunID)

	if s.Model != "" {
		err := checkModel(s.Model)
		var fe *fault.Error
		switch {
		case errors.As(err, &fe):
			result.Err = err
		case err != nil:
			return nil, err
		}
	}

	if result.Err == nil {
		if err := evaluate(ctx, s, r, result); err != nil {
			return nil, err
		}
	}
	result.Plans = rec.plans
	if result.Plans == nil {
		result.Plans = []PlanRecord{}
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}

	if result.Err != nil {
		log.Info("scenario evaluated", "mode", result.Mode, "error", result.Err, "pass", result.Pass)
	} else {
		log.Info("scenario evaluated", "mode", result.Mode, "value", result.Value, "plans", len(result.Plans), "pass", result.Pass)
	}
	return result, nil
}

func checkModel(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	spec, err := model.CompileString(string(src), path)
	if err != nil {
		return fmt.Errorf("compile model: %w", err)
	}
	return checker.Check(spec.Target, spec.Proposal, spec.Data)
}

// evaluate fills result.Value, Gradients and Err. Only failures to
// build the trees are returned.
func evaluate(ctx context.Context, s *Scenario, r *reduce.Reducer, result *Result) error {
	axes, err := newAxes(s.Axes)
	if err != nil {
		return err
	}

	// Tensor shape errors are scenario bugs; lp construction errors are
	// outcomes a scenario may assert on.
	target, err := buildNode(s.Target, axes)
	if err != nil {
		return captureOrFail(result, "target", err)
	}

	root := target
	if s.Proposal != nil {
		proposal, err := buildNode(*s.Proposal, axes)
		if err != nil {
			return captureOrFail(result, "proposal", err)
		}
		if !s.Gradients {
			result.Value, result.Err = lp.Evidence(ctx, r, target, proposal)
			return nil
		}
		q, err := proposal.Normalize()
		if err != nil {
			result.Err = err
			return nil
		}
		if root, err = target.Difference(q); err != nil {
			result.Err = err
			return nil
		}
	}

	if !s.Gradients {
		v, err := root.Reduce(ctx, r)
		if err != nil {
			result.Err = err
			return nil
		}
		result.Value, result.Err = v.Item()
		return nil
	}

	v, grads, err := root.ReduceWithGrad(ctx, r)
	if err != nil {
		result.Err = err
		return nil
	}
	if result.Value, err = v.Item(); err != nil {
		result.Err = err
		return nil
	}
	result.Gradients = map[string]float64{}
	sumLeaves(grads, "", result.Gradients)
	return nil
}

func captureOrFail(result *Result, side string, err error) error {
	if fault.CodeOf(err) == fault.CodeShape {
		return fmt.Errorf("build %s: %w", side, err)
	}
	result.Err = err
	return nil
}

func sumLeaves(n *lp.Node, path string, out map[string]float64) {
	for _, name := range n.Names() {
		e, _ := n.Entry(name)
		p := fault.JoinPath(path, name)
		if e.Kind() == lp.KindNode {
			sumLeaves(e.Node(), p, out)
			continue
		}
		s, _ := tensor.Sum(e.Tensor(), e.Tensor().Axes()...).Item()
		out[p] = s
	}
}
