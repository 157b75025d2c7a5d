package planner

import (
	"context"
	"fmt"
	"log/slog"
)

// Optimizer finds a contraction order for a Problem.
// Implementations must be pure: the same problem yields the same path.
// Name identifies the strategy; paths are cached under it, so two
// optimizers sharing a name must produce the same paths.
type Optimizer interface {
	Name() string
	Optimize(ctx context.Context, p Problem) (Path, error)
}

// DefaultOptimalLimit is the largest input count Auto searches exhaustively.
const DefaultOptimalLimit = 6

// Auto uses Optimal for up to Limit inputs and Greedy beyond.
type Auto struct {
	limit int
}

// AutoOption configures Auto.
type AutoOption func(*Auto)

// WithOptimalLimit sets the largest input count searched exhaustively.
func WithOptimalLimit(n int) AutoOption {
	return func(a *Auto) {
		a.limit = n
	}
}

// NewAuto creates an Auto optimizer.
func NewAuto(opts ...AutoOption) *Auto {
	a := &Auto{limit: DefaultOptimalLimit}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements Optimizer.
func (a *Auto) Name() string {
	if a.limit == DefaultOptimalLimit {
		return "auto"
	}
	return fmt.Sprintf("auto(%d)", a.limit)
}

// Optimize implements Optimizer.
func (a *Auto) Optimize(ctx context.Context, p Problem) (Path, error) {
	if len(p.Inputs) <= a.limit {
		return Optimal{}.Optimize(ctx, p)
	}
	return Greedy{}.Optimize(ctx, p)
}

// ByName returns the optimizer registered under name:
// "auto", "greedy" or "optimal".
func ByName(name string) (Optimizer, bool) {
	switch name {
	case "auto", "":
		return NewAuto(), true
	case "greedy":
		return Greedy{}, true
	case "optimal":
		return Optimal{}, true
	}
	return nil, false
}

// Plan optimizes p with opt and annotates the resulting path.
func Plan(ctx context.Context, opt Optimizer, p Problem) ([]Step, error) {
	path, err := opt.Optimize(ctx, p)
	if err != nil {
		return nil, err
	}
	steps, err := Annotate(p, path)
	if err != nil {
		return nil, err
	}
	slog.Debug("contraction path planned", "inputs", len(p.Inputs), "eliminate", len(p.Eliminate), "steps", len(steps))
	return steps, nil
}
