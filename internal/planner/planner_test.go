package planner

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/alan/internal/axis"
	"github.com/roach88/alan/internal/fault"
)

type ax = []*axis.Axis

// chain builds A(k1) B(k1,k2) C(k2) with plate p on every tensor.
func chain() (Problem, *axis.Axis, *axis.Axis, *axis.Axis) {
	p := axis.MustNew("p", 2)
	k1 := axis.MustNew("K_a", 3)
	k2 := axis.MustNew("K_b", 4)
	return Problem{
		Inputs:    [][]*axis.Axis{{p, k1}, {p, k1, k2}, {p, k2}},
		Eliminate: ax{k1, k2},
	}, p, k1, k2
}

func TestValidate(t *testing.T) {
	k := axis.MustNew("K", 2)

	err := Problem{Inputs: [][]*axis.Axis{{k}}, Eliminate: ax{k, k}}.Validate()
	require.Error(t, err)
	assert.True(t, fault.IsInvariant(err))
	assert.Contains(t, err.Error(), "more than once")

	err = Problem{Inputs: [][]*axis.Axis{{k, k}}, Eliminate: ax{k}}.Validate()
	require.Error(t, err)
	assert.True(t, fault.IsInvariant(err))

	err = Problem{}.Validate()
	require.Error(t, err)
	assert.True(t, fault.IsInvariant(err))
}

func TestAnnotateConsumableAxes(t *testing.T) {
	prob, p, k1, k2 := chain()

	steps, err := Annotate(prob, Path{{0, 1}, {0, 1}})
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.Equal(t, ax{k1}, steps[0].Eliminate, "k2 is still carried by C")
	assert.Equal(t, ax{p, k2}, steps[0].Result)
	assert.Equal(t, ax{k2}, steps[1].Eliminate)
	assert.Equal(t, ax{p}, steps[1].Result)
}

func TestAnnotateRejectsBadPaths(t *testing.T) {
	prob, _, _, _ := chain()

	_, err := Annotate(prob, Path{{0, 1}})
	require.Error(t, err)
	assert.True(t, fault.IsInvariant(err))
	assert.Contains(t, err.Error(), "leaves 2 tensors")

	_, err = Annotate(prob, Path{{0, 5}, {0, 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = Annotate(prob, Path{{1, 1}, {0, 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeated")

	_, err = Annotate(prob, Path{{}, {0, 1, 2}})
	require.Error(t, err)
}

func TestSingleInput(t *testing.T) {
	k := axis.MustNew("K", 3)
	prob := Problem{Inputs: [][]*axis.Axis{{k}}, Eliminate: ax{k}}

	for _, opt := range []Optimizer{Greedy{}, Optimal{}, NewAuto()} {
		path, err := opt.Optimize(context.Background(), prob)
		require.NoError(t, err)
		assert.Equal(t, Path{{0}}, path)
	}

	steps, err := Annotate(prob, Path{{0}})
	require.NoError(t, err)
	assert.Equal(t, ax{k}, steps[0].Eliminate)
	assert.Empty(t, steps[0].Result)
}

func TestEliminationAxisCarriedByNothing(t *testing.T) {
	p := axis.MustNew("p", 2)
	k := axis.MustNew("K", 3)
	prob := Problem{Inputs: [][]*axis.Axis{{p}}, Eliminate: ax{k}}

	steps, err := Annotate(prob, Path{{0}})
	require.NoError(t, err)
	assert.Empty(t, steps[0].Eliminate)
	assert.Equal(t, ax{p}, steps[0].Result)
}

func TestOptimizersProduceValidPaths(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 25; trial++ {
		prob := randomProblem(rng, 2+rng.Intn(4))

		greedy, err := Greedy{}.Optimize(ctx, prob)
		require.NoError(t, err)
		gc, err := Evaluate(prob, greedy)
		require.NoError(t, err)

		optimal, err := Optimal{}.Optimize(ctx, prob)
		require.NoError(t, err)
		oc, err := Evaluate(prob, optimal)
		require.NoError(t, err)

		assert.Len(t, optimal, len(prob.Inputs)-1)
		assert.False(t, gc.less(oc), "optimal must not be worse than greedy (trial %d)", trial)
	}
}

func TestOptimalAvoidsLargeOuterProduct(t *testing.T) {
	// A(a,k) B(b,k) C(k): merging A and B first builds an a*b*k group.
	a := axis.MustNew("a", 10)
	b := axis.MustNew("b", 10)
	k := axis.MustNew("K", 5)
	prob := Problem{Inputs: [][]*axis.Axis{{a, k}, {b, k}, {k}}, Eliminate: ax{k}}

	path, err := Optimal{}.Optimize(context.Background(), prob)
	require.NoError(t, err)
	c, err := Evaluate(prob, path)
	require.NoError(t, err)
	assert.Equal(t, 500, c.Peak)

	bad, err := Evaluate(prob, Path{{0, 1}, {0, 1}})
	require.NoError(t, err)
	assert.False(t, bad.less(c))
}

func TestAutoAndByName(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(3))
	prob := randomProblem(rng, 8)

	auto := NewAuto(WithOptimalLimit(3))
	got, err := auto.Optimize(ctx, prob)
	require.NoError(t, err)
	want, err := Greedy{}.Optimize(ctx, prob)
	require.NoError(t, err)
	assert.Equal(t, want, got, "above the limit Auto is greedy")

	for _, name := range []string{"auto", "greedy", "optimal", ""} {
		_, ok := ByName(name)
		assert.True(t, ok, name)
	}
	_, ok := ByName("simulated-annealing")
	assert.False(t, ok)
}

func TestSignatureIgnoresIdentity(t *testing.T) {
	p1, _, _, _ := chain()
	p2, _, _, _ := chain()

	s1, err := Signature(p1)
	require.NoError(t, err)
	s2, err := Signature(p2)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
	assert.Len(t, s1, 64)

	// eliminate order does not matter
	p2.Eliminate = ax{p2.Eliminate[1], p2.Eliminate[0]}
	s3, err := Signature(p2)
	require.NoError(t, err)
	assert.Equal(t, s1, s3)

	// sizes do
	k := axis.MustNew("K", 9)
	p3 := Problem{Inputs: [][]*axis.Axis{{k}}, Eliminate: ax{k}}
	s4, err := Signature(p3)
	require.NoError(t, err)
	assert.NotEqual(t, s1, s4)
}

func TestCachedReusesPathAcrossFreshAxes(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	opt := NewCached(NewAuto(), cache)

	p1, _, _, _ := chain()
	path1, err := opt.Optimize(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cache.Hits())
	assert.Equal(t, int64(1), cache.Misses())

	p2, _, _, _ := chain()
	path2, err := opt.Optimize(ctx, p2)
	require.NoError(t, err)
	assert.Equal(t, path1, path2)
	assert.Equal(t, int64(1), cache.Hits())
}

func TestCachedReplacesInvalidEntry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	prob, _, _, _ := chain()
	sig, err := Signature(prob)
	require.NoError(t, err)
	key := PlanKey{Signature: sig, Optimizer: "greedy"}
	require.NoError(t, cache.SavePath(ctx, key, Path{{0, 9}}))

	path, err := NewCached(Greedy{}, cache).Optimize(ctx, prob)
	require.NoError(t, err)
	_, err = Annotate(prob, path)
	require.NoError(t, err)

	stored, ok, err := cache.LoadPath(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, path, stored)
}

func TestCachedKeepsOptimizersApart(t *testing.T) {
	ctx := context.Background()

	// find an instance where the exhaustive search beats greedy
	var prob Problem
	var greedyCost, optimalCost Cost
	found := false
	for seed := int64(1); seed <= 50 && !found; seed++ {
		prob = randomProblem(rand.New(rand.NewSource(seed)), 6)
		g, err := Greedy{}.Optimize(ctx, prob)
		require.NoError(t, err)
		o, err := Optimal{}.Optimize(ctx, prob)
		require.NoError(t, err)
		greedyCost, err = Evaluate(prob, g)
		require.NoError(t, err)
		optimalCost, err = Evaluate(prob, o)
		require.NoError(t, err)
		found = optimalCost.less(greedyCost)
	}
	require.True(t, found, "no instance separates greedy from optimal")

	cache := NewMemoryCache()
	gp, err := NewCached(Greedy{}, cache).Optimize(ctx, prob)
	require.NoError(t, err)
	op, err := NewCached(Optimal{}, cache).Optimize(ctx, prob)
	require.NoError(t, err)

	gc, err := Evaluate(prob, gp)
	require.NoError(t, err)
	oc, err := Evaluate(prob, op)
	require.NoError(t, err)
	assert.Equal(t, greedyCost, gc)
	assert.Equal(t, optimalCost, oc, "optimal must not be served the greedy path")
	assert.Equal(t, int64(0), cache.Hits())
	assert.Equal(t, int64(2), cache.Misses())

	// each optimizer still hits its own entry
	again, err := NewCached(Optimal{}, cache).Optimize(ctx, prob)
	require.NoError(t, err)
	assert.Equal(t, op, again)
	assert.Equal(t, int64(1), cache.Hits())
}

func TestNames(t *testing.T) {
	assert.Equal(t, "greedy", Greedy{}.Name())
	assert.Equal(t, "optimal", Optimal{}.Name())
	assert.Equal(t, "auto", NewAuto().Name())
	assert.Equal(t, "auto(3)", NewAuto(WithOptimalLimit(3)).Name())
	assert.Equal(t, "optimal", NewCached(Optimal{}, NewMemoryCache()).Name())

	for _, name := range []string{"auto", "greedy", "optimal"} {
		opt, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, opt.Name())
	}
}

func TestOptimizersStopOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	prob := randomProblem(rand.New(rand.NewSource(5)), 5)

	for _, opt := range []Optimizer{Greedy{}, Optimal{}, NewAuto()} {
		_, err := opt.Optimize(ctx, prob)
		assert.ErrorIs(t, err, context.Canceled, opt.Name())
	}
	_, err := Plan(ctx, Optimal{}, prob)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlan(t *testing.T) {
	prob, p, _, _ := chain()
	steps, err := Plan(context.Background(), Greedy{}, prob)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, ax{p}, steps[len(steps)-1].Result)
}

// randomProblem builds n tensors over a shared plate and a handful of
// elimination axes, each tensor carrying a random subset.
func randomProblem(rng *rand.Rand, n int) Problem {
	p := axis.MustNew("p", 2)
	ks := make([]*axis.Axis, n)
	for i := range ks {
		ks[i] = axis.MustNew("K", 2+rng.Intn(4))
	}
	inputs := make([][]*axis.Axis, n)
	for i := range inputs {
		in := []*axis.Axis{p, ks[i]}
		for j := range ks {
			if j != i && rng.Intn(3) == 0 {
				in = append(in, ks[j])
			}
		}
		inputs[i] = in
	}
	return Problem{Inputs: inputs, Eliminate: ks}
}
