package harness

import (
	"fmt"

	"github.com/roach88/alan/internal/axis"
	"github.com/roach88/alan/internal/lp"
	"github.com/roach88/alan/internal/tensor"
	"github.com/roach88/alan/internal/testutil"
)

// defaultFillScale bounds generated log-probabilities to [-2, 0].
const defaultFillScale = 2

// newAxes creates one axis per name, in sorted name order so axis IDs are
// reproducible.
func newAxes(sizes map[string]int) (map[string]*axis.Axis, error) {
	out := make(map[string]*axis.Axis, len(sizes))
	for _, name := range sortedNames(sizes) {
		a, err := axis.New(name, sizes[name])
		if err != nil {
			return nil, fmt.Errorf("axis %s: %w", name, err)
		}
		out[name] = a
	}
	return out, nil
}

// buildNode turns a NodeSpec into an lp.Node. Axis references were checked
// by validateScenario.
func buildNode(spec NodeSpec, axes map[string]*axis.Axis) (*lp.Node, error) {
	plates := make([]*axis.Axis, len(spec.Plates))
	for i, p := range spec.Plates {
		plates[i] = axes[p]
	}

	entries := make(map[string]lp.Entry, len(spec.Entries))
	ks := make(map[string]*axis.Axis)
	for _, name := range sortedNames(spec.Entries) {
		e := spec.Entries[name]
		if e.IsNode() {
			sub, err := buildNode(e.Node(), axes)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			entries[name] = lp.NodeEntry(sub)
			continue
		}

		t, err := buildTensor(e, axes)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		entries[name] = lp.TensorEntry(t)
		if e.K != "" {
			ks[name] = axes[e.K]
		}
	}
	return lp.NewNode(entries, plates, ks)
}

func buildTensor(e EntrySpec, axes map[string]*axis.Axis) (*tensor.Tensor, error) {
	as := make([]*axis.Axis, len(e.Axes))
	for i, name := range e.Axes {
		as[i] = axes[name]
	}
	if e.Fill != nil {
		scale := e.Fill.Scale
		if scale == 0 {
			scale = defaultFillScale
		}
		return testutil.Fill(e.Fill.Seed, scale, as...)
	}
	return tensor.New(as, e.Values)
}
