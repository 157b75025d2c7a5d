package reduce

import (
	"github.com/roach88/alan/internal/fault"
	"github.com/roach88/alan/internal/planner"
	"github.com/roach88/alan/internal/tensor"
)

// source identifies where a working tensor came from: an input position or
// the output of a region. Exactly one of the two is non-negative.
type source struct {
	input  int
	region int
}

// Trace records one Reduce call for the reverse pass.
type Trace struct {
	inputs   []*tensor.Tensor
	steps    []planner.Step
	regions  []*Region
	operands [][]source
	result   *tensor.Tensor
}

// Steps returns the annotated steps that were executed.
func (tr *Trace) Steps() []planner.Step {
	return append([]planner.Step(nil), tr.steps...)
}

// Replays returns how many times regions regenerated their step from
// inputs during reverse passes.
func (tr *Trace) Replays() int {
	n := 0
	for _, r := range tr.regions {
		n += r.replays
	}
	return n
}

// RetainedElements returns the number of values regions hold beyond the
// references to their inputs. It is zero under Recompute. Intermediates
// consumed by later steps are inputs and are counted by
// IntermediateElements instead.
func (tr *Trace) RetainedElements() int {
	n := 0
	for _, r := range tr.regions {
		n += r.retained()
	}
	return n
}

// IntermediateElements returns the number of values in step outputs that
// later steps hold as inputs. Both policies keep them for the lifetime of
// the Trace.
func (tr *Trace) IntermediateElements() int {
	n := 0
	for i, srcs := range tr.operands {
		for j, src := range srcs {
			if src.region >= 0 {
				n += tr.regions[i].inputs[j].Len()
			}
		}
	}
	return n
}

// Backward propagates grad, the gradient with respect to the reduced
// result, back to every input tensor. grad may omit result axes along which
// it is constant. The returned gradients are aligned with each input.
func (tr *Trace) Backward(grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(tr.regions) == 0 {
		return nil, fault.NewInvariantError("trace has no reduction steps")
	}
	g, err := tensor.Expand(grad, tr.result.Axes())
	if err != nil {
		return nil, err
	}

	regionGrads := make([]*tensor.Tensor, len(tr.regions))
	inputGrads := make([]*tensor.Tensor, len(tr.inputs))
	regionGrads[len(tr.regions)-1] = g

	accumulate := func(src source, g *tensor.Tensor) {
		slot := &inputGrads
		idx := src.input
		if src.region >= 0 {
			slot, idx = &regionGrads, src.region
		}
		if (*slot)[idx] == nil {
			(*slot)[idx] = g
			return
		}
		(*slot)[idx] = tensor.Add((*slot)[idx], g)
	}

	for i := len(tr.regions) - 1; i >= 0; i-- {
		rg := regionGrads[i]
		if rg == nil {
			return nil, fault.NewInvariantError("region %d output is never consumed", i)
		}
		gs, err := tr.regions[i].backward(rg)
		if err != nil {
			return nil, err
		}
		for j, src := range tr.operands[i] {
			accumulate(src, gs[j])
		}
	}

	for i, in := range tr.inputs {
		if inputGrads[i] == nil {
			z, err := tensor.Full(in.Axes(), 0)
			if err != nil {
				return nil, err
			}
			inputGrads[i] = z
			continue
		}
		a, err := tensor.Align(inputGrads[i], in.Axes())
		if err != nil {
			return nil, err
		}
		inputGrads[i] = a
	}
	return inputGrads, nil
}
