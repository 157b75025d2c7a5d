package reduce

import (
	"math"

	"github.com/roach88/alan/internal/axis"
	"github.com/roach88/alan/internal/tensor"
)

// Region is the recompute boundary around one reduction step.
type Region struct {
	inputs    []*tensor.Tensor
	eliminate []*axis.Axis
	policy    Policy

	// combined and output are only held under Retain.
	combined *tensor.Tensor
	output   *tensor.Tensor

	replays int
}

func newRegion(inputs []*tensor.Tensor, eliminate []*axis.Axis, policy Policy) *Region {
	return &Region{inputs: inputs, eliminate: eliminate, policy: policy}
}

// compute runs the step from its inputs.
func (r *Region) compute() (combined, output *tensor.Tensor) {
	combined = tensor.Add(r.inputs...)
	return combined, tensor.LogSumExp(combined, r.eliminate...)
}

// forward runs the step and returns its output. Under Recompute only the
// input references survive the call; those may be outputs of earlier steps.
func (r *Region) forward() *tensor.Tensor {
	combined, out := r.compute()
	if r.policy == Retain {
		r.combined, r.output = combined, out
	}
	return out
}

// replay returns the combined tensor and output, regenerating them from the
// inputs unless they were retained.
func (r *Region) replay() (combined, output *tensor.Tensor) {
	if r.combined != nil {
		return r.combined, r.output
	}
	r.replays++
	return r.compute()
}

// backward maps the gradient of the step output onto each input. The
// gradient of a log-sum-exp is the softmax of the combined tensor over the
// eliminated axes; summing it onto an input's axes undoes broadcasting.
func (r *Region) backward(grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	combined, out := r.replay()

	weights := tensor.Map(tensor.Sub(combined, out), func(v float64) float64 {
		if math.IsNaN(v) {
			return 0
		}
		return math.Exp(v)
	})
	scaled := tensor.Mul(weights, grad)

	grads := make([]*tensor.Tensor, len(r.inputs))
	for i, in := range r.inputs {
		g, err := tensor.SumTo(scaled, in.Axes())
		if err != nil {
			return nil, err
		}
		grads[i] = g
	}
	return grads, nil
}

// retained returns the number of values held beyond the input references.
func (r *Region) retained() int {
	n := 0
	if r.combined != nil {
		n += r.combined.Len()
	}
	if r.output != nil {
		n += r.output.Len()
	}
	return n
}
