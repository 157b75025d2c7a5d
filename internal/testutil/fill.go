package testutil

import (
	"math"

	"github.com/roach88/alan/internal/axis"
	"github.com/roach88/alan/internal/tensor"
)

// Fill returns a tensor over axes with deterministic, non-positive values
// in [-scale, 0], a stand-in for log-probabilities. The value at position
// idx is
//
//	-scale * |sin(seed + sum_i (i+1)*(idx[i]+1)*0.37)|
//
// so every axis, and the axis order, influences the result.
func Fill(seed, scale float64, axes ...*axis.Axis) (*tensor.Tensor, error) {
	return tensor.FromFunc(axes, func(idx []int) float64 {
		s := seed
		for i, v := range idx {
			s += float64((i+1)*(v+1)) * 0.37
		}
		return -scale * math.Abs(math.Sin(s))
	})
}
