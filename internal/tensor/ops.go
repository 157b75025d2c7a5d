package tensor

import (
	"math"

	"github.com/roach88/alan/internal/axis"
	"github.com/roach88/alan/internal/fault"
)

// zipWith applies f elementwise across operands broadcast over the union of
// their axes. The vals slice passed to f is reused between calls.
func zipWith(ts []*Tensor, f func(vals []float64) float64) *Tensor {
	lists := make([][]*axis.Axis, len(ts))
	for i, t := range ts {
		lists[i] = t.axes
	}
	out := axis.Union(lists...)

	strides := make([][]int, len(ts))
	for i, t := range ts {
		strides[i] = stridesFor(t, out)
	}

	data := make([]float64, axis.Volume(out))
	vals := make([]float64, len(ts))
	n := 0
	walk(shapeOf(out), strides, func(offs []int) {
		for k, t := range ts {
			vals[k] = t.data[offs[k]]
		}
		data[n] = f(vals)
		n++
	})
	return build(out, data)
}

// Add returns the elementwise sum of ts. The sum of no tensors is Scalar(0).
func Add(ts ...*Tensor) *Tensor {
	if len(ts) == 0 {
		return Scalar(0)
	}
	return zipWith(ts, func(vals []float64) float64 {
		s := 0.0
		for _, v := range vals {
			s += v
		}
		return s
	})
}

// Sub returns a - b.
func Sub(a, b *Tensor) *Tensor {
	return zipWith([]*Tensor{a, b}, func(vals []float64) float64 {
		return vals[0] - vals[1]
	})
}

// Mul returns the elementwise product of a and b.
func Mul(a, b *Tensor) *Tensor {
	return zipWith([]*Tensor{a, b}, func(vals []float64) float64 {
		return vals[0] * vals[1]
	})
}

// Map applies f to every value.
func Map(t *Tensor, f func(float64) float64) *Tensor {
	data := make([]float64, len(t.data))
	for i, v := range t.data {
		data[i] = f(v)
	}
	return build(t.axes, data)
}

// AddScalar returns t + c.
func AddScalar(t *Tensor, c float64) *Tensor {
	return Map(t, func(v float64) float64 { return v + c })
}

// Scale returns t * c.
func Scale(t *Tensor, c float64) *Tensor {
	return Map(t, func(v float64) float64 { return v * c })
}

// Exp returns exp(t).
func Exp(t *Tensor) *Tensor {
	return Map(t, math.Exp)
}

// split partitions the requested axes into those t carries and those it
// does not, and returns the axes of t that survive the reduction.
func split(t *Tensor, axes []*axis.Axis) (keep, present, missing []*axis.Axis) {
	req := axis.Union(axes)
	present = axis.Intersect(req, t.axes)
	missing = axis.Difference(req, t.axes)
	keep = axis.Difference(t.axes, req)
	return keep, present, missing
}

// reduceStrides maps each axis of t onto the output offset of keep.
func reduceStrides(t *Tensor, keep []*axis.Axis) []int {
	out := build(keep, nil)
	s := make([]int, len(t.axes))
	for i, a := range t.axes {
		for j, b := range keep {
			if a == b {
				s[i] = out.strides[j]
				break
			}
		}
	}
	return s
}

// Sum sums t over axes. An axis t does not carry is treated as one along
// which t is constant, so summing over it multiplies by its size.
func Sum(t *Tensor, axes ...*axis.Axis) *Tensor {
	keep, present, missing := split(t, axes)

	data := make([]float64, axis.Volume(keep))
	if len(present) == 0 {
		copy(data, t.data)
	} else {
		n := 0
		walk(shapeOf(t.axes), [][]int{reduceStrides(t, keep)}, func(offs []int) {
			data[offs[0]] += t.data[n]
			n++
		})
	}

	if factor := axis.Volume(missing); factor != 1 {
		for i := range data {
			data[i] *= float64(factor)
		}
	}
	return build(keep, data)
}

// LogSumExp computes log(sum(exp(t))) over axes, shifting by the per-slice
// maximum so large magnitudes neither overflow nor underflow. Axes t does
// not carry are ignored.
func LogSumExp(t *Tensor, axes ...*axis.Axis) *Tensor {
	keep, present, _ := split(t, axes)
	if len(present) == 0 {
		return build(keep, append([]float64(nil), t.data...))
	}

	size := axis.Volume(keep)
	strides := [][]int{reduceStrides(t, keep)}
	shape := shapeOf(t.axes)

	maxes := make([]float64, size)
	for i := range maxes {
		maxes[i] = math.Inf(-1)
	}
	n := 0
	walk(shape, strides, func(offs []int) {
		if v := t.data[n]; v > maxes[offs[0]] || math.IsNaN(v) {
			maxes[offs[0]] = v
		}
		n++
	})

	sums := make([]float64, size)
	n = 0
	walk(shape, strides, func(offs []int) {
		m := maxes[offs[0]]
		if !math.IsInf(m, 0) {
			sums[offs[0]] += math.Exp(t.data[n] - m)
		}
		n++
	})

	data := make([]float64, size)
	for i, m := range maxes {
		if math.IsInf(m, 0) || math.IsNaN(m) {
			data[i] = m
			continue
		}
		data[i] = m + math.Log(sums[i])
	}
	return build(keep, data)
}

// Expand returns t laid out over exactly axes, broadcasting along axes t
// does not carry. Every axis of t must appear in axes.
func Expand(t *Tensor, axes []*axis.Axis) (*Tensor, error) {
	if err := checkAxes(axes); err != nil {
		return nil, err
	}
	if extra := axis.Difference(t.axes, axes); len(extra) > 0 {
		return nil, fault.NewShapeError("cannot expand tensor over %v onto %v: %s would be dropped", t.axes, axes, extra[0])
	}
	data := make([]float64, axis.Volume(axes))
	n := 0
	walk(shapeOf(axes), [][]int{stridesFor(t, axes)}, func(offs []int) {
		data[n] = t.data[offs[0]]
		n++
	})
	return build(axes, data), nil
}

// Align returns t with its axes stored in the given order. axes must hold
// exactly the axes of t.
func Align(t *Tensor, axes []*axis.Axis) (*Tensor, error) {
	if len(axes) != len(t.axes) || len(axis.Intersect(axes, t.axes)) != len(t.axes) {
		return nil, fault.NewShapeError("cannot align tensor over %v to %v", t.axes, axes)
	}
	return Expand(t, axes)
}

// SumTo reduces t onto exactly the axes of target: axes t carries that are
// not in target are summed out and target axes t lacks are broadcast. The
// result is stored in target order.
func SumTo(t *Tensor, target []*axis.Axis) (*Tensor, error) {
	s := Sum(t, axis.Difference(t.axes, target)...)
	return Expand(s, target)
}

// AllClose reports whether a and b carry the same axes and agree at every
// position to within atol. Equal infinities compare equal.
func AllClose(a, b *Tensor, atol float64) bool {
	if len(a.axes) != len(b.axes) || len(axis.Intersect(a.axes, b.axes)) != len(a.axes) {
		return false
	}
	bb, err := Align(b, a.axes)
	if err != nil {
		return false
	}
	for i, x := range a.data {
		y := bb.data[i]
		if x == y {
			continue
		}
		if math.IsNaN(x) || math.IsNaN(y) || math.Abs(x-y) > atol {
			return false
		}
	}
	return true
}
