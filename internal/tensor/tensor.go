package tensor

import (
	"fmt"
	"strings"

	"github.com/roach88/alan/internal/axis"
	"github.com/roach88/alan/internal/fault"
)

// Tensor is an immutable dense array over a set of named axes.
type Tensor struct {
	axes    []*axis.Axis
	strides []int
	data    []float64
}

// New creates a tensor over axes from values in row-major order of axes.
// The data slice is copied.
func New(axes []*axis.Axis, data []float64) (*Tensor, error) {
	if err := checkAxes(axes); err != nil {
		return nil, err
	}
	if n := axis.Volume(axes); len(data) != n {
		return nil, fault.NewShapeError("tensor over %v needs %d values, got %d", axes, n, len(data))
	}
	return build(append([]*axis.Axis(nil), axes...), append([]float64(nil), data...)), nil
}

// MustNew is like New but panics on error.
// Use only in tests or with literal data.
func MustNew(axes []*axis.Axis, data []float64) *Tensor {
	t, err := New(axes, data)
	if err != nil {
		panic(err)
	}
	return t
}

// Scalar creates a rank-0 tensor.
func Scalar(v float64) *Tensor {
	return build(nil, []float64{v})
}

// Full creates a tensor over axes with every value set to v.
func Full(axes []*axis.Axis, v float64) (*Tensor, error) {
	if err := checkAxes(axes); err != nil {
		return nil, err
	}
	data := make([]float64, axis.Volume(axes))
	for i := range data {
		data[i] = v
	}
	return build(append([]*axis.Axis(nil), axes...), data), nil
}

// FromFunc creates a tensor over axes by evaluating f at every position.
// The idx slice passed to f is aligned with axes and must not be retained.
func FromFunc(axes []*axis.Axis, f func(idx []int) float64) (*Tensor, error) {
	if err := checkAxes(axes); err != nil {
		return nil, err
	}
	shape := shapeOf(axes)
	data := make([]float64, axis.Volume(axes))
	idx := make([]int, len(axes))
	for n := range data {
		data[n] = f(idx)
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return build(append([]*axis.Axis(nil), axes...), data), nil
}

// build wraps already-validated axes and owned data.
func build(axes []*axis.Axis, data []float64) *Tensor {
	strides := make([]int, len(axes))
	s := 1
	for i := len(axes) - 1; i >= 0; i-- {
		strides[i] = s
		s *= axes[i].Size()
	}
	return &Tensor{axes: axes, strides: strides, data: data}
}

func checkAxes(axes []*axis.Axis) error {
	for i, a := range axes {
		if a == nil {
			return fault.NewShapeError("axis %d is nil", i)
		}
	}
	if dups := axis.Duplicates(axes); len(dups) > 0 {
		return fault.NewShapeError("axis %s appears more than once", dups[0])
	}
	return nil
}

// Axes returns the axes carried by the tensor.
func (t *Tensor) Axes() []*axis.Axis {
	return append([]*axis.Axis(nil), t.axes...)
}

// Has reports whether the tensor carries a.
func (t *Tensor) Has(a *axis.Axis) bool {
	return axis.Contains(t.axes, a)
}

// Rank returns the number of axes.
func (t *Tensor) Rank() int { return len(t.axes) }

// Len returns the number of stored values.
func (t *Tensor) Len() int { return len(t.data) }

// Data returns a copy of the values in row-major order of Axes().
func (t *Tensor) Data() []float64 {
	return append([]float64(nil), t.data...)
}

// Item returns the value of a rank-0 tensor.
func (t *Tensor) Item() (float64, error) {
	if len(t.axes) != 0 {
		return 0, fault.NewShapeError("Item on tensor with axes %v", t.axes)
	}
	return t.data[0], nil
}

// At returns the value at an axis assignment. Every axis of the tensor must
// be assigned; assignments to axes the tensor does not carry are ignored.
func (t *Tensor) At(assign map[*axis.Axis]int) (float64, error) {
	off := 0
	for i, a := range t.axes {
		p, ok := assign[a]
		if !ok {
			return 0, fault.NewShapeError("no position given for axis %s", a)
		}
		if p < 0 || p >= a.Size() {
			return 0, fault.NewShapeError("position %d out of range for axis %s", p, a)
		}
		off += p * t.strides[i]
	}
	return t.data[off], nil
}

// String formats the tensor for debugging.
func (t *Tensor) String() string {
	labels := make([]string, len(t.axes))
	for i, a := range t.axes {
		labels[i] = a.String()
	}
	return fmt.Sprintf("Tensor[%s]%v", strings.Join(labels, ","), t.data)
}

func shapeOf(axes []*axis.Axis) []int {
	shape := make([]int, len(axes))
	for i, a := range axes {
		shape[i] = a.Size()
	}
	return shape
}

// stridesFor returns t's strides aligned to out, with 0 for axes t lacks.
func stridesFor(t *Tensor, out []*axis.Axis) []int {
	s := make([]int, len(out))
	for i, a := range out {
		for j, b := range t.axes {
			if a == b {
				s[i] = t.strides[j]
				break
			}
		}
	}
	return s
}

// walk visits every multi-index of shape in row-major order and calls fn
// with one flat offset per operand, computed from that operand's strides.
func walk(shape []int, strides [][]int, fn func(offs []int)) {
	total := 1
	for _, n := range shape {
		total *= n
	}
	offs := make([]int, len(strides))
	idx := make([]int, len(shape))
	for n := 0; n < total; n++ {
		fn(offs)
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			for k := range offs {
				offs[k] += strides[k][d]
			}
			if idx[d] < shape[d] {
				break
			}
			for k := range offs {
				offs[k] -= strides[k][d] * shape[d]
			}
			idx[d] = 0
		}
	}
}
