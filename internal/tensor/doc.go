// Package tensor is a small dense float64 runtime whose axes are identified
// by *axis.Axis identity rather than position.
//
// A Tensor stores its values in row-major order of its own axis list, but
// that order is an implementation detail: every operation aligns operands by
// axis identity, broadcasting over axes an operand does not carry. The value
// at an axis assignment is independent of any positional ordering.
//
// All operations return new tensors; none mutates its inputs.
package tensor
