package planner

import (
	"github.com/roach88/alan/internal/axis"
	"github.com/roach88/alan/internal/fault"
)

// Problem is the axis incidence of a reduction.
type Problem struct {
	// Inputs holds the axes carried by each input tensor.
	Inputs [][]*axis.Axis

	// Eliminate holds the axes to sum out. Each must be distinct.
	Eliminate []*axis.Axis
}

// Validate checks that the problem is well formed.
func (p Problem) Validate() error {
	if len(p.Inputs) == 0 {
		return fault.NewInvariantError("no input tensors to reduce")
	}
	for _, a := range p.Eliminate {
		if a == nil {
			return fault.NewInvariantError("nil elimination axis requested")
		}
	}
	if dups := axis.Duplicates(p.Eliminate); len(dups) > 0 {
		return fault.NewInvariantError("elimination axis %s requested more than once", dups[0])
	}
	for i, in := range p.Inputs {
		if dups := axis.Duplicates(in); len(dups) > 0 {
			return fault.NewInvariantError("input %d references axis %s more than once", i, dups[0])
		}
	}
	return nil
}

// Path is a contraction order. Each step lists positions in the current
// working list; those operands are removed and their combination appended.
type Path [][]int

// Step is one annotated elimination step.
type Step struct {
	// Operands are positions in the working list before the step.
	Operands []int

	// Eliminate are the elimination axes consumed at this step.
	Eliminate []*axis.Axis

	// Result are the axes of the intermediate produced by the step.
	Result []*axis.Axis
}

// Cost summarizes the intermediates a path produces.
type Cost struct {
	// Peak is the element count of the largest combined operand group,
	// measured before its consumable axes are eliminated.
	Peak int

	// Total is the summed element count of all combined operand groups.
	Total int
}

// less orders costs by peak, then total.
func (c Cost) less(o Cost) bool {
	if c.Peak != o.Peak {
		return c.Peak < o.Peak
	}
	return c.Total < o.Total
}

// combine returns the consumable axes and result axes of merging group
// while others stay in the working list.
func combine(group, others [][]*axis.Axis, eliminate []*axis.Axis) (consumed, result []*axis.Axis) {
	carried := axis.Union(group...)
	stillNeeded := axis.Union(others...)
	for _, k := range eliminate {
		if axis.Contains(carried, k) && !axis.Contains(stillNeeded, k) {
			consumed = append(consumed, k)
		}
	}
	return consumed, axis.Difference(carried, consumed)
}

// Annotate replays path over p, validating every step and computing the
// consumable and result axes. Exactly one tensor must remain at the end.
func Annotate(p Problem, path Path) ([]Step, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	working := append([][]*axis.Axis(nil), p.Inputs...)
	steps := make([]Step, 0, len(path))
	for n, ops := range path {
		if len(ops) == 0 {
			return nil, fault.NewInvariantError("step %d has no operands", n)
		}
		picked := make(map[int]bool, len(ops))
		for _, i := range ops {
			if i < 0 || i >= len(working) {
				return nil, fault.NewInvariantError("step %d: operand %d out of range (%d tensors)", n, i, len(working))
			}
			if picked[i] {
				return nil, fault.NewInvariantError("step %d: operand %d repeated", n, i)
			}
			picked[i] = true
		}

		var group, rest [][]*axis.Axis
		for i, w := range working {
			if picked[i] {
				group = append(group, w)
			} else {
				rest = append(rest, w)
			}
		}
		consumed, result := combine(group, rest, p.Eliminate)
		steps = append(steps, Step{
			Operands:  append([]int(nil), ops...),
			Eliminate: consumed,
			Result:    result,
		})
		working = append(rest, result)
	}

	if len(working) != 1 {
		return nil, fault.NewInvariantError("path leaves %d tensors, want 1", len(working))
	}
	return steps, nil
}

// Evaluate returns the cost of path over p.
func Evaluate(p Problem, path Path) (Cost, error) {
	steps, err := Annotate(p, path)
	if err != nil {
		return Cost{}, err
	}
	var c Cost
	for _, s := range steps {
		v := axis.Volume(s.Result) * axis.Volume(s.Eliminate)
		c.Total += v
		if v > c.Peak {
			c.Peak = v
		}
	}
	return c, nil
}
