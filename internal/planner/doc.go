// Package planner computes contraction orders for eliminating axes from a
// collection of axis-tagged tensors.
//
// The planner is purely combinatorial over axis incidence: it never touches
// numeric data. A Problem lists, for each input tensor, the axes it carries,
// and the elimination axes to sum out. An Optimizer returns a Path, the
// ordered sequence of operand groups to combine. Each step removes its
// operands from the working list and appends the combined intermediate at
// the end, so later steps may refer to earlier intermediates.
//
// An elimination axis is consumable at a step once every tensor carrying it
// is part of that step's group. Annotate turns a Path into Steps carrying
// the consumable axes and the axes of each intermediate.
//
// Optimizers:
//   - Greedy picks the locally cheapest pair at every step.
//   - Optimal searches all pairwise orders with branch-and-bound,
//     minimizing the largest intermediate, then the summed intermediate size.
//   - Auto uses Optimal for small inputs and Greedy otherwise.
//   - Cached memoizes any optimizer by the problem's incidence Signature
//     and the optimizer's Name.
package planner
