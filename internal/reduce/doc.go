// Package reduce eliminates elimination axes from a set of log-probability
// tensors in the log domain.
//
// A Reducer asks its planner.Optimizer for a contraction order and executes
// it step by step: each step adds its operand tensors elementwise and takes
// a numerically stable log-sum-exp over the axes that have become consumable.
// The step's intermediate replaces its operands in the working list until a
// single tensor remains.
//
// Every step runs inside a Region, a recompute boundary. Under the default
// Recompute policy a Region keeps only the references to its inputs; the
// combined pre-elimination tensor is regenerated when the reverse pass
// (Trace.Backward) needs it. Under Retain it is kept after the forward pass
// along with the step output. Inputs are referenced under both policies, and
// since later steps consume earlier outputs, every intermediate of the path
// stays alive until the Trace is dropped. Recompute saves the combined
// tensors, which are the largest values a step produces.
package reduce
