// Package lp holds realized log-probabilities in a tree that mirrors the
// plate nesting of a model, and the algebra that turns a target tree and a
// proposal tree into a single log-evidence estimate.
//
// A Node records the plate axes in scope (outermost first), the elimination
// axis owned by each latent entry, and its entries. Each entry is either a
// tensor (one variable's log-probability) or a nested Node for a sub-plate.
//
// All operations return new trees and never modify the receiver:
//   - Difference subtracts a proposal tree from a target tree entry by entry.
//   - Normalize subtracts log K from each entry, turning sums over importance
//     samples into averages.
//   - Reduce collapses the tree bottom-up: sub-plates first, then a joint
//     log-sum-exp over every elimination axis of the node, then a plain sum
//     over the innermost plate axis.
//
// A tree lives for one evaluation pass and is never persisted.
package lp
