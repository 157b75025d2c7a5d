// Package store provides SQLite-backed persistence for contraction plans
// and evaluation runs.
//
// Plans are keyed by planner.PlanKey: the problem Signature, which depends
// only on axis sizes and on which tensor carries which axis, and the name of
// the optimizer. A model whose structure does not change between evaluations
// therefore plans once per optimizer and reuses the stored path in every
// later run, across processes. PlanStore implements planner.PathCache.
//
// Runs record the value of each evaluation together with its run ID, a
// UUIDv7, so a run can be matched with the plans it wrote and with its log
// lines.
//
// Ordering uses the seq column, never wall time. The schema version lives in
// PRAGMA user_version; Open upgrades older databases in place.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
