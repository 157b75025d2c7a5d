// Package axis provides identity-based tensor axes.
//
// Two axes are the same axis only if they are the same *Axis value. Labels
// and sizes are descriptive; they never take part in equality. Every axis
// also carries a process-unique ID, handed out by a monotonic counter, used
// wherever a stable ordering or a printable identity is needed.
//
// Axes play one of two roles:
//   - plate axes index repeated structural draws (one per data group)
//   - elimination axes ("K-axes") index importance-sample replicates of a
//     single latent variable
//
// The role is decided by the container holding the axis, not by its type.
package axis
