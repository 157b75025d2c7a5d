// Package harness runs evaluation scenarios described in YAML.
//
// A scenario declares named axes, a target log-probability tree and
// optionally a proposal tree, each leaf given as literal values or a
// deterministic fill. Run builds the trees, optionally checks a CUE model
// pair for structural congruence first, evaluates them, and returns a
// Result holding the value, every contraction plan the reducer asked for,
// and the outcome of the scenario's assertions:
//
//	name: single_plate
//	description: one plate, one latent, one observed variable
//	axes: {plate_1: 2, K_z: 3}
//	target:
//	  entries:
//	    plate_1:
//	      plates: [plate_1]
//	      entries:
//	        z: {axes: [plate_1, K_z], k: K_z, values: [-1.0, -2.0, -0.5, -1.5, -0.3, -2.2]}
//	        x: {axes: [plate_1, K_z], values: [-0.7, -1.1, -0.2, -0.9, -1.4, -0.6]}
//	assertions:
//	  - {type: value, value: -1.4185058480555919, tolerance: 1e-6}
//
// With a proposal the value is the log-evidence estimate (lp.Evidence);
// without one it is the reduction of the target alone.
//
// Runs are deterministic: the default run ID is fixed, plans are numbered
// in call order, and sibling sub-trees are reduced one at a time
// unless WithParallelism says otherwise. RunWithGolden snapshots a Result
// under testdata/golden.
package harness
