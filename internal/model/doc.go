// Package model describes the shape of a generative model as the structural
// checker sees it: which names a plate holds, whether each name is a single
// distribution, a group of jointly drawn variables, or a nested plate, and
// the support of every distribution.
//
// Descriptors carry no numeric content. They are compiled from CUE files:
//
//	target: plate: {
//		mu: dist: {family: "Normal", support: "real"}
//		obs_plate: plate: {
//			z: dist: {family: "Categorical", support: "integer_interval(0,3)"}
//			x: dist: {family: "Normal", support: "real"}
//		}
//	}
//	proposal: plate: { ... }
//	data: {
//		obs_plate: {x: [0.1, 0.4]}
//	}
//
// Entry names are NFC-normalized at construction, so names that differ only
// in Unicode composition compare equal.
package model
