package axis

import "slices"

// Contains reports whether axes holds a (by identity).
func Contains(axes []*Axis, a *Axis) bool {
	return slices.Contains(axes, a)
}

// Union returns the axes of all lists in order of first appearance.
func Union(lists ...[]*Axis) []*Axis {
	seen := make(map[*Axis]struct{})
	var out []*Axis
	for _, l := range lists {
		for _, a := range l {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

// Difference returns the axes of a that are not in b, preserving order.
func Difference(a, b []*Axis) []*Axis {
	var out []*Axis
	for _, x := range a {
		if !Contains(b, x) {
			out = append(out, x)
		}
	}
	return out
}

// Intersect returns the axes of a that are also in b, preserving order.
func Intersect(a, b []*Axis) []*Axis {
	var out []*Axis
	for _, x := range a {
		if Contains(b, x) {
			out = append(out, x)
		}
	}
	return out
}

// Duplicates returns every axis that appears more than once in axes,
// each reported once, in order of second appearance.
func Duplicates(axes []*Axis) []*Axis {
	seen := make(map[*Axis]int, len(axes))
	var dups []*Axis
	for _, a := range axes {
		seen[a]++
		if seen[a] == 2 {
			dups = append(dups, a)
		}
	}
	return dups
}

// Volume returns the product of the sizes of axes. The empty product is 1.
func Volume(axes []*Axis) int {
	n := 1
	for _, a := range axes {
		n *= a.size
	}
	return n
}

// SameSequence reports whether a and b hold the same axes in the same order.
func SameSequence(a, b []*Axis) bool {
	return slices.Equal(a, b)
}

// SortByID sorts axes in place by identity token.
func SortByID(axes []*Axis) {
	slices.SortFunc(axes, func(x, y *Axis) int {
		switch {
		case x.id < y.id:
			return -1
		case x.id > y.id:
			return 1
		}
		return 0
	})
}
