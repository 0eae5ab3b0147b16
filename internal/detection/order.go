package detection

import "sort"

// DefaultRowTolerance is the height of a reading-order row band in pixels.
const DefaultRowTolerance = 50

// SortKey returns the reading-order key of r in a grid of the given width:
// the row band of its top edge, then its left edge.
func SortKey(r Region, width, tolerance int) int {
	if tolerance <= 0 {
		tolerance = DefaultRowTolerance
	}
	o := r.Origin()
	return (o.Y/tolerance)*tolerance*width + o.X
}

// Order returns the regions sorted into reading order. The input slice is
// not modified.
//
// Regions with equal keys are ordered by top edge, then by comparing their
// boundaries, so any permutation of the same regions sorts identically.
func Order(regions []Region, width, tolerance int) []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ka, kb := SortKey(a, width, tolerance), SortKey(b, width, tolerance)
		if ka != kb {
			return ka < kb
		}
		if a.Bounds.Min.Y != b.Bounds.Min.Y {
			return a.Bounds.Min.Y < b.Bounds.Min.Y
		}
		return compareBoundary(a, b) < 0
	})
	return out
}

func compareBoundary(a, b Region) int {
	n := len(a.Boundary)
	if len(b.Boundary) < n {
		n = len(b.Boundary)
	}
	for i := 0; i < n; i++ {
		p, q := a.Boundary[i], b.Boundary[i]
		if p.Y != q.Y {
			return p.Y - q.Y
		}
		if p.X != q.X {
			return p.X - q.X
		}
	}
	return len(a.Boundary) - len(b.Boundary)
}
