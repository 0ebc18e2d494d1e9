package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point3 is a 3D coordinate.
type Point3 = r3.Vec

// PointSet is an ordered sequence of points. For correspondence sets the
// position encodes pairing; for histories it is oldest-first.
type PointSet []Point3

// Segment is a pair of landmarks whose length is used as a size reference.
type Segment struct {
	A, B Point3
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return Distance(s.A, s.B)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point3) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// IsFinite reports whether every coordinate of p is a finite number.
func IsFinite(p Point3) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0)
}

// Clone returns an independent copy of the set.
func (s PointSet) Clone() PointSet {
	if s == nil {
		return nil
	}
	out := make(PointSet, len(s))
	copy(out, s)
	return out
}

// Scaled returns a new set with every point multiplied by k.
func (s PointSet) Scaled(k float64) PointSet {
	out := make(PointSet, len(s))
	for i, p := range s {
		out[i] = r3.Scale(k, p)
	}
	return out
}

// Centroid returns the mean point of the set, or the zero point when empty.
func (s PointSet) Centroid() Point3 {
	if len(s) == 0 {
		return Point3{}
	}
	var sum Point3
	for _, p := range s {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(s)), sum)
}

// Select returns the points at the given indices, in index order.
// It reports false if any index is out of range.
func (s PointSet) Select(indices []int) (PointSet, bool) {
	out := make(PointSet, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(s) {
			return nil, false
		}
		out[i] = s[idx]
	}
	return out, true
}
