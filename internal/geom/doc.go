// Package geom holds the point types shared by the aligner and the eyeball
// estimator.
//
// Point3 is gonum's r3.Vec, so vector arithmetic comes from
// gonum.org/v1/gonum/spatial/r3. No unit is enforced: a point is only
// meaningful relative to the coordinate space it was produced in.
package geom
