package align

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gaze/internal/geom"
	"github.com/banshee-data/gaze/internal/monitoring"
)

// References are the two size-reference segments of one coordinate space.
// They are only used for scale estimation, never for transform fitting.
type References struct {
	Horizontal geom.Segment
	Vertical   geom.Segment
}

// Aligner maps points between live space and model space.
type Aligner struct {
	scale     float64
	transform *mat.Dense // 3x4, live -> scaled model
	inverse   *mat.Dense // 4x4 inverse of the homogeneous extension
	inliers   []int
	rmse      float64

	err    error // non-nil when alignment failed
	invErr error // non-nil when the transform could not be inverted
}

// ScaleFactor returns the uniform ratio that rescales model-space distances to
// live-space distances: the mean of the horizontal and vertical length ratios.
func ScaleFactor(live, model References) (float64, error) {
	lengths := [4]float64{
		live.Horizontal.Length(),
		live.Vertical.Length(),
		model.Horizontal.Length(),
		model.Vertical.Length(),
	}
	names := [4]string{"live horizontal", "live vertical", "model horizontal", "model vertical"}
	for i, l := range lengths {
		if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
			return 0, fmt.Errorf("%w: %s length is %v", ErrDegenerateReference, names[i], l)
		}
	}

	scaleWidth := lengths[0] / lengths[2]
	scaleHeight := lengths[1] / lengths[3]
	return (scaleWidth + scaleHeight) / 2, nil
}

// New builds an Aligner from paired live/model correspondences.
//
// The returned error is reserved for caller mistakes: a degenerate reference
// segment or correspondence sets of different length. When the robust fit
// itself fails the Aligner is still returned, Ok reports false and every
// mapping method returns an error wrapping ErrAlignmentFailed.
func New(live, model geom.PointSet, liveRef, modelRef References, cfg Config) (*Aligner, error) {
	if len(live) != len(model) {
		return nil, fmt.Errorf("%w: live=%d model=%d", ErrCorrespondenceMismatch, len(live), len(model))
	}

	scale, err := ScaleFactor(liveRef, modelRef)
	if err != nil {
		return nil, err
	}

	a := &Aligner{scale: scale}
	cfg = cfg.withDefaults()

	// Non-finite landmarks are not valid correspondences.
	src := make(geom.PointSet, 0, len(live))
	dst := make(geom.PointSet, 0, len(model))
	index := make([]int, 0, len(live))
	for i := range live {
		if !geom.IsFinite(live[i]) || !geom.IsFinite(model[i]) {
			continue
		}
		src = append(src, live[i])
		dst = append(dst, r3.Scale(scale, model[i]))
		index = append(index, i)
	}

	fit, err := estimateAffine(src, dst, cfg)
	if err != nil {
		a.err = fmt.Errorf("%w: %w", ErrAlignmentFailed, err)
		monitoring.Diagf("alignment failed: %v", err)
		return a, nil
	}

	a.transform = fit.m
	a.inliers = make([]int, len(fit.inliers))
	for i, idx := range fit.inliers {
		a.inliers[i] = index[idx]
	}
	if len(fit.inliers) > 0 {
		a.rmse = math.Sqrt(fit.sse / float64(len(fit.inliers)))
	}

	a.inverse, a.invErr = invertHomogeneous(fit.m)
	if a.invErr != nil {
		monitoring.Opsf("aligned transform is not invertible: %v", a.invErr)
	}

	monitoring.Tracef("aligned %d/%d correspondences scale=%.5f rmse=%.3g",
		len(a.inliers), len(live), scale, a.rmse)
	return a, nil
}

// invertHomogeneous inverts [m; 0 0 0 1].
func invertHomogeneous(m *mat.Dense) (*mat.Dense, error) {
	full := mat.NewDense(4, 4, nil)
	full.Slice(0, 3, 0, 4).(*mat.Dense).Copy(m)
	full.Set(3, 3, 1)

	var inv mat.Dense
	if err := inv.Inverse(full); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalInconsistency, err)
	}
	return &inv, nil
}

// Ok reports whether the alignment succeeded.
func (a *Aligner) Ok() bool {
	return a.err == nil
}

// Err returns the alignment failure, or nil.
func (a *Aligner) Err() error {
	return a.err
}

// ScaleFactor returns the scale computed at construction.
func (a *Aligner) ScaleFactor() float64 {
	return a.scale
}

// Transform returns a copy of the 3x4 live-to-scaled-model transform, or nil
// if alignment failed.
func (a *Aligner) Transform() *mat.Dense {
	if a.transform == nil {
		return nil
	}
	return mat.DenseCopyOf(a.transform)
}

// Inliers returns the indices (into the construction sets) of the
// correspondences that supported the final transform.
func (a *Aligner) Inliers() []int {
	out := make([]int, len(a.inliers))
	copy(out, a.inliers)
	return out
}

// RMSE returns the root-mean-square residual over the inliers, measured in
// scaled model space.
func (a *Aligner) RMSE() float64 {
	return a.rmse
}

// ToModel maps a live-space point into model space: the point is lifted to
// homogeneous coordinates, transformed, and divided by the scale factor.
func (a *Aligner) ToModel(p geom.Point3) (geom.Point3, error) {
	if a.err != nil {
		return geom.Point3{}, a.err
	}
	return r3.Scale(1/a.scale, applyAffine(a.transform, p)), nil
}

// ToLive maps a model-space point into live space: the point is scaled,
// lifted, multiplied by the inverse homogeneous transform and de-homogenized.
func (a *Aligner) ToLive(q geom.Point3) (geom.Point3, error) {
	if a.err != nil {
		return geom.Point3{}, a.err
	}
	if a.invErr != nil {
		return geom.Point3{}, a.invErr
	}

	s := r3.Scale(a.scale, q)
	h := mat.NewVecDense(4, []float64{s.X, s.Y, s.Z, 1})
	var out mat.VecDense
	out.MulVec(a.inverse, h)

	w := out.AtVec(3)
	if w == 0 {
		return geom.Point3{}, fmt.Errorf("%w: homogeneous weight is zero", ErrInternalInconsistency)
	}
	return geom.Point3{X: out.AtVec(0) / w, Y: out.AtVec(1) / w, Z: out.AtVec(2) / w}, nil
}

// ToModelAll maps every point of ps, failing on the first error.
func (a *Aligner) ToModelAll(ps geom.PointSet) (geom.PointSet, error) {
	if a.err != nil {
		return nil, a.err
	}
	out := make(geom.PointSet, len(ps))
	for i, p := range ps {
		q, err := a.ToModel(p)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}
