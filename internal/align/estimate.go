package align

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gaze/internal/geom"
)

// affineFit is a candidate model with its consensus set.
type affineFit struct {
	m       *mat.Dense // 3x4
	inliers []int
	sse     float64 // sum of squared residuals over inliers
}

// estimateAffine robustly fits a 3x4 affine transform mapping src onto dst.
func estimateAffine(src, dst geom.PointSet, cfg Config) (affineFit, error) {
	n := len(src)
	if n < MinCorrespondences {
		return affineFit{}, fmt.Errorf("%w: got %d, need %d", ErrInsufficientCorrespondences, n, MinCorrespondences)
	}

	var best affineFit
	found := false

	if n == MinCorrespondences {
		m, err := fitAffine(src, dst, cfg.MaxConditionNumber)
		if err != nil {
			return affineFit{}, err
		}
		best = score(m, src, dst, cfg.InlierThreshold)
		found = true
	} else {
		rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(n)))
		sampleSrc := make(geom.PointSet, MinCorrespondences)
		sampleDst := make(geom.PointSet, MinCorrespondences)

		iterations := cfg.MaxIterations
		for iter := 0; iter < iterations; iter++ {
			for i, idx := range rng.Perm(n)[:MinCorrespondences] {
				sampleSrc[i] = src[idx]
				sampleDst[i] = dst[idx]
			}

			m, err := fitAffine(sampleSrc, sampleDst, cfg.MaxConditionNumber)
			if err != nil {
				continue
			}

			cand := score(m, src, dst, cfg.InlierThreshold)
			if !found || better(cand, best) {
				best = cand
				found = true
				outlierRatio := 1 - float64(len(best.inliers))/float64(n)
				iterations = updateIterations(cfg.Confidence, outlierRatio, MinCorrespondences, iterations)
			}
		}
	}

	if !found || len(best.inliers) < MinCorrespondences {
		return affineFit{}, fmt.Errorf("%w: no consensus among %d correspondences", ErrDegenerateCorrespondences, n)
	}

	// Refit on the full consensus set; keep the sample model if the inliers
	// alone are degenerate.
	inSrc := make(geom.PointSet, len(best.inliers))
	inDst := make(geom.PointSet, len(best.inliers))
	for i, idx := range best.inliers {
		inSrc[i] = src[idx]
		inDst[i] = dst[idx]
	}
	if m, err := fitAffine(inSrc, inDst, cfg.MaxConditionNumber); err == nil {
		refit := score(m, src, dst, cfg.InlierThreshold)
		if len(refit.inliers) >= len(best.inliers) {
			best = refit
		}
	}

	return best, nil
}

// fitAffine solves the least-squares affine map for at least four pairs.
// Each output coordinate is an independent linear regression on [x y z 1],
// so one QR factorization of the design matrix serves all three.
func fitAffine(src, dst geom.PointSet, maxCond float64) (*mat.Dense, error) {
	n := len(src)
	if n < MinCorrespondences || len(dst) != n {
		return nil, fmt.Errorf("%w: got %d pairs", ErrInsufficientCorrespondences, n)
	}

	a := mat.NewDense(n, 4, nil)
	b := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		a.SetRow(i, []float64{src[i].X, src[i].Y, src[i].Z, 1})
		b.SetRow(i, []float64{dst[i].X, dst[i].Y, dst[i].Z})
	}

	var qr mat.QR
	qr.Factorize(a)
	if c := qr.Cond(); math.IsNaN(c) || c > maxCond {
		return nil, fmt.Errorf("%w: condition number %.3g", ErrDegenerateCorrespondences, c)
	}

	var x mat.Dense // 4x3
	if err := qr.SolveTo(&x, false, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateCorrespondences, err)
	}

	m := mat.NewDense(3, 4, nil)
	m.Copy(x.T())
	return m, nil
}

// score counts the correspondences whose residual under m is within threshold.
func score(m *mat.Dense, src, dst geom.PointSet, threshold float64) affineFit {
	fit := affineFit{m: m}
	for i := range src {
		d := r3.Norm(r3.Sub(applyAffine(m, src[i]), dst[i]))
		if d <= threshold {
			fit.inliers = append(fit.inliers, i)
			fit.sse += d * d
		}
	}
	return fit
}

func better(cand, best affineFit) bool {
	if len(cand.inliers) != len(best.inliers) {
		return len(cand.inliers) > len(best.inliers)
	}
	return cand.sse < best.sse
}

// updateIterations shrinks the iteration budget once the observed outlier
// ratio makes an all-inlier sample likely enough.
func updateIterations(confidence, outlierRatio float64, sampleSize, current int) int {
	outlierRatio = math.Max(outlierRatio, 0)
	outlierRatio = math.Min(outlierRatio, 1)

	num := math.Log(1 - confidence)
	denom := 1 - math.Pow(1-outlierRatio, float64(sampleSize))
	if denom < math.SmallestNonzeroFloat64 {
		return 0
	}
	denom = math.Log(denom)
	if denom >= 0 || -num >= float64(current)*(-denom) {
		return current
	}
	return int(math.Round(num / denom))
}

// applyAffine computes m·[p 1].
func applyAffine(m *mat.Dense, p geom.Point3) geom.Point3 {
	return geom.Point3{
		X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)*p.Z + m.At(0, 3),
		Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)*p.Z + m.At(1, 3),
		Z: m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)*p.Z + m.At(2, 3),
	}
}
