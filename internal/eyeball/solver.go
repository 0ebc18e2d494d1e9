package eyeball

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/banshee-data/gaze/internal/geom"
	"github.com/banshee-data/gaze/internal/monitoring"
)

// boundEdge keeps the seed radius strictly inside the bounds so its
// unconstrained image stays finite.
const boundEdge = 1e-6

// radiusMap maps an unconstrained parameter u onto the open radius interval:
// r = mid + half*tanh(u).
type radiusMap struct {
	mid, half float64
}

func newRadiusMap(b Bounds) radiusMap {
	return radiusMap{mid: (b.Min + b.Max) / 2, half: (b.Max - b.Min) / 2}
}

func (m radiusMap) radius(u float64) float64 {
	return m.mid + m.half*math.Tanh(u)
}

// drdu is the derivative of radius with respect to u.
func (m radiusMap) drdu(u float64) float64 {
	t := math.Tanh(u)
	return m.half * (1 - t*t)
}

func (m radiusMap) param(r float64) float64 {
	x := (r - m.mid) / m.half
	x = math.Max(x, -1+boundEdge)
	x = math.Min(x, 1-boundEdge)
	return math.Atanh(x)
}

// sphereCost is the sum of squared radial residuals of a point cloud against
// a sphere parameterized as [cx cy cz u].
type sphereCost struct {
	points geom.PointSet
	rmap   radiusMap
	resid  []float64
	dist   []float64
}

func newSphereCost(points geom.PointSet, rmap radiusMap) *sphereCost {
	return &sphereCost{
		points: points,
		rmap:   rmap,
		resid:  make([]float64, len(points)),
		dist:   make([]float64, len(points)),
	}
}

func (c *sphereCost) residuals(x []float64) {
	center := geom.Point3{X: x[0], Y: x[1], Z: x[2]}
	r := c.rmap.radius(x[3])
	for i, p := range c.points {
		c.dist[i] = geom.Distance(p, center)
		c.resid[i] = c.dist[i] - r
	}
}

func (c *sphereCost) Func(x []float64) float64 {
	c.residuals(x)
	return floats.Dot(c.resid, c.resid)
}

func (c *sphereCost) Grad(grad, x []float64) {
	c.residuals(x)
	for i := range grad {
		grad[i] = 0
	}
	var sumResid float64
	for i, p := range c.points {
		sumResid += c.resid[i]
		d := c.dist[i]
		if d == 0 {
			continue
		}
		k := 2 * c.resid[i] / d
		grad[0] += k * (x[0] - p.X)
		grad[1] += k * (x[1] - p.Y)
		grad[2] += k * (x[2] - p.Z)
	}
	grad[3] = -2 * sumResid * c.rmap.drdu(x[3])
}

// fitSphere minimizes the radial residuals of points over the center and a
// bounded radius, starting from seed. The returned Sphere carries
// confidence = 1/(1+RSS).
func fitSphere(points geom.PointSet, seed Sphere, bounds Bounds, maxIter int) (Sphere, error) {
	if len(points) == 0 {
		return Sphere{}, ErrNoPoints
	}
	if !geom.IsFinite(seed.Center) || math.IsNaN(seed.Radius) || math.IsInf(seed.Radius, 0) {
		return Sphere{}, fmt.Errorf("%w: seed %v r=%v", ErrFitNonFinite, seed.Center, seed.Radius)
	}

	rmap := newRadiusMap(bounds)
	cost := newSphereCost(points, rmap)
	problem := optimize.Problem{
		Func: cost.Func,
		Grad: cost.Grad,
	}
	x0 := []float64{seed.Center.X, seed.Center.Y, seed.Center.Z, rmap.param(seed.Radius)}

	settings := &optimize.Settings{
		GradientThreshold: 1e-14,
		MajorIterations:   maxIter,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-18,
			Relative:   1e-12,
			Iterations: 20,
		},
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.BFGS{})
	if result == nil {
		if err == nil {
			return Sphere{}, ErrFitFailed
		}
		return Sphere{}, fmt.Errorf("%w: %v", ErrFitFailed, err)
	}
	if err != nil {
		// An iteration or evaluation limit still leaves a usable best point.
		monitoring.Diagf("sphere fit stopped early: status=%v err=%v", result.Status, err)
	}

	x := result.X
	s := Sphere{
		Center: geom.Point3{X: x[0], Y: x[1], Z: x[2]},
		Radius: rmap.radius(x[3]),
	}
	rss := result.F
	if !geom.IsFinite(s.Center) || math.IsNaN(s.Radius) || math.IsNaN(rss) || math.IsInf(rss, 0) {
		return Sphere{}, fmt.Errorf("%w: center=%v r=%v rss=%v", ErrFitNonFinite, s.Center, s.Radius, rss)
	}
	if !bounds.Contains(s.Radius) {
		return Sphere{}, fmt.Errorf("%w: r=%v bounds=[%v, %v]", ErrFitOutOfBounds, s.Radius, bounds.Min, bounds.Max)
	}
	s.Confidence = 1 / (1 + rss)
	return s, nil
}
