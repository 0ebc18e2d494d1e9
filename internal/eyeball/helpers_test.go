package eyeball

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gaze/internal/geom"
)

// spherePoints spreads n points evenly over a sphere (Fibonacci lattice) and
// perturbs each radially by Gaussian noise of the given stddev.
func spherePoints(center geom.Point3, radius float64, n int, noise float64, seed uint64) geom.PointSet {
	rng := rand.New(rand.NewPCG(seed, 7))
	golden := math.Pi * (3 - math.Sqrt(5))
	out := make(geom.PointSet, n)
	for i := 0; i < n; i++ {
		y := 1 - 2*(float64(i)+0.5)/float64(n)
		ring := math.Sqrt(1 - y*y)
		phi := golden * float64(i)
		dir := geom.Point3{X: ring * math.Cos(phi), Y: y, Z: ring * math.Sin(phi)}
		r := radius
		if noise > 0 {
			r += rng.NormFloat64() * noise
		}
		out[i] = r3.Add(center, r3.Scale(r, dir))
	}
	return out
}

func testConfig(threshold, size int) Config {
	cfg := DefaultConfig(geom.Point3{})
	cfg.PointsThreshold = threshold
	cfg.PointsHistorySize = size
	return cfg
}
