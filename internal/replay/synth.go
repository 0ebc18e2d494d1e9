package replay

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gaze/internal/facemodel"
	"github.com/banshee-data/gaze/internal/gaze"
	"github.com/banshee-data/gaze/internal/geom"
)

// Angular offsets of the synthetic iris and eyelid rings from the gaze axis.
const (
	irisAngle   = 0.2
	eyelidAngle = 0.55
)

// Pose places model-space points into landmark space:
// live = R(k*p) + Translation, with R = roll·pitch·yaw.
type Pose struct {
	Scale       float64
	Yaw         float64 // about Y, radians
	Pitch       float64 // about X, radians
	Roll        float64 // about Z, radians
	Translation geom.Point3
}

// Rotate applies the pose rotation only.
func (p Pose) Rotate(v geom.Point3) geom.Point3 {
	v = r3.NewRotation(p.Yaw, r3.Vec{Y: 1}).Rotate(v)
	v = r3.NewRotation(p.Pitch, r3.Vec{X: 1}).Rotate(v)
	return r3.NewRotation(p.Roll, r3.Vec{Z: 1}).Rotate(v)
}

// Apply maps a model-space point into landmark space.
func (p Pose) Apply(v geom.Point3) geom.Point3 {
	return r3.Add(p.Rotate(r3.Scale(p.Scale, v)), p.Translation)
}

// SynthConfig describes a synthetic recording.
type SynthConfig struct {
	Frames        int
	Start         time.Time
	Interval      time.Duration
	Pose          Pose
	HeadSway      float64 // yaw oscillation amplitude, radians
	GazeAmplitude float64 // gaze oscillation amplitude, radians
	Noise         float64 // landmark noise stddev in landmark units
	Seed          uint64

	Model   facemodel.Model
	Indices facemodel.Indices
}

// DefaultSynthConfig returns a ~10 second, ~30 fps recording of a head
// roughly centred in normalized image coordinates.
func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		Frames:   300,
		Start:    time.UnixMilli(1_700_000_000_000),
		Interval: 33 * time.Millisecond,
		Pose: Pose{
			Scale:       2.5,
			Yaw:         0.15,
			Pitch:       -0.1,
			Roll:        0.05,
			Translation: geom.Point3{X: 0.5, Y: 0.5, Z: 0},
		},
		HeadSway:      0.05,
		GazeAmplitude: 0.4,
		Seed:          1,
		Model:         facemodel.Canonical(),
		Indices:       facemodel.MediaPipe(),
	}
}

// Truth is the ground truth of one synthetic frame, in landmark space.
type Truth struct {
	LeftCenter  geom.Point3
	RightCenter geom.Point3
	Gaze        geom.Point3 // unit gaze direction shared by both eyes
}

// Recording is a synthesized frame sequence with its ground truth.
type Recording struct {
	Frames []gaze.Frame
	Truth  []Truth
}

// Synthesize renders cfg.Frames frames of a head whose eyes sweep across a
// range of gaze directions. Iris, pupil and eyelid landmarks lie on the
// model eyeballs; base landmarks follow the face model exactly.
// The output is deterministic for a given Seed.
func Synthesize(cfg SynthConfig) Recording {
	rng := rand.New(rand.NewPCG(cfg.Seed, 0x6a7e))
	ix := cfg.Indices
	m := cfg.Model
	n := ix.MaxIndex() + 1

	rec := Recording{
		Frames: make([]gaze.Frame, cfg.Frames),
		Truth:  make([]Truth, cfg.Frames),
	}
	for i := 0; i < cfg.Frames; i++ {
		phase := float64(i) / 30
		pose := cfg.Pose
		pose.Yaw += cfg.HeadSway * math.Sin(2*math.Pi*phase/4)

		dir := gazeDirection(cfg.GazeAmplitude*math.Sin(2*math.Pi*phase/2.3),
			0.6*cfg.GazeAmplitude*math.Sin(2*math.Pi*phase/1.7+0.5))

		// Landmarks the pipeline never reads stay at the model origin.
		model := make(geom.PointSet, n)
		base := m.BasePoints()
		for j, idx := range ix.Base() {
			model[idx] = base[j]
		}
		placeEye(model, m.LeftEyeCenter, m.EyeRadius, dir, ix.LeftPupil, ix.LeftIris, ix.LeftEyelid)
		placeEye(model, m.RightEyeCenter, m.EyeRadius, dir, ix.RightPupil, ix.RightIris, ix.RightEyelid)

		lm := make(geom.PointSet, n)
		for j, p := range model {
			lm[j] = pose.Apply(p)
			if cfg.Noise > 0 {
				lm[j] = r3.Add(lm[j], geom.Point3{
					X: rng.NormFloat64() * cfg.Noise,
					Y: rng.NormFloat64() * cfg.Noise,
					Z: rng.NormFloat64() * cfg.Noise,
				})
			}
		}

		rec.Frames[i] = gaze.Frame{
			Timestamp: cfg.Start.Add(time.Duration(i) * cfg.Interval),
			Landmarks: lm,
		}
		rec.Truth[i] = Truth{
			LeftCenter:  pose.Apply(m.LeftEyeCenter),
			RightCenter: pose.Apply(m.RightEyeCenter),
			Gaze:        r3.Unit(pose.Rotate(dir)),
		}
	}
	return rec
}

// gazeDirection returns the model-space unit vector looking toward the
// camera (-Z), turned by yaw and pitch.
func gazeDirection(yaw, pitch float64) geom.Point3 {
	d := geom.Point3{Z: -1}
	d = r3.NewRotation(yaw, r3.Vec{Y: 1}).Rotate(d)
	return r3.NewRotation(pitch, r3.Vec{X: 1}).Rotate(d)
}

// placeEye writes the pupil, iris ring and eyelid ring of one eye.
func placeEye(out geom.PointSet, center geom.Point3, radius float64, dir geom.Point3,
	pupil int, iris, eyelid []int) {
	u := r3.Unit(r3.Cross(dir, geom.Point3{Y: 1}))
	v := r3.Cross(u, dir)

	onSphere := func(angle, azimuth float64) geom.Point3 {
		ring := r3.Add(r3.Scale(math.Cos(azimuth), u), r3.Scale(math.Sin(azimuth), v))
		d := r3.Add(r3.Scale(math.Cos(angle), dir), r3.Scale(math.Sin(angle), ring))
		return r3.Add(center, r3.Scale(radius, d))
	}

	out[pupil] = onSphere(0, 0)
	for k, idx := range iris {
		out[idx] = onSphere(irisAngle, 2*math.Pi*float64(k)/float64(len(iris)))
	}
	// Upper lid first, then lower lid.
	upper := len(eyelid) / 2
	for k, idx := range eyelid {
		var az float64
		if k < upper {
			az = math.Pi/3 + math.Pi/3*float64(k)/math.Max(float64(upper-1), 1)
		} else {
			lower := len(eyelid) - upper
			az = 5*math.Pi/4 + math.Pi/2*float64(k-upper)/math.Max(float64(lower-1), 1)
		}
		out[idx] = onSphere(eyelidAngle, az)
	}
}
