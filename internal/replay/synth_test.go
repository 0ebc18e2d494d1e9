package replay

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gaze/internal/geom"
)

func TestPoseApply(t *testing.T) {
	t.Parallel()
	p := Pose{Scale: 2, Translation: geom.Point3{X: 1, Y: 2, Z: 3}}
	assert.Equal(t, geom.Point3{X: 3, Y: 2, Z: 3}, p.Apply(geom.Point3{X: 1}))

	// Rotations preserve length.
	p = Pose{Scale: 1, Yaw: 0.4, Pitch: -0.3, Roll: 0.2}
	v := geom.Point3{X: 0.3, Y: -0.2, Z: 0.5}
	assert.InDelta(t, r3.Norm(v), r3.Norm(p.Apply(v)), 1e-12)
}

func TestSynthesizeShape(t *testing.T) {
	t.Parallel()
	cfg := DefaultSynthConfig()
	cfg.Frames = 10
	rec := Synthesize(cfg)

	require.Len(t, rec.Frames, 10)
	require.Len(t, rec.Truth, 10)
	for i, f := range rec.Frames {
		assert.Len(t, f.Landmarks, cfg.Indices.MaxIndex()+1)
		assert.Equal(t, cfg.Start.Add(time.Duration(i)*cfg.Interval), f.Timestamp)
		assert.InDelta(t, 1, r3.Norm(rec.Truth[i].Gaze), 1e-12)
	}
}

func TestSynthesizeEyeLandmarksLieOnEyeball(t *testing.T) {
	t.Parallel()
	cfg := DefaultSynthConfig()
	cfg.Frames = 5
	rec := Synthesize(cfg)
	liveRadius := cfg.Pose.Scale * cfg.Model.EyeRadius

	for i, f := range rec.Frames {
		truth := rec.Truth[i]
		for _, idx := range append(cfg.Indices.LeftEye(), cfg.Indices.LeftPupil) {
			assert.InDelta(t, liveRadius, geom.Distance(f.Landmarks[idx], truth.LeftCenter), 1e-12)
		}
		for _, idx := range append(cfg.Indices.RightEye(), cfg.Indices.RightPupil) {
			assert.InDelta(t, liveRadius, geom.Distance(f.Landmarks[idx], truth.RightCenter), 1e-12)
		}

		// The pupil sits on the gaze axis.
		pupil := r3.Unit(r3.Sub(f.Landmarks[cfg.Indices.LeftPupil], truth.LeftCenter))
		assert.InDelta(t, 1, r3.Dot(pupil, truth.Gaze), 1e-12)
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	t.Parallel()
	cfg := DefaultSynthConfig()
	cfg.Frames = 4
	cfg.Noise = 0.002

	a := Synthesize(cfg)
	b := Synthesize(cfg)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed differs (-a +b):\n%s", diff)
	}

	cfg.Seed = 2
	c := Synthesize(cfg)
	assert.NotEmpty(t, cmp.Diff(a.Frames, c.Frames))
	// Ground truth does not depend on the noise.
	if diff := cmp.Diff(a.Truth, c.Truth, cmpopts.EquateApprox(0, 1e-15)); diff != "" {
		t.Errorf("truth depends on seed:\n%s", diff)
	}
}
