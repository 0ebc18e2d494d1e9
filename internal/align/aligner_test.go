package align

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gaze/internal/facemodel"
	"github.com/banshee-data/gaze/internal/geom"
)

// headPose places the canonical model into a synthetic live space:
// live = R·(k·model) + t.
type headPose struct {
	k          float64
	yaw, pitch float64
	t          geom.Point3
}

func (h headPose) apply(p geom.Point3) geom.Point3 {
	p = r3.Scale(h.k, p)
	cy, sy := math.Cos(h.yaw), math.Sin(h.yaw)
	p = geom.Point3{X: cy*p.X + sy*p.Z, Y: p.Y, Z: -sy*p.X + cy*p.Z}
	cp, sp := math.Cos(h.pitch), math.Sin(h.pitch)
	p = geom.Point3{X: p.X, Y: cp*p.Y - sp*p.Z, Z: sp*p.Y + cp*p.Z}
	return r3.Add(p, h.t)
}

func (h headPose) applyAll(ps geom.PointSet) geom.PointSet {
	out := make(geom.PointSet, len(ps))
	for i, p := range ps {
		out[i] = h.apply(p)
	}
	return out
}

func (h headPose) refs(m facemodel.Model) References {
	return References{
		Horizontal: geom.Segment{A: h.apply(m.OuterHeadPoints[0]), B: h.apply(m.OuterHeadPoints[1])},
		Vertical:   geom.Segment{A: h.apply(m.NoseBridge), B: h.apply(m.NoseTip)},
	}
}

func modelRefs(m facemodel.Model) References {
	return References{Horizontal: m.Horizontal(), Vertical: m.Vertical()}
}

var testPose = headPose{k: 2.5, yaw: 0.35, pitch: -0.15, t: geom.Point3{X: 0.5, Y: 0.45, Z: -0.05}}

func newTestAligner(t *testing.T, pose headPose) *Aligner {
	t.Helper()
	m := facemodel.Canonical()
	a, err := New(pose.applyAll(m.BasePoints()), m.BasePoints(), pose.refs(m), modelRefs(m), DefaultConfig())
	require.NoError(t, err)
	require.True(t, a.Ok(), "alignment failed: %v", a.Err())
	return a
}

func assertPointNear(t *testing.T, want, got geom.Point3, tol float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, "x")
	assert.InDelta(t, want.Y, got.Y, tol, "y")
	assert.InDelta(t, want.Z, got.Z, tol, "z")
}

func TestScaleFactor(t *testing.T) {
	t.Parallel()
	m := facemodel.Canonical()

	s, err := ScaleFactor(modelRefs(m), modelRefs(m))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-12)

	s, err = ScaleFactor(testPose.refs(m), modelRefs(m))
	require.NoError(t, err)
	assert.InDelta(t, testPose.k, s, 1e-9)
}

func TestScaleFactorIsProportionalToLiveSize(t *testing.T) {
	t.Parallel()
	m := facemodel.Canonical()
	base, err := ScaleFactor(testPose.refs(m), modelRefs(m))
	require.NoError(t, err)

	for _, k := range []float64{0.25, 0.5, 2, 7.5} {
		pose := testPose
		pose.k = testPose.k * k
		s, err := ScaleFactor(pose.refs(m), modelRefs(m))
		require.NoError(t, err)
		assert.InDelta(t, base*k, s, 1e-9, "k=%v", k)
	}
}

func TestScaleFactorDegenerate(t *testing.T) {
	t.Parallel()
	m := facemodel.Canonical()
	zero := References{
		Horizontal: geom.Segment{A: m.NoseTip, B: m.NoseTip},
		Vertical:   m.Vertical(),
	}

	_, err := ScaleFactor(modelRefs(m), zero)
	assert.ErrorIs(t, err, ErrDegenerateReference)

	_, err = ScaleFactor(zero, modelRefs(m))
	assert.ErrorIs(t, err, ErrDegenerateReference)

	nan := modelRefs(m)
	nan.Vertical.A.X = math.NaN()
	_, err = ScaleFactor(nan, modelRefs(m))
	assert.ErrorIs(t, err, ErrDegenerateReference)

	_, err = New(m.BasePoints(), m.BasePoints(), modelRefs(m), zero, DefaultConfig())
	assert.ErrorIs(t, err, ErrDegenerateReference)
}

func TestNewCorrespondenceMismatch(t *testing.T) {
	t.Parallel()
	m := facemodel.Canonical()
	_, err := New(m.BasePoints()[:5], m.BasePoints(), modelRefs(m), modelRefs(m), DefaultConfig())
	assert.ErrorIs(t, err, ErrCorrespondenceMismatch)
}

func TestToModelRecoversModelPoints(t *testing.T) {
	t.Parallel()
	m := facemodel.Canonical()
	a := newTestAligner(t, testPose)

	assert.InDelta(t, testPose.k, a.ScaleFactor(), 1e-9)
	assert.Len(t, a.Inliers(), 8)
	assert.Less(t, a.RMSE(), 1e-9)

	for _, p := range m.BasePoints() {
		got, err := a.ToModel(testPose.apply(p))
		require.NoError(t, err)
		assertPointNear(t, p, got, 1e-9)
	}

	// Points off the correspondence set follow the same rigid motion.
	got, err := a.ToModel(testPose.apply(m.LeftEyeCenter))
	require.NoError(t, err)
	assertPointNear(t, m.LeftEyeCenter, got, 1e-9)
}

func TestToLiveMapsModelIntoLiveSpace(t *testing.T) {
	t.Parallel()
	m := facemodel.Canonical()
	a := newTestAligner(t, testPose)

	got, err := a.ToLive(m.RightEyeCenter)
	require.NoError(t, err)
	assertPointNear(t, testPose.apply(m.RightEyeCenter), got, 1e-9)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	a := newTestAligner(t, testPose)

	for _, p := range []geom.Point3{
		{X: 0, Y: 0, Z: 0},
		{X: 0.41, Y: 0.52, Z: -0.03},
		{X: -3, Y: 12, Z: 7},
		{X: 0.5, Y: 0.5, Z: 0.5},
	} {
		q, err := a.ToModel(p)
		require.NoError(t, err)
		back, err := a.ToLive(q)
		require.NoError(t, err)
		assertPointNear(t, p, back, 1e-9)
	}
}

func TestAlignmentFailsWithFewerThanFourCorrespondences(t *testing.T) {
	t.Parallel()
	m := facemodel.Canonical()
	live := testPose.applyAll(m.BasePoints())[:3]

	a, err := New(live, m.BasePoints()[:3], testPose.refs(m), modelRefs(m), DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.False(t, a.Ok())
	assert.ErrorIs(t, a.Err(), ErrAlignmentFailed)
	assert.ErrorIs(t, a.Err(), ErrInsufficientCorrespondences)
	assert.Nil(t, a.Transform())

	for _, p := range []geom.Point3{{}, {X: 0.5, Y: 0.5}, m.NoseTip} {
		_, err := a.ToModel(p)
		assert.ErrorIs(t, err, ErrAlignmentFailed)
		_, err = a.ToLive(p)
		assert.ErrorIs(t, err, ErrAlignmentFailed)
	}

	_, err = a.ToModelAll(geom.PointSet{{}})
	assert.ErrorIs(t, err, ErrAlignmentFailed)
}

func TestNonFiniteLandmarksAreNotCorrespondences(t *testing.T) {
	t.Parallel()
	m := facemodel.Canonical()

	live := testPose.applyAll(m.BasePoints())
	live[3] = geom.Point3{X: math.NaN()}
	a, err := New(live, m.BasePoints(), testPose.refs(m), modelRefs(m), DefaultConfig())
	require.NoError(t, err)
	require.True(t, a.Ok())
	assert.NotContains(t, a.Inliers(), 3)

	for i := 0; i < 5; i++ {
		live[i] = geom.Point3{Y: math.Inf(1)}
	}
	a, err = New(live, m.BasePoints(), testPose.refs(m), modelRefs(m), DefaultConfig())
	require.NoError(t, err)
	assert.False(t, a.Ok())
}

func TestCoplanarCorrespondencesAreDegenerate(t *testing.T) {
	t.Parallel()
	flat := geom.PointSet{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 0.5, Y: 0.25}, {X: 0.2, Y: 0.7},
	}
	refs := References{
		Horizontal: geom.Segment{A: flat[0], B: flat[1]},
		Vertical:   geom.Segment{A: flat[0], B: flat[2]},
	}

	a, err := New(flat, flat, refs, refs, DefaultConfig())
	require.NoError(t, err)
	assert.False(t, a.Ok())
	assert.True(t, errors.Is(a.Err(), ErrDegenerateCorrespondences))
}

func TestRobustToSingleOutlier(t *testing.T) {
	t.Parallel()
	m := facemodel.Canonical()

	live := testPose.applyAll(m.BasePoints())
	live[1] = r3.Add(live[1], geom.Point3{X: 0.2, Y: -0.3, Z: 0.1})

	cfg := DefaultConfig()
	cfg.InlierThreshold = 1e-3
	a, err := New(live, m.BasePoints(), testPose.refs(m), modelRefs(m), cfg)
	require.NoError(t, err)
	require.True(t, a.Ok(), "alignment failed: %v", a.Err())

	assert.Equal(t, []int{0, 2, 3, 4, 5, 6, 7}, a.Inliers())
	got, err := a.ToModel(testPose.apply(m.LeftEyeCenter))
	require.NoError(t, err)
	assertPointNear(t, m.LeftEyeCenter, got, 1e-9)
}

func TestDefaultThresholdKeepsEveryCorrespondence(t *testing.T) {
	t.Parallel()
	m := facemodel.Canonical()

	live := testPose.applyAll(m.BasePoints())
	live[0] = r3.Add(live[0], geom.Point3{X: 20})

	a, err := New(live, m.BasePoints(), testPose.refs(m), modelRefs(m), DefaultConfig())
	require.NoError(t, err)
	require.True(t, a.Ok(), "alignment failed: %v", a.Err())

	// Residuals are in scaled model space, where the face spans well under
	// one unit, so the default threshold admits the displaced landmark.
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, a.Inliers())
	assert.LessOrEqual(t, a.RMSE(), DefaultConfig().InlierThreshold)
}

func TestAlignmentIsDeterministicForSeed(t *testing.T) {
	t.Parallel()
	m := facemodel.Canonical()
	live := testPose.applyAll(m.BasePoints())
	live[5] = r3.Add(live[5], geom.Point3{Z: 0.5})

	cfg := DefaultConfig()
	cfg.InlierThreshold = 1e-3
	a1, err := New(live, m.BasePoints(), testPose.refs(m), modelRefs(m), cfg)
	require.NoError(t, err)
	a2, err := New(live, m.BasePoints(), testPose.refs(m), modelRefs(m), cfg)
	require.NoError(t, err)

	assert.Equal(t, a1.Inliers(), a2.Inliers())
	assert.Equal(t, a1.Transform().RawMatrix().Data, a2.Transform().RawMatrix().Data)
}

func TestTransformIsACopy(t *testing.T) {
	t.Parallel()
	a := newTestAligner(t, testPose)
	m := a.Transform()
	m.Set(0, 0, 1e6)

	q, err := a.ToModel(geom.Point3{X: 1})
	require.NoError(t, err)
	assert.Less(t, math.Abs(q.X), 1e3)
}

func TestConcurrentReadOnlyUse(t *testing.T) {
	t.Parallel()
	a := newTestAligner(t, testPose)
	want, err := a.ToModel(geom.Point3{X: 0.3, Y: 0.6, Z: 0.1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				got, err := a.ToModel(geom.Point3{X: 0.3, Y: 0.6, Z: 0.1})
				if err != nil || got != want {
					t.Errorf("concurrent ToModel = %v, %v; want %v", got, err, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestUpdateIterations(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, updateIterations(0.99, 0, 4, 1000))
	assert.Equal(t, 1000, updateIterations(0.99, 1, 4, 1000))
	n := updateIterations(0.99, 0.125, 4, 1000)
	assert.Greater(t, n, 0)
	assert.Less(t, n, 20)
}
