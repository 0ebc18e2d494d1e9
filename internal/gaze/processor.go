package gaze

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gaze/internal/align"
	"github.com/banshee-data/gaze/internal/eyeball"
	"github.com/banshee-data/gaze/internal/facemodel"
	"github.com/banshee-data/gaze/internal/geom"
	"github.com/banshee-data/gaze/internal/monitoring"
)

// ErrShortLandmarks is returned when a frame has fewer landmarks than the
// index table refers to.
var ErrShortLandmarks = errors.New("landmark array too short")

// Frame is one landmark snapshot from the detector.
type Frame struct {
	Timestamp time.Time
	Landmarks geom.PointSet
}

// EyeGaze is the gaze of one eye in landmark space.
type EyeGaze struct {
	Pupil      geom.Point3
	Center     geom.Point3 // eyeball center mapped back to landmark space
	Direction  geom.Point3 // Pupil - Center
	Projection geom.Point3 // Pupil + Direction*ProjectionScale
	Confidence float64
}

// Result is the outcome of processing one frame.
type Result struct {
	Timestamp   time.Time
	AlignmentOK bool
	Calibrating bool // at least one eye has no detected center yet
	Left        *EyeGaze
	Right       *EyeGaze

	LeftUpdate  eyeball.UpdateResult
	RightUpdate eyeball.UpdateResult
}

// Processor runs the per-frame pipeline. It is not safe for concurrent
// Process calls.
type Processor struct {
	cfg      Config
	model    facemodel.Model
	indices  facemodel.Indices
	modelRef align.References
	maxIndex int

	left  *eyeball.Estimator
	right *eyeball.Estimator
}

// New creates a Processor for the given face model and landmark layout.
// Options are applied to both eye estimators.
func New(model facemodel.Model, indices facemodel.Indices, cfg Config, opts ...eyeball.Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	left, err := eyeball.New(cfg.Left, slices.Concat(opts, []eyeball.Option{eyeball.WithName("left")})...)
	if err != nil {
		return nil, fmt.Errorf("left eye: %w", err)
	}
	right, err := eyeball.New(cfg.Right, slices.Concat(opts, []eyeball.Option{eyeball.WithName("right")})...)
	if err != nil {
		return nil, fmt.Errorf("right eye: %w", err)
	}

	return &Processor{
		cfg:      cfg,
		model:    model,
		indices:  indices,
		modelRef: align.References{Horizontal: model.Horizontal(), Vertical: model.Vertical()},
		maxIndex: indices.MaxIndex(),
		left:     left,
		right:    right,
	}, nil
}

// Process aligns the frame, updates both eye estimators and returns the gaze
// of every eye whose center has been detected. Frames that cannot be aligned
// are skipped: the result is empty and the error is nil.
func (p *Processor) Process(frame Frame) (Result, error) {
	res := Result{Timestamp: frame.Timestamp, Calibrating: p.calibrating()}
	lm := frame.Landmarks
	if len(lm) <= p.maxIndex {
		return res, fmt.Errorf("%w: got %d, need %d", ErrShortLandmarks, len(lm), p.maxIndex+1)
	}

	a, err := p.align(lm)
	if err != nil {
		if errors.Is(err, align.ErrDegenerateReference) {
			monitoring.Diagf("frame %s skipped: %v", frame.Timestamp.Format(time.RFC3339Nano), err)
			return res, nil
		}
		return res, err
	}
	if !a.Ok() {
		monitoring.Tracef("frame %s skipped: %v", frame.Timestamp.Format(time.RFC3339Nano), a.Err())
		return res, nil
	}
	res.AlignmentOK = true

	leftFn := p.updateEye(a, p.left, lm, p.indices.LeftEye(), frame.Timestamp, &res.LeftUpdate)
	rightFn := p.updateEye(a, p.right, lm, p.indices.RightEye(), frame.Timestamp, &res.RightUpdate)
	if p.cfg.ParallelEyes {
		var g errgroup.Group
		g.Go(leftFn)
		g.Go(rightFn)
		err = g.Wait()
	} else {
		err = errors.Join(leftFn(), rightFn())
	}
	if err != nil {
		return res, err
	}

	if res.Left, err = p.eyeGaze(a, p.left, lm[p.indices.LeftPupil]); err != nil {
		return res, err
	}
	if res.Right, err = p.eyeGaze(a, p.right, lm[p.indices.RightPupil]); err != nil {
		return res, err
	}
	res.Calibrating = p.calibrating()
	return res, nil
}

func (p *Processor) align(lm geom.PointSet) (*align.Aligner, error) {
	live, ok := lm.Select(p.indices.Base())
	if !ok {
		return nil, fmt.Errorf("%w: base landmarks out of range", ErrShortLandmarks)
	}
	ix := p.indices
	liveRef := align.References{
		Horizontal: geom.Segment{A: lm[ix.OuterHeadPoints[0]], B: lm[ix.OuterHeadPoints[1]]},
		Vertical:   geom.Segment{A: lm[ix.NoseBridge], B: lm[ix.NoseTip]},
	}
	return align.New(live, p.model.BasePoints(), liveRef, p.modelRef, p.cfg.Align)
}

func (p *Processor) updateEye(a *align.Aligner, est *eyeball.Estimator, lm geom.PointSet,
	indices []int, ts time.Time, out *eyeball.UpdateResult) func() error {
	return func() error {
		live, ok := lm.Select(indices)
		if !ok {
			return fmt.Errorf("%s eye: %w", est.Name(), ErrShortLandmarks)
		}
		points, err := a.ToModelAll(live)
		if err != nil {
			return fmt.Errorf("%s eye: %w", est.Name(), err)
		}
		*out = est.Update(points, ts)
		return nil
	}
}

func (p *Processor) eyeGaze(a *align.Aligner, est *eyeball.Estimator, pupil geom.Point3) (*EyeGaze, error) {
	if !est.CenterDetected() {
		return nil, nil
	}
	center, err := a.ToLive(est.Center())
	if err != nil {
		return nil, fmt.Errorf("%s eye: %w", est.Name(), err)
	}
	dir := r3.Sub(pupil, center)
	return &EyeGaze{
		Pupil:      pupil,
		Center:     center,
		Direction:  dir,
		Projection: r3.Add(pupil, r3.Scale(p.cfg.ProjectionScale, dir)),
		Confidence: est.Confidence(),
	}, nil
}

func (p *Processor) calibrating() bool {
	return !p.left.CenterDetected() || !p.right.CenterDetected()
}

// Reset restarts calibration of both eyes.
func (p *Processor) Reset() {
	p.left.Reset()
	p.right.Reset()
}

// Estimators returns the left and right eye estimators.
func (p *Processor) Estimators() (left, right *eyeball.Estimator) {
	return p.left, p.right
}

// Model returns the face model the processor aligns to.
func (p *Processor) Model() facemodel.Model { return p.model }
