package eyeball

import (
	"fmt"
	"time"

	"github.com/banshee-data/gaze/internal/geom"
	"github.com/banshee-data/gaze/internal/monitoring"
	"github.com/banshee-data/gaze/internal/timeutil"
)

// Sphere is a fitted eyeball in model space.
type Sphere struct {
	Center     geom.Point3
	Radius     float64
	Confidence float64 // 1/(1+RSS) of the fit that produced it, 0 before any fit
}

// UpdateResult describes what one call to Update did.
type UpdateResult struct {
	Added     int  // points appended to the history
	Dropped   int  // non-finite points ignored
	Attempted bool // a sphere fit ran
	Accepted  bool // the fit improved confidence and replaced the estimate
	Rejected  bool // the fit ran but the estimate was kept
	Detected  bool // the center became detected during this update
	Locked    bool // the search completed during this update
	Unlocked  bool // a stale lock was released during this update

	Err error // reason for a rejection, if the fit itself failed
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithClock sets the time source used for construction and Reset.
func WithClock(c timeutil.Clock) Option {
	return func(e *Estimator) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithName labels log lines from this estimator.
func WithName(name string) Option {
	return func(e *Estimator) {
		e.name = name
	}
}

// Estimator converges on an eyeball sphere from a stream of surface points.
type Estimator struct {
	cfg   Config
	clock timeutil.Clock
	name  string

	history *history
	sphere  Sphere

	centerDetected  bool
	searchCompleted bool
	lastUpdate      time.Time
}

// New creates an Estimator seeded at cfg.InitialCenter and cfg.InitialRadius.
func New(cfg Config, opts ...Option) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Estimator{
		cfg:     cfg,
		clock:   timeutil.RealClock{},
		name:    "eye",
		history: newHistory(cfg.PointsHistorySize),
		sphere: Sphere{
			Center: cfg.InitialCenter,
			Radius: cfg.InitialRadius,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.lastUpdate = e.clock.Now()
	return e, nil
}

// Update appends newPoints to the history and, when enough points are held
// and the search is still open, refits the sphere. A fit replaces the
// estimate only if it raises the confidence. Independently of fitting, a
// lock whose last accepted fit is older than RefreshTimeThreshold at ts is
// released; the center and confidence are kept.
func (e *Estimator) Update(newPoints geom.PointSet, ts time.Time) UpdateResult {
	var res UpdateResult
	for _, p := range newPoints {
		if !geom.IsFinite(p) {
			res.Dropped++
			continue
		}
		e.history.add(p)
		res.Added++
	}

	if e.history.len() >= e.cfg.PointsThreshold && !e.searchCompleted {
		res.Attempted = true
		e.fit(ts, &res)
	}

	if e.searchCompleted && ts.Sub(e.lastUpdate) > e.cfg.RefreshTimeThreshold {
		e.searchCompleted = false
		res.Unlocked = true
		monitoring.Opsf("%s: lock released, last accepted fit %s ago", e.name, ts.Sub(e.lastUpdate))
	}

	return res
}

func (e *Estimator) fit(ts time.Time, res *UpdateResult) {
	candidate, err := fitSphere(e.history.all(), e.sphere, e.cfg.RadiusBounds, e.cfg.SolverMaxIterations)
	if err != nil {
		res.Rejected = true
		res.Err = err
		monitoring.Diagf("%s: fit rejected: %v", e.name, err)
		return
	}
	if candidate.Confidence <= e.sphere.Confidence {
		res.Rejected = true
		monitoring.Tracef("%s: fit kept previous estimate (%.6f <= %.6f)",
			e.name, candidate.Confidence, e.sphere.Confidence)
		return
	}

	e.sphere = candidate
	e.lastUpdate = ts
	res.Accepted = true
	monitoring.Diagf("%s: fit accepted center=(%.4f, %.4f, %.4f) r=%.4f confidence=%.6f points=%d",
		e.name, candidate.Center.X, candidate.Center.Y, candidate.Center.Z,
		candidate.Radius, candidate.Confidence, e.history.len())

	if candidate.Confidence >= e.cfg.MinConfidence && !e.centerDetected {
		e.centerDetected = true
		res.Detected = true
		monitoring.Opsf("%s: center detected confidence=%.6f", e.name, candidate.Confidence)
	}
	if candidate.Confidence >= e.cfg.ReasonableConfidence {
		e.searchCompleted = true
		res.Locked = true
		monitoring.Opsf("%s: search completed confidence=%.6f", e.name, candidate.Confidence)
	}
}

// Reset clears the history, confidence and both flags, and stamps the last
// update with the current clock time. Center and radius are kept as the seed
// for the next search.
func (e *Estimator) Reset() {
	e.history.clear()
	e.sphere.Confidence = 0
	e.centerDetected = false
	e.searchCompleted = false
	e.lastUpdate = e.clock.Now()
	monitoring.Opsf("%s: reset", e.name)
}

// Restore seeds the center and radius from a previously stored sphere.
// Flags, history and confidence are unchanged.
func (e *Estimator) Restore(s Sphere) error {
	if !geom.IsFinite(s.Center) || !e.cfg.RadiusBounds.Contains(s.Radius) {
		return fmt.Errorf("%w: cannot restore center=%v r=%v", ErrInvalidConfig, s.Center, s.Radius)
	}
	e.sphere.Center = s.Center
	e.sphere.Radius = s.Radius
	return nil
}

// Config returns the estimator configuration.
func (e *Estimator) Config() Config { return e.cfg }

// Name returns the log label.
func (e *Estimator) Name() string { return e.name }

// Sphere returns the current estimate.
func (e *Estimator) Sphere() Sphere { return e.sphere }

// Center returns the current center estimate.
func (e *Estimator) Center() geom.Point3 { return e.sphere.Center }

// Radius returns the current radius estimate.
func (e *Estimator) Radius() float64 { return e.sphere.Radius }

// Confidence returns the confidence of the current estimate.
func (e *Estimator) Confidence() float64 { return e.sphere.Confidence }

// CenterDetected reports whether confidence has reached MinConfidence.
func (e *Estimator) CenterDetected() bool { return e.centerDetected }

// SearchCompleted reports whether the estimate is locked.
func (e *Estimator) SearchCompleted() bool { return e.searchCompleted }

// HistoryLen returns the number of points held.
func (e *Estimator) HistoryLen() int { return e.history.len() }

// History returns a copy of the held points, oldest first.
func (e *Estimator) History() geom.PointSet { return e.history.all() }

// LastUpdate returns the time of the last accepted fit, construction or Reset.
func (e *Estimator) LastUpdate() time.Time { return e.lastUpdate }
