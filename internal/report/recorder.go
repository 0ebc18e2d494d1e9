// Package report records estimator convergence over a run and renders it as
// a static PNG, an interactive HTML chart, or summary statistics.
package report

import (
	"sync"
	"time"

	"github.com/banshee-data/gaze/internal/eyeball"
	"github.com/banshee-data/gaze/internal/gaze"
)

// EyeSample is one eye's estimator state after a frame.
type EyeSample struct {
	Confidence float64
	Radius     float64
	HistoryLen int
	Detected   bool
	Locked     bool
	Attempted  bool
	Accepted   bool
	Unlocked   bool
}

// Sample is the state of both eyes after one frame.
type Sample struct {
	FrameIdx    int
	Timestamp   time.Time
	AlignmentOK bool
	Left        EyeSample
	Right       EyeSample
}

// Recorder accumulates samples. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func eyeSample(est *eyeball.Estimator, u eyeball.UpdateResult) EyeSample {
	return EyeSample{
		Confidence: est.Confidence(),
		Radius:     est.Radius(),
		HistoryLen: est.HistoryLen(),
		Detected:   est.CenterDetected(),
		Locked:     est.SearchCompleted(),
		Attempted:  u.Attempted,
		Accepted:   u.Accepted,
		Unlocked:   u.Unlocked,
	}
}

// Record appends the state of both estimators after frame frameIdx produced res.
func (r *Recorder) Record(frameIdx int, res gaze.Result, left, right *eyeball.Estimator) {
	s := Sample{
		FrameIdx:    frameIdx,
		Timestamp:   res.Timestamp,
		AlignmentOK: res.AlignmentOK,
		Left:        eyeSample(left, res.LeftUpdate),
		Right:       eyeSample(right, res.RightUpdate),
	}
	r.Add(s)
}

// Add appends a prepared sample.
func (r *Recorder) Add(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

// Samples returns a copy of the recorded samples in insertion order.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// Len returns the number of recorded samples.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}
