package report

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// EyeSummary condenses one eye's trace.
type EyeSummary struct {
	FramesToDetection int // first frame index with a detected center, -1 if never
	FramesToLock      int // first frame index with a completed search, -1 if never
	Fits              int
	AcceptedFits      int
	Unlocks           int
	FinalConfidence   float64
	FinalRadius       float64
	MeanRadius        float64 // over detected frames
	StdDevRadius      float64
}

// Summary condenses a run.
type Summary struct {
	Frames  int
	Aligned int
	Left    EyeSummary
	Right   EyeSummary
}

// String renders the summary on a few lines for terminal output.
func (s Summary) String() string {
	return fmt.Sprintf("frames=%d aligned=%d\n  left:  %s\n  right: %s",
		s.Frames, s.Aligned, s.Left, s.Right)
}

func (e EyeSummary) String() string {
	return fmt.Sprintf("detected@%d locked@%d fits=%d/%d unlocks=%d confidence=%.6f radius=%.5f (mean %.5f sd %.2g)",
		e.FramesToDetection, e.FramesToLock, e.AcceptedFits, e.Fits, e.Unlocks,
		e.FinalConfidence, e.FinalRadius, e.MeanRadius, e.StdDevRadius)
}

// Summary computes summary statistics over the recorded samples.
func (r *Recorder) Summary() Summary {
	samples := r.Samples()
	sum := Summary{Frames: len(samples)}
	for _, s := range samples {
		if s.AlignmentOK {
			sum.Aligned++
		}
	}
	sum.Left = summarizeEye(samples, func(s Sample) EyeSample { return s.Left })
	sum.Right = summarizeEye(samples, func(s Sample) EyeSample { return s.Right })
	return sum
}

func summarizeEye(samples []Sample, pick func(Sample) EyeSample) EyeSummary {
	out := EyeSummary{FramesToDetection: -1, FramesToLock: -1}
	var radii []float64
	for _, s := range samples {
		e := pick(s)
		if e.Detected && out.FramesToDetection < 0 {
			out.FramesToDetection = s.FrameIdx
		}
		if e.Locked && out.FramesToLock < 0 {
			out.FramesToLock = s.FrameIdx
		}
		if e.Attempted {
			out.Fits++
		}
		if e.Accepted {
			out.AcceptedFits++
		}
		if e.Unlocked {
			out.Unlocks++
		}
		if e.Detected {
			radii = append(radii, e.Radius)
		}
	}
	if n := len(samples); n > 0 {
		last := pick(samples[n-1])
		out.FinalConfidence = last.Confidence
		out.FinalRadius = last.Radius
	}
	if len(radii) > 0 {
		out.MeanRadius, out.StdDevRadius = stat.MeanStdDev(radii, nil)
		if len(radii) == 1 {
			out.StdDevRadius = 0
		}
	}
	return out
}
