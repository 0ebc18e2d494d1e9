package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// convergingRun fakes a run where the left eye locks at frame 3 and the right
// eye is detected at frame 4 but never locks.
func convergingRun() *Recorder {
	r := NewRecorder()
	t0 := time.UnixMilli(1_700_000_000_000)
	left := []EyeSample{
		{},
		{},
		{Confidence: 0.99, Radius: 0.021, Attempted: true, Accepted: true},
		{Confidence: 0.998, Radius: 0.02, Attempted: true, Accepted: true, Detected: true, Locked: true},
		{Confidence: 0.998, Radius: 0.02, Detected: true, Locked: true},
		{Confidence: 0.998, Radius: 0.02, Detected: true, Unlocked: true},
	}
	right := []EyeSample{
		{},
		{},
		{Confidence: 0.98, Radius: 0.024, Attempted: true, Accepted: true},
		{Confidence: 0.98, Radius: 0.024, Attempted: true},
		{Confidence: 0.996, Radius: 0.022, Attempted: true, Accepted: true, Detected: true},
		{Confidence: 0.996, Radius: 0.022, Attempted: true, Detected: true},
	}
	for i := range left {
		r.Add(Sample{
			FrameIdx:    i,
			Timestamp:   t0.Add(time.Duration(i) * 33 * time.Millisecond),
			AlignmentOK: i != 1,
			Left:        left[i],
			Right:       right[i],
		})
	}
	return r
}

func TestSummary(t *testing.T) {
	t.Parallel()
	s := convergingRun().Summary()

	assert.Equal(t, 6, s.Frames)
	assert.Equal(t, 5, s.Aligned)

	assert.Equal(t, 3, s.Left.FramesToDetection)
	assert.Equal(t, 3, s.Left.FramesToLock)
	assert.Equal(t, 2, s.Left.Fits)
	assert.Equal(t, 2, s.Left.AcceptedFits)
	assert.Equal(t, 1, s.Left.Unlocks)
	assert.Equal(t, 0.998, s.Left.FinalConfidence)
	assert.InDelta(t, 0.02, s.Left.MeanRadius, 1e-12)
	assert.InDelta(t, 0, s.Left.StdDevRadius, 1e-12)

	assert.Equal(t, 4, s.Right.FramesToDetection)
	assert.Equal(t, -1, s.Right.FramesToLock)
	assert.Equal(t, 4, s.Right.Fits)
	assert.Equal(t, 2, s.Right.AcceptedFits)
	assert.Equal(t, 0.022, s.Right.FinalRadius)

	assert.Contains(t, s.String(), "frames=6 aligned=5")
}

func TestSummaryEmpty(t *testing.T) {
	t.Parallel()
	s := NewRecorder().Summary()
	assert.Zero(t, s.Frames)
	assert.Equal(t, -1, s.Left.FramesToDetection)
	assert.Equal(t, -1, s.Right.FramesToLock)
}

func TestSamplesIsACopy(t *testing.T) {
	t.Parallel()
	r := convergingRun()
	samples := r.Samples()
	samples[0].FrameIdx = 99
	assert.Equal(t, 0, r.Samples()[0].FrameIdx)
	assert.Equal(t, 6, r.Len())
}

func TestWritePNG(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "convergence.png")
	require.NoError(t, convergingRun().WritePNG(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), data[:8])

	assert.Error(t, NewRecorder().WritePNG(path))
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, convergingRun().WriteHTML(&buf))

	html := buf.String()
	assert.True(t, strings.Contains(html, "echarts"))
	assert.Contains(t, html, "Fit confidence")
	assert.Contains(t, html, "Eyeball radius")
	assert.Contains(t, html, "0.998")
}
