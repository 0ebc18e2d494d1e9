package replay

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gaze/internal/gaze"
	"github.com/banshee-data/gaze/internal/geom"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	t.Parallel()
	cfg := DefaultSynthConfig()
	cfg.Frames = 3
	cfg.Noise = 0.001
	frames := Synthesize(cfg).Frames

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, f := range frames {
		require.NoError(t, w.Write(f))
	}
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))

	got, err := NewReader(&buf).ReadAll()
	require.NoError(t, err)
	if diff := cmp.Diff(frames, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderSkipsBlankLinesAndEndsWithEOF(t *testing.T) {
	t.Parallel()
	input := "\n" +
		`{"timestamp_ms":1000,"landmarks":[[1,2,3],[4,5,6]]}` + "\n\n" +
		`{"timestamp_ms":1033,"landmarks":[]}` + "\n"
	r := NewReader(strings.NewReader(input))

	f, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1000), f.Timestamp.UnixMilli())
	assert.Equal(t, geom.PointSet{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}, f.Landmarks)

	f, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1033), f.Timestamp.UnixMilli())
	assert.Empty(t, f.Landmarks)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderMalformedLine(t *testing.T) {
	t.Parallel()
	input := `{"timestamp_ms":1,"landmarks":[]}` + "\n" + `{"timestamp_ms":` + "\n"
	r := NewReader(strings.NewReader(input))

	frames, err := r.ReadAll()
	assert.Len(t, frames, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedFrame))
	assert.Contains(t, err.Error(), "line 2")
}

func TestResultWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := NewResultWriter(&buf)

	ts := DefaultSynthConfig().Start
	require.NoError(t, w.Write(0, gaze.Result{Timestamp: ts, Calibrating: true}))
	require.NoError(t, w.Write(1, gaze.Result{
		Timestamp:   ts,
		AlignmentOK: true,
		Left: &gaze.EyeGaze{
			Pupil:      geom.Point3{X: 1},
			Center:     geom.Point3{X: 0.5},
			Direction:  geom.Point3{X: 0.5},
			Projection: geom.Point3{X: 3.5},
			Confidence: 0.999,
		},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], `"left"`)

	var rec ResultRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	want := ResultRecord{
		Frame:       1,
		TimestampMs: ts.UnixMilli(),
		AlignmentOK: true,
		Left: &EyeRecord{
			Pupil:      [3]float64{1, 0, 0},
			Center:     [3]float64{0.5, 0, 0},
			Direction:  [3]float64{0.5, 0, 0},
			Projection: [3]float64{3.5, 0, 0},
			Confidence: 0.999,
		},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}
