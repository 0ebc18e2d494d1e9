package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/gaze/internal/gaze"
	"github.com/banshee-data/gaze/internal/geom"
	"github.com/banshee-data/gaze/internal/timeutil"
)

// maxLineSize bounds one JSONL record; a 478-point frame is ~30KB.
const maxLineSize = 4 * 1024 * 1024

// ErrMalformedFrame is returned for a record that does not decode to a frame.
var ErrMalformedFrame = errors.New("malformed frame record")

// FrameRecord is the on-disk form of one landmark frame.
type FrameRecord struct {
	TimestampMs int64        `json:"timestamp_ms"`
	Landmarks   [][3]float64 `json:"landmarks"`
}

// NewFrameRecord converts a frame to its on-disk form.
func NewFrameRecord(f gaze.Frame) FrameRecord {
	rec := FrameRecord{
		TimestampMs: timeutil.ToUnixMillis(f.Timestamp),
		Landmarks:   make([][3]float64, len(f.Landmarks)),
	}
	for i, p := range f.Landmarks {
		rec.Landmarks[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return rec
}

// Frame converts the record back into a frame.
func (r FrameRecord) Frame() gaze.Frame {
	lm := make(geom.PointSet, len(r.Landmarks))
	for i, p := range r.Landmarks {
		lm[i] = geom.Point3{X: p[0], Y: p[1], Z: p[2]}
	}
	return gaze.Frame{Timestamp: timeutil.FromUnixMillis(r.TimestampMs), Landmarks: lm}
}

// Reader decodes frames from a JSONL stream.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{scanner: s}
}

// Next returns the next frame, or io.EOF at the end of the stream. Blank
// lines are skipped.
func (r *Reader) Next() (gaze.Frame, error) {
	for r.scanner.Scan() {
		r.line++
		b := r.scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		var rec FrameRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return gaze.Frame{}, fmt.Errorf("%w: line %d: %v", ErrMalformedFrame, r.line, err)
		}
		return rec.Frame(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return gaze.Frame{}, fmt.Errorf("failed to read frames: %w", err)
	}
	return gaze.Frame{}, io.EOF
}

// ReadAll decodes every remaining frame.
func (r *Reader) ReadAll() ([]gaze.Frame, error) {
	var frames []gaze.Frame
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}

// Writer encodes frames as JSONL.
type Writer struct {
	enc *json.Encoder
}

// NewWriter returns a Writer to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Write appends one frame.
func (w *Writer) Write(f gaze.Frame) error {
	if err := w.enc.Encode(NewFrameRecord(f)); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// EyeRecord is the on-disk form of one eye's gaze.
type EyeRecord struct {
	Pupil      [3]float64 `json:"pupil"`
	Center     [3]float64 `json:"center"`
	Direction  [3]float64 `json:"direction"`
	Projection [3]float64 `json:"projection"`
	Confidence float64    `json:"confidence"`
}

// ResultRecord is the on-disk form of one processed frame.
type ResultRecord struct {
	Frame       int        `json:"frame"`
	TimestampMs int64      `json:"timestamp_ms"`
	AlignmentOK bool       `json:"alignment_ok"`
	Calibrating bool       `json:"calibrating"`
	Left        *EyeRecord `json:"left,omitempty"`
	Right       *EyeRecord `json:"right,omitempty"`
}

func vec(p geom.Point3) [3]float64 { return [3]float64{p.X, p.Y, p.Z} }

func eyeRecord(g *gaze.EyeGaze) *EyeRecord {
	if g == nil {
		return nil
	}
	return &EyeRecord{
		Pupil:      vec(g.Pupil),
		Center:     vec(g.Center),
		Direction:  vec(g.Direction),
		Projection: vec(g.Projection),
		Confidence: g.Confidence,
	}
}

// NewResultRecord converts a processing result to its on-disk form.
func NewResultRecord(frame int, res gaze.Result) ResultRecord {
	return ResultRecord{
		Frame:       frame,
		TimestampMs: timeutil.ToUnixMillis(res.Timestamp),
		AlignmentOK: res.AlignmentOK,
		Calibrating: res.Calibrating,
		Left:        eyeRecord(res.Left),
		Right:       eyeRecord(res.Right),
	}
}

// ResultWriter encodes processing results as JSONL.
type ResultWriter struct {
	enc *json.Encoder
}

// NewResultWriter returns a ResultWriter to w.
func NewResultWriter(w io.Writer) *ResultWriter {
	return &ResultWriter{enc: json.NewEncoder(w)}
}

// Write appends the result of frame index i.
func (w *ResultWriter) Write(i int, res gaze.Result) error {
	if err := w.enc.Encode(NewResultRecord(i, res)); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
