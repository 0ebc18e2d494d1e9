// Command gaze-replay runs the gaze pipeline over a landmark recording (or a
// synthetic head), prints a convergence summary and optionally stores
// calibrations, gaze vectors and convergence charts.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/banshee-data/gaze/internal/calibstore"
	"github.com/banshee-data/gaze/internal/config"
	"github.com/banshee-data/gaze/internal/eyeball"
	"github.com/banshee-data/gaze/internal/facemodel"
	"github.com/banshee-data/gaze/internal/gaze"
	"github.com/banshee-data/gaze/internal/monitoring"
	"github.com/banshee-data/gaze/internal/replay"
	"github.com/banshee-data/gaze/internal/report"
	"github.com/banshee-data/gaze/internal/version"
)

var (
	input      = flag.String("input", "", "Landmark recording (JSONL); synthesize frames if empty")
	configPath = flag.String("config", "", "Tuning config JSON (defaults if empty)")
	dbPath     = flag.String("db", "", "Calibration database path (optional)")
	session    = flag.String("session", "", "Session label stored with calibrations")
	resume     = flag.Bool("resume", false, "Seed estimators from the latest stored calibration of -session")
	plotPath   = flag.String("plot", "", "Write a convergence PNG to this path")
	htmlPath   = flag.String("html", "", "Write an interactive convergence chart to this path")
	outPath    = flag.String("out", "", "Write per-frame gaze results (JSONL) to this path")
	frames     = flag.Int("frames", 300, "Number of synthetic frames when -input is empty")
	noise      = flag.Float64("noise", 0, "Synthetic landmark noise stddev")
	logDiag    = flag.Bool("log-diag", false, "Log fit outcomes to stderr")
	logTrace   = flag.Bool("log-trace", false, "Log per-frame telemetry to stderr")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

type options struct {
	input      string
	configPath string
	dbPath     string
	session    string
	resume     bool
	plotPath   string
	htmlPath   string
	outPath    string
	frames     int
	noise      float64
}

func main() {
	flag.Parse()
	if *showVer {
		fmt.Println(version.String("gaze-replay"))
		return
	}

	w := monitoring.LogWriters{Ops: os.Stderr}
	if *logDiag {
		w.Diag = os.Stderr
	}
	if *logTrace {
		w.Trace = os.Stderr
	}
	monitoring.SetLogWriters(w)
	monitoring.Opsf("%s", version.String("gaze-replay"))

	o := options{
		input:      *input,
		configPath: *configPath,
		dbPath:     *dbPath,
		session:    *session,
		resume:     *resume,
		plotPath:   *plotPath,
		htmlPath:   *htmlPath,
		outPath:    *outPath,
		frames:     *frames,
		noise:      *noise,
	}
	if err := run(o, os.Stdout); err != nil {
		log.Fatalf("gaze-replay: %v", err)
	}
}

// frameSource yields frames until io.EOF.
type frameSource func() (gaze.Frame, error)

func openSource(o options) (frameSource, func() error, error) {
	if o.input == "" {
		cfg := replay.DefaultSynthConfig()
		cfg.Frames = o.frames
		cfg.Noise = o.noise
		rec := replay.Synthesize(cfg)
		i := 0
		next := func() (gaze.Frame, error) {
			if i >= len(rec.Frames) {
				return gaze.Frame{}, io.EOF
			}
			i++
			return rec.Frames[i-1], nil
		}
		return next, func() error { return nil }, nil
	}

	f, err := os.Open(o.input)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return replay.NewReader(f).Next, f.Close, nil
}

func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.EmptyTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

// restoreCalibration seeds both estimators from the newest session labelled
// label. A missing session or eye is not an error.
func restoreCalibration(store *calibstore.Store, label string, proc *gaze.Processor) error {
	prev, err := store.LatestSession(label)
	if errors.Is(err, calibstore.ErrNotFound) {
		monitoring.Logf("no stored session %q to resume", label)
		return nil
	}
	if err != nil {
		return err
	}

	left, right := proc.Estimators()
	for eye, est := range map[calibstore.Eye]*eyeball.Estimator{calibstore.EyeLeft: left, calibstore.EyeRight: right} {
		c, err := store.LatestCalibration(prev.SessionID, eye)
		if errors.Is(err, calibstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := est.Restore(c.Sphere); err != nil {
			return fmt.Errorf("restore %s eye: %w", eye, err)
		}
		monitoring.Logf("resumed %s eye from session %s: center=(%.4f, %.4f, %.4f) r=%.4f",
			eye, prev.SessionID, c.Sphere.Center.X, c.Sphere.Center.Y, c.Sphere.Center.Z, c.Sphere.Radius)
	}
	return nil
}

func run(o options, stdout io.Writer) error {
	tuning, err := loadTuning(o.configPath)
	if err != nil {
		return err
	}

	model := facemodel.Canonical()
	proc, err := gaze.New(model, facemodel.MediaPipe(), gaze.ConfigFromTuning(tuning, model))
	if err != nil {
		return err
	}
	left, right := proc.Estimators()

	var store *calibstore.Store
	var sess *calibstore.Session
	if o.dbPath != "" {
		store, err = calibstore.Open(o.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if o.resume {
			if err := restoreCalibration(store, o.session, proc); err != nil {
				return err
			}
		}
		if sess, err = store.CreateSession(o.session, time.Now()); err != nil {
			return err
		}
	}

	next, closeSource, err := openSource(o)
	if err != nil {
		return err
	}
	defer closeSource()

	var results *replay.ResultWriter
	if o.outPath != "" {
		f, err := os.Create(o.outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		results = replay.NewResultWriter(f)
	}

	rec := report.NewRecorder()
	for i := 0; ; i++ {
		frame, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		res, err := proc.Process(frame)
		if errors.Is(err, gaze.ErrShortLandmarks) {
			monitoring.Logf("frame %d skipped: %v", i, err)
			continue
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		rec.Record(i, res, left, right)

		if results != nil {
			if err := results.Write(i, res); err != nil {
				return err
			}
		}
		if store != nil {
			if res.LeftUpdate.Accepted {
				if err := store.SaveCalibration(calibstore.FromEstimator(sess.SessionID, calibstore.EyeLeft, left, frame.Timestamp)); err != nil {
					return err
				}
			}
			if res.RightUpdate.Accepted {
				if err := store.SaveCalibration(calibstore.FromEstimator(sess.SessionID, calibstore.EyeRight, right, frame.Timestamp)); err != nil {
					return err
				}
			}
		}
	}

	fmt.Fprintln(stdout, rec.Summary())

	if o.plotPath != "" {
		if err := rec.WritePNG(o.plotPath); err != nil {
			return err
		}
	}
	if o.htmlPath != "" {
		f, err := os.Create(o.htmlPath)
		if err != nil {
			return fmt.Errorf("create chart: %w", err)
		}
		if err := rec.WriteHTML(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
