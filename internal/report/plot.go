package report

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// trace picks one value from an eye sample.
type trace func(EyeSample) float64

func newTracePlot(samples []Sample, title, ylabel string, value trace) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = ylabel

	eyes := []struct {
		name string
		pick func(Sample) EyeSample
	}{
		{"left", func(s Sample) EyeSample { return s.Left }},
		{"right", func(s Sample) EyeSample { return s.Right }},
	}
	for i, eye := range eyes {
		pts := make(plotter.XYs, 0, len(samples))
		for _, s := range samples {
			e := eye.pick(s)
			// Nothing to show before the first fit.
			if e.Confidence == 0 {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(s.FrameIdx), Y: value(e)})
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(eye.name, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePNG renders confidence and radius traces of both eyes, stacked, to a
// PNG file at path.
func (r *Recorder) WritePNG(path string) error {
	samples := r.Samples()
	if len(samples) == 0 {
		return fmt.Errorf("no samples recorded")
	}

	pConf, err := newTracePlot(samples, "Eyeball fit confidence", "Confidence",
		func(e EyeSample) float64 { return e.Confidence })
	if err != nil {
		return fmt.Errorf("confidence plot: %w", err)
	}
	pRad, err := newTracePlot(samples, "Eyeball radius", "Radius (model units)",
		func(e EyeSample) float64 { return e.Radius })
	if err != nil {
		return fmt.Errorf("radius plot: %w", err)
	}

	img := vgimg.New(12*vg.Inch, 8*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Millimeter * 4}
	canvases := plot.Align([][]*plot.Plot{{pConf}, {pRad}}, tiles, dc)
	pConf.Draw(canvases[0][0])
	pRad.Draw(canvases[1][0])

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
