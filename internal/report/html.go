package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func lineSeries(samples []Sample, pick func(Sample) EyeSample, value trace) []opts.LineData {
	data := make([]opts.LineData, len(samples))
	for i, s := range samples {
		e := pick(s)
		if e.Confidence == 0 {
			data[i] = opts.LineData{Value: "-"}
			continue
		}
		data[i] = opts.LineData{Value: value(e)}
	}
	return data
}

func newLineChart(samples []Sample, title, yname string, value trace) *charts.Line {
	frames := make([]int, len(samples))
	for i, s := range samples {
		frames[i] = s.FrameIdx
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Eyeball calibration", Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("frames=%d", len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yname, Min: "dataMin"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(frames).
		AddSeries("left", lineSeries(samples, func(s Sample) EyeSample { return s.Left }, value)).
		AddSeries("right", lineSeries(samples, func(s Sample) EyeSample { return s.Right }, value))
	return line
}

// WriteHTML renders interactive confidence and radius charts to w.
func (r *Recorder) WriteHTML(w io.Writer) error {
	samples := r.Samples()
	page := components.NewPage()
	page.AddCharts(
		newLineChart(samples, "Fit confidence", "confidence", func(e EyeSample) float64 { return e.Confidence }),
		newLineChart(samples, "Eyeball radius", "radius", func(e EyeSample) float64 { return e.Radius }),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
