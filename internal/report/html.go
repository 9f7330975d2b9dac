package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/anchor-pose/internal/filter"
	"github.com/banshee-data/anchor-pose/internal/fsutil"
	"github.com/banshee-data/anchor-pose/internal/particle"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes a page with position and orientation line charts plus
// the error summary.
func RenderHTML(w io.Writer, samples []Sample, title string, sum Summary) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}

	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(
		lineChart(samples, "Position", "m", position),
		lineChart(samples, "Orientation", "deg", orientation),
		summaryChart(sum),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

// SaveHTML renders the page into path.
func SaveHTML(fsys fsutil.FileSystem, samples []Sample, path, title string, sum Summary) error {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, samples, title, sum); err != nil {
		return err
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	return fsutil.WriteFrom(fsys, path, &buf)
}

func lineChart(samples []Sample, title, unit string, pick func(filter.Pose) particle.Vector3) *charts.Line {
	ts, est, truth, hasTruth := series(samples, pick)
	t0 := ts[0]

	x := make([]string, len(ts))
	for i, t := range ts {
		x[i] = strconv.FormatFloat(float64(t-t0)/1000, 'f', 2, 64)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d samples", len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: unit}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
	)
	line.SetXAxis(x)
	for k := 0; k < 3; k++ {
		line.AddSeries(axisNames[k]+" estimate", lineData(est[k]),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
		if hasTruth {
			line.AddSeries(axisNames[k]+" truth", lineData(truth[k]),
				charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
				charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
		}
	}
	return line
}

// lineData marks NaN as "-", echarts' placeholder for a missing point;
// NaN itself cannot be encoded as JSON.
func lineData(ys []float64) []opts.LineData {
	out := make([]opts.LineData, len(ys))
	for i, y := range ys {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			out[i] = opts.LineData{Value: "-"}
			continue
		}
		out[i] = opts.LineData{Value: y}
	}
	return out
}

func summaryChart(sum Summary) *charts.Bar {
	x := []string{"Position RMSE (m)", "Position max (m)", "Orientation mean (deg)", "Orientation max (deg)"}
	y := []opts.BarData{
		{Value: barValue(sum.PositionRMSE)},
		{Value: barValue(sum.PositionMax)},
		{Value: barValue(sum.OrientationMean)},
		{Value: barValue(sum.OrientationMax)},
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Error summary", Subtitle: fmt.Sprintf("samples=%d invalid=%d", sum.Samples, sum.Invalid)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("error", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func barValue(v float64) interface{} {
	if math.IsNaN(v) {
		return "-"
	}
	return math.Round(v*1000) / 1000
}
