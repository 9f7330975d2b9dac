package report

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"github.com/banshee-data/anchor-pose/internal/filter"
	"github.com/banshee-data/anchor-pose/internal/fsutil"
	"github.com/banshee-data/anchor-pose/internal/particle"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoSamples is returned when there is nothing to plot.
var ErrNoSamples = errors.New("report: no samples recorded")

var axisColors = [3]color.Color{
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
}

// SavePNG writes <prefix>_position.png and <prefix>_orientation.png into
// dir and returns their paths.
func SavePNG(fsys fsutil.FileSystem, samples []Sample, dir, prefix string) ([]string, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	plots := []struct {
		name  string
		title string
		unit  string
		pick  func(filter.Pose) particle.Vector3
	}{
		{"position", "Position", "m", position},
		{"orientation", "Orientation", "deg", orientation},
	}

	var paths []string
	for _, pl := range plots {
		p, err := timeSeriesPlot(samples, pl.title, pl.unit, pl.pick)
		if err != nil {
			return paths, fmt.Errorf("%s plot: %w", pl.name, err)
		}
		img, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
		if err != nil {
			return paths, fmt.Errorf("%s plot: %w", pl.name, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", prefix, pl.name))
		if err := fsutil.WriteFrom(fsys, path, img); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func timeSeriesPlot(samples []Sample, title, unit string, pick func(filter.Pose) particle.Vector3) (*plot.Plot, error) {
	ts, est, truth, hasTruth := series(samples, pick)
	t0 := ts[0]

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = fmt.Sprintf("%s (%s)", title, unit)

	for k := 0; k < 3; k++ {
		estPts := finitePoints(ts, t0, est[k])
		if len(estPts) > 0 {
			line, err := plotter.NewLine(estPts)
			if err != nil {
				return nil, err
			}
			line.Color = axisColors[k]
			line.Width = vg.Points(1.5)
			p.Add(line)
			p.Legend.Add(axisNames[k]+" estimate", line)
		}

		if !hasTruth {
			continue
		}
		truthPts := finitePoints(ts, t0, truth[k])
		if len(truthPts) == 0 {
			continue
		}
		line, err := plotter.NewLine(truthPts)
		if err != nil {
			return nil, err
		}
		line.Color = axisColors[k]
		line.Width = vg.Points(1)
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(line)
		p.Legend.Add(axisNames[k]+" truth", line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// finitePoints drops NaN values, which plotter rejects.
func finitePoints(ts []int64, t0 int64, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(ys))
	for i, y := range ys {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(ts[i]-t0) / 1000, Y: y})
	}
	return pts
}
