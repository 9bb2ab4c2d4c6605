package chart

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"sensor-analytics/internal/data"
	"sensor-analytics/pkg/models"
	"sensor-analytics/pkg/utils"
)

var (
	skyBlue    = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	green      = color.RGBA{G: 128, A: 255}
	blue       = color.RGBA{B: 255, A: 255}
	pink       = color.RGBA{R: 255, G: 192, B: 203, A: 255}
	lightCoral = color.RGBA{R: 240, G: 128, B: 128, A: 255}
	black      = color.Black
)

const (
	defaultWidth  = 6.4 * vg.Inch
	defaultHeight = 4.8 * vg.Inch
	tempLabel     = "Temperature (˚F)"
)

// Renderer writes the standard set of charts as PNG files.
type Renderer struct {
	dir string
	log *slog.Logger
}

func NewRenderer(dir string, log *slog.Logger) *Renderer {
	return &Renderer{dir: dir, log: log}
}

// RenderAll draws the six charts in order and returns the written paths.
func (r *Renderer) RenderAll(ctx context.Context, ds *models.Dataset, a *data.Analysis) ([]string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	outside := make([]int, len(ds.Sensors))
	room := make([]int, len(ds.Sensors))
	for i, s := range ds.Sensors {
		outside[i] = s.OutsideTemperature
		room[i] = s.RoomTemperature
	}
	ages := make([]int, len(ds.Users))
	for i, u := range ds.Users {
		ages[i] = u.Age
	}

	jobs := []struct {
		file string
		draw func() (*plot.Plot, error)
		w, h vg.Length
	}{
		{"outside_temperature_hist.png", func() (*plot.Plot, error) {
			return Histogram(utils.IntsToFloats(outside), 10, skyBlue, "Distribution of Outside Temperature", tempLabel, "Frequency")
		}, defaultWidth, defaultHeight},
		{"room_temperature_line.png", func() (*plot.Plot, error) {
			return Line(utils.IntsToFloats(room), green, "Room Temperature Over Time", "Sample", tempLabel)
		}, defaultWidth, defaultHeight},
		{"outside_temperature_line.png", func() (*plot.Plot, error) {
			return Line(utils.IntsToFloats(outside), blue, "Outdoor Temperature Over Time", "Sample", tempLabel)
		}, defaultWidth, defaultHeight},
		{"gender_distribution.png", func() (*plot.Plot, error) {
			return Bar(a.GenderCounts, []color.Color{blue, pink}, "Gender Distribution", "Gender", "Count")
		}, defaultWidth, defaultHeight},
		{"correlation_heatmap.png", func() (*plot.Plot, error) {
			return Heatmap(a.Correlation, "Correlation Heatmap")
		}, 8 * vg.Inch, 6 * vg.Inch},
		{"age_hist.png", func() (*plot.Plot, error) {
			return Histogram(utils.IntsToFloats(ages), 20, lightCoral, "Age Distribution", "Age", "Frequency")
		}, defaultWidth, defaultHeight},
	}

	paths := make([]string, 0, len(jobs))
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		p, err := j.draw()
		if err != nil {
			return paths, fmt.Errorf("%s: %w", j.file, err)
		}
		path := filepath.Join(r.dir, j.file)
		if err := p.Save(j.w, j.h, path); err != nil {
			return paths, fmt.Errorf("save %s: %w", j.file, err)
		}
		r.log.Info("chart rendered", "file", path)
		paths = append(paths, path)
	}
	return paths, nil
}

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Y.Label.Text = y
	return p
}

// Histogram bins values into n bins with a black bar edge.
func Histogram(values []float64, bins int, fill color.Color, title, x, y string) (*plot.Plot, error) {
	if len(values) == 0 {
		return nil, data.ErrEmptyFrame
	}
	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return nil, err
	}
	h.FillColor = fill
	h.LineStyle.Color = black
	p := newPlot(title, x, y)
	p.Add(h)
	return p, nil
}

// Line plots values against their sample index.
func Line(values []float64, c color.Color, title, x, y string) (*plot.Plot, error) {
	if len(values) == 0 {
		return nil, data.ErrEmptyFrame
	}
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	l.LineStyle.Color = c
	p := newPlot(title, x, y)
	p.Add(l)
	lo, hi := floats.Min(values), floats.Max(values)
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	p.Y.Min, p.Y.Max = lo-pad, hi+pad
	return p, nil
}

// Bar draws one bar per count, cycling through colors.
func Bar(counts []data.Count, colors []color.Color, title, x, y string) (*plot.Plot, error) {
	if len(counts) == 0 {
		return nil, data.ErrEmptyFrame
	}
	p := newPlot(title, x, y)
	names := make([]string, len(counts))
	for i, c := range counts {
		b, err := plotter.NewBarChart(plotter.Values{float64(c.Count)}, vg.Points(40))
		if err != nil {
			return nil, err
		}
		b.XMin = float64(i)
		b.Color = colors[i%len(colors)]
		b.LineStyle.Width = 0
		p.Add(b)
		names[i] = c.Value
	}
	p.NominalX(names...)
	return p, nil
}
