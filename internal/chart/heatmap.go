package chart

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"sensor-analytics/internal/data"
)

// corrGrid adapts a correlation matrix to plotter.GridXYZ. Row 0 is drawn at
// the top, matching how the matrix reads on paper.
type corrGrid struct {
	c data.Correlation
}

func (g corrGrid) Dims() (c, r int) {
	n := len(g.c.Names)
	return n, n
}

func (g corrGrid) Z(c, r int) float64 {
	n := len(g.c.Names)
	return g.c.Matrix.At(n-1-r, c)
}

func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

const keySteps = 9

// colorKey pairs each palette colour with the value it stands for, spread
// evenly over [lo, hi].
func colorKey(pal palette.Palette, lo, hi float64) ([]string, []plot.Thumbnailer) {
	thumbs := plotter.PaletteThumbnailers(pal)
	labels := make([]string, len(thumbs))
	for i := range thumbs {
		v := lo
		if len(thumbs) > 1 {
			v = lo + float64(i)*(hi-lo)/float64(len(thumbs)-1)
		}
		labels[i] = fmt.Sprintf("%.2f", v)
	}
	return labels, thumbs
}

// Heatmap renders a correlation matrix on a blue-to-red diverging scale fixed
// to [-1, 1], each cell annotated with its value to two decimals.
func Heatmap(c data.Correlation, title string) (*plot.Plot, error) {
	n := len(c.Names)
	if n == 0 || c.Matrix == nil {
		return nil, data.ErrEmptyFrame
	}
	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)

	grid := corrGrid{c: c}
	hm := plotter.NewHeatMap(grid, cmap.Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = black

	labels := plotter.XYLabels{}
	for r := 0; r < n; r++ {
		for col := 0; col < n; col++ {
			v := grid.Z(col, r)
			s := "nan"
			if !math.IsNaN(v) {
				s = fmt.Sprintf("%.2f", v)
			}
			labels.XYs = append(labels.XYs, plotter.XY{X: grid.X(col), Y: grid.Y(r)})
			labels.Labels = append(labels.Labels, s)
		}
	}
	annotations, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, err
	}
	for i := range annotations.TextStyle {
		annotations.TextStyle[i].XAlign = text.XCenter
		annotations.TextStyle[i].YAlign = text.YCenter
	}

	p := plot.New()
	p.Title.Text = title
	p.Add(hm, annotations)

	// colour key to the right of the cells
	keyLabels, thumbs := colorKey(cmap.Palette(keySteps), -1, 1)
	for i := len(thumbs) - 1; i >= 0; i-- {
		p.Legend.Add(keyLabels[i], thumbs[i])
	}
	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(-4)
	p.X.Max = float64(n) + 0.5

	yNames := make([]string, n)
	for i, name := range c.Names {
		yNames[n-1-i] = name
	}
	p.NominalX(c.Names...)
	p.NominalY(yNames...)
	return p, nil
}
