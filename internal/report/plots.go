// Package report renders threshold analysis results as PNG plots, HTML
// charts and terminal output. Every renderer takes the data it draws and
// returns a self-contained value; nothing is shared between charts.
package report

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/speed-threshold/internal/binning"
	"github.com/banshee-data/speed-threshold/internal/fsutil"
	"github.com/banshee-data/speed-threshold/internal/otsu"
	"github.com/banshee-data/speed-threshold/internal/units"
)

var (
	barFill       = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	thresholdLine = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// HistogramPlot draws one bar per bin, spanning the bin's speed range.
func HistogramPlot(h *binning.Histogram, unit string) (*plot.Plot, error) {
	if h == nil || len(h.Bins) == 0 {
		return nil, fmt.Errorf("histogram has no bins")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Histogram of Speeds (bins of %g %s)", h.Width, units.Label(unit))
	p.X.Label.Text = fmt.Sprintf("Speed [%s]", units.Label(unit))
	p.Y.Label.Text = "Frequency"

	bins := make([]plotter.HistogramBin, len(h.Bins))
	for i, b := range h.Bins {
		bins[i] = plotter.HistogramBin{Min: b.Start, Max: b.End(), Weight: float64(b.Count())}
	}
	hist := &plotter.Histogram{
		Bins:      bins,
		Width:     h.Width,
		FillColor: barFill,
		LineStyle: plotter.DefaultLineStyle,
	}
	hist.LineStyle.Color = color.Black
	p.Add(hist)

	return p, nil
}

// VariancePlot scatters every candidate threshold against its mixed variance
// and marks the selected threshold with a dashed vertical line.
func VariancePlot(res *otsu.Result, unit string) (*plot.Plot, error) {
	if res == nil || len(res.Curve) == 0 {
		return nil, fmt.Errorf("variance curve is empty")
	}

	p := plot.New()
	p.Title.Text = "Threshold vs Mixed Variance"
	p.X.Label.Text = fmt.Sprintf("Threshold [%s]", units.Label(unit))
	p.Y.Label.Text = "Weighted Variance"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(res.Curve))
	maxVar := 0.0
	for i, c := range res.Curve {
		pts[i] = plotter.XY{X: c.Threshold, Y: c.MixedVariance}
		maxVar = math.Max(maxVar, c.MixedVariance)
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Color = barFill
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(scatter)
	p.Legend.Add("mixed variance", scatter)

	top := maxVar
	if top == 0 {
		top = 1
	}
	marker, err := plotter.NewLine(plotter.XYs{{X: res.Threshold, Y: 0}, {X: res.Threshold, Y: top}})
	if err != nil {
		return nil, err
	}
	marker.Color = thresholdLine
	marker.Width = vg.Points(1)
	marker.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(marker)
	p.Legend.Add(fmt.Sprintf("threshold %.1f %s", res.Threshold, units.Label(unit)), marker)

	p.Legend.Top = true
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p, nil
}

// SavePlot encodes p as an image sized widthIn x heightIn inches. The format
// follows the file extension (png, svg, pdf, ...).
func SavePlot(fsys fsutil.FileSystem, p *plot.Plot, path string, widthIn, heightIn float64) error {
	format := filepath.Ext(path)
	if format == "" {
		return fmt.Errorf("plot path %q has no extension", path)
	}

	wt, err := p.WriterTo(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch, format[1:])
	if err != nil {
		return fmt.Errorf("encode plot: %w", err)
	}

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
