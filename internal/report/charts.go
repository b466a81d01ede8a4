package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/speed-threshold/internal/binning"
	"github.com/banshee-data/speed-threshold/internal/otsu"
	"github.com/banshee-data/speed-threshold/internal/units"
)

// HistogramChart builds an interactive bar chart of bin counts.
func HistogramChart(h *binning.Histogram, unit string) *charts.Bar {
	label := units.Label(unit)

	bars := make([]opts.BarData, len(h.Bins))
	for i, b := range h.Bins {
		bars[i] = opts.BarData{Value: b.Count()}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Speed Threshold", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Histogram of Speeds",
			Subtitle: fmt.Sprintf("bins of %g %s, %d samples", h.Width, label, h.Total()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: fmt.Sprintf("Speed [%s]", label), NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Frequency"}),
	)
	bar.SetXAxis(h.Labels(binLabelPrecision(h.Width))).
		AddSeries("speeds", bars)
	return bar
}

// VarianceChart builds an interactive scatter of threshold against mixed
// variance, with the selected threshold as a separate highlighted series.
func VarianceChart(res *otsu.Result, unit string) *charts.Scatter {
	label := units.Label(unit)

	points := make([]opts.ScatterData, len(res.Curve))
	for i, c := range res.Curve {
		points[i] = opts.ScatterData{Value: []interface{}{c.Threshold, c.MixedVariance}}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Speed Threshold", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Threshold vs Mixed Variance",
			Subtitle: fmt.Sprintf("threshold %.2f %s, mixed variance %.3f", res.Threshold, label, res.MixedVariance),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: fmt.Sprintf("Threshold [%s]", label), NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Weighted Variance"}),
	)
	scatter.AddSeries("mixed variance", points, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))
	scatter.AddSeries("threshold", []opts.ScatterData{{Value: []interface{}{res.Threshold, res.MixedVariance}}},
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}))
	return scatter
}

// RenderPage writes the given charts as a single HTML page.
func RenderPage(w io.Writer, c ...components.Charter) error {
	page := components.NewPage()
	page.PageTitle = "Speed Threshold"
	page.AddCharts(c...)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart page: %w", err)
	}
	return nil
}

func binLabelPrecision(width float64) int {
	if width == float64(int64(width)) {
		return 0
	}
	return 1
}
