package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/speed-threshold/internal/otsu"
	"github.com/banshee-data/speed-threshold/internal/units"
)

// Summary is the tabular outcome of one analysis run.
type Summary struct {
	RunID         string
	Units         string
	Samples       int
	Min           float64
	Max           float64
	Mean          float64
	P85           float64
	Threshold     float64
	MixedVariance float64
	Below         int
	AtOrAbove     int
}

// Summarize derives a Summary from the sorted samples and their result.
func Summarize(runID, unit string, sorted []float64, res *otsu.Result) Summary {
	return Summary{
		RunID:         runID,
		Units:         unit,
		Samples:       len(sorted),
		Min:           sorted[0],
		Max:           sorted[len(sorted)-1],
		Mean:          stat.Mean(sorted, nil),
		P85:           stat.Quantile(0.85, stat.Empirical, sorted, nil),
		Threshold:     res.Threshold,
		MixedVariance: res.MixedVariance,
		Below:         res.Index,
		AtOrAbove:     len(sorted) - res.Index,
	}
}

// WriteSummary renders s as a two-column table.
func WriteSummary(w io.Writer, s Summary) {
	label := units.Label(s.Units)
	speed := func(v float64) string { return fmt.Sprintf("%.2f %s", v, label) }

	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Metric", "Value"})
	tbl.SetAlignment(tablewriter.ALIGN_LEFT)
	if s.RunID != "" {
		tbl.Append([]string{"Run", s.RunID})
	}
	tbl.Append([]string{"Samples", strconv.Itoa(s.Samples)})
	tbl.Append([]string{"Min speed", speed(s.Min)})
	tbl.Append([]string{"Max speed", speed(s.Max)})
	tbl.Append([]string{"Mean speed", speed(s.Mean)})
	tbl.Append([]string{"85th percentile", speed(s.P85)})
	tbl.Append([]string{"Ticket threshold", speed(s.Threshold)})
	tbl.Append([]string{"Mixed variance", strconv.FormatFloat(s.MixedVariance, 'f', 4, 64)})
	tbl.Append([]string{"Below threshold", strconv.Itoa(s.Below)})
	tbl.Append([]string{"At or above threshold", strconv.Itoa(s.AtOrAbove)})
	tbl.Render()
}

// VarianceASCII plots the mixed variance curve for a terminal. Curves longer
// than width columns are interpolated down to width.
func VarianceASCII(curve otsu.Curve, width, height int) string {
	if len(curve) == 0 {
		return ""
	}
	options := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Caption(fmt.Sprintf("mixed variance over %d candidate thresholds", len(curve))),
	}
	if width > 0 && len(curve) > width {
		options = append(options, asciigraph.Width(width))
	}
	return asciigraph.Plot(curve.Variances(), options...)
}
