// Package analysis runs one end-to-end ticket threshold analysis: load the
// speeds, bin them, select the Otsu threshold and render the charts.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/speed-threshold/internal/binning"
	"github.com/banshee-data/speed-threshold/internal/db"
	"github.com/banshee-data/speed-threshold/internal/fsutil"
	"github.com/banshee-data/speed-threshold/internal/monitoring"
	"github.com/banshee-data/speed-threshold/internal/otsu"
	"github.com/banshee-data/speed-threshold/internal/report"
	"github.com/banshee-data/speed-threshold/internal/speeddata"
	"github.com/banshee-data/speed-threshold/internal/timeutil"
	"github.com/banshee-data/speed-threshold/internal/units"
)

// Output file names inside a run directory.
const (
	HistogramFile = "histogram.png"
	VarianceFile  = "variance.png"
	ChartsFile    = "report.html"
)

// Options selects the input and controls the analysis.
type Options struct {
	// CSVPath is read when UseDatabase is false.
	CSVPath string
	// UseDatabase reads speeds from Deps.Store instead of a CSV file.
	UseDatabase bool
	Query       db.SpeedQuery

	Units          string
	BinWidth       float64
	LegacyBoundary bool

	// OutputDir is the parent of the timestamped run directory. Empty
	// disables chart output.
	OutputDir    string
	PlotWidthIn  float64
	PlotHeightIn float64
}

// Deps are the collaborators a run uses.
type Deps struct {
	FS    fsutil.FileSystem
	Clock timeutil.Clock
	Store speeddata.SpeedStore
}

// Report is the outcome of one Run.
type Report struct {
	RunID     string
	Units     string
	Dataset   speeddata.Dataset
	Histogram *binning.Histogram
	Result    *otsu.Result
	// OutputDir is the run directory holding Files, or empty when no
	// charts were written.
	OutputDir string
	Files     []string
}

// Summary returns the tabular view of the report.
func (r *Report) Summary() report.Summary {
	return report.Summarize(r.RunID, r.Units, r.Dataset.Values(), r.Result)
}

// Run performs the analysis described by opts.
func Run(ctx context.Context, opts Options, deps Deps) (*Report, error) {
	if deps.FS == nil {
		deps.FS = fsutil.OSFileSystem{}
	}
	if deps.Clock == nil {
		deps.Clock = timeutil.RealClock{}
	}
	if opts.Units == "" {
		opts.Units = units.MPH
	}
	if opts.BinWidth == 0 {
		opts.BinWidth = binning.DefaultWidth
	}
	if err := units.Validate(opts.Units); err != nil {
		return nil, err
	}

	start := deps.Clock.Now()
	rep := &Report{RunID: uuid.NewString(), Units: opts.Units}

	ds, err := load(ctx, opts, deps)
	if err != nil {
		return nil, err
	}
	rep.Dataset = ds
	monitoring.Logf("run %s: analysing %d speeds (%.2f-%.2f %s)", rep.RunID, ds.Len(), ds.Min(), ds.Max(), units.Label(opts.Units))

	rep.Histogram, err = binning.Quantize(ds.Values(), opts.BinWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to bin speeds: %w", err)
	}

	selector := otsu.Selector{LegacyBoundary: opts.LegacyBoundary}
	rep.Result, err = selector.Select(ds.Values())
	if err != nil {
		return nil, fmt.Errorf("failed to select threshold: %w", err)
	}
	monitoring.Logf("run %s: threshold %.2f %s (mixed variance %.4f, split %d/%d)",
		rep.RunID, rep.Result.Threshold, units.Label(opts.Units), rep.Result.MixedVariance, rep.Result.Index, ds.Len())

	if opts.OutputDir != "" {
		if err := writeCharts(rep, opts, deps, start); err != nil {
			return nil, err
		}
	}

	monitoring.Debugf("run %s: finished in %s", rep.RunID, deps.Clock.Since(start))
	return rep, nil
}

func load(ctx context.Context, opts Options, deps Deps) (speeddata.Dataset, error) {
	if opts.UseDatabase {
		if deps.Store == nil {
			return speeddata.Dataset{}, fmt.Errorf("no radar database configured")
		}
		return speeddata.LoadSQLite(ctx, deps.Store, opts.Query, opts.Units)
	}
	return speeddata.LoadCSV(deps.FS, opts.CSVPath)
}

func writeCharts(rep *Report, opts Options, deps Deps, start time.Time) error {
	dir := filepath.Join(opts.OutputDir, timeutil.FormatTimestamp(start))
	if err := deps.FS.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	width, height := opts.PlotWidthIn, opts.PlotHeightIn
	if width <= 0 {
		width = 10
	}
	if height <= 0 {
		height = 6
	}

	histPlot, err := report.HistogramPlot(rep.Histogram, opts.Units)
	if err != nil {
		return err
	}
	histPath := filepath.Join(dir, HistogramFile)
	if err := report.SavePlot(deps.FS, histPlot, histPath, width, height); err != nil {
		return err
	}

	varPlot, err := report.VariancePlot(rep.Result, opts.Units)
	if err != nil {
		return err
	}
	varPath := filepath.Join(dir, VarianceFile)
	if err := report.SavePlot(deps.FS, varPlot, varPath, width, height); err != nil {
		return err
	}

	var page bytes.Buffer
	if err := report.RenderPage(&page,
		report.HistogramChart(rep.Histogram, opts.Units),
		report.VarianceChart(rep.Result, opts.Units),
	); err != nil {
		return err
	}
	chartsPath := filepath.Join(dir, ChartsFile)
	f, err := deps.FS.Create(chartsPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", chartsPath, err)
	}
	if _, err := f.Write(page.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", chartsPath, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	rep.OutputDir = dir
	rep.Files = []string{histPath, varPath, chartsPath}
	monitoring.Logf("run %s: wrote charts to %s", rep.RunID, dir)
	return nil
}
