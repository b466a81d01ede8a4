// Command ticket-threshold picks the speed above which a vehicle should be
// ticketed, using Otsu's method on a CSV file or a velocity.report database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/speed-threshold/internal/analysis"
	"github.com/banshee-data/speed-threshold/internal/config"
	"github.com/banshee-data/speed-threshold/internal/db"
	"github.com/banshee-data/speed-threshold/internal/monitoring"
	"github.com/banshee-data/speed-threshold/internal/otsu"
	"github.com/banshee-data/speed-threshold/internal/report"
	"github.com/banshee-data/speed-threshold/internal/speeddata"
	"github.com/banshee-data/speed-threshold/internal/units"
	"github.com/banshee-data/speed-threshold/internal/version"
)

const asciiWidth = 72

type cliFlags struct {
	input          string
	dbPath         string
	source         string
	unitsName      string
	binWidth       float64
	minSpeed       float64
	limit          int
	configPath     string
	outDir         string
	legacyBoundary bool
	ascii          bool
	verbose        bool
	showVersion    bool

	// set records which flags appeared on the command line.
	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	f := &cliFlags{set: make(map[string]bool)}
	fs := flag.NewFlagSet("ticket-threshold", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.input, "input", "speed_data.csv", "CSV file with one speed per row")
	fs.StringVar(&f.dbPath, "db", "", "velocity.report SQLite database (overrides -input)")
	fs.StringVar(&f.source, "source", string(db.SourceObservations), "database speed source: observations or objects")
	fs.StringVar(&f.unitsName, "units", units.MPH, "display units: "+units.GetValidUnitsString())
	fs.Float64Var(&f.binWidth, "bin-width", 0, "histogram bin width in display units (default 2)")
	fs.Float64Var(&f.minSpeed, "min-speed", 0, "drop database readings at or below this speed (m/s)")
	fs.IntVar(&f.limit, "limit", 0, "maximum database rows to read (0 = all)")
	fs.StringVar(&f.configPath, "config", "", "path to a JSON analysis config")
	fs.StringVar(&f.outDir, "out", "plots", "directory for chart output (empty disables charts)")
	fs.BoolVar(&f.legacyBoundary, "legacy-boundary", false, "drop the largest sample from the upper partition")
	fs.BoolVar(&f.ascii, "ascii", false, "print the variance curve to the terminal")
	fs.BoolVar(&f.verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&f.showVersion, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// merge applies the config file, then any flags given explicitly.
func (f *cliFlags) merge(cfg *config.AnalysisConfig) (analysis.Options, int, error) {
	opts := analysis.Options{
		CSVPath:        f.input,
		Units:          cfg.GetUnits(),
		BinWidth:       cfg.GetBinWidth(),
		LegacyBoundary: cfg.GetLegacyBoundary(),
		OutputDir:      cfg.GetOutputDir(),
		PlotWidthIn:    cfg.GetPlotWidthIn(),
		PlotHeightIn:   cfg.GetPlotHeightIn(),
		Query: db.SpeedQuery{
			Source:   cfg.GetSource(),
			MinSpeed: cfg.GetMinSpeedMPS(),
			Limit:    cfg.GetLimit(),
		},
	}

	if f.set["source"] {
		src, err := db.ParseSpeedSource(f.source)
		if err != nil {
			return opts, 0, err
		}
		opts.Query.Source = src
	}
	if f.set["units"] {
		if err := units.Validate(f.unitsName); err != nil {
			return opts, 0, err
		}
		opts.Units = f.unitsName
	}
	if f.set["bin-width"] {
		if !(f.binWidth > 0) {
			return opts, 0, fmt.Errorf("-bin-width must be positive, got %g", f.binWidth)
		}
		opts.BinWidth = f.binWidth
	}
	if f.set["min-speed"] {
		if f.minSpeed < 0 {
			return opts, 0, fmt.Errorf("-min-speed must be non-negative, got %g", f.minSpeed)
		}
		opts.Query.MinSpeed = f.minSpeed
	}
	if f.set["limit"] {
		if f.limit < 0 {
			return opts, 0, fmt.Errorf("-limit must be non-negative, got %d", f.limit)
		}
		opts.Query.Limit = f.limit
	}
	if f.set["out"] {
		opts.OutputDir = f.outDir
	}
	if f.set["legacy-boundary"] {
		opts.LegacyBoundary = f.legacyBoundary
	}
	opts.UseDatabase = f.dbPath != ""
	return opts, cfg.GetASCIIHeight(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "ticket-threshold: %v\n", err)
		return 1
	}

	if f.showVersion {
		fmt.Fprintln(stdout, version.String("ticket-threshold"))
		return 0
	}
	monitoring.SetVerbose(f.verbose)

	cfg := config.EmptyAnalysisConfig()
	if f.configPath != "" {
		cfg, err = config.LoadAnalysisConfig(f.configPath)
		if err != nil {
			fmt.Fprintf(stderr, "ticket-threshold: %v\n", err)
			return 1
		}
		monitoring.Logf("loaded analysis config from %s", f.configPath)
	}

	opts, asciiHeight, err := f.merge(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "ticket-threshold: %v\n", err)
		return 1
	}

	var deps analysis.Deps
	if opts.UseDatabase {
		if _, err := os.Stat(f.dbPath); err != nil {
			fmt.Fprintf(stderr, "ticket-threshold: %v\n", &speeddata.IOError{Path: f.dbPath, Err: err})
			return 1
		}
		radarDB, err := db.OpenReadOnly(f.dbPath)
		if err != nil {
			fmt.Fprintf(stderr, "ticket-threshold: failed to open database: %v\n", err)
			return 1
		}
		defer radarDB.Close()
		deps.Store = radarDB
	}

	rep, err := analysis.Run(ctx, opts, deps)
	if err != nil {
		fmt.Fprintf(stderr, "ticket-threshold: %v\n", err)
		var invalid *otsu.InvalidInputError
		if errors.As(err, &invalid) {
			fmt.Fprintln(stderr, "ticket-threshold: no usable speeds in the input")
		}
		return 1
	}

	report.WriteSummary(stdout, rep.Summary())
	if f.ascii {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, report.VarianceASCII(rep.Result.Curve, asciiWidth, asciiHeight))
	}
	if rep.OutputDir != "" {
		fmt.Fprintf(stdout, "charts written to %s\n", rep.OutputDir)
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
