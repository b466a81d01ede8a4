package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/speed-threshold/internal/binning"
	"github.com/banshee-data/speed-threshold/internal/db"
	"github.com/banshee-data/speed-threshold/internal/units"
)

// AnalysisConfig holds optional settings for a threshold analysis run.
// Every field is a pointer so partial files leave the rest at their
// defaults; the Get* accessors supply those defaults.
type AnalysisConfig struct {
	// Input
	Source      *string  `json:"source,omitempty"`        // "observations" or "objects"
	MinSpeedMPS *float64 `json:"min_speed_mps,omitempty"` // radar rows at or below are dropped
	Limit       *int     `json:"limit,omitempty"`

	// Analysis
	Units          *string  `json:"units,omitempty"`
	BinWidth       *float64 `json:"bin_width,omitempty"`
	LegacyBoundary *bool    `json:"legacy_boundary,omitempty"`

	// Output
	OutputDir    *string  `json:"output_dir,omitempty"`
	PlotWidthIn  *float64 `json:"plot_width_in,omitempty"`
	PlotHeightIn *float64 `json:"plot_height_in,omitempty"`
	ASCIIHeight  *int     `json:"ascii_height,omitempty"`
}

// EmptyAnalysisConfig returns an AnalysisConfig with all fields set to nil.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file must have a .json extension and be no larger than 1MB.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if c.Source != nil {
		if _, err := db.ParseSpeedSource(*c.Source); err != nil {
			return err
		}
	}
	if c.MinSpeedMPS != nil && (*c.MinSpeedMPS < 0 || math.IsNaN(*c.MinSpeedMPS)) {
		return fmt.Errorf("min_speed_mps must be non-negative, got %f", *c.MinSpeedMPS)
	}
	if c.Limit != nil && *c.Limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", *c.Limit)
	}
	if c.Units != nil {
		if err := units.Validate(*c.Units); err != nil {
			return err
		}
	}
	if c.BinWidth != nil && !(*c.BinWidth > 0) {
		return fmt.Errorf("bin_width must be positive, got %f", *c.BinWidth)
	}
	if c.PlotWidthIn != nil && !(*c.PlotWidthIn > 0) {
		return fmt.Errorf("plot_width_in must be positive, got %f", *c.PlotWidthIn)
	}
	if c.PlotHeightIn != nil && !(*c.PlotHeightIn > 0) {
		return fmt.Errorf("plot_height_in must be positive, got %f", *c.PlotHeightIn)
	}
	if c.ASCIIHeight != nil && *c.ASCIIHeight < 1 {
		return fmt.Errorf("ascii_height must be at least 1, got %d", *c.ASCIIHeight)
	}
	return nil
}

// GetSource returns the radar speed source or the default.
func (c *AnalysisConfig) GetSource() db.SpeedSource {
	if c.Source == nil {
		return db.SourceObservations
	}
	s, err := db.ParseSpeedSource(*c.Source)
	if err != nil {
		return db.SourceObservations
	}
	return s
}

// GetMinSpeedMPS returns the min_speed_mps value or the default.
func (c *AnalysisConfig) GetMinSpeedMPS() float64 {
	if c.MinSpeedMPS == nil {
		return 0
	}
	return *c.MinSpeedMPS
}

// GetLimit returns the limit value or the default (unlimited).
func (c *AnalysisConfig) GetLimit() int {
	if c.Limit == nil {
		return 0
	}
	return *c.Limit
}

// GetUnits returns the display units or the default.
func (c *AnalysisConfig) GetUnits() string {
	if c.Units == nil {
		return units.MPH
	}
	return *c.Units
}

// GetBinWidth returns the histogram bin width or the default.
func (c *AnalysisConfig) GetBinWidth() float64 {
	if c.BinWidth == nil {
		return binning.DefaultWidth
	}
	return *c.BinWidth
}

// GetLegacyBoundary returns the legacy_boundary value or the default.
func (c *AnalysisConfig) GetLegacyBoundary() bool {
	if c.LegacyBoundary == nil {
		return false
	}
	return *c.LegacyBoundary
}

// GetOutputDir returns the chart output directory or the default.
func (c *AnalysisConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return "plots"
	}
	return *c.OutputDir
}

// GetPlotWidthIn returns the PNG width in inches or the default.
func (c *AnalysisConfig) GetPlotWidthIn() float64 {
	if c.PlotWidthIn == nil {
		return 10
	}
	return *c.PlotWidthIn
}

// GetPlotHeightIn returns the PNG height in inches or the default.
func (c *AnalysisConfig) GetPlotHeightIn() float64 {
	if c.PlotHeightIn == nil {
		return 6
	}
	return *c.PlotHeightIn
}

// GetASCIIHeight returns the terminal plot height in rows or the default.
func (c *AnalysisConfig) GetASCIIHeight() int {
	if c.ASCIIHeight == nil {
		return 12
	}
	return *c.ASCIIHeight
}
