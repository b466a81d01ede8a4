package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/speed-threshold/internal/db"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestEmptyAnalysisConfig_Defaults(t *testing.T) {
	cfg := EmptyAnalysisConfig()

	if got := cfg.GetSource(); got != db.SourceObservations {
		t.Errorf("GetSource() = %q, want observations", got)
	}
	if got := cfg.GetUnits(); got != "mph" {
		t.Errorf("GetUnits() = %q, want mph", got)
	}
	if got := cfg.GetBinWidth(); got != 2 {
		t.Errorf("GetBinWidth() = %v, want 2", got)
	}
	if cfg.GetLegacyBoundary() {
		t.Error("GetLegacyBoundary() = true, want false")
	}
	if got := cfg.GetOutputDir(); got != "plots" {
		t.Errorf("GetOutputDir() = %q, want plots", got)
	}
	if cfg.GetMinSpeedMPS() != 0 || cfg.GetLimit() != 0 {
		t.Errorf("unexpected radar filter defaults: min=%v limit=%d", cfg.GetMinSpeedMPS(), cfg.GetLimit())
	}
	if cfg.GetPlotWidthIn() != 10 || cfg.GetPlotHeightIn() != 6 || cfg.GetASCIIHeight() != 12 {
		t.Errorf("unexpected plot defaults: %vx%v ascii=%d", cfg.GetPlotWidthIn(), cfg.GetPlotHeightIn(), cfg.GetASCIIHeight())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty config failed validation: %v", err)
	}
}

func TestLoadAnalysisConfig(t *testing.T) {
	path := writeConfig(t, "analysis.json", `{
  "source": "objects",
  "min_speed_mps": 2.5,
  "units": "kph",
  "bin_width": 5,
  "legacy_boundary": true,
  "output_dir": "out/charts",
  "ascii_height": 20
}`)

	cfg, err := LoadAnalysisConfig(path)
	if err != nil {
		t.Fatalf("LoadAnalysisConfig failed: %v", err)
	}

	if cfg.GetSource() != db.SourceObjects {
		t.Errorf("GetSource() = %q, want objects", cfg.GetSource())
	}
	if cfg.GetMinSpeedMPS() != 2.5 {
		t.Errorf("GetMinSpeedMPS() = %v, want 2.5", cfg.GetMinSpeedMPS())
	}
	if cfg.GetUnits() != "kph" || cfg.GetBinWidth() != 5 || !cfg.GetLegacyBoundary() {
		t.Errorf("unexpected analysis settings: units=%s width=%v legacy=%v", cfg.GetUnits(), cfg.GetBinWidth(), cfg.GetLegacyBoundary())
	}
	if cfg.GetOutputDir() != "out/charts" || cfg.GetASCIIHeight() != 20 {
		t.Errorf("unexpected output settings: dir=%s ascii=%d", cfg.GetOutputDir(), cfg.GetASCIIHeight())
	}
	// Unset fields keep their defaults.
	if cfg.GetPlotWidthIn() != 10 || cfg.GetLimit() != 0 {
		t.Errorf("unset fields lost defaults: width=%v limit=%d", cfg.GetPlotWidthIn(), cfg.GetLimit())
	}
}

func TestLoadAnalysisConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "analysis.yaml", `{}`, ".json extension"},
		{"bad json", "analysis.json", `{"units": }`, "failed to parse"},
		{"unknown units", "analysis.json", `{"units": "knots"}`, "invalid units"},
		{"zero bin width", "analysis.json", `{"bin_width": 0}`, "bin_width"},
		{"negative min speed", "analysis.json", `{"min_speed_mps": -1}`, "min_speed_mps"},
		{"negative limit", "analysis.json", `{"limit": -5}`, "limit"},
		{"bad source", "analysis.json", `{"source": "lidar"}`, "speed source"},
		{"bad plot height", "analysis.json", `{"plot_height_in": -2}`, "plot_height_in"},
		{"bad ascii height", "analysis.json", `{"ascii_height": 0}`, "ascii_height"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := LoadAnalysisConfig(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAnalysisConfig_Missing(t *testing.T) {
	if _, err := LoadAnalysisConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadAnalysisConfig_TooLarge(t *testing.T) {
	body := `{"units": "mph"` + strings.Repeat(" ", 1024*1024) + `}`
	path := writeConfig(t, "big.json", body)
	_, err := LoadAnalysisConfig(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected too large error, got %v", err)
	}
}
