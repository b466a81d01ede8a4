package speeddata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/speed-threshold/internal/db"
	"github.com/banshee-data/speed-threshold/internal/fsutil"
	"github.com/banshee-data/speed-threshold/internal/monitoring"
	"github.com/banshee-data/speed-threshold/internal/units"
)

// ParseError reports a row whose speed column is not a number.
type ParseError struct {
	Line  int
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid speed %q: %v", e.Line, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError reports a failure to open or read the input.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// SpeedStore is the radar database surface used to read speeds.
type SpeedStore interface {
	Speeds(ctx context.Context, q db.SpeedQuery) ([]float64, error)
}

// LoadCSV reads the first column of every row in path as a speed. Any
// malformed row aborts the load.
func LoadCSV(fsys fsutil.FileSystem, path string) (Dataset, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return Dataset{}, &IOError{Path: path, Err: err}
	}
	defer f.Close()

	samples, err := ReadSpeeds(f)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return Dataset{}, fmt.Errorf("%s: %w", path, err)
		}
		return Dataset{}, &IOError{Path: path, Err: err}
	}

	monitoring.Debugf("loaded %d speeds from %s", len(samples), path)
	return NewDataset(samples)
}

// ReadSpeeds parses one speed per CSV record from r, in input order.
func ReadSpeeds(r io.Reader) ([]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var samples []float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &ParseError{Line: csvErr.Line, Err: csvErr.Err}
			}
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		field := strings.TrimSpace(record[0])
		speed, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, &ParseError{Line: line, Value: field, Err: err}
		}
		samples = append(samples, speed)
	}
	return samples, nil
}

// LoadSQLite reads radar speeds (m/s) from store and converts them to unit.
func LoadSQLite(ctx context.Context, store SpeedStore, q db.SpeedQuery, unit string) (Dataset, error) {
	if err := units.Validate(unit); err != nil {
		return Dataset{}, err
	}

	raw, err := store.Speeds(ctx, q)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to load speeds: %w", err)
	}

	samples := make([]float64, len(raw))
	for i, mps := range raw {
		samples[i] = units.ConvertSpeed(mps, unit)
	}

	monitoring.Debugf("loaded %d %s speeds from radar database", len(samples), q.Source)
	return NewDataset(samples)
}
