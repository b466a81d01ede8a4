package speeddata

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/speed-threshold/internal/db"
	"github.com/banshee-data/speed-threshold/internal/fsutil"
	"github.com/banshee-data/speed-threshold/internal/otsu"
	"github.com/banshee-data/speed-threshold/internal/units"
)

func memFS(t *testing.T, name, contents string) *fsutil.MemoryFileSystem {
	t.Helper()
	m := fsutil.NewMemoryFileSystem()
	m.AddFile(name, []byte(contents))
	return m
}

func TestLoadCSV_SortsSamples(t *testing.T) {
	fsys := memFS(t, "speed_data.csv", "41.4\n29.9\n 35.0\n52.2,inbound\n\n30.1\n")

	ds, err := LoadCSV(fsys, "speed_data.csv")
	require.NoError(t, err)

	assert.Equal(t, []float64{29.9, 30.1, 35.0, 41.4, 52.2}, ds.Values())
	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, 29.9, ds.Min())
	assert.Equal(t, 52.2, ds.Max())
}

func TestLoadCSV_ParseErrorReportsLine(t *testing.T) {
	fsys := memFS(t, "speed_data.csv", "41.4\n29.9\nfast\n30.1\n")

	_, err := LoadCSV(fsys, "speed_data.csv")
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr), "expected ParseError, got %T: %v", err, err)
	assert.Equal(t, 3, perr.Line)
	assert.Equal(t, "fast", perr.Value)
	assert.Contains(t, err.Error(), "speed_data.csv")
}

func TestLoadCSV_HeaderRowIsMalformed(t *testing.T) {
	fsys := memFS(t, "speed_data.csv", "speed_mph\n41.4\n")

	_, err := LoadCSV(fsys, "speed_data.csv")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Line)
}

func TestLoadCSV_BadQuoting(t *testing.T) {
	fsys := memFS(t, "speed_data.csv", "41.4\n\"30.1\n")

	_, err := LoadCSV(fsys, "speed_data.csv")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(fsutil.NewMemoryFileSystem(), "missing.csv")

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "missing.csv", ioErr.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadCSV_EmptyFile(t *testing.T) {
	fsys := memFS(t, "speed_data.csv", "")

	_, err := LoadCSV(fsys, "speed_data.csv")
	var invalid *otsu.InvalidInputError
	require.ErrorAs(t, err, &invalid)
}

func TestLoadCSV_NonFiniteValue(t *testing.T) {
	fsys := memFS(t, "speed_data.csv", "41.4\nNaN\n")

	_, err := LoadCSV(fsys, "speed_data.csv")
	var invalid *otsu.InvalidInputError
	require.ErrorAs(t, err, &invalid)
}

func TestLoadCSV_OSFileSystem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speed_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("12\n11\n10\n"), 0644))

	ds, err := LoadCSV(fsutil.OSFileSystem{}, path)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11, 12}, ds.Values())
}

func TestReadSpeeds_PreservesOrder(t *testing.T) {
	got, err := ReadSpeeds(strings.NewReader("3\n1\n2\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, got)
}

func TestNewDataset_CopiesInput(t *testing.T) {
	in := []float64{50, 10, 30}
	ds, err := NewDataset(in)
	require.NoError(t, err)

	assert.Equal(t, []float64{50, 10, 30}, in, "input must not be reordered")
	assert.Equal(t, []float64{10, 30, 50}, ds.Values())
}

func TestNewDataset_Empty(t *testing.T) {
	_, err := NewDataset(nil)
	var invalid *otsu.InvalidInputError
	require.ErrorAs(t, err, &invalid)
}

type fakeStore struct {
	speeds []float64
	err    error
	got    db.SpeedQuery
}

func (f *fakeStore) Speeds(_ context.Context, q db.SpeedQuery) ([]float64, error) {
	f.got = q
	return f.speeds, f.err
}

func TestLoadSQLite_ConvertsUnits(t *testing.T) {
	store := &fakeStore{speeds: []float64{13.4112, 8.9408}}
	q := db.SpeedQuery{Source: db.SourceObjects, MinSpeed: 1}

	ds, err := LoadSQLite(context.Background(), store, q, units.MPH)
	require.NoError(t, err)

	assert.Equal(t, q, store.got)
	assert.InDeltaSlice(t, []float64{20, 30}, ds.Values(), 1e-9)
}

func TestLoadSQLite_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := LoadSQLite(ctx, &fakeStore{speeds: []float64{1}}, db.SpeedQuery{}, "knots")
	assert.Error(t, err)

	boom := errors.New("disk I/O error")
	_, err = LoadSQLite(ctx, &fakeStore{err: boom}, db.SpeedQuery{}, units.MPH)
	assert.ErrorIs(t, err, boom)

	_, err = LoadSQLite(ctx, &fakeStore{}, db.SpeedQuery{}, units.MPH)
	var invalid *otsu.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestLoadSQLite_RadarDatabase(t *testing.T) {
	store, err := db.NewDB(filepath.Join(t.TempDir(), "sensor_data.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for i, mps := range []float64{11.2, -15.6, 0.2, 12.0} {
		require.NoError(t, store.RecordObservation(float64(i), 30, mps))
	}

	ds, err := LoadSQLite(context.Background(), store, db.SpeedQuery{Source: db.SourceObservations, MinSpeed: 1}, units.MPS)
	require.NoError(t, err)
	assert.Equal(t, []float64{11.2, 12.0, 15.6}, ds.Values())
}
