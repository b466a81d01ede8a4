package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SpeedSource selects which radar table speeds are read from.
type SpeedSource string

const (
	// SourceObservations reads every raw radar reading from the data table.
	SourceObservations SpeedSource = "observations"
	// SourceObjects reads the peak speed of each classified transit.
	SourceObjects SpeedSource = "objects"
)

// ParseSpeedSource validates a source name from flags or config.
func ParseSpeedSource(s string) (SpeedSource, error) {
	switch SpeedSource(strings.ToLower(strings.TrimSpace(s))) {
	case SourceObservations:
		return SourceObservations, nil
	case SourceObjects:
		return SourceObjects, nil
	default:
		return "", fmt.Errorf("unknown speed source %q: must be %q or %q", s, SourceObservations, SourceObjects)
	}
}

// SpeedQuery filters the speeds returned by Speeds.
type SpeedQuery struct {
	Source SpeedSource
	// MinSpeed drops readings at or below this magnitude (m/s), which
	// removes stationary clutter. Zero keeps every non-zero reading.
	MinSpeed float64
	// Limit caps the number of rows read. Zero means no limit.
	Limit int
}

// DB wraps a velocity.report radar database.
type DB struct {
	*sql.DB
}

// NewDB opens the SQLite database at path and brings the radar tables up to
// date. Existing velocity.report databases are read as-is.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// OpenReadOnly opens an existing radar database without writing to it. No
// migrations run, and the file must already hold the data or radar_objects
// table.
func OpenReadOnly(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}

	var tables int
	err = sqlDB.QueryRow(`SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name IN ('data', 'radar_objects')`).Scan(&tables)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to read schema of %s: %w", path, err)
	}
	if tables == 0 {
		sqlDB.Close()
		return nil, fmt.Errorf("%s has no radar tables (data, radar_objects)", path)
	}
	return &DB{sqlDB}, nil
}

// RadarObject is a classified transit as reported by the radar firmware.
type RadarObject struct {
	Classifier   string  `json:"classifier"`
	StartTime    float64 `json:"start_time,string"`
	EndTime      float64 `json:"end_time,string"`
	DeltaTimeMs  int64   `json:"delta_time_msec"`
	MaxSpeed     float64 `json:"max_speed_mps"`
	MinSpeed     float64 `json:"min_speed_mps"`
	SpeedChange  float64 `json:"speed_change"`
	MaxMagnitude int64   `json:"max_magnitude"`
	AvgMagnitude int64   `json:"avg_magnitude"`
	TotalFrames  int64   `json:"total_frames"`
	FramesPerMps float64 `json:"frames_per_mps"`
	Length       float64 `json:"length_m"`
}

// RecordRadarObject stores a JSON object event from the radar.
func (db *DB) RecordRadarObject(payload string) error {
	var o RadarObject
	if err := json.Unmarshal([]byte(payload), &o); err != nil {
		return fmt.Errorf("failed to unmarshal radar object: %w", err)
	}

	_, err := db.Exec(`INSERT INTO radar_objects (
			classifier, start_time, end_time, delta_time_ms, max_speed, min_speed,
			speed_change, max_magnitude, avg_magnitude, total_frames, frames_per_mps, length
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.Classifier, o.StartTime, o.EndTime, o.DeltaTimeMs, o.MaxSpeed, o.MinSpeed,
		o.SpeedChange, o.MaxMagnitude, o.AvgMagnitude, o.TotalFrames, o.FramesPerMps, o.Length,
	)
	if err != nil {
		return fmt.Errorf("failed to insert radar object: %w", err)
	}
	return nil
}

func (db *DB) RecordObservation(uptime, magnitude, speed float64) error {
	_, err := db.Exec("INSERT INTO data (uptime, magnitude, speed) VALUES (?, ?, ?)", uptime, magnitude, speed)
	if err != nil {
		return err
	}
	return nil
}

// Speeds returns absolute speeds in m/s from the table selected by q.Source.
// Rows come back in recording order; callers sort before analysis.
func (db *DB) Speeds(ctx context.Context, q SpeedQuery) ([]float64, error) {
	var query string
	switch q.Source {
	case SourceObservations, "":
		query = `SELECT ABS(speed) AS s FROM data WHERE speed IS NOT NULL AND ABS(speed) > ? ORDER BY rowid`
	case SourceObjects:
		query = `SELECT ABS(max_speed) AS s FROM radar_objects WHERE max_speed IS NOT NULL AND ABS(max_speed) > ? ORDER BY rowid`
	default:
		return nil, fmt.Errorf("unknown speed source %q", q.Source)
	}

	args := []interface{}{q.MinSpeed}
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query speeds: %w", err)
	}
	defer rows.Close()

	var speeds []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan speed: %w", err)
		}
		speeds = append(speeds, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return speeds, nil
}
