package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/banshee-data/anchor-pose/internal/filter"
	"github.com/banshee-data/anchor-pose/internal/particle"
	"github.com/banshee-data/anchor-pose/internal/sources"
)

// Measurement is a stored sensor reading.
type Measurement struct {
	RunID        string                    `json:"run_id"`
	Source       string                    `json:"source"`
	Timestamp    int64                     `json:"timestamp"`
	Value        particle.Vector3          `json:"value"`
	StdDev       float64                   `json:"stddev"`
	Distribution particle.DistributionKind `json:"distribution"`
}

// Reading rebuilds the filter-side measurement.
func (m Measurement) Reading() (particle.VectorMeasurement, error) {
	return particle.NewMeasurement(m.Value, m.Timestamp, m.StdDev, m.Distribution)
}

// RecordMeasurement stores one reading delivered by source during a run.
func (db *DB) RecordMeasurement(ctx context.Context, runID, source string, m particle.VectorMeasurement) error {
	kind := particle.Gaussian
	if m.Distribution != nil {
		kind = m.Distribution.Kind()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO measurements (run_id, source, ts_unix_ms, x, y, z, stddev, distribution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, source, m.Timestamp, m.Data[0], m.Data[1], m.Data[2], m.StdDev, string(kind),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s measurement at %d: %w", source, m.Timestamp, err)
	}
	return nil
}

// ListMeasurements returns the readings of one source in a run, oldest
// first. An empty source lists every source.
func (db *DB) ListMeasurements(ctx context.Context, runID, source string) ([]Measurement, error) {
	query := `
		SELECT run_id, source, ts_unix_ms, x, y, z, stddev, distribution
		FROM measurements
		WHERE run_id = ?`
	args := []interface{}{runID}
	if source != "" {
		query += ` AND source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY ts_unix_ms, measurement_id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}
	defer rows.Close()

	var out []Measurement
	for rows.Next() {
		var (
			m    Measurement
			kind string
		)
		if err := rows.Scan(&m.RunID, &m.Source, &m.Timestamp, &m.Value[0], &m.Value[1], &m.Value[2], &m.StdDev, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		m.Distribution = particle.DistributionKind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadBuffer fills a sources.Buffer with a recorded source so a run can be
// replayed through a fresh filter.
func (db *DB) LoadBuffer(ctx context.Context, runID, source string) (*sources.Buffer, error) {
	stored, err := db.ListMeasurements(ctx, runID, source)
	if err != nil {
		return nil, err
	}
	buf := sources.NewBuffer(source, len(stored))
	for _, m := range stored {
		r, err := m.Reading()
		if err != nil {
			return nil, fmt.Errorf("replay %s at %d: %w", source, m.Timestamp, err)
		}
		buf.Push(r)
	}
	return buf, nil
}

// RecordingSource passes queries through to a filter.Source and stores every
// reading it hands out. Each reading is stored once even when successive
// query windows overlap.
type RecordingSource struct {
	db     *DB
	runID  string
	name   string
	source filter.Source

	mu       sync.Mutex
	lastTS   int64
	recorded bool
	failures int
}

// NewRecordingSource wraps src so its readings are stored under runID.
func (db *DB) NewRecordingSource(runID, name string, src filter.Source) *RecordingSource {
	return &RecordingSource{db: db, runID: runID, name: name, source: src}
}

// Closest implements filter.Source.
func (s *RecordingSource) Closest(target, from, to int64) []particle.VectorMeasurement {
	out := s.source.Closest(target, from, to)
	s.record(out)
	return out
}

// Between implements filter.Source.
func (s *RecordingSource) Between(from, to int64) []particle.VectorMeasurement {
	out := s.source.Between(from, to)
	s.record(out)
	return out
}

// Failures returns how many readings could not be stored.
func (s *RecordingSource) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

func (s *RecordingSource) record(ms []particle.VectorMeasurement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newest := s.lastTS
	for _, m := range ms {
		if s.recorded && m.Timestamp <= s.lastTS {
			continue
		}
		if err := s.db.RecordMeasurement(context.Background(), s.runID, s.name, m); err != nil {
			s.failures++
			filter.Diagf("recording %s: %v", s.name, err)
			continue
		}
		if m.Timestamp > newest {
			newest = m.Timestamp
		}
	}
	if len(ms) > 0 {
		s.lastTS = newest
		s.recorded = true
	}
}
