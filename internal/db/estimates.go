package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"github.com/banshee-data/anchor-pose/internal/filter"
)

// nullable stores NaN as NULL; SQLite has no NaN.
func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// RecordEstimate stores the estimate of one tick for a run.
func (db *DB) RecordEstimate(ctx context.Context, runID string, e filter.Estimate) error {
	issues := e.Validation.Issues
	if issues == nil {
		issues = []string{}
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("failed to marshal issues: %w", err)
	}
	valid := 0
	if e.Validation.Valid {
		valid = 1
	}

	p, o := e.Pose.Position, e.Pose.Orientation
	_, err = db.ExecContext(ctx, `
		INSERT INTO pose_estimates (
			run_id, ts_unix_ms, pos_x, pos_y, pos_z, rot_x, rot_y, rot_z, valid, issues_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, e.Timestamp,
		nullable(p[0]), nullable(p[1]), nullable(p[2]),
		nullable(o[0]), nullable(o[1]), nullable(o[2]),
		valid, string(issuesJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to record estimate at %d: %w", e.Timestamp, err)
	}
	return nil
}

// ListEstimates returns a run's estimates ordered by timestamp.
func (db *DB) ListEstimates(ctx context.Context, runID string) ([]filter.Estimate, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT ts_unix_ms, pos_x, pos_y, pos_z, rot_x, rot_y, rot_z, valid, issues_json
		FROM pose_estimates
		WHERE run_id = ?
		ORDER BY ts_unix_ms`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	defer rows.Close()

	var out []filter.Estimate
	for rows.Next() {
		var (
			e      filter.Estimate
			pos    [3]sql.NullFloat64
			rot    [3]sql.NullFloat64
			valid  int
			issues string
		)
		if err := rows.Scan(&e.Timestamp, &pos[0], &pos[1], &pos[2], &rot[0], &rot[1], &rot[2], &valid, &issues); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		for i := range pos {
			e.Pose.Position[i] = fromNullable(pos[i])
			e.Pose.Orientation[i] = fromNullable(rot[i])
		}
		e.Validation.Valid = valid == 1
		if err := json.Unmarshal([]byte(issues), &e.Validation.Issues); err != nil {
			return nil, fmt.Errorf("failed to decode issues at %d: %w", e.Timestamp, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Recorder writes every estimate it receives to one run.
type Recorder struct {
	db    *DB
	runID string
}

// NewRecorder returns a Recorder bound to runID.
func (db *DB) NewRecorder(runID string) *Recorder {
	return &Recorder{db: db, runID: runID}
}

// RunID returns the run the recorder writes to.
func (r *Recorder) RunID() string { return r.runID }

// RecordEstimate stores e under the recorder's run.
func (r *Recorder) RecordEstimate(ctx context.Context, e filter.Estimate) error {
	return r.db.RecordEstimate(ctx, r.runID, e)
}
