package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one estimation session: a filter configuration driven over a
// scenario for a number of ticks.
type Run struct {
	ID         string          `json:"run_id"`
	Name       string          `json:"name"`
	Scenario   string          `json:"scenario"`
	Config     json.RawMessage `json:"config"`
	Ticks      int             `json:"ticks"`
	Invalid    int             `json:"invalid"`
	CreatedAt  time.Time       `json:"created_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// CreateRun stores a new run with a generated ID. config is marshalled to
// JSON and may be nil.
func (db *DB) CreateRun(name, scenario string, config interface{}) (*Run, error) {
	if name == "" {
		return nil, errors.New("run name is required")
	}
	cfg := json.RawMessage("{}")
	if config != nil {
		b, err := json.Marshal(config)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal run config: %w", err)
		}
		cfg = b
	}

	run := &Run{
		ID:        uuid.NewString(),
		Name:      name,
		Scenario:  scenario,
		Config:    cfg,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err := db.Exec(
		`INSERT INTO runs (run_id, name, scenario, config_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Name, run.Scenario, string(run.Config), run.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// FinishRun records the final tick counts of a run.
func (db *DB) FinishRun(id string, ticks, invalid int) error {
	res, err := db.Exec(
		`UPDATE runs SET ticks = ?, invalid = ?, finished_at = ? WHERE run_id = ?`,
		ticks, invalid, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

const runColumns = `run_id, name, scenario, config_json, ticks, invalid, created_at, finished_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run      Run
		cfg      string
		created  int64
		finished sql.NullInt64
	)
	if err := row.Scan(&run.ID, &run.Name, &run.Scenario, &cfg, &run.Ticks, &run.Invalid, &created, &finished); err != nil {
		return nil, err
	}
	run.Config = json.RawMessage(cfg)
	run.CreatedAt = time.Unix(created, 0).UTC()
	if finished.Valid {
		t := time.Unix(finished.Int64, 0).UTC()
		run.FinishedAt = &t
	}
	return &run, nil
}

// GetRun retrieves a run by ID.
func (db *DB) GetRun(id string) (*Run, error) {
	run, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every run, newest first.
func (db *DB) ListRuns() ([]Run, error) {
	rows, err := db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run together with its measurements and estimates.
func (db *DB) DeleteRun(id string) error {
	res, err := db.Exec(`DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrRunNotFound)
	}
	return nil
}
