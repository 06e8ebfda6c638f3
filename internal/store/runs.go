package store

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Run describes one recorded enrich or semsim invocation.
type Run struct {
	ID         int64
	Tool       string
	Parameters map[string]string
	Inputs     []FileFingerprint
	CreatedAt  time.Time
}

// NewRun records a run and returns its ID. Parameters are stored as YAML.
func (s *Store) NewRun(tool string, params map[string]string, inputs []FileFingerprint) (int64, error) {
	encoded, err := yaml.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("encode parameters: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(`INSERT INTO runs (tool, parameters, created_at) VALUES (?, ?, ?) RETURNING id`,
		tool, string(encoded), time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	for _, in := range inputs {
		if _, err := tx.Exec(`INSERT INTO run_inputs (run_id, path, size, mod_time) VALUES (?, ?, ?, ?)`,
			id, in.Path, in.Size, in.ModTime.UTC()); err != nil {
			return 0, fmt.Errorf("insert run input: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

// ListRuns returns all recorded runs ordered by ID.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`SELECT id, tool, parameters, created_at FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	byID := make(map[int64]int)
	for rows.Next() {
		var r Run
		var params string
		if err := rows.Scan(&r.ID, &r.Tool, &params, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := yaml.Unmarshal([]byte(params), &r.Parameters); err != nil {
			return nil, fmt.Errorf("decode parameters of run %d: %w", r.ID, err)
		}
		byID[r.ID] = len(runs)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	inputs, err := s.db.Query(`SELECT run_id, path, size, mod_time FROM run_inputs ORDER BY run_id, path`)
	if err != nil {
		return nil, fmt.Errorf("query run inputs: %w", err)
	}
	defer inputs.Close()

	for inputs.Next() {
		var id int64
		var fp FileFingerprint
		if err := inputs.Scan(&id, &fp.Path, &fp.Size, &fp.ModTime); err != nil {
			return nil, fmt.Errorf("scan run input: %w", err)
		}
		if i, ok := byID[id]; ok {
			runs[i].Inputs = append(runs[i].Inputs, fp)
		}
	}
	if err := inputs.Err(); err != nil {
		return nil, fmt.Errorf("iterate run inputs: %w", err)
	}
	return runs, nil
}
