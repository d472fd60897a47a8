package store

import (
	"database/sql"
	"time"
)

// CycleRun records one pass of the scanner over all targets.
type CycleRun struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	Targets      int
	Evaluated    int
	Failed       int
	Success      bool
	ErrorMessage sql.NullString
}

// StartCycle inserts an open cycle record.
func (s *Store) StartCycle(id string, targets int, startedAt time.Time) (*CycleRun, error) {
	run := &CycleRun{
		ID:        id,
		StartedAt: startedAt.UTC(),
		Targets:   targets,
	}
	_, err := s.db.Exec(`
		INSERT INTO scan_cycles (id, started_at, targets, success)
		VALUES (?, ?, ?, FALSE)
	`, run.ID, run.StartedAt, run.Targets)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteCycle stamps the finish time and counts.
func (s *Store) CompleteCycle(run *CycleRun, finishedAt time.Time) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: finishedAt.UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE scan_cycles SET
			finished_at = ?,
			evaluated = ?,
			failed = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.Evaluated, run.Failed, run.Success, run.ErrorMessage, run.ID)
	return err
}

// CycleHealth summarises recent cycles.
type CycleHealth struct {
	TotalCycles    int   `json:"total_cycles"`
	SuccessCycles  int   `json:"success_cycles"`
	TotalEvaluated int64 `json:"total_evaluated"`
	TotalFailed    int64 `json:"total_failed"`
}

// GetCycleHealth aggregates cycles started at or after since.
func (s *Store) GetCycleHealth(since time.Time) (CycleHealth, error) {
	var h CycleHealth
	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(evaluated), 0),
			COALESCE(SUM(failed), 0)
		FROM scan_cycles
		WHERE started_at >= ?
	`, since.UTC()).Scan(&h.TotalCycles, &h.SuccessCycles, &h.TotalEvaluated, &h.TotalFailed)
	return h, err
}

// RecentCycleErrors returns failed cycles, newest first.
func (s *Store) RecentCycleErrors(limit int) ([]CycleRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, targets, evaluated, failed, success, error_message
		FROM scan_cycles
		WHERE success = FALSE AND finished_at IS NOT NULL
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []CycleRun
	for rows.Next() {
		var r CycleRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Targets, &r.Evaluated,
			&r.Failed, &r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
