// Package diagdb stores diagnostic run history in a local SQLite
// database so successive runs against the same hardware can be
// compared. The harness degrades gracefully without it: a failed open
// only disables history, never the diagnostic itself.
package diagdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/lidar.diag/internal/matrix"
	"github.com/banshee-data/lidar.diag/internal/report"
)

// DefaultPath is the fixed history database written by the harness.
const DefaultPath = "lidar_diag.db"

// DiagDB wraps the run-history database.
type DiagDB struct {
	*sql.DB
}

// Open opens (creating if needed) the history database at path and
// applies any pending migrations.
func Open(path string) (*DiagDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database %s: %w", path, err)
	}

	d := &DiagDB{db}
	if err := d.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Run is one recorded diagnostic run.
type Run struct {
	ID         string
	StartedAt  time.Time
	ReportPath string
	Summary    report.Summary
}

// NewRun returns a Run record for a diagnostic starting now.
func NewRun(reportPath string) Run {
	return Run{
		ID:         uuid.New().String(),
		StartedAt:  time.Now().UTC(),
		ReportPath: reportPath,
	}
}

// RecordRun stores the run and all of its results in one transaction.
func (d *DiagDB) RecordRun(run Run, results []matrix.TestResult) error {
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, started_at, report_path, total_tests, working_configurations, partial_configurations)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Format(time.RFC3339), run.ReportPath,
		run.Summary.TotalTests, run.Summary.WorkingConfigurations, run.Summary.PartialConfigurations)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, r := range results {
		_, err := tx.Exec(`
			INSERT INTO run_results (run_id, port, baudrate, raw_communication, device_info_success,
				health_check_success, scan_start_success, scan_points_received, error_message, test_duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, r.Port, r.BaudRate, r.RawCommunication, r.DeviceInfoSuccess,
			r.HealthCheckSuccess, r.ScanStartSuccess, r.ScanPointsReceived, r.ErrorMessage, r.TestDurationMS)
		if err != nil {
			return fmt.Errorf("insert result for %s @ %d: %w", r.Port, r.BaudRate, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history transaction: %w", err)
	}
	return nil
}

// RecentRuns returns up to n of the most recent runs, newest first.
func (d *DiagDB) RecentRuns(n int) ([]Run, error) {
	rows, err := d.Query(`
		SELECT run_id, started_at, report_path, total_tests, working_configurations, partial_configurations
		FROM runs ORDER BY started_at DESC, run_id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt string
		if err := rows.Scan(&run.ID, &startedAt, &run.ReportPath,
			&run.Summary.TotalTests, &run.Summary.WorkingConfigurations, &run.Summary.PartialConfigurations); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", startedAt, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Results returns the results recorded for a run, in insertion order.
func (d *DiagDB) Results(runID string) ([]matrix.TestResult, error) {
	rows, err := d.Query(`
		SELECT port, baudrate, raw_communication, device_info_success, health_check_success,
			scan_start_success, scan_points_received, error_message, test_duration_ms
		FROM run_results WHERE run_id = ? ORDER BY result_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results for run %s: %w", runID, err)
	}
	defer rows.Close()

	var results []matrix.TestResult
	for rows.Next() {
		var r matrix.TestResult
		if err := rows.Scan(&r.Port, &r.BaudRate, &r.RawCommunication, &r.DeviceInfoSuccess,
			&r.HealthCheckSuccess, &r.ScanStartSuccess, &r.ScanPointsReceived, &r.ErrorMessage, &r.TestDurationMS); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
