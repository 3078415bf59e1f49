package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yegors/weekend-fares/pkg/logger"
)

// Open opens (or creates) the journal database at path
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure sqlite database: %w", err)
	}
	return db, nil
}

// ScanStorage journals scan runs and their per-window outcomes
type ScanStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewScanStorage creates the journal tables if needed
func NewScanStorage(db *sql.DB, log *logger.Logger) (*ScanStorage, error) {
	storage := &ScanStorage{
		db:     db,
		logger: log.Named("sqlite-scans"),
	}

	if err := storage.initDB(); err != nil {
		return nil, err
	}
	return storage, nil
}

func (s *ScanStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS scan_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			env TEXT NOT NULL,
			outfile TEXT NOT NULL,
			weeks INTEGER NOT NULL,
			row_count INTEGER NOT NULL DEFAULT 0,
			failed_windows INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			finished_at TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scan_runs table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS scan_windows (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,
			depart_date TEXT NOT NULL,
			return_date TEXT NOT NULL,
			status TEXT NOT NULL,
			offers INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			created_at TEXT NOT NULL,
			FOREIGN KEY (run_id) REFERENCES scan_runs(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scan_windows table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_started_at ON scan_runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_windows_run_id ON scan_windows(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_windows_status ON scan_windows(status)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create scan index: %w", err)
		}
	}

	return nil
}

// StartRun inserts a new run and returns its ID
func (s *ScanStorage) StartRun(run *ScanRun) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO scan_runs (origin, destination, env, outfile, weeks, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.Origin,
		run.Destination,
		run.Env,
		run.Outfile,
		run.Weeks,
		run.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// RecordWindow stores the outcome of one window
func (s *ScanStorage) RecordWindow(window *ScanWindow) error {
	var errText sql.NullString
	if window.Error != "" {
		errText = sql.NullString{String: window.Error, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO scan_windows (run_id, depart_date, return_date, status, offers, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		window.RunID,
		window.DepartDate,
		window.ReturnDate,
		window.Status,
		window.Offers,
		errText,
		window.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan window: %w", err)
	}
	return nil
}

// FinishRun stores the run totals
func (s *ScanStorage) FinishRun(id int64, rows, failedWindows int, finishedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE scan_runs
		SET row_count = ?, failed_windows = ?, finished_at = ?
		WHERE id = ?`,
		rows,
		failedWindows,
		finishedAt.UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish scan run: %w", err)
	}
	return nil
}

// GetRecentRuns returns the latest runs, newest first
func (s *ScanStorage) GetRecentRuns(limit int) ([]*ScanRun, error) {
	rows, err := s.db.Query(
		`SELECT id, origin, destination, env, outfile, weeks, row_count, failed_windows, started_at, finished_at
		FROM scan_runs
		ORDER BY id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan runs: %w", err)
	}
	defer rows.Close()

	var runs []*ScanRun
	for rows.Next() {
		var run ScanRun
		var startedAt string
		var finishedAt sql.NullString

		if err := rows.Scan(
			&run.ID,
			&run.Origin,
			&run.Destination,
			&run.Env,
			&run.Outfile,
			&run.Weeks,
			&run.Rows,
			&run.FailedWindows,
			&startedAt,
			&finishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if finishedAt.Valid {
			finished, err := time.Parse(time.RFC3339, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse finished_at: %w", err)
			}
			run.FinishedAt = &finished
		}

		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// GetRunWindows returns the windows of a run in the order they were scanned
func (s *ScanStorage) GetRunWindows(runID int64) ([]*ScanWindow, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, depart_date, return_date, status, offers, error, created_at
		FROM scan_windows
		WHERE run_id = ?
		ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan windows: %w", err)
	}
	defer rows.Close()

	var windows []*ScanWindow
	for rows.Next() {
		var window ScanWindow
		var errText sql.NullString
		var createdAt string

		if err := rows.Scan(
			&window.ID,
			&window.RunID,
			&window.DepartDate,
			&window.ReturnDate,
			&window.Status,
			&window.Offers,
			&errText,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan window: %w", err)
		}

		window.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if errText.Valid {
			window.Error = errText.String
		}

		windows = append(windows, &window)
	}
	return windows, rows.Err()
}
