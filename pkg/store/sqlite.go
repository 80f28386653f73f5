package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/psantana5/mlbatch/pkg/models"
)

// SQLiteStore is a SQLite-based implementation of the run-history store.
// The database lives next to the run's artifacts under the experiment root.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the history database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL for concurrent readers while the run appends; single writer
	// connection to avoid SQLITE_BUSY during a wave join.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates the database schema
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		experiment TEXT NOT NULL,
		started_at TEXT NOT NULL,
		state TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS job_records (
		run_id TEXT NOT NULL,
		job_key TEXT NOT NULL,
		phase TEXT NOT NULL,
		dataset TEXT,
		status TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT,
		finished_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_job_records_run ON job_records(run_id);
	CREATE INDEX IF NOT EXISTS idx_job_records_phase ON job_records(run_id, phase);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateRun registers a new run
func (s *SQLiteStore) CreateRun(run *RunInfo) error {
	_, err := s.db.Exec(`INSERT INTO runs (id, experiment, started_at, state) VALUES (?, ?, ?, ?)`,
		run.ID, run.Experiment, run.StartedAt, run.State)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// UpdateRunState updates the lifecycle state of a run
func (s *SQLiteStore) UpdateRunState(id, state string) error {
	res, err := s.db.Exec(`UPDATE runs SET state = ? WHERE id = ?`, state, id)
	if err != nil {
		return fmt.Errorf("failed to update run state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *SQLiteStore) GetRun(id string) (*RunInfo, error) {
	run := &RunInfo{}
	err := s.db.QueryRow(`SELECT id, experiment, started_at, state FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &run.Experiment, &run.StartedAt, &run.State)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs in creation order
func (s *SQLiteStore) ListRuns() ([]*RunInfo, error) {
	rows, err := s.db.Query(`SELECT id, experiment, started_at, state FROM runs ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunInfo
	for rows.Next() {
		run := &RunInfo{}
		if err := rows.Scan(&run.ID, &run.Experiment, &run.StartedAt, &run.State); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AppendJobRecord adds one executed-job record to its run's history
func (s *SQLiteStore) AppendJobRecord(rec *models.JobRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO job_records (run_id, job_key, phase, dataset, status, duration_ms, error, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.JobKey, rec.Phase, rec.Dataset, string(rec.Status),
		rec.Duration.Milliseconds(), rec.Error, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to append job record: %w", err)
	}
	return nil
}

// GetJobRecords returns a run's job records in append order
func (s *SQLiteStore) GetJobRecords(runID string) ([]*models.JobRecord, error) {
	rows, err := s.db.Query(`
		SELECT job_key, phase, dataset, status, duration_ms, error, finished_at
		FROM job_records WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query job records: %w", err)
	}
	defer rows.Close()

	var recs []*models.JobRecord
	for rows.Next() {
		rec := &models.JobRecord{RunID: runID}
		var durationMs int64
		var status string
		if err := rows.Scan(&rec.JobKey, &rec.Phase, &rec.Dataset, &status,
			&durationMs, &rec.Error, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job record: %w", err)
		}
		rec.Status = models.JobStatus(status)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
