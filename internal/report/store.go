package report

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"proctor/internal/suite"
	"proctor/internal/testcase"
	"proctor/pkg/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    suite TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    passed INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    before_error TEXT DEFAULT '',
    after_error TEXT DEFAULT ''
);

CREATE TABLE IF NOT EXISTS case_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id),
    name TEXT NOT NULL,
    result TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    error TEXT DEFAULT '',
    skip_reason TEXT DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_case_results_run ON case_results(run_id);
`

// Run is a stored suite run
type Run struct {
	ID         string        `json:"id"`
	Suite      string        `json:"suite"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Duration   time.Duration `json:"duration"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
}

// Store keeps the history of suite runs in a sqlite database
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the run history database.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// In-memory databases are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores the summary and its test case results.
func (s *Store) SaveRun(summary suite.Summary) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, suite, started_at, finished_at, duration_ms, passed, failed, skipped, before_error, after_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, summary.Name,
		summary.StartTime.UTC().Format(time.RFC3339Nano), summary.EndTime.UTC().Format(time.RFC3339Nano),
		summary.Duration.Milliseconds(), summary.Passed, summary.Failed, summary.Skipped,
		summary.BeforeSuiteError, summary.AfterSuiteError,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, r := range summary.Results {
		_, err = tx.Exec(
			`INSERT INTO case_results (run_id, name, result, duration_ms, error, skip_reason) VALUES (?, ?, ?, ?, ?, ?)`,
			summary.RunID, r.Name, string(r.Result), r.Duration.Milliseconds(), r.Error, r.SkipReason,
		)
		if err != nil {
			return fmt.Errorf("insert result %s: %w", r.Name, err)
		}
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, suite, started_at, finished_at, duration_ms, passed, failed, skipped
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.Suite, &started, &finished, &durationMs, &r.Passed, &r.Failed, &r.Skipped); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CaseHistory returns the results of a test case across runs, newest first.
func (s *Store) CaseHistory(name string, limit int) ([]suite.CaseResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT c.name, c.result, c.duration_ms, c.error, c.skip_reason
		 FROM case_results c JOIN runs r ON r.id = c.run_id
		 WHERE c.name = ? ORDER BY r.started_at DESC, c.id DESC LIMIT ?`, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []suite.CaseResult
	for rows.Next() {
		var r suite.CaseResult
		var result string
		var durationMs int64
		if err := rows.Scan(&r.Name, &result, &durationMs, &r.Error, &r.SkipReason); err != nil {
			return nil, err
		}
		r.Result = suite.Result(result)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}

// storeReporter persists every finished run
type storeReporter struct {
	store *Store
}

// NewStoreReporter creates a reporter that saves runs into the store.
func NewStoreReporter(store *Store) suite.Reporter {
	return &storeReporter{store: store}
}

func (r *storeReporter) OnSuiteStart(string) {}

func (r *storeReporter) OnTestStart(*testcase.TestCase) {}

func (r *storeReporter) OnTestFinish(suite.CaseResult) {}

func (r *storeReporter) OnSuiteFinish(summary suite.Summary) {
	if err := r.store.SaveRun(summary); err != nil {
		logging.Error(subsystem, err, "Failed to store run %s", summary.RunID)
	}
}
