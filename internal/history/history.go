// Package history persists load test runs and their raw samples to a local
// SQLite database so past results can be listed and inspected.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/studiowebux/surge/internal/loadgen"
	"github.com/studiowebux/surge/internal/migrations"
)

// Run is a persisted load test run record.
type Run struct {
	ID            int64
	Target        string
	TotalRequests int
	Concurrency   int
	MaxRetries    int
	Timeout       time.Duration
	StartedAt     time.Time
	CompletedAt   *time.Time
	Status        string // "running", "completed", "cancelled"

	TotalSent     int
	SuccessCount  int
	FailureCount  int
	WallClock     time.Duration
	Throughput    float64
	MeanLatency   time.Duration
	MinLatency    time.Duration
	MaxLatency    time.Duration
	StdDevLatency time.Duration
	P50Latency    time.Duration
	P95Latency    time.Duration
	P99Latency    time.Duration
}

// IsCompleted returns true if the run has finished.
func (r *Run) IsCompleted() bool {
	return r.Status == "completed" || r.Status == "cancelled"
}

// Sample is one persisted request outcome.
type Sample struct {
	ID           int64
	RunID        int64
	Seq          int
	SettledAt    time.Time
	StatusCode   int // 0 means absent (the request failed)
	Duration     time.Duration
	ErrorKind    string
	ErrorMessage string
}

// Manager handles run history persistence.
type Manager struct {
	db *sql.DB
}

// NewManager opens (creating if needed) the history database at dbPath.
func NewManager(dbPath string) (*Manager, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	m := &Manager{db: db}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return m, nil
}

// Close closes the database connection.
func (m *Manager) Close() error {
	return m.db.Close()
}

// CreateRun inserts a new run record in "running" state and sets run.ID.
func (m *Manager) CreateRun(run *Run) error {
	result, err := m.db.Exec(`
		INSERT INTO runs
		(target, total_requests, concurrency, max_retries, timeout_ms, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.Target, run.TotalRequests, run.Concurrency, run.MaxRetries,
		durationMs(run.Timeout), run.StartedAt, run.Status)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	run.ID = id
	return nil
}

// CompleteRun fills the run record from the final summary and marks it done.
func (m *Manager) CompleteRun(run *Run, summary *loadgen.Summary) error {
	now := time.Now()
	run.CompletedAt = &now
	run.TotalSent = summary.TotalSent
	run.SuccessCount = summary.SuccessCount
	run.FailureCount = summary.FailureCount
	run.WallClock = summary.WallClock
	run.Throughput = summary.Throughput
	run.MeanLatency = summary.MeanLatency
	run.MinLatency = summary.MinLatency
	run.MaxLatency = summary.MaxLatency
	run.StdDevLatency = summary.StdDevLatency
	run.P50Latency = summary.P50Latency
	run.P95Latency = summary.P95Latency
	run.P99Latency = summary.P99Latency

	_, err := m.db.Exec(`
		UPDATE runs
		SET completed_at = ?, status = ?, total_sent = ?, success_count = ?, failure_count = ?,
		    wall_clock_ms = ?, throughput = ?, mean_latency_ms = ?, min_latency_ms = ?,
		    max_latency_ms = ?, stddev_latency_ms = ?, p50_latency_ms = ?, p95_latency_ms = ?,
		    p99_latency_ms = ?
		WHERE id = ?
	`, run.CompletedAt, run.Status, run.TotalSent, run.SuccessCount, run.FailureCount,
		durationMs(run.WallClock), run.Throughput, durationMs(run.MeanLatency),
		durationMs(run.MinLatency), durationMs(run.MaxLatency), durationMs(run.StdDevLatency),
		durationMs(run.P50Latency), durationMs(run.P95Latency), durationMs(run.P99Latency),
		run.ID)
	return err
}

// SaveSamplesBatch saves raw outcomes for a run in a single transaction.
func (m *Manager) SaveSamplesBatch(runID int64, outcomes []loadgen.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO run_samples
		(run_id, seq, settled_at, status_code, duration_ms, error_kind, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		var status sql.NullInt64
		var kind, message sql.NullString
		if o.Err != nil {
			kind = sql.NullString{String: string(o.Err.Kind), Valid: true}
			message = sql.NullString{String: o.Err.Message, Valid: true}
		} else {
			status = sql.NullInt64{Int64: int64(o.StatusCode), Valid: true}
		}

		_, err := stmt.Exec(runID, o.Seq, o.SettledAt, status, durationMs(o.Duration), kind, message)
		if err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID.
func (m *Manager) GetRun(id int64) (*Run, error) {
	row := m.db.QueryRow(runSelect+" WHERE id = ?", id)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means no
// limit.
func (m *Manager) ListRuns(limit int) ([]*Run, error) {
	query := runSelect + " ORDER BY started_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := m.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun deletes a run and all its samples.
func (m *Manager) DeleteRun(id int64) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM run_samples WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete samples: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM runs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return tx.Commit()
}

// GetSamples retrieves all samples for a run in settlement order.
func (m *Manager) GetSamples(runID int64) ([]*Sample, error) {
	rows, err := m.db.Query(`
		SELECT id, run_id, seq, settled_at, status_code, duration_ms,
		       COALESCE(error_kind, ''), COALESCE(error_message, '')
		FROM run_samples
		WHERE run_id = ?
		ORDER BY settled_at
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []*Sample
	for rows.Next() {
		s := &Sample{}
		var status sql.NullInt64
		var ms float64

		err := rows.Scan(&s.ID, &s.RunID, &s.Seq, &s.SettledAt, &status, &ms,
			&s.ErrorKind, &s.ErrorMessage)
		if err != nil {
			return nil, err
		}

		if status.Valid {
			s.StatusCode = int(status.Int64)
		}
		s.Duration = msDuration(ms)

		samples = append(samples, s)
	}
	return samples, rows.Err()
}

const runSelect = `
	SELECT id, target, total_requests, concurrency, max_retries, timeout_ms,
	       started_at, completed_at, status, total_sent, success_count, failure_count,
	       wall_clock_ms, throughput, mean_latency_ms, min_latency_ms, max_latency_ms,
	       stddev_latency_ms, p50_latency_ms, p95_latency_ms, p99_latency_ms
	FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var completedAt sql.NullTime
	var timeoutMs, wallMs, meanMs, minMs, maxMs, stddevMs, p50Ms, p95Ms, p99Ms float64

	err := row.Scan(&run.ID, &run.Target, &run.TotalRequests, &run.Concurrency,
		&run.MaxRetries, &timeoutMs, &run.StartedAt, &completedAt, &run.Status,
		&run.TotalSent, &run.SuccessCount, &run.FailureCount, &wallMs, &run.Throughput,
		&meanMs, &minMs, &maxMs, &stddevMs, &p50Ms, &p95Ms, &p99Ms)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	run.Timeout = msDuration(timeoutMs)
	run.WallClock = msDuration(wallMs)
	run.MeanLatency = msDuration(meanMs)
	run.MinLatency = msDuration(minMs)
	run.MaxLatency = msDuration(maxMs)
	run.StdDevLatency = msDuration(stddevMs)
	run.P50Latency = msDuration(p50Ms)
	run.P95Latency = msDuration(p95Ms)
	run.P99Latency = msDuration(p99Ms)

	return run, nil
}

// durationMs stores durations as fractional milliseconds so sub-millisecond
// latencies survive the round trip.
func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func msDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
