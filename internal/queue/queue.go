// Package queue implements the durable Job Queue (spec.md section 4.I): a
// Postgres-backed FIFO-within-priority queue with idempotent enqueue,
// exponential backoff, and a failed holding set, built directly on
// database/sql + pgx the way the teacher's repository packages do, rather
// than through a separate broker process.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/schemaforge/schemaforge/internal/payload"
)

// Status is the closed set of job lifecycle states.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusDelayed   Status = "delayed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is a unit of work: a decoded payload plus the request headers the
// Classifier needs (spec.md section 6: "ProcessPayload(headers, payload)").
type Job struct {
	ID          string
	Headers     map[string]string
	Payload     payload.Value
	Priority    int
	Status      Status
	Attempts    int
	MaxAttempts int
	CreatedAt   time.Time
	AvailableAt time.Time
	LastError   string
}

// Config carries the retry policy (spec.md section 6 configuration
// surface).
type Config struct {
	MaxAttempts      int
	BackoffDelay     time.Duration
}

func DefaultConfig() Config {
	return Config{MaxAttempts: 3, BackoffDelay: 2 * time.Second}
}

// Queue is the Postgres-backed durable queue.
type Queue struct {
	db  *sql.DB
	cfg Config

	schemaOnce sync.Once
	schemaErr  error
}

func New(db *sql.DB, cfg Config) *Queue {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffDelay <= 0 {
		cfg.BackoffDelay = 2 * time.Second
	}
	return &Queue{db: db, cfg: cfg}
}

func (q *Queue) ensureSchema(ctx context.Context) error {
	q.schemaOnce.Do(func() {
		_, q.schemaErr = q.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    headers JSONB NOT NULL DEFAULT '{}'::jsonb,
    payload JSONB NOT NULL,
    priority INT NOT NULL DEFAULT 5,
    status TEXT NOT NULL DEFAULT 'waiting',
    attempts INT NOT NULL DEFAULT 0,
    max_attempts INT NOT NULL DEFAULT 3,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    available_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_error TEXT NOT NULL DEFAULT '',
    worker_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_jobs_dequeue ON jobs(status, available_at, priority DESC, created_at ASC);
`)
	})
	return q.schemaErr
}

// Enqueue inserts job durably under id. Re-enqueueing an id already present
// is a no-op (spec.md section 4.I idempotency) and returns the existing
// job's id without error, so a retried webhook delivery collides instead of
// double-processing. Pass an empty id to opt out of dedup entirely — a
// fresh uuid is minted in that case.
func (q *Queue) Enqueue(ctx context.Context, id string, headers map[string]string, v payload.Value, priority int) (string, error) {
	if err := q.ensureSchema(ctx); err != nil {
		return "", fmt.Errorf("queue: ensure schema: %w", err)
	}
	if id == "" {
		id = uuid.NewString()
	}

	headerJSON, err := json.Marshal(headers)
	if err != nil {
		return "", fmt.Errorf("queue: encode headers: %w", err)
	}
	payloadJSON, err := v.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("queue: encode payload: %w", err)
	}

	_, err = q.db.ExecContext(ctx, `
INSERT INTO jobs (id, headers, payload, priority, status, max_attempts)
VALUES ($1, $2, $3, $4, 'waiting', $5)
ON CONFLICT (id) DO NOTHING
`, id, headerJSON, payloadJSON, priority, q.cfg.MaxAttempts)
	if err != nil {
		return "", fmt.Errorf("queue: enqueue: %w", err)
	}
	return id, nil
}

// Dequeue claims the highest-priority, oldest eligible job for worker,
// using SELECT ... FOR UPDATE SKIP LOCKED so concurrent workers never
// contend for the same row (spec.md section 4.I). Returns nil, nil when
// nothing is eligible.
func (q *Queue) Dequeue(ctx context.Context, workerID string) (*Job, error) {
	if err := q.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("queue: ensure schema: %w", err)
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("queue: begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
SELECT id, headers, payload, priority, attempts, max_attempts, created_at, available_at, last_error
FROM jobs
WHERE status IN ('waiting', 'delayed') AND available_at <= now()
ORDER BY priority DESC, created_at ASC
FOR UPDATE SKIP LOCKED
LIMIT 1
`)

	var (
		job            Job
		headerJSON     []byte
		payloadJSON    []byte
	)
	if err := row.Scan(&job.ID, &headerJSON, &payloadJSON, &job.Priority, &job.Attempts, &job.MaxAttempts, &job.CreatedAt, &job.AvailableAt, &job.LastError); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("queue: dequeue scan: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE jobs SET status='active', worker_id=$1 WHERE id=$2`, workerID, job.ID); err != nil {
		return nil, fmt.Errorf("queue: claim job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("queue: commit claim: %w", err)
	}

	if err := json.Unmarshal(headerJSON, &job.Headers); err != nil {
		return nil, fmt.Errorf("queue: decode headers: %w", err)
	}
	if err := json.Unmarshal(payloadJSON, &job.Payload); err != nil {
		return nil, fmt.Errorf("queue: decode payload: %w", err)
	}
	job.Status = StatusActive
	return &job, nil
}

// Complete marks a job done.
func (q *Queue) Complete(ctx context.Context, jobID string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE jobs SET status='completed' WHERE id=$1`, jobID)
	return err
}

// Fail records a processing failure. A permanent failure (retryable=false)
// moves straight to the failed holding set. A retryable failure is
// scheduled with exponential backoff until max_attempts is exhausted, at
// which point it too moves to the failed set (spec.md section 4.I).
func (q *Queue) Fail(ctx context.Context, jobID string, cause error, retryable bool) error {
	var attempts, maxAttempts int
	row := q.db.QueryRowContext(ctx, `SELECT attempts, max_attempts FROM jobs WHERE id=$1`, jobID)
	if err := row.Scan(&attempts, &maxAttempts); err != nil {
		return fmt.Errorf("queue: load job for failure: %w", err)
	}
	attempts++

	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
	}

	if !retryable || attempts >= maxAttempts {
		_, err := q.db.ExecContext(ctx, `UPDATE jobs SET status='failed', attempts=$1, last_error=$2 WHERE id=$3`, attempts, errMsg, jobID)
		return err
	}

	backoff := q.cfg.BackoffDelay * time.Duration(1<<uint(attempts-1))
	_, err := q.db.ExecContext(ctx, `
UPDATE jobs SET status='delayed', attempts=$1, last_error=$2, available_at=$3 WHERE id=$4
`, attempts, errMsg, time.Now().Add(backoff), jobID)
	return err
}

// Counts is the waiting/active/completed/failed/delayed census spec.md
// section 4.I requires for telemetry.
type Counts struct {
	Waiting   int64
	Active    int64
	Completed int64
	Failed    int64
	Delayed   int64
}

func (q *Queue) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	rows, err := q.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return c, fmt.Errorf("queue: counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return c, err
		}
		switch Status(status) {
		case StatusWaiting:
			c.Waiting = n
		case StatusActive:
			c.Active = n
		case StatusCompleted:
			c.Completed = n
		case StatusFailed:
			c.Failed = n
		case StatusDelayed:
			c.Delayed = n
		}
	}
	return c, rows.Err()
}
