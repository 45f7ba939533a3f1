// Package eventlog implements the Event Log (spec.md section 4.K): an
// append-only per-processed-event table, backed by database/sql + pgx the
// same way the teacher's repository packages persist denormalized state.
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/schemaforge/schemaforge/internal/schema"
)

// EventLog appends EventRows and serves the read-side's recent-events and
// hourly-timeline queries (spec.md section 6).
type EventLog struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

func New(db *sql.DB) *EventLog {
	return &EventLog{db: db}
}

func (l *EventLog) ensureSchema(ctx context.Context) error {
	l.schemaOnce.Do(func() {
		_, l.schemaErr = l.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    kind TEXT NOT NULL,
    payload_fp TEXT NOT NULL,
    size_original INT NOT NULL,
    size_redacted INT NOT NULL,
    redacted_flag BOOLEAN NOT NULL,
    redacted_field_count INT NOT NULL,
    received_at TIMESTAMPTZ NOT NULL,
    processed_at TIMESTAMPTZ NOT NULL,
    processing_duration_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
CREATE INDEX IF NOT EXISTS idx_events_processed_at ON events(processed_at);
`)
	})
	return l.schemaErr
}

// Append writes one EventRow (spec.md section 3, 4.K), called once per
// successfully processed job — including the "identical structure" path
// where only counters are bumped.
func (l *EventLog) Append(ctx context.Context, row schema.EventRow) error {
	if err := l.ensureSchema(ctx); err != nil {
		return fmt.Errorf("eventlog: ensure schema: %w", err)
	}
	_, err := l.db.ExecContext(ctx, `
INSERT INTO events (kind, payload_fp, size_original, size_redacted, redacted_flag, redacted_field_count, received_at, processed_at, processing_duration_ms)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, row.Kind, row.PayloadFingerprint, row.SizeOriginal, row.SizeRedacted, row.RedactedFieldCount > 0, row.RedactedFieldCount, row.ReceivedAt, row.ProcessedAt, row.ProcessingDurationMs)
	if err != nil {
		return fmt.Errorf("eventlog: insert: %w", err)
	}
	return nil
}

// RecentEvents returns the most recent rows, optionally filtered by kind
// (spec.md section 6: GetRecentEvents).
func (l *EventLog) RecentEvents(ctx context.Context, limit int, kind string) ([]schema.EventRow, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows *sql.Rows
	var err error
	if kind == "" {
		rows, err = l.db.QueryContext(ctx, `
SELECT kind, payload_fp, size_original, size_redacted, redacted_field_count, received_at, processed_at, processing_duration_ms
FROM events ORDER BY processed_at DESC LIMIT $1`, limit)
	} else {
		rows, err = l.db.QueryContext(ctx, `
SELECT kind, payload_fp, size_original, size_redacted, redacted_field_count, received_at, processed_at, processing_duration_ms
FROM events WHERE kind=$1 ORDER BY processed_at DESC LIMIT $2`, kind, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("eventlog: recent events: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// HourlyBucket is one point of the hourly-timeline aggregate.
type HourlyBucket struct {
	HourStart time.Time
	Count     int64
}

// HourlyTimeline buckets event counts by hour over the trailing window
// (spec.md section 6: GetHourlyTimeline).
func (l *EventLog) HourlyTimeline(ctx context.Context, hours int, kind string) ([]HourlyBucket, error) {
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	var rows *sql.Rows
	var err error
	if kind == "" {
		rows, err = l.db.QueryContext(ctx, `
SELECT date_trunc('hour', processed_at) AS bucket, COUNT(*)
FROM events WHERE processed_at >= $1 GROUP BY bucket ORDER BY bucket`, since)
	} else {
		rows, err = l.db.QueryContext(ctx, `
SELECT date_trunc('hour', processed_at) AS bucket, COUNT(*)
FROM events WHERE processed_at >= $1 AND kind = $2 GROUP BY bucket ORDER BY bucket`, since, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("eventlog: hourly timeline: %w", err)
	}
	defer rows.Close()

	var buckets []HourlyBucket
	for rows.Next() {
		var b HourlyBucket
		if err := rows.Scan(&b.HourStart, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// Aggregates is the subset of GetAggregates (spec.md section 6) the Event
// Log can answer directly.
type Aggregates struct {
	TotalEvents            int64
	EventsLast1h           int64
	EventsLast24h          int64
	AvgProcessingDurationMs float64
}

func (l *EventLog) Aggregates(ctx context.Context) (Aggregates, error) {
	var a Aggregates
	row := l.db.QueryRowContext(ctx, `
SELECT
    COUNT(*),
    COUNT(*) FILTER (WHERE processed_at >= now() - interval '1 hour'),
    COUNT(*) FILTER (WHERE processed_at >= now() - interval '24 hours'),
    COALESCE(AVG(processing_duration_ms), 0)
FROM events`)
	if err := row.Scan(&a.TotalEvents, &a.EventsLast1h, &a.EventsLast24h, &a.AvgProcessingDurationMs); err != nil {
		return a, fmt.Errorf("eventlog: aggregates: %w", err)
	}
	return a, nil
}

func scanRows(rows *sql.Rows) ([]schema.EventRow, error) {
	var out []schema.EventRow
	for rows.Next() {
		var r schema.EventRow
		if err := rows.Scan(&r.Kind, &r.PayloadFingerprint, &r.SizeOriginal, &r.SizeRedacted, &r.RedactedFieldCount, &r.ReceivedAt, &r.ProcessedAt, &r.ProcessingDurationMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
