package store

import (
	"context"

	"github.com/schemaforge/schemaforge/internal/schema"
)

// ensureSchemasTable creates the denormalized "schemas" counters cache
// (spec.md section 6) the first time it's needed. The filesystem remains
// the source of truth; this table only accelerates aggregate telemetry
// queries that would otherwise require walking the whole tree.
func (s *Store) ensureSchemasTable(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	s.schemasTableOnce.Do(func() {
		_, s.schemasTableErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schemas (
    id SERIAL PRIMARY KEY,
    kind TEXT NOT NULL UNIQUE,
    version INT NOT NULL,
    structure_fp TEXT NOT NULL,
    first_seen TIMESTAMPTZ NOT NULL,
    last_seen TIMESTAMPTZ NOT NULL,
    last_modified TIMESTAMPTZ NOT NULL,
    total_received BIGINT NOT NULL,
    required_count INT NOT NULL,
    optional_count INT NOT NULL,
    redacted_count INT NOT NULL
)`)
	})
	return s.schemasTableErr
}

// BumpCounters upserts the denormalized counters row for kind from the
// freshly saved record (spec.md section 4.H: "bumpCounters(kind)"). A nil
// db makes this a no-op — the relational cache is optional infrastructure,
// the filesystem tree is authoritative.
func (s *Store) BumpCounters(ctx context.Context, kind string, rec *schema.SchemaRecord) error {
	if s.db == nil || rec == nil {
		return nil
	}
	if err := s.ensureSchemasTable(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO schemas (kind, version, structure_fp, first_seen, last_seen, last_modified, total_received, required_count, optional_count, redacted_count)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (kind) DO UPDATE SET
    version=EXCLUDED.version,
    structure_fp=EXCLUDED.structure_fp,
    last_seen=EXCLUDED.last_seen,
    last_modified=EXCLUDED.last_modified,
    total_received=EXCLUDED.total_received,
    required_count=EXCLUDED.required_count,
    optional_count=EXCLUDED.optional_count,
    redacted_count=EXCLUDED.redacted_count
`,
		kind, rec.Version, rec.StructureFingerprint, rec.FirstSeen, rec.LastSeen, rec.LastModified,
		rec.TotalReceived, len(rec.Fields.Required), len(rec.Fields.Optional), len(rec.Fields.Redacted))
	return err
}

// Counters is the relational-cache-backed subset of GetAggregates (spec.md
// section 6): totals that are cheap to compute from the "schemas" table
// rather than walking the filesystem tree.
type Counters struct {
	UniqueKinds   int64
	TotalReceived int64
}

// LoadCounters reads the aggregate counters from the relational cache. A
// nil db returns a zero Counters — callers fall back to ListKinds/Load for
// the filesystem-derived equivalent.
func (s *Store) LoadCounters(ctx context.Context) (Counters, error) {
	var c Counters
	if s.db == nil {
		return c, nil
	}
	if err := s.ensureSchemasTable(ctx); err != nil {
		return c, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(total_received), 0) FROM schemas`)
	if err := row.Scan(&c.UniqueKinds, &c.TotalReceived); err != nil {
		return c, err
	}
	return c, nil
}
