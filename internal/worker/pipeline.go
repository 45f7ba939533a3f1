// Package worker implements the Worker (spec.md section 4.J): it drains
// jobs from the Queue and runs each through Truncator -> Classifier ->
// Analyzer -> Store.load -> Comparator.merge -> Generator -> Store.save,
// recording a per-event row in the Event Log.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/schemaforge/schemaforge/internal/analyzer"
	"github.com/schemaforge/schemaforge/internal/classifier"
	"github.com/schemaforge/schemaforge/internal/comparator"
	"github.com/schemaforge/schemaforge/internal/eventlog"
	"github.com/schemaforge/schemaforge/internal/fingerprint"
	"github.com/schemaforge/schemaforge/internal/generator"
	"github.com/schemaforge/schemaforge/internal/payload"
	"github.com/schemaforge/schemaforge/internal/perr"
	"github.com/schemaforge/schemaforge/internal/queue"
	"github.com/schemaforge/schemaforge/internal/schema"
	"github.com/schemaforge/schemaforge/internal/store"
	"github.com/schemaforge/schemaforge/internal/truncator"
	"github.com/schemaforge/schemaforge/internal/typetree"
)

// Pipeline bundles the pure, in-memory components plus the Store — every
// collaborator the per-job work in spec.md section 4.J names. It has no
// mutable state of its own besides what its collaborators own.
type Pipeline struct {
	Truncator  *truncator.Truncator
	Classifier *classifier.Classifier
	Analyzer   *analyzer.Analyzer
	Store      *store.Store
	EventLog   *eventlog.EventLog
	Publisher  EventPublisher

	MaxExamplesPerMerge int
}

// Outcome summarizes one processed job for telemetry and logging.
type Outcome struct {
	Kind               string
	Version            int
	NewKind            bool
	VersionBumped      bool
	RedactedFieldCount int
	SizeOriginal       int
	SizeRedacted       int
	Duration           time.Duration
	GeneratorDegraded  bool
}

// Process runs one job through the full pipeline (spec.md section 4.J
// steps 1-8). It returns a *perr.ComponentError on any failure so the
// caller (the worker pool) can route retry/permanent-fail decisions
// without string matching.
func (p *Pipeline) Process(ctx context.Context, job *queue.Job) (Outcome, error) {
	start := time.Now()

	original := job.Payload
	originalJSON, err := original.MarshalJSON()
	if err != nil {
		return Outcome{}, perr.Permanentf("worker", "encode original payload: %v", err)
	}

	redacted, report := p.Truncator.Truncate(original)
	redactedJSON, err := redacted.MarshalJSON()
	if err != nil {
		return Outcome{}, perr.Permanentf("worker", "encode redacted payload: %v", err)
	}

	kind := p.Classifier.Classify(job.Headers, original)

	newTree := p.Analyzer.Analyze(redacted, report)

	var outcome Outcome
	outcome.Kind = kind
	outcome.SizeOriginal = len(originalJSON)
	outcome.SizeRedacted = len(redactedJSON)
	outcome.RedactedFieldCount = report.Len()

	lockErr := p.Store.WithKindLock(kind, func() error {
		prior, err := p.Store.Load(kind)
		if err != nil {
			return perr.Transientf("worker", "store load: %v", err)
		}

		var (
			rec     *schema.SchemaRecord
			merged  *typetree.TypeTree
			isNew   = prior == nil
		)
		now := time.Now()

		if isNew {
			merged = newTree
			rec = generator.Metadata(nil, kind, merged, now)
		} else {
			merged = comparator.Merge(prior.SavedTree, newTree, p.MaxExamplesPerMerge)
			mergedFP := fingerprint.Structure(merged)
			if mergedFP == prior.StructureFingerprint {
				// Identical structure: bump counters only, no artifact
				// regeneration, no version bump (spec.md section 4.J step 6,
				// and DESIGN NOTES section 9's version-bump rule). The bump
				// still has to reach metadata.json, not just the relational
				// cache and the in-process LRU entry, or it's lost on a
				// cache eviction or restart.
				prior.TotalReceived++
				prior.LastSeen = now
				if err := p.Store.SaveMetadata(kind, prior); err != nil {
					return perr.Transientf("worker", "store save metadata: %v", err)
				}
				if err := p.Store.BumpCounters(ctx, kind, prior); err != nil {
					slog.Warn("worker: bump counters failed", "kind", kind, "error", err)
				}
				outcome.Version = prior.Version
				outcome.VersionBumped = false
				return p.appendEventRow(ctx, kind, originalJSON, outcome, start, now)
			}
			rec = generator.Metadata(prior, kind, merged, now)
		}

		validatorSrc := generator.ValidatorSource(kind, merged)
		interfaceSrc := generator.InterfaceSource(kind, merged)
		if interfaceSrc == "" {
			outcome.GeneratorDegraded = true
			interfaceSrc = generator.DegenerateInterface(kind)
		}

		examplesJSON, err := marshalExamples(merged)
		if err != nil {
			return perr.Permanentf("worker", "encode examples: %v", err)
		}

		bundle := store.Bundle{
			Record:          rec,
			ValidatorSource: validatorSrc,
			InterfaceSource: interfaceSrc,
			ExamplesJSON:    examplesJSON,
			RawSample:       originalJSON,
		}
		if err := p.Store.Save(kind, bundle); err != nil {
			return perr.Transientf("worker", "store save: %v", err)
		}
		if err := p.Store.BumpCounters(ctx, kind, rec); err != nil {
			slog.Warn("worker: bump counters failed", "kind", kind, "error", err)
		}

		outcome.NewKind = isNew
		outcome.Version = rec.Version
		outcome.VersionBumped = true
		return p.appendEventRow(ctx, kind, originalJSON, outcome, start, now)
	})
	if lockErr != nil {
		return outcome, lockErr
	}

	outcome.Duration = time.Since(start)
	return outcome, nil
}

func (p *Pipeline) appendEventRow(ctx context.Context, kind string, originalJSON []byte, outcome Outcome, start, processedAt time.Time) error {
	row := schema.EventRow{
		Kind:                 kind,
		PayloadFingerprint:   fingerprint.Payload(mustParse(originalJSON)),
		SizeOriginal:         outcome.SizeOriginal,
		SizeRedacted:         outcome.SizeRedacted,
		RedactedFieldCount:   outcome.RedactedFieldCount,
		ReceivedAt:           start,
		ProcessedAt:          processedAt,
		ProcessingDurationMs: processedAt.Sub(start).Milliseconds(),
	}
	if p.EventLog != nil {
		if err := p.EventLog.Append(ctx, row); err != nil {
			return perr.Transientf("worker", "event log append: %v", err)
		}
	}
	if p.Publisher != nil {
		p.Publisher.Publish(row)
	}
	return nil
}

// EventPublisher fans a freshly appended EventRow out to live read-side
// subscribers (SPEC_FULL.md section 4.N's /events/stream). Declared here,
// not in internal/readapi, so this package doesn't need to import the
// HTTP-facing package just to call it.
type EventPublisher interface {
	Publish(schema.EventRow)
}

func marshalExamples(t *typetree.TypeTree) ([]byte, error) {
	typetree.TruncateExamples(t, typetree.MaxExamples)
	return json.MarshalIndent(t.Examples, "", "  ")
}

func mustParse(raw []byte) payload.Value {
	v, err := payload.Parse(raw)
	if err != nil {
		panic(fmt.Sprintf("worker: invariant violated, re-parsing already-validated payload: %v", err))
	}
	return v
}
