package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/schemaforge/schemaforge/internal/perr"
	"github.com/schemaforge/schemaforge/internal/queue"
)

// DefaultGracefulShutdown is the default drain deadline (spec.md section
// 5: "a graceful-shutdown deadline (default 10s)").
const DefaultGracefulShutdown = 10 * time.Second

// Pool is a bounded pool of goroutines processing jobs pulled from a
// single dequeue-loop goroutine's channel, mirroring the teacher's
// `go func() { ... }()` per-run pattern generalized to a fixed worker
// count with a drain signal (spec.md section 4.J, 5).
type Pool struct {
	Queue    *queue.Queue
	Pipeline *Pipeline
	Size     int
	PollIdle time.Duration
	Shutdown time.Duration

	workerID string

	jobs chan *queue.Job
	wg   sync.WaitGroup
}

// NewPool builds a pool of size workers. workerID identifies this process
// to the Queue backend (used for job claiming diagnostics, spec.md 4.I).
func NewPool(q *queue.Queue, p *Pipeline, size int, workerID string) *Pool {
	if size <= 0 {
		size = 5
	}
	return &Pool{
		Queue:    q,
		Pipeline: p,
		Size:     size,
		PollIdle: 500 * time.Millisecond,
		Shutdown: DefaultGracefulShutdown,
		workerID: workerID,
		jobs:     make(chan *queue.Job, size),
	}
}

// Run starts the single dequeue-loop goroutine and the fixed worker
// goroutines, and blocks until ctx is cancelled, then drains in-flight
// work up to Shutdown before returning (spec.md section 5: "Cancellation").
func (p *Pool) Run(ctx context.Context) {
	var workers sync.WaitGroup
	for i := 0; i < p.Size; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			p.runWorker(ctx)
		}()
	}

	p.dequeueLoop(ctx)

	close(p.jobs)
	drained := make(chan struct{})
	go func() {
		workers.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(p.Shutdown):
		slog.Warn("worker: graceful shutdown deadline exceeded, abandoning in-flight jobs",
			"deadline", p.Shutdown)
	}
}

// dequeueLoop is the single goroutine that issues Dequeue calls, so only
// one goroutine ever contends for the Queue's FOR UPDATE SKIP LOCKED row
// (spec.md section 5 expansion). It feeds the shared jobs channel until ctx
// is cancelled.
func (p *Pool) dequeueLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.Queue.Dequeue(ctx, p.workerID)
		if err != nil {
			slog.Error("worker: dequeue failed", "error", err)
			sleepOrDone(ctx, p.PollIdle)
			continue
		}
		if job == nil {
			sleepOrDone(ctx, p.PollIdle)
			continue
		}

		select {
		case p.jobs <- job:
		case <-ctx.Done():
			return
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (p *Pool) runWorker(ctx context.Context) {
	for job := range p.jobs {
		p.handle(ctx, job)
	}
}

func (p *Pool) handle(ctx context.Context, job *queue.Job) {
	start := time.Now()
	outcome, err := p.Pipeline.Process(ctx, job)
	if err != nil {
		retryable := perr.KindOf(err) == perr.Transient
		if failErr := p.Queue.Fail(ctx, job.ID, err, retryable); failErr != nil {
			slog.Error("worker: failed to record job failure", "job_id", job.ID, "error", failErr)
		}
		slog.Error("worker: job failed", "job_id", job.ID, "kind", outcome.Kind, "retryable", retryable, "error", err)
		return
	}

	if err := p.Queue.Complete(ctx, job.ID); err != nil {
		slog.Error("worker: failed to mark job complete", "job_id", job.ID, "error", err)
	}

	slog.Info("worker: job processed",
		"job_id", job.ID,
		"kind", outcome.Kind,
		"version", outcome.Version,
		"new_kind", outcome.NewKind,
		"version_bumped", outcome.VersionBumped,
		"generator_degraded", outcome.GeneratorDegraded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
