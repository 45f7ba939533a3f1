// Package ingress implements the HTTP webhook ingress (SPEC_FULL.md section
// 4.M): decode, reject non-object roots, enqueue, acknowledge. Everything
// else the original spec's "out of scope" list names — rate limiting,
// CORS, auth — stays out.
package ingress

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/schemaforge/schemaforge/internal/fingerprint"
	"github.com/schemaforge/schemaforge/internal/payload"
	"github.com/schemaforge/schemaforge/internal/queue"
)

// Enqueuer is the subset of *queue.Queue the ingress needs, narrowed to
// ease testing with a fake.
type Enqueuer interface {
	Enqueue(ctx context.Context, id string, headers map[string]string, v payload.Value, priority int) (string, error)
}

// Handler is the single webhook endpoint.
type Handler struct {
	Queue Enqueuer
}

func New(q Enqueuer) *Handler {
	return &Handler{Queue: q}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 16<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	v, err := payload.ParseObject(body)
	if err != nil {
		// Payload-malformed (spec.md section 7): rejected at ingress,
		// before enqueue, never reaches the core.
		http.Error(w, "payload must be a JSON object", http.StatusBadRequest)
		return
	}

	headers := map[string]string{}
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	priority := queue.PriorityFor(v)
	jobID, err := h.Queue.Enqueue(r.Context(), idempotencyKey(r, v), headers, v, priority)
	if err != nil {
		slog.Error("ingress: enqueue failed", "error", err)
		http.Error(w, "failed to enqueue", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("X-Job-Id", jobID)
	w.WriteHeader(http.StatusAccepted)
}

// idempotencyKey derives the id Enqueue dedupes on. A caller-supplied
// Idempotency-Key header (the convention most webhook providers already
// support for this exact purpose) takes precedence; otherwise the id is
// derived from the payload's own fingerprint, so a network-level retry
// that redelivers the identical body collides on the same job instead of
// being processed twice (spec.md section 4.I idempotency).
func idempotencyKey(r *http.Request, v payload.Value) string {
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		return key
	}
	return "fp:" + fingerprint.Payload(v)
}
