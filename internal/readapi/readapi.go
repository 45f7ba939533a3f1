// Package readapi implements the outbound read-side API (spec.md section 6;
// SPEC_FULL.md section 4.N): GetSchemaRecord, ListKinds, GetAggregates,
// GetRecentEvents, GetHourlyTimeline, plus a live event-tail websocket.
// This is the outbound API contract only — the operator dashboard UI it
// feeds remains out of scope (spec.md section 1).
package readapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/schemaforge/schemaforge/internal/eventlog"
	"github.com/schemaforge/schemaforge/internal/queue"
	"github.com/schemaforge/schemaforge/internal/store"
)

// Handler serves the read-side HTTP API.
type Handler struct {
	Store    *store.Store
	Queue    *queue.Queue
	EventLog *eventlog.EventLog
	Events   *Broadcaster
}

func New(s *store.Store, q *queue.Queue, l *eventlog.EventLog, b *Broadcaster) *Handler {
	return &Handler{Store: s, Queue: q, EventLog: l, Events: b}
}

// Mount registers every read-side route on mux.
func (h *Handler) Mount(mux *http.ServeMux) {
	mux.HandleFunc("/schemas/", h.handleGetSchemaRecord)
	mux.HandleFunc("/kinds", h.handleListKinds)
	mux.HandleFunc("/aggregates", h.handleAggregates)
	mux.HandleFunc("/events/recent", h.handleRecentEvents)
	mux.HandleFunc("/events/timeline", h.handleHourlyTimeline)
	mux.HandleFunc("/events/stream", h.handleEventStream)
}

func (h *Handler) handleGetSchemaRecord(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Path[len("/schemas/"):]
	if kind == "" {
		http.Error(w, "kind is required", http.StatusBadRequest)
		return
	}
	rec, err := h.Store.Load(kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, rec)
}

func (h *Handler) handleListKinds(w http.ResponseWriter, r *http.Request) {
	kinds, err := h.Store.ListKinds()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, kinds)
}

// Aggregates is GetAggregates()'s response shape (spec.md section 6).
type Aggregates struct {
	TotalEvents             int64            `json:"totalEvents"`
	UniqueKinds             int64            `json:"uniqueKinds"`
	EventsLast1h            int64            `json:"eventsLast1h"`
	EventsLast24h           int64            `json:"eventsLast24h"`
	AvgProcessingDurationMs float64          `json:"avgProcessingDurationMs"`
	QueueDepth              int64            `json:"queueDepth"`
	DiskBytesBySection      map[string]int64 `json:"diskBytesBySection"`
}

func (h *Handler) handleAggregates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agg := Aggregates{DiskBytesBySection: map[string]int64{}}

	if h.EventLog != nil {
		logAgg, err := h.EventLog.Aggregates(ctx)
		if err == nil {
			agg.TotalEvents = logAgg.TotalEvents
			agg.EventsLast1h = logAgg.EventsLast1h
			agg.EventsLast24h = logAgg.EventsLast24h
			agg.AvgProcessingDurationMs = logAgg.AvgProcessingDurationMs
		}
	}
	if counters, err := h.Store.LoadCounters(ctx); err == nil {
		agg.UniqueKinds = counters.UniqueKinds
	}
	if h.Queue != nil {
		if counts, err := h.Queue.Counts(ctx); err == nil {
			agg.QueueDepth = counts.Waiting + counts.Delayed
		}
	}
	if usage, err := h.Store.DiskUsage(); err == nil {
		agg.DiskBytesBySection = usage
	}

	writeJSON(w, agg)
}

func (h *Handler) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	if h.EventLog == nil {
		writeJSON(w, []any{})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	kind := r.URL.Query().Get("kind")

	rows, err := h.EventLog.RecentEvents(r.Context(), limit, kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

func (h *Handler) handleHourlyTimeline(w http.ResponseWriter, r *http.Request) {
	if h.EventLog == nil {
		writeJSON(w, []any{})
		return
	}
	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			hours = n
		}
	}
	kind := r.URL.Query().Get("kind")

	buckets, err := h.EventLog.HourlyTimeline(r.Context(), hours, kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, buckets)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
