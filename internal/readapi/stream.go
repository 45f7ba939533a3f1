package readapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/schemaforge/schemaforge/internal/schema"
)

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
	streamPingEvery = (streamPongWait * 9) / 10
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// Broadcaster fans out newly appended EventRows to every connected
// /events/stream subscriber (SPEC_FULL.md section 4.N). The Worker calls
// Publish after each EventLog.Append; a subscriber whose buffer is full
// misses that row rather than blocking the publisher, and stays subscribed.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan schema.EventRow]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: map[chan schema.EventRow]struct{}{}}
}

func (b *Broadcaster) subscribe() chan schema.EventRow {
	ch := make(chan schema.EventRow, 32)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) unsubscribe(ch chan schema.EventRow) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}

// Publish fans row out to every live subscriber.
func (b *Broadcaster) Publish(row schema.EventRow) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- row:
		default:
			// Slow subscriber: drop the row rather than block the Worker.
		}
	}
}

// handleEventStream upgrades to a websocket and pushes every EventRow
// appended from this point on, mirroring the teacher's
// interactionWSUpgrader ping/pong keep-alive pattern.
func (h *Handler) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		http.Error(w, "event stream not configured", http.StatusServiceUnavailable)
		return
	}

	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(streamPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	ch := h.Events.subscribe()
	defer h.Events.unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case row, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(row); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
