package readapi

import (
	"testing"
	"time"

	"github.com/schemaforge/schemaforge/internal/schema"
)

func TestPublishFansOutToEverySubscriber(t *testing.T) {
	b := NewBroadcaster()
	ch1 := b.subscribe()
	ch2 := b.subscribe()
	defer b.unsubscribe(ch1)
	defer b.unsubscribe(ch2)

	b.Publish(schema.EventRow{Kind: "order/created"})

	for i, ch := range []chan schema.EventRow{ch1, ch2} {
		select {
		case row := <-ch:
			if row.Kind != "order/created" {
				t.Fatalf("subscriber %d got kind %q, want order/created", i, row.Kind)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the published row", i)
		}
	}
}

func TestPublishDropsRowForFullSlowSubscriber(t *testing.T) {
	b := NewBroadcaster()
	ch := b.subscribe()
	defer b.unsubscribe(ch)

	// Fill the subscriber's buffer (capacity 32) without draining it.
	for i := 0; i < 40; i++ {
		b.Publish(schema.EventRow{Kind: "order/created"})
	}

	drained := 0
	for {
		select {
		case <-ch:
			drained++
		default:
			if drained == 0 {
				t.Fatalf("expected at least one buffered row")
			}
			if drained > 32 {
				t.Fatalf("drained %d rows, want <= 32 (buffer capacity)", drained)
			}
			return
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch := b.subscribe()
	b.unsubscribe(ch)

	_, ok := <-ch
	if ok {
		t.Fatalf("expected channel to be closed after unsubscribe")
	}
}

func TestPublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	done := make(chan struct{})
	go func() {
		b.Publish(schema.EventRow{Kind: "order/created"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish blocked with no subscribers")
	}
}
