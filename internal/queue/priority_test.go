package queue

import (
	"testing"

	"github.com/schemaforge/schemaforge/internal/payload"
)

func priorityOf(t *testing.T, raw string) int {
	t.Helper()
	v, err := payload.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return PriorityFor(v)
}

func TestPriorityForUsesTopLevelEventTypeField(t *testing.T) {
	if got := priorityOf(t, `{"eventType":"QR"}`); got != 14 {
		t.Fatalf("got %d, want 14", got)
	}
}

func TestPriorityForUsesNestedBodyEventTypeField(t *testing.T) {
	if got := priorityOf(t, `{"body":{"eventType":"message"}}`); got != 12 {
		t.Fatalf("got %d, want 12", got)
	}
}

func TestPriorityForUsesNestedBodyDataTypeField(t *testing.T) {
	if got := priorityOf(t, `{"body":{"data":{"type":"receipt"}}}`); got != 9 {
		t.Fatalf("got %d, want 9", got)
	}
}

func TestPriorityForIsCaseInsensitive(t *testing.T) {
	if got := priorityOf(t, `{"eventType":"MESSAGE"}`); got != 12 {
		t.Fatalf("got %d, want 12", got)
	}
}

func TestPriorityForFallsBackToKeywordScanWhenNoDirectTagMatches(t *testing.T) {
	if got := priorityOf(t, `{"eventType":"something_unrecognized","receipt_id":"x"}`); got != 9 {
		t.Fatalf("got %d, want 9 (keyword fallback on 'receipt')", got)
	}
}

func TestPriorityForDefaultsWhenNothingMatches(t *testing.T) {
	if got := priorityOf(t, `{"foo":"bar"}`); got != DefaultPriority {
		t.Fatalf("got %d, want default %d", got, DefaultPriority)
	}
}

func TestPriorityForIgnoresClassifierDerivedKindEntirely(t *testing.T) {
	// Structurally this looks like a Message (classifier would say so),
	// but priority must come from the raw type field, which here points
	// to a low-priority kind.
	got := priorityOf(t, `{"eventType":"presence","messages":[{"text":"hi"}]}`)
	if got != 4 {
		t.Fatalf("got %d, want 4 (priority derives from raw eventType, not classified kind)", got)
	}
}
