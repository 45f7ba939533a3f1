package classifier

import (
	"testing"

	"github.com/schemaforge/schemaforge/internal/payload"
)

func classify(t *testing.T, headers map[string]string, raw string) string {
	t.Helper()
	v, err := payload.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return New(DefaultConfig()).Classify(headers, v)
}

func TestClassifyZAPITakesPrecedenceOverStructuralShape(t *testing.T) {
	// carries a z-api vendor type alongside a text.message body; the z-api
	// rule runs before the structural catalog, so z-api must win.
	got := classify(t, nil, `{"type":"ReceivedCallback","instanceId":"abc","text":{"message":"hi"}}`)
	if got != "z_api/received/text" {
		t.Fatalf("got %q, want z_api/received/text", got)
	}
}

func TestClassifyZAPIViaHeaderWithUnknownType(t *testing.T) {
	got := classify(t, map[string]string{"Server": "z-api"}, `{"status":"DELIVERED"}`)
	if got != "z_api/unknown/delivered" {
		t.Fatalf("got %q, want z_api/unknown/delivered", got)
	}
}

func TestClassifyMetaCloudMessages(t *testing.T) {
	raw := `{
		"object":"whatsapp_business_account",
		"entry":[{"changes":[{"field":"messages","value":{"messaging_product":"whatsapp","messages":[{"type":"image"}]}}]}]
	}`
	got := classify(t, nil, raw)
	if got != "whatsapp_business_account/messages_image" {
		t.Fatalf("got %q, want whatsapp_business_account/messages_image", got)
	}
}

func TestClassifyDirectTagField(t *testing.T) {
	got := classify(t, nil, `{"eventType":"order_created"}`)
	if got != "OrderCreated" {
		t.Fatalf("got %q, want OrderCreated", got)
	}
}

func TestClassifyDirectTagPrefersTopLevelOverNested(t *testing.T) {
	got := classify(t, nil, `{"eventType":"top_level","body":{"eventType":"nested"}}`)
	if got != "TopLevel" {
		t.Fatalf("got %q, want TopLevel", got)
	}
}

func TestClassifyStructuralShapeQR(t *testing.T) {
	got := classify(t, nil, `{"qr":"data-uri"}`)
	if got != "QR" {
		t.Fatalf("got %q, want QR", got)
	}
}

func TestClassifyStructuralShapeMessage(t *testing.T) {
	got := classify(t, nil, `{"messages":[{"text":"hi"}]}`)
	if got != "Message" {
		t.Fatalf("got %q, want Message", got)
	}
}

func TestClassifyKeywordScanFallback(t *testing.T) {
	got := classify(t, nil, `{"order_id":"123","order_status":"shipped"}`)
	if got != "OrderUpdate" {
		t.Fatalf("got %q, want OrderUpdate", got)
	}
}

func TestClassifyGenericProviderFallbackByUserAgent(t *testing.T) {
	got := classify(t, map[string]string{"User-Agent": "TwilioProxy/1.1"}, `{"foo":"bar"}`)
	if got != "twilio/webhook" {
		t.Fatalf("got %q, want twilio/webhook", got)
	}
}

func TestClassifyGenericProviderFallbackUnknownProvider(t *testing.T) {
	got := classify(t, nil, `{"foo":"bar"}`)
	if got != "generic/webhook" {
		t.Fatalf("got %q, want generic/webhook", got)
	}
}

func TestClassifyOutputIsAlwaysSanitized(t *testing.T) {
	got := classify(t, nil, `{"eventType":"weird!!chars//here"}`)
	for _, r := range got {
		if r == '!' {
			t.Fatalf("expected sanitized kind, got %q", got)
		}
	}
}

func TestSanitizeKindPreservesSlashAsDirectorySeparator(t *testing.T) {
	got := sanitizeKind("z-api/received callback/text!!")
	if got != "z_api/received_callback/text" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeKindNeverReturnsEmptySegment(t *testing.T) {
	got := sanitizeKind("!!!")
	if got != "unknown" {
		t.Fatalf("got %q, want unknown", got)
	}
}
