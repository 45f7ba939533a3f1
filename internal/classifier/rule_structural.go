package classifier

import (
	"strings"

	"github.com/schemaforge/schemaforge/internal/payload"
)

// shapeRule is one entry in the closed, ordered structural-shape catalog
// (spec.md 4.D step 4). Each rule is a conjunction of "contains these
// top-level fields" and "lowered-string-body contains these tokens". The
// catalog's order is part of the system contract: reordering it is a
// breaking change (spec.md section 9).
type shapeRule struct {
	Kind  string
	Match func(v payload.Value, body string) bool
}

// structuralCatalog mirrors the connection-lifecycle and message-event
// vocabulary of WhatsApp-multi-device-style webhook sources. The three
// entries after HistorySync/Blocklist/Newsletter are the SPEC_FULL.md
// supplement (CallPermissionDenied, Ack, ConnectionFailure); they are
// intentionally ordered after the documented catalog and before the
// keyword scan.
var structuralCatalog = []shapeRule{
	{
		Kind: "QR",
		Match: func(v payload.Value, _ string) bool {
			return hasAnyField(v, "qr", "qrCode", "qrCodes")
		},
	},
	{
		Kind: "PairSuccess",
		Match: func(v payload.Value, body string) bool {
			if hasAnyField(v, "pairSuccess") {
				return true
			}
			return hasAllFields(v, "ID", "BusinessName") || hasAllFields(v, "id", "businessName") ||
				strings.Contains(body, "pairsuccess")
		},
	},
	{
		Kind: "LoggedOut",
		Match: func(v payload.Value, body string) bool {
			if hasAnyField(v, "loggedOut") {
				return true
			}
			reason, ok := fieldString(v, "reason")
			return ok && strings.Contains(strings.ToLower(reason), "logged_out") && !hasAnyField(v, "messages")
		},
	},
	{
		Kind: "Connected",
		Match: func(v payload.Value, body string) bool {
			if b, ok := v.Field("connected"); ok {
				if flag, isBool := b.BoolValue(); isBool && flag {
					return true
				}
			}
			ev, ok := fieldString(v, "event")
			return ok && strings.EqualFold(ev, "open") && !hasAnyField(v, "messages")
		},
	},
	{
		Kind: "KeepAliveTimeout",
		Match: func(v payload.Value, body string) bool {
			return hasAnyField(v, "keepAliveTimeout") || strings.Contains(body, "keepalive")
		},
	},
	{
		Kind: "Message",
		Match: func(v payload.Value, _ string) bool {
			if arr, ok := v.Field("messages"); ok {
				return arr.Kind() == payload.KindArray && len(arr.Items()) > 0
			}
			return hasAnyField(v, "message")
		},
	},
	{
		Kind: "Receipt",
		Match: func(v payload.Value, body string) bool {
			if hasAnyField(v, "receipt") {
				return true
			}
			return hasAllFields(v, "ids", "type") && strings.Contains(body, "receipt")
		},
	},
	{
		Kind: "Presence",
		Match: func(v payload.Value, _ string) bool {
			return hasAllFields(v, "from", "presence") && !hasAnyField(v, "chat")
		},
	},
	{
		Kind: "ChatPresence",
		Match: func(v payload.Value, _ string) bool {
			return hasAllFields(v, "chat", "presence")
		},
	},
	{
		Kind: "Picture",
		Match: func(v payload.Value, _ string) bool {
			return hasAnyField(v, "picture", "pictureId")
		},
	},
	{
		Kind: "MediaRetry",
		Match: func(v payload.Value, body string) bool {
			return hasAnyField(v, "mediaRetry") || strings.Contains(body, "media_retry")
		},
	},
	{
		Kind: "HistorySync",
		Match: func(v payload.Value, body string) bool {
			return hasAnyField(v, "historySync", "syncType") || strings.Contains(body, "history_sync")
		},
	},
	{
		Kind: "Blocklist",
		Match: func(v payload.Value, body string) bool {
			return hasAnyField(v, "blocklist", "dhash") || strings.Contains(body, "blocklist")
		},
	},
	{
		Kind: "NewsletterJoin",
		Match: func(v payload.Value, body string) bool {
			return hasAnyField(v, "newsletter") && strings.Contains(body, "join")
		},
	},
	{
		Kind: "NewsletterLeave",
		Match: func(v payload.Value, body string) bool {
			return hasAnyField(v, "newsletter") && strings.Contains(body, "leave")
		},
	},
	{
		Kind: "NewsletterMuteChange",
		Match: func(v payload.Value, body string) bool {
			return hasAnyField(v, "newsletter") && strings.Contains(body, "mute")
		},
	},
	{
		Kind: "Newsletter",
		Match: func(v payload.Value, _ string) bool {
			return hasAnyField(v, "newsletter")
		},
	},
	// --- SPEC_FULL.md supplement, ordered after the documented catalog ---
	{
		Kind: "CallPermissionDenied",
		Match: func(v payload.Value, _ string) bool {
			ev, ok := fieldString(v, "event")
			if ok && strings.EqualFold(ev, "call.denied") {
				return true
			}
			if b, ok := v.Field("callPermission"); ok {
				if flag, isBool := b.BoolValue(); isBool && !flag {
					return true
				}
			}
			return false
		},
	},
	{
		Kind: "Ack",
		Match: func(v payload.Value, _ string) bool {
			if hasAnyField(v, "messages") {
				return false
			}
			status, ok := fieldString(v, "status")
			if !ok || !hasAnyField(v, "ids") {
				return false
			}
			switch strings.ToLower(strings.TrimSpace(status)) {
			case "sent", "delivered", "read", "played":
				return true
			}
			return false
		},
	},
	{
		Kind: "ConnectionFailure",
		Match: func(v payload.Value, body string) bool {
			if hasAnyField(v, "messages") {
				return false
			}
			conn, ok := fieldString(v, "connection")
			if ok && strings.EqualFold(conn, "failed") {
				return true
			}
			return strings.Contains(body, "disconnect") || strings.Contains(body, "timeout")
		},
	},
}

// classifyStructuralShape implements spec.md 4.D step 4.
func (c *Classifier) classifyStructuralShape(v payload.Value) (string, bool) {
	body := allKeysLower(v)
	for _, rule := range structuralCatalog {
		if rule.Match(v, body) {
			return rule.Kind, true
		}
	}
	return "", false
}
