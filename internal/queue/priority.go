package queue

import (
	"strings"

	"github.com/schemaforge/schemaforge/internal/payload"
)

// precedence maps well-known raw type-field values to a priority in
// [1, 15] (spec.md section 4.I). This intentionally reads the payload's own
// "type"-shaped field rather than the Classifier's derived EventKind — the
// spec preserves that as written (DESIGN NOTES section 9: priority is a
// latency hint, not correctness-affecting).
var precedence = map[string]int{
	"message":      12,
	"text":         12,
	"receivedcallback": 12,
	"presence":     4,
	"chatpresence": 4,
	"keepalivetimeout": 2,
	"qr":           14,
	"pairsuccess":  14,
	"loggedout":    13,
	"connected":    13,
	"status":       8,
	"receipt":      9,
	"picture":      6,
	"mediaretry":   6,
	"historysync":  3,
}

// keywordFallback is consulted when no exact precedence entry matches; it
// scans the joined, lowercased key set for a recognizable substring.
var keywordFallback = []struct {
	keyword  string
	priority int
}{
	{"message", 11},
	{"receipt", 9},
	{"status", 8},
	{"presence", 4},
	{"history", 3},
}

// DefaultPriority is used when neither the precedence table nor the
// keyword fallback produce a match.
const DefaultPriority = 5

// PriorityFor computes a dequeue priority from the raw, unclassified
// payload (spec.md section 4.I). It checks the common direct-tag fields
// first — "eventType", "body.eventType", "body.data.type" — against the
// precedence table, then falls back to a keyword scan of every key name.
func PriorityFor(v payload.Value) int {
	if t := directTypeField(v); t != "" {
		if p, ok := precedence[strings.ToLower(t)]; ok {
			return p
		}
	}

	keys := strings.ToLower(joinKeys(v))
	for _, kw := range keywordFallback {
		if strings.Contains(keys, kw.keyword) {
			return kw.priority
		}
	}
	return DefaultPriority
}

func directTypeField(v payload.Value) string {
	if s, ok := stringField(v, "eventType"); ok {
		return s
	}
	if body, ok := v.Field("body"); ok {
		if s, ok := stringField(body, "eventType"); ok {
			return s
		}
		if data, ok := body.Field("data"); ok {
			if s, ok := stringField(data, "type"); ok {
				return s
			}
		}
	}
	return ""
}

func stringField(v payload.Value, name string) (string, bool) {
	child, ok := v.Field(name)
	if !ok {
		return "", false
	}
	return child.StringValue()
}

// joinKeys recursively joins every object key into a single comma-string,
// mirroring the Classifier's own keyword-scan rule (spec.md section 4.D
// step 5) so priority computation stays consistent with how the pipeline
// elsewhere reasons about "what does this payload look like."
func joinKeys(v payload.Value) string {
	var sb strings.Builder
	walkKeys(v, &sb)
	return sb.String()
}

func walkKeys(v payload.Value, sb *strings.Builder) {
	switch v.Kind() {
	case payload.KindObject:
		for _, k := range v.Keys() {
			sb.WriteString(k)
			sb.WriteByte(',')
			child, _ := v.Field(k)
			walkKeys(child, sb)
		}
	case payload.KindArray:
		for _, item := range v.Items() {
			walkKeys(item, sb)
		}
	}
}
