// Package classifier implements the event-kind classifier (spec.md
// section 4.D): an ordered cascade of rules, stopping at the first match,
// that turns an opaque payload (plus request headers) into a stable
// EventKind string. Rule ordering is load-bearing and documented as part
// of the system contract — see SPEC_FULL.md section 4.D.
package classifier

import (
	"strings"

	"github.com/schemaforge/schemaforge/internal/payload"
)

// Config carries the small set of vendor markers the provider-shape rules
// need. All comparisons are case-insensitive.
type Config struct {
	ZAPIServerHeader string
	ZAPIOriginHosts  []string
	ZAPIVendorTypes  []string
}

func DefaultConfig() Config {
	return Config{
		ZAPIServerHeader: "z-api",
		ZAPIOriginHosts:  []string{"z-api.io"},
		ZAPIVendorTypes:  []string{"receivedcallback", "deliverycallback", "readcallback", "messagestatuscallback", "connectedcallback", "disconnectedcallback", "presencecallback"},
	}
}

// Classifier assigns a stable EventKind to a payload.
type Classifier struct {
	cfg Config
}

func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify applies the cascade and returns a sanitized, filesystem-safe
// EventKind. It operates on the pre-redaction payload (spec.md 4.D) so
// headers and small distinguishing fields are never mutated before
// inspection.
func (c *Classifier) Classify(headers map[string]string, v payload.Value) string {
	if kind, ok := c.classifyZAPI(headers, v); ok {
		return sanitizeKind(kind)
	}
	if kind, ok := c.classifyMetaCloud(v); ok {
		return sanitizeKind(kind)
	}
	if kind, ok := c.classifyDirectTag(v); ok {
		return sanitizeKind(kind)
	}
	if kind, ok := c.classifyStructuralShape(v); ok {
		return sanitizeKind(kind)
	}
	if kind, ok := c.classifyKeywordScan(v); ok {
		return sanitizeKind(kind)
	}
	if kind, ok := c.classifyGenericProvider(headers, v); ok {
		return sanitizeKind(kind)
	}
	return "Unknown"
}

func lowerHeader(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.ToLower(strings.TrimSpace(v))
		}
	}
	return ""
}
