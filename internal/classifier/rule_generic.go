package classifier

import (
	"regexp"
	"strings"

	"github.com/schemaforge/schemaforge/internal/payload"
)

type providerMatcher struct {
	Provider string
	UAPattern *regexp.Regexp
	Header    string
	OriginHas string
}

var providerMatchers = []providerMatcher{
	{Provider: "twilio", UAPattern: regexp.MustCompile(`(?i)twilio`)},
	{Provider: "messagebird", UAPattern: regexp.MustCompile(`(?i)messagebird`)},
	{Provider: "infobip", UAPattern: regexp.MustCompile(`(?i)infobip`)},
	{Provider: "gupshup", UAPattern: regexp.MustCompile(`(?i)gupshup`)},
	{Provider: "evolution", Header: "X-Evolution-Instance"},
	{Provider: "baileys", Header: "X-Baileys-Session"},
}

type typeKeyword struct {
	Type     string
	Keywords []string
}

var genericTypeKeywords = []typeKeyword{
	{Type: "message", Keywords: []string{"message", "messages", "text", "caption"}},
	{Type: "status", Keywords: []string{"status", "delivered", "read"}},
	{Type: "presence", Keywords: []string{"presence", "online", "offline"}},
}

// classifyGenericProvider implements spec.md 4.D step 6.
func (c *Classifier) classifyGenericProvider(headers map[string]string, v payload.Value) (string, bool) {
	provider := genericProvider(headers)
	typ := genericType(v)
	if typ == "" {
		return provider + "/webhook", true
	}
	return provider + "/" + typ, true
}

func genericProvider(headers map[string]string) string {
	ua := lowerHeader(headers, "User-Agent")
	for _, m := range providerMatchers {
		if m.UAPattern != nil && m.UAPattern.MatchString(ua) {
			return m.Provider
		}
		if m.Header != "" && lowerHeader(headers, m.Header) != "" {
			return m.Provider
		}
	}
	for k := range headers {
		if strings.HasPrefix(strings.ToLower(k), "x-") {
			trimmed := strings.TrimPrefix(strings.ToLower(k), "x-")
			trimmed = strings.TrimSuffix(trimmed, "-signature")
			trimmed = strings.TrimSuffix(trimmed, "-token")
			if trimmed != "" && trimmed != k {
				return sanitizeSegment(trimmed)
			}
		}
	}
	origin := lowerHeader(headers, "Origin")
	if origin != "" {
		host := origin
		if i := strings.Index(host, "://"); i >= 0 {
			host = host[i+3:]
		}
		if i := strings.IndexAny(host, "/:"); i >= 0 {
			host = host[:i]
		}
		parts := strings.Split(host, ".")
		if len(parts) >= 2 {
			return sanitizeSegment(parts[len(parts)-2])
		}
	}
	return "generic"
}

func genericType(v payload.Value) string {
	body := allKeysLower(v)
	for _, tk := range genericTypeKeywords {
		for _, kw := range tk.Keywords {
			if strings.Contains(body, kw) {
				return tk.Type
			}
		}
	}
	return ""
}
