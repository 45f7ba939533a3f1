package classifier

import (
	"strings"

	"github.com/schemaforge/schemaforge/internal/payload"
)

var zapiSubTypeFields = []string{
	"text", "image", "sticker", "audio", "video", "document",
	"location", "contact", "poll", "reaction", "order", "payment",
	"buttons", "list",
}

// classifyZAPI implements spec.md 4.D step 1: a vendor marker in headers,
// or a payload carrying both "type" and "instanceId" with "type" drawn
// from a known vendor set, routes to a z_api/... kind.
func (c *Classifier) classifyZAPI(headers map[string]string, v payload.Value) (string, bool) {
	headerMatch := c.zapiHeaderMatch(headers)
	payloadMatch := c.zapiPayloadMatch(v)
	if !headerMatch && !payloadMatch {
		return "", false
	}

	rawType, _ := fieldString(v, "type")
	normType := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(rawType)), "callback")
	if normType == "" {
		normType = "unknown"
	}

	subType := c.zapiSubType(v)
	return "z_api/" + normType + "/" + subType, true
}

func (c *Classifier) zapiHeaderMatch(headers map[string]string) bool {
	if c.cfg.ZAPIServerHeader != "" {
		if lowerHeader(headers, "Server") == strings.ToLower(c.cfg.ZAPIServerHeader) {
			return true
		}
	}
	origin := lowerHeader(headers, "Origin")
	if origin == "" {
		return false
	}
	for _, host := range c.cfg.ZAPIOriginHosts {
		if host != "" && strings.Contains(origin, strings.ToLower(host)) {
			return true
		}
	}
	return false
}

func (c *Classifier) zapiPayloadMatch(v payload.Value) bool {
	if !hasAllFields(v, "type", "instanceId") {
		return false
	}
	t, ok := fieldString(v, "type")
	if !ok {
		return false
	}
	t = strings.ToLower(strings.TrimSpace(t))
	for _, known := range c.cfg.ZAPIVendorTypes {
		if strings.ToLower(known) == t {
			return true
		}
	}
	return false
}

func (c *Classifier) zapiSubType(v payload.Value) string {
	for _, f := range zapiSubTypeFields {
		if _, ok := v.Field(f); ok {
			return f
		}
	}
	if status, ok := fieldString(v, "status"); ok && strings.TrimSpace(status) != "" {
		sub := strings.ToLower(strings.TrimSpace(status))
		if isGroupOriginated(v) {
			sub = "group_" + sub
		}
		return sub
	}
	return "unknown"
}

func isGroupOriginated(v payload.Value) bool {
	if b, ok := v.Field("isGroup"); ok {
		if flag, isBool := b.BoolValue(); isBool {
			return flag
		}
	}
	if phone, ok := fieldString(v, "phone"); ok && strings.HasSuffix(phone, "@g.us") {
		return true
	}
	return false
}
