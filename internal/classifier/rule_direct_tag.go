package classifier

import (
	"strings"

	"github.com/schemaforge/schemaforge/internal/payload"
)

var directTagAccessors = []string{"eventType", "body.eventType", "body.data.type"}

// classifyDirectTag implements spec.md 4.D step 3: the first of a short
// list of direct tag fields that holds a non-empty string is normalized to
// a PascalCase identifier and emitted as the kind.
func (c *Classifier) classifyDirectTag(v payload.Value) (string, bool) {
	for _, accessor := range directTagAccessors {
		s, ok := fieldString(v, accessor)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		kind := toPascalCase(s)
		if kind == "" {
			continue
		}
		return kind, true
	}
	return "", false
}
