package classifier

import (
	"strings"

	"github.com/schemaforge/schemaforge/internal/payload"
)

// classifyMetaCloud implements spec.md 4.D step 2.
func (c *Classifier) classifyMetaCloud(v payload.Value) (string, bool) {
	obj, ok := fieldString(v, "object")
	if !ok || !strings.EqualFold(obj, "whatsapp_business_account") {
		return "", false
	}
	product, ok := fieldString(v, "entry[0].changes[0].value.messaging_product")
	if !ok || !strings.EqualFold(strings.TrimSpace(product), "whatsapp") {
		return "", false
	}
	fieldName, ok := fieldString(v, "entry[0].changes[0].field")
	if !ok || strings.TrimSpace(fieldName) == "" {
		return "", false
	}

	kind := "whatsapp_business_account/" + strings.ToLower(strings.TrimSpace(fieldName))
	if strings.EqualFold(fieldName, "messages") {
		subType := "text"
		if mt, ok := fieldString(v, "entry[0].changes[0].value.messages[0].type"); ok && strings.TrimSpace(mt) != "" {
			subType = strings.ToLower(strings.TrimSpace(mt))
		}
		kind += "_" + subType
	}
	return kind, true
}
