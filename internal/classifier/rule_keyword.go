package classifier

import (
	"strings"

	"github.com/schemaforge/schemaforge/internal/payload"
)

type keywordRule struct {
	Kind     string
	Keywords []string
}

// keywordTable is the small table spec.md 4.D step 5 describes: the
// lowercased, comma-joined set of every nested key is matched against
// each entry's keywords (any match wins), in table order.
var keywordTable = []keywordRule{
	{Kind: "Webhook", Keywords: []string{"webhook_id", "webhook_event"}},
	{Kind: "OrderUpdate", Keywords: []string{"order_id", "order_status"}},
	{Kind: "PaymentUpdate", Keywords: []string{"payment_id", "transaction_id"}},
	{Kind: "GroupUpdate", Keywords: []string{"group_id", "participants"}},
	{Kind: "ContactUpdate", Keywords: []string{"contact_id", "phone_number"}},
	{Kind: "StatusUpdate", Keywords: []string{"status_id", "story_id"}},
}

// classifyKeywordScan implements spec.md 4.D step 5.
func (c *Classifier) classifyKeywordScan(v payload.Value) (string, bool) {
	body := allKeysLower(v)
	for _, rule := range keywordTable {
		for _, kw := range rule.Keywords {
			if strings.Contains(body, strings.ToLower(kw)) {
				return rule.Kind, true
			}
		}
	}
	return "", false
}
