package typetree

import (
	"encoding/json"

	"github.com/schemaforge/schemaforge/internal/payload"
)

// wireNode is the persisted JSON shape of a TypeTree node. Field names are
// snake_case to match the rest of the persisted artifacts (metadata.json,
// examples.json).
type wireNode struct {
	Path         string               `json:"path"`
	Kind         Kind                 `json:"kind"`
	Optional     bool                 `json:"optional"`
	ChildOrder   []string             `json:"child_order,omitempty"`
	Children     map[string]*wireNode `json:"children,omitempty"`
	ItemType     *wireNode            `json:"item_type,omitempty"`
	Examples     []payload.Value      `json:"examples,omitempty"`
	Redacted     bool                 `json:"redacted,omitempty"`
	RedactedKind RedactionKind        `json:"redacted_kind,omitempty"`
}

func toWire(t *TypeTree) *wireNode {
	if t == nil {
		return nil
	}
	w := &wireNode{
		Path:         t.Path,
		Kind:         t.Kind,
		Optional:     t.Optional,
		ChildOrder:   t.ChildOrder,
		Examples:     t.Examples,
		Redacted:     t.Redacted,
		RedactedKind: t.RedactedKind,
	}
	if t.Children != nil {
		w.Children = make(map[string]*wireNode, len(t.Children))
		for k, v := range t.Children {
			w.Children[k] = toWire(v)
		}
	}
	w.ItemType = toWire(t.ItemType)
	return w
}

func fromWire(w *wireNode) *TypeTree {
	if w == nil {
		return nil
	}
	t := &TypeTree{
		Path:         w.Path,
		Kind:         w.Kind,
		Optional:     w.Optional,
		ChildOrder:   w.ChildOrder,
		Examples:     w.Examples,
		Redacted:     w.Redacted,
		RedactedKind: w.RedactedKind,
	}
	if w.Children != nil {
		t.Children = make(map[string]*TypeTree, len(w.Children))
		for k, v := range w.Children {
			t.Children[k] = fromWire(v)
		}
	}
	t.ItemType = fromWire(w.ItemType)
	return t
}

// MarshalJSON implements json.Marshaler so a *TypeTree can be embedded
// directly in a SchemaRecord's metadata.json (the "saved_tree" field).
func (t *TypeTree) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(t))
}

// UnmarshalJSON implements json.Unmarshaler, the inverse of MarshalJSON.
func (t *TypeTree) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = *fromWire(&w)
	return nil
}

// Serialize renders the canonical persisted form.
func Serialize(t *TypeTree) ([]byte, error) {
	return json.Marshal(t)
}

// Reconstruct parses the persisted form back into a TypeTree. Round-trip
// law (spec.md 8): Reconstruct(Serialize(T)) has an equal structure
// fingerprint to T.
func Reconstruct(data []byte) (*TypeTree, error) {
	var t TypeTree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
