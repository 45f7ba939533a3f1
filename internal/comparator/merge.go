// Package comparator implements the schema-drift engine (spec.md section
// 4.F): merging a prior persisted TypeTree with a freshly analyzed one,
// enumerating structural differences, and a diagnostic subset check.
package comparator

import (
	"github.com/schemaforge/schemaforge/internal/typetree"
)

// DefaultMaxMergeExamples is the transient cap the example rule permits
// during a merge when a caller doesn't override it (MAX_EXAMPLES_PER_SCHEMA
// default); the persisted record is later truncated to typetree.MaxExamples
// by the Store before save.
const DefaultMaxMergeExamples = 20

// Merge combines a prior persisted tree A with a freshly analyzed tree B
// into C, per spec.md 4.F's kind/optionality/children/array-item/example/
// redaction rules. maxExamples caps the example list carried on every node
// (spec.md section 6's MAX_EXAMPLES_PER_SCHEMA config knob); values <= 0
// fall back to DefaultMaxMergeExamples. Merge is associative up to example
// ordering and idempotent on identical inputs.
func Merge(a, b *typetree.TypeTree, maxExamples int) *typetree.TypeTree {
	if maxExamples <= 0 {
		maxExamples = DefaultMaxMergeExamples
	}
	if a == nil {
		return markAllOptional(typetree.Clone(b))
	}
	if b == nil {
		return markAllOptional(typetree.Clone(a))
	}

	c := &typetree.TypeTree{
		Path:     a.Path,
		Optional: a.Optional || b.Optional,
	}

	if a.Kind == b.Kind {
		c.Kind = a.Kind
	} else {
		c.Kind = typetree.KindUnion
	}

	c.Redacted = a.Redacted || b.Redacted
	c.RedactedKind = mergeRedactedKind(a, b)
	c.Examples = typetree.MergeExampleLists(a.Examples, b.Examples, maxExamples)

	if a.Children != nil || b.Children != nil {
		mergeChildren(c, a, b, maxExamples)
	}

	if a.ItemType != nil || b.ItemType != nil {
		c.ItemType = mergeItemType(a.ItemType, b.ItemType, maxExamples)
	}

	return c
}

func mergeRedactedKind(a, b *typetree.TypeTree) typetree.RedactionKind {
	switch {
	case a.RedactedKind == "" && b.RedactedKind == "":
		return ""
	case a.RedactedKind == "":
		return b.RedactedKind
	case b.RedactedKind == "":
		return a.RedactedKind
	case a.RedactedKind == b.RedactedKind:
		return a.RedactedKind
	case b.RedactedKind == typetree.RedactedBase64:
		// base64 is treated as strictly more informative than the older
		// evidence when the two disagree.
		return typetree.RedactedBase64
	default:
		return a.RedactedKind
	}
}

// mergeChildren implements the children rule: every key present in both
// recurses; a key present in only one side is carried into C with
// Optional forced true (this also implements the "field exists in
// exactly one side" clause of the optionality rule).
func mergeChildren(c, a, b *typetree.TypeTree, maxExamples int) {
	c.Children = map[string]*typetree.TypeTree{}
	seen := map[string]struct{}{}

	appendChild := func(name string, child *typetree.TypeTree) {
		c.SetChild(name, child)
	}

	for _, name := range orderedKeys(a) {
		seen[name] = struct{}{}
		ac := a.Children[name]
		if bc, ok := b.Children[name]; ok {
			merged := Merge(ac, bc, maxExamples)
			appendChild(name, merged)
			continue
		}
		onlyA := typetree.Clone(ac)
		onlyA.Optional = true
		appendChild(name, onlyA)
	}
	for _, name := range orderedKeys(b) {
		if _, already := seen[name]; already {
			continue
		}
		onlyB := typetree.Clone(b.Children[name])
		onlyB.Optional = true
		appendChild(name, onlyB)
	}
}

func orderedKeys(t *typetree.TypeTree) []string {
	if t == nil {
		return nil
	}
	return t.ChildOrder
}

// mergeItemType implements the array item rule: recursively merge both
// item types when present, otherwise the non-nil one survives.
func mergeItemType(a, b *typetree.TypeTree, maxExamples int) *typetree.TypeTree {
	if a == nil {
		return typetree.Clone(b)
	}
	if b == nil {
		return typetree.Clone(a)
	}
	return Merge(a, b, maxExamples)
}

// markAllOptional recursively sets Optional=true on every node in t. Used
// when one side of a merge is entirely absent (e.g. a brand-new root
// field introduced this payload): the whole subtree is new evidence and
// therefore not guaranteed present.
func markAllOptional(t *typetree.TypeTree) *typetree.TypeTree {
	if t == nil {
		return nil
	}
	t.Optional = true
	for _, name := range t.ChildOrder {
		markAllOptional(t.Children[name])
	}
	markAllOptional(t.ItemType)
	return t
}
