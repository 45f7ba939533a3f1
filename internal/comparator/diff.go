package comparator

import "github.com/schemaforge/schemaforge/internal/typetree"

// DiffKind is the closed set of structural difference shapes spec.md 4.F
// defines.
type DiffKind string

const (
	DiffTypeChange     DiffKind = "type_change"
	DiffOptionalChange DiffKind = "optional_change"
	DiffFieldAdded     DiffKind = "field_added"
	DiffFieldRemoved   DiffKind = "field_removed"
)

// Diff is one structured difference between two trees.
type Diff struct {
	Kind DiffKind
	Path string

	OldKind typetree.Kind
	NewKind typetree.Kind

	WasOptional bool
	IsOptional  bool

	Field string
}

// Differences produces the unordered set of structural differences
// between a and b. It is used for operator-facing telemetry and unit
// testing only — the merge logic never consults it.
func Differences(a, b *typetree.TypeTree) []Diff {
	var out []Diff
	diffWalk(a, b, &out)
	return out
}

func diffWalk(a, b *typetree.TypeTree, out *[]Diff) {
	if a == nil || b == nil {
		return
	}
	if a.Kind != b.Kind {
		*out = append(*out, Diff{Kind: DiffTypeChange, Path: a.Path, OldKind: a.Kind, NewKind: b.Kind})
	}
	if a.Optional != b.Optional {
		*out = append(*out, Diff{Kind: DiffOptionalChange, Path: a.Path, WasOptional: a.Optional, IsOptional: b.Optional})
	}

	seen := map[string]struct{}{}
	for _, name := range a.ChildOrder {
		seen[name] = struct{}{}
		bc, ok := b.Children[name]
		if !ok {
			*out = append(*out, Diff{Kind: DiffFieldRemoved, Path: a.Path, Field: name})
			continue
		}
		diffWalk(a.Children[name], bc, out)
	}
	for _, name := range b.ChildOrder {
		if _, already := seen[name]; already {
			continue
		}
		*out = append(*out, Diff{Kind: DiffFieldAdded, Path: b.Path, Field: name})
	}

	if a.ItemType != nil && b.ItemType != nil {
		diffWalk(a.ItemType, b.ItemType, out)
	}
}

// IsSubset reports whether every required child of sub exists in super
// with a compatible kind, and super's optionality never strictly exceeds
// sub's. union is compatible with any kind. Diagnostic only.
func IsSubset(sub, super *typetree.TypeTree) bool {
	if sub == nil {
		return true
	}
	if super == nil {
		return false
	}
	if !kindCompatible(sub.Kind, super.Kind) {
		return false
	}
	if !sub.Optional && super.Optional {
		return false
	}
	for _, name := range sub.ChildOrder {
		child := sub.Children[name]
		if child.Optional {
			continue
		}
		superChild, ok := super.Children[name]
		if !ok {
			return false
		}
		if !IsSubset(child, superChild) {
			return false
		}
	}
	if sub.ItemType != nil {
		if super.ItemType == nil {
			return false
		}
		if !IsSubset(sub.ItemType, super.ItemType) {
			return false
		}
	}
	return true
}

func kindCompatible(a, b typetree.Kind) bool {
	if a == typetree.KindUnion || b == typetree.KindUnion {
		return true
	}
	return a == b
}
