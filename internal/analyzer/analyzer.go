// Package analyzer implements the structural analyzer (spec.md section
// 4.E): it builds a TypeTree from a redacted payload plus the Truncator's
// RedactionReport, one node per encountered position.
package analyzer

import (
	"github.com/schemaforge/schemaforge/internal/payload"
	"github.com/schemaforge/schemaforge/internal/truncator"
	"github.com/schemaforge/schemaforge/internal/typetree"
)

// Analyzer builds TypeTrees from redacted payloads.
type Analyzer struct{}

func New() *Analyzer { return &Analyzer{} }

// Analyze walks v depth-first, producing one TypeTree node per position.
// Every node's Optional starts false — optionality is discovered only via
// merging (spec.md 4.E, 4.F).
func (a *Analyzer) Analyze(v payload.Value, report *truncator.Report) *typetree.TypeTree {
	return a.build("", v, report)
}

func (a *Analyzer) build(path string, v payload.Value, report *truncator.Report) *typetree.TypeTree {
	t := &typetree.TypeTree{Path: path, Kind: typetree.FromPayloadKind(v.Kind())}

	switch v.Kind() {
	case payload.KindObject:
		t.Children = map[string]*typetree.TypeTree{}
		for _, key := range v.Keys() {
			child, _ := v.Field(key)
			childPath := typetree.JoinField(path, key)
			t.SetChild(key, a.build(childPath, child, report))
		}
		t.AddExample(v, typetree.MaxExamples)
	case payload.KindArray:
		a.analyzeArray(t, path, v, report)
		t.AddExample(v, typetree.MaxExamples)
	default:
		a.applyRedaction(t, path, report)
		t.AddExample(v, typetree.MaxExamples)
	}

	return t
}

// analyzeArray implements spec.md 4.E's array rule: if all elements share
// one kind, recurse into the first element and merge the rest into it; if
// elements span multiple kinds, the array itself becomes a union and a
// synthetic [*] union node (with up to five sample elements) becomes its
// item type.
func (a *Analyzer) analyzeArray(t *typetree.TypeTree, path string, v payload.Value, report *truncator.Report) {
	items := v.Items()
	if len(items) == 0 {
		return
	}

	itemPath := typetree.JoinWildcard(path)
	kinds := map[payload.Kind]struct{}{}
	for _, item := range items {
		kinds[item.Kind()] = struct{}{}
	}

	if len(kinds) == 1 {
		merged := a.build(itemPath, items[0], report)
		for _, item := range items[1:] {
			next := a.build(itemPath, item, report)
			merged = mergeSameShape(merged, next)
		}
		t.ItemType = merged
		return
	}

	union := &typetree.TypeTree{Path: itemPath, Kind: typetree.KindUnion}
	limit := len(items)
	if limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		union.AddExample(items[i], 5)
	}
	t.Kind = typetree.KindUnion
	t.ItemType = union
}

// mergeSameShape folds repeated analyses of same-kind array elements into
// one node, carrying the union of observed children (each freshly
// analyzed, hence never optional yet) and bounded examples. This is a
// lightweight analyzer-internal fold, distinct from the Comparator's
// persisted-vs-fresh merge.
func mergeSameShape(a, b *typetree.TypeTree) *typetree.TypeTree {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Kind != b.Kind {
		union := &typetree.TypeTree{Path: a.Path, Kind: typetree.KindUnion}
		union.Examples = typetree.MergeExampleLists(a.Examples, b.Examples, 5)
		return union
	}
	switch a.Kind {
	case typetree.KindObject:
		out := &typetree.TypeTree{Path: a.Path, Kind: typetree.KindObject, Children: map[string]*typetree.TypeTree{}}
		seen := map[string]struct{}{}
		for _, name := range a.ChildOrder {
			seen[name] = struct{}{}
			if bc, ok := b.Children[name]; ok {
				out.SetChild(name, mergeSameShape(a.Children[name], bc))
			} else {
				out.SetChild(name, a.Children[name])
			}
		}
		for _, name := range b.ChildOrder {
			if _, already := seen[name]; already {
				continue
			}
			out.SetChild(name, b.Children[name])
		}
		out.Examples = typetree.MergeExampleLists(a.Examples, b.Examples, typetree.MaxExamples)
		out.Redacted = a.Redacted || b.Redacted
		return out
	case typetree.KindArray:
		out := &typetree.TypeTree{Path: a.Path, Kind: typetree.KindArray}
		out.ItemType = mergeSameShape(a.ItemType, b.ItemType)
		out.Examples = typetree.MergeExampleLists(a.Examples, b.Examples, typetree.MaxExamples)
		return out
	default:
		out := &typetree.TypeTree{Path: a.Path, Kind: a.Kind}
		out.Redacted = a.Redacted || b.Redacted
		if a.Redacted || b.Redacted {
			out.RedactedKind = a.RedactedKind
			if out.RedactedKind == "" {
				out.RedactedKind = b.RedactedKind
			}
		}
		out.Examples = typetree.MergeExampleLists(a.Examples, b.Examples, typetree.MaxExamples)
		return out
	}
}

func (a *Analyzer) applyRedaction(t *typetree.TypeTree, path string, report *truncator.Report) {
	entry, ok := report.Lookup(path)
	if !ok {
		return
	}
	t.Redacted = true
	t.RedactedKind = entry.Tag
}
