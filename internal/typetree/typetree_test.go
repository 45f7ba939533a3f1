package typetree

import (
	"testing"

	"github.com/schemaforge/schemaforge/internal/payload"
)

func TestSetChildRecordsFirstEncounterOrder(t *testing.T) {
	obj := NewObject("")
	obj.SetChild("z", NewLeaf("z", KindString))
	obj.SetChild("a", NewLeaf("a", KindString))
	obj.SetChild("z", NewLeaf("z", KindNumber)) // replace, should not move order

	if got := obj.ChildOrder; len(got) != 2 || got[0] != "z" || got[1] != "a" {
		t.Fatalf("ChildOrder = %v, want [z a]", got)
	}
	if obj.Children["z"].Kind != KindNumber {
		t.Fatalf("expected replaced child to keep new kind")
	}
}

func TestAddExampleDedupsAndCapsToMostRecent(t *testing.T) {
	tr := NewLeaf("x", KindString)
	for i := 0; i < 5; i++ {
		tr.AddExample(payload.Number(float64(i)), 3)
	}
	if len(tr.Examples) != 3 {
		t.Fatalf("len(Examples) = %d, want 3", len(tr.Examples))
	}
	// Should have kept the 3 most recent: 2, 3, 4.
	for i, want := range []float64{2, 3, 4} {
		n, _ := tr.Examples[i].NumberValue()
		if n != want {
			t.Fatalf("Examples[%d] = %v, want %v", i, n, want)
		}
	}
}

func TestAddExampleDropsJSONEqualDuplicate(t *testing.T) {
	tr := NewLeaf("x", KindObject)
	a, _ := payload.Parse([]byte(`{"a":1,"b":2}`))
	b, _ := payload.Parse([]byte(`{"b":2,"a":1}`)) // same value, different key order
	tr.AddExample(a, 10)
	tr.AddExample(b, 10)
	if len(tr.Examples) != 1 {
		t.Fatalf("expected duplicate (by canonical JSON) to be dropped, got %d examples", len(tr.Examples))
	}
}

func TestTruncateExamplesWalksChildrenAndItemType(t *testing.T) {
	root := NewObject("")
	child := NewLeaf("a", KindString)
	for i := 0; i < 5; i++ {
		child.Examples = append(child.Examples, payload.Number(float64(i)))
	}
	root.SetChild("a", child)

	arr := &TypeTree{Path: "b", Kind: KindArray, ItemType: NewLeaf("b[*]", KindString)}
	for i := 0; i < 5; i++ {
		arr.ItemType.Examples = append(arr.ItemType.Examples, payload.Number(float64(i)))
	}
	root.SetChild("b", arr)

	TruncateExamples(root, 2)

	if len(root.Children["a"].Examples) != 2 {
		t.Fatalf("child a examples = %d, want 2", len(root.Children["a"].Examples))
	}
	if len(root.Children["b"].ItemType.Examples) != 2 {
		t.Fatalf("array item type examples = %d, want 2", len(root.Children["b"].ItemType.Examples))
	}
}

func TestCloneIsDeepAndIndependent(t *testing.T) {
	orig := NewObject("")
	orig.SetChild("a", NewLeaf("a", KindString))
	orig.Examples = []payload.Value{payload.String("x")}

	clone := Clone(orig)
	clone.Children["a"].Kind = KindNumber
	clone.Examples[0] = payload.String("mutated")

	if orig.Children["a"].Kind != KindString {
		t.Fatalf("mutating clone's child mutated the original")
	}
	v, _ := orig.Examples[0].StringValue()
	if v != "x" {
		t.Fatalf("mutating clone's examples mutated the original")
	}
}

func TestLastSegmentStripsArrayIndices(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"image":                "image",
		"a.b.image":            "image",
		"a.b[0].image":         "image",
		"a[2]":                 "a",
		"data.messages[0].id":  "id",
	}
	for in, want := range cases {
		if got := LastSegment(in); got != want {
			t.Fatalf("LastSegment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRetagPathRewritesSubtree(t *testing.T) {
	root := NewObject("old")
	child := NewLeaf("old.a", KindString)
	root.SetChild("a", child)
	arr := &TypeTree{Path: "old.b", Kind: KindArray, ItemType: NewLeaf("old.b[*]", KindString)}
	root.SetChild("b", arr)

	RetagPath(root, "new")

	if root.Path != "new" {
		t.Fatalf("root path = %q, want new", root.Path)
	}
	if root.Children["a"].Path != "new.a" {
		t.Fatalf("child a path = %q, want new.a", root.Children["a"].Path)
	}
	if root.Children["b"].ItemType.Path != "new.b[*]" {
		t.Fatalf("array item path = %q, want new.b[*]", root.Children["b"].ItemType.Path)
	}
}

func TestFromPayloadKindMapsEveryVariant(t *testing.T) {
	cases := map[payload.Kind]Kind{
		payload.KindString:  KindString,
		payload.KindNumber:  KindNumber,
		payload.KindBoolean: KindBoolean,
		payload.KindNull:    KindNull,
		payload.KindObject:  KindObject,
		payload.KindArray:   KindArray,
	}
	for in, want := range cases {
		if got := FromPayloadKind(in); got != want {
			t.Fatalf("FromPayloadKind(%s) = %s, want %s", in, got, want)
		}
	}
}
