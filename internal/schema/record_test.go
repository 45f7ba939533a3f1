package schema

import (
	"testing"

	"github.com/schemaforge/schemaforge/internal/typetree"
)

func TestDeriveFieldSetsPartitionsRequiredAndOptional(t *testing.T) {
	root := typetree.NewObject("")
	root.SetChild("required", typetree.NewLeaf("required", typetree.KindString))
	opt := typetree.NewLeaf("optional", typetree.KindString)
	opt.Optional = true
	root.SetChild("optional", opt)

	fs := DeriveFieldSets(root)
	if len(fs.Required) != 1 || fs.Required[0] != "required" {
		t.Fatalf("Required = %v", fs.Required)
	}
	if len(fs.Optional) != 1 || fs.Optional[0] != "optional" {
		t.Fatalf("Optional = %v", fs.Optional)
	}
	for _, r := range fs.Required {
		for _, o := range fs.Optional {
			if r == o {
				t.Fatalf("required and optional sets must be disjoint, both contain %q", r)
			}
		}
	}
}

func TestDeriveFieldSetsRedactedIsSubsetOfRequiredOrOptional(t *testing.T) {
	root := typetree.NewObject("")
	redacted := typetree.NewLeaf("image", typetree.KindString)
	redacted.Redacted = true
	root.SetChild("image", redacted)

	fs := DeriveFieldSets(root)
	if len(fs.Redacted) != 1 || fs.Redacted[0] != "image" {
		t.Fatalf("Redacted = %v", fs.Redacted)
	}
	found := false
	for _, r := range fs.Required {
		if r == "image" {
			found = true
		}
	}
	for _, o := range fs.Optional {
		if o == "image" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected redacted field to also appear in required or optional")
	}
}

func TestDeriveFieldSetsOmitsRootPath(t *testing.T) {
	root := typetree.NewObject("")
	fs := DeriveFieldSets(root)
	for _, p := range append(append([]string{}, fs.Required...), fs.Optional...) {
		if p == "" {
			t.Fatalf("expected root's empty path to be excluded from field sets")
		}
	}
}

func TestAddVariationIncrementsExistingCount(t *testing.T) {
	variations := AddVariation(nil, "fp1", "first")
	variations = AddVariation(variations, "fp1", "first")
	if len(variations) != 1 {
		t.Fatalf("len = %d, want 1", len(variations))
	}
	if variations[0].Count != 2 {
		t.Fatalf("Count = %d, want 2", variations[0].Count)
	}
}

func TestAddVariationOrdersByCountDescending(t *testing.T) {
	variations := AddVariation(nil, "rare", "rare")
	variations = AddVariation(variations, "common", "common")
	variations = AddVariation(variations, "common", "common")

	if variations[0].TreeFingerprint != "common" {
		t.Fatalf("expected common (count 2) to sort before rare (count 1), got %+v", variations)
	}
}

func TestAddVariationBoundedToMaxVariations(t *testing.T) {
	var variations []Variation
	for i := 0; i < MaxVariations+5; i++ {
		variations = AddVariation(variations, string(rune('a'+i)), "desc")
	}
	if len(variations) > MaxVariations {
		t.Fatalf("len = %d, want <= %d", len(variations), MaxVariations)
	}
}
