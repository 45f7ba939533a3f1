package generator

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/schemaforge/schemaforge/internal/typetree"
)

func mustParseGo(t *testing.T, src string) {
	t.Helper()
	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, "generated.go", src, 0); err != nil {
		t.Fatalf("generated source does not parse as Go: %v\n---\n%s", err, src)
	}
}

func TestInterfaceSourceProducesValidGo(t *testing.T) {
	root := typetree.NewObject("")
	root.SetChild("id", typetree.NewLeaf("id", typetree.KindString))
	opt := typetree.NewLeaf("name", typetree.KindString)
	opt.Optional = true
	root.SetChild("name", opt)

	src := InterfaceSource("order/created", root)
	mustParseGo(t, src)
	if !strings.Contains(src, "OrderCreated") {
		t.Fatalf("expected root type to be named after the kind, got:\n%s", src)
	}
	if !strings.Contains(src, `json:"name,omitempty"`) {
		t.Fatalf("expected optional field to carry omitempty, got:\n%s", src)
	}
	if strings.Contains(src, `json:"id,omitempty"`) {
		t.Fatalf("required field must not carry omitempty, got:\n%s", src)
	}
}

func TestInterfaceSourceAnnotatesRedactedFields(t *testing.T) {
	root := typetree.NewObject("")
	redacted := typetree.NewLeaf("image", typetree.KindString)
	redacted.Redacted = true
	redacted.RedactedKind = typetree.RedactedBase64
	root.SetChild("image", redacted)

	src := InterfaceSource("media/received", root)
	if !strings.Contains(src, "redacted: base64") {
		t.Fatalf("expected redaction comment, got:\n%s", src)
	}
}

func TestInterfaceSourceNestedObjectsGetOwnType(t *testing.T) {
	root := typetree.NewObject("")
	nested := typetree.NewObject("address")
	nested.SetChild("city", typetree.NewLeaf("address.city", typetree.KindString))
	root.SetChild("address", nested)

	src := InterfaceSource("user/updated", root)
	mustParseGo(t, src)
	if !strings.Contains(src, "type UserUpdatedAddress struct") {
		t.Fatalf("expected a distinct nested type, got:\n%s", src)
	}
}

func TestDegenerateInterfaceIsAlwaysValidGo(t *testing.T) {
	src := DegenerateInterface("weird/kind")
	mustParseGo(t, src)
	if !strings.Contains(src, "map[string]any") {
		t.Fatalf("expected degenerate interface to alias map[string]any, got:\n%s", src)
	}
}

func TestInterfaceSourceArrayBecomesSlice(t *testing.T) {
	root := typetree.NewObject("")
	arr := &typetree.TypeTree{Path: "items", Kind: typetree.KindArray, ItemType: typetree.NewLeaf("items[*]", typetree.KindString)}
	root.SetChild("items", arr)

	src := InterfaceSource("batch/created", root)
	mustParseGo(t, src)
	if !strings.Contains(src, "[]string") {
		t.Fatalf("expected array field to render as a slice, got:\n%s", src)
	}
}
