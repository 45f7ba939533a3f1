package generator

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/schemaforge/schemaforge/internal/typetree"
)

// InterfaceSource emits a Go struct definition (plus any nested struct
// types it needs) describing t, named after kind via InterfaceName.
// Pretty-printing is attempted via go/format; on failure it falls back to
// a fixed-indent emitter, and if even that produces something the caller
// can't use, DegenerateInterface is the last resort (spec.md 4.G) — but
// note persistence of metadata/TypeTree never depends on this succeeding.
func InterfaceSource(kind string, t *typetree.TypeTree) string {
	rootName := InterfaceName(kind)
	b := &ifaceBuilder{seen: map[string]int{}}
	b.typeFor(t, rootName, true)

	var src strings.Builder
	src.WriteString("package events\n\n")
	for _, def := range b.defs {
		src.WriteString(def)
		src.WriteString("\n\n")
	}

	raw := src.String()
	if formatted, err := format.Source([]byte(raw)); err == nil {
		return string(formatted)
	}
	return raw
}

// DegenerateInterface is the last-resort, always-valid fallback: an
// any-shaped type alias for the event kind.
func DegenerateInterface(kind string) string {
	return fmt.Sprintf("package events\n\ntype %s = map[string]any\n", InterfaceName(kind))
}

type ifaceBuilder struct {
	defs []string
	seen map[string]int
}

func (b *ifaceBuilder) uniqueName(hint string) string {
	if hint == "" {
		hint = "Node"
	}
	n := b.seen[hint]
	b.seen[hint] = n + 1
	if n == 0 {
		return hint
	}
	return fmt.Sprintf("%s%d", hint, n+1)
}

func (b *ifaceBuilder) typeFor(t *typetree.TypeTree, nameHint string, isRoot bool) string {
	if t == nil {
		return "any"
	}
	switch t.Kind {
	case typetree.KindString:
		return "string"
	case typetree.KindNumber:
		return "float64"
	case typetree.KindBoolean:
		return "bool"
	case typetree.KindNull:
		return "any"
	case typetree.KindUnion:
		return "any"
	case typetree.KindArray:
		elem := "any"
		if t.ItemType != nil {
			elem = b.typeFor(t.ItemType, nameHint+"Item", false)
		}
		return "[]" + elem
	case typetree.KindObject:
		name := nameHint
		if !isRoot {
			name = b.uniqueName(nameHint)
		}
		var fields strings.Builder
		for _, fieldName := range t.ChildOrder {
			child := t.Children[fieldName]
			goType := b.typeFor(child, nameHint+fieldIdentifier(fieldName), false)
			tag := fieldName
			if child != nil && child.Optional {
				tag += ",omitempty"
			}
			line := fmt.Sprintf("\t%s %s `json:\"%s\"`", fieldIdentifier(fieldName), goType, tag)
			if child != nil && child.Redacted {
				line += fmt.Sprintf(" // redacted: %s", child.RedactedKind)
			}
			fields.WriteString(line)
			fields.WriteString("\n")
		}
		def := fmt.Sprintf("type %s struct {\n%s}", name, fields.String())
		b.defs = append(b.defs, def)
		return name
	default:
		return "any"
	}
}
