package generator

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/schemaforge/schemaforge/internal/typetree"
)

// ValidatorSource emits a declarative, struct-tag-annotated Go validation
// source for t (spec.md 4.G), in the style of github.com/go-playground/
// validator: one struct per object shape, `validate:"required"` on
// non-optional fields, and a comment naming the inferred RedactedKind on
// any node the Truncator flagged. Unlike InterfaceSource, the validator
// emitter has no degenerate fallback — if formatting fails, the unformatted
// source is still syntactically valid Go and is returned as-is.
func ValidatorSource(kind string, t *typetree.TypeTree) string {
	rootName := InterfaceName(kind) + "Validator"
	b := &validatorBuilder{seen: map[string]int{}}
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

type validatorBuilder struct {
	defs []string
	seen map[string]int
}

func (b *validatorBuilder) uniqueName(hint string) string {
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

func (b *validatorBuilder) typeFor(t *typetree.TypeTree, nameHint string, isRoot bool) string {
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

			rules := []string{}
			if child != nil && !child.Optional {
				rules = append(rules, "required")
			}
			if child != nil && child.Kind == typetree.KindObject {
				rules = append(rules, "dive")
			}
			validateTag := "-"
			if len(rules) > 0 {
				validateTag = strings.Join(rules, ",")
			}

			line := fmt.Sprintf("\t%s %s `json:%q validate:%q`",
				fieldIdentifier(fieldName), goType, fieldName, validateTag)
			if child != nil && child.Redacted {
				line += fmt.Sprintf(" // redacted: inferred %s content, value withheld at ingest", string(child.RedactedKind))
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
