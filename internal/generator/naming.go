// Package generator implements the artifact generator (spec.md section
// 4.G): pure functions from a TypeTree to validator source, interface
// source, and a metadata record.
package generator

import (
	"strings"
	"unicode"
)

// InterfaceName derives the Go type identifier for an EventKind: split on
// "/", PascalCase each segment, concatenate. E.g.
// "whatsapp_business_account/messages_image" -> "WhatsappBusinessAccountMessagesImage".
func InterfaceName(kind string) string {
	segs := strings.Split(kind, "/")
	var sb strings.Builder
	for _, seg := range segs {
		sb.WriteString(pascalCase(seg))
	}
	if sb.Len() == 0 {
		return "UnknownEvent"
	}
	return sb.String()
}

func pascalCase(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	var sb strings.Builder
	for _, f := range fields {
		if f == "" {
			continue
		}
		runes := []rune(f)
		sb.WriteRune(unicode.ToUpper(runes[0]))
		for _, r := range runes[1:] {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

// fieldIdentifier turns an object field name into an exported Go
// identifier, used by both the interface and validator emitters.
func fieldIdentifier(name string) string {
	id := pascalCase(name)
	if id == "" {
		return "Field"
	}
	if unicode.IsDigit(rune(id[0])) {
		id = "F" + id
	}
	return id
}
