package classifier

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/schemaforge/schemaforge/internal/payload"
)

// field navigates a dotted/bracketed accessor like "entry[0].changes[0].value"
// against a payload.Value, returning (value, true) if every segment along
// the way exists.
func field(v payload.Value, accessor string) (payload.Value, bool) {
	if accessor == "" {
		return v, true
	}
	cur := v
	for _, seg := range splitAccessor(accessor) {
		if idx, isIndex := seg.index(); isIndex {
			if cur.Kind() != payload.KindArray {
				return payload.Value{}, false
			}
			items := cur.Items()
			if idx < 0 || idx >= len(items) {
				return payload.Value{}, false
			}
			cur = items[idx]
			continue
		}
		child, ok := cur.Field(seg.name)
		if !ok {
			return payload.Value{}, false
		}
		cur = child
	}
	return cur, true
}

func fieldString(v payload.Value, accessor string) (string, bool) {
	f, ok := field(v, accessor)
	if !ok {
		return "", false
	}
	return f.StringValue()
}

type accessorSeg struct {
	name string
	idx  int
	kind int // 0=field, 1=index
}

func (s accessorSeg) index() (int, bool) {
	if s.kind == 1 {
		return s.idx, true
	}
	return 0, false
}

// splitAccessor turns "entry[0].changes[0].field" into field/index
// segments: [{entry},{0,index},{changes},{0,index},{field}].
func splitAccessor(accessor string) []accessorSeg {
	var segs []accessorSeg
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			segs = append(segs, accessorSeg{name: cur.String()})
			cur.Reset()
		}
	}
	i := 0
	for i < len(accessor) {
		c := accessor[i]
		switch c {
		case '.':
			flush()
			i++
		case '[':
			flush()
			j := strings.IndexByte(accessor[i:], ']')
			if j < 0 {
				i = len(accessor)
				break
			}
			numStr := accessor[i+1 : i+j]
			n, err := strconv.Atoi(numStr)
			if err == nil {
				segs = append(segs, accessorSeg{idx: n, kind: 1})
			}
			i += j + 1
		default:
			cur.WriteByte(c)
			i++
		}
	}
	flush()
	return segs
}

// hasStringField reports whether v carries a non-empty string field name.
func hasStringField(v payload.Value, name string) bool {
	s, ok := fieldString(v, name)
	return ok && strings.TrimSpace(s) != ""
}

// hasAnyField reports whether v has a top-level field with any of names.
func hasAnyField(v payload.Value, names ...string) bool {
	for _, n := range names {
		if _, ok := v.Field(n); ok {
			return true
		}
	}
	return false
}

// hasAllFields reports whether v has top-level fields for every name.
func hasAllFields(v payload.Value, names ...string) bool {
	for _, n := range names {
		if _, ok := v.Field(n); !ok {
			return false
		}
	}
	return true
}

// allKeysLower joins every nested key in v into a single lowercase,
// comma-separated string, used by the keyword scan (spec.md 4.D step 5).
func allKeysLower(v payload.Value) string {
	var sb strings.Builder
	collectKeys(v, &sb)
	return strings.ToLower(sb.String())
}

func collectKeys(v payload.Value, sb *strings.Builder) {
	switch v.Kind() {
	case payload.KindObject:
		for _, k := range v.Keys() {
			if sb.Len() > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(k)
			child, _ := v.Field(k)
			collectKeys(child, sb)
		}
	case payload.KindArray:
		for _, item := range v.Items() {
			collectKeys(item, sb)
		}
	}
}

// toPascalCase normalizes an arbitrary identifier-ish string (snake_case,
// kebab-case, space separated, or already PascalCase) into PascalCase.
func toPascalCase(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	if len(fields) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, f := range fields {
		if f == "" {
			continue
		}
		runes := []rune(f)
		sb.WriteRune(unicode.ToUpper(runes[0]))
		for _, r := range runes[1:] {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// sanitizeKind makes an EventKind filesystem-safe: '/' is preserved as a
// directory separator, every other non-alphanumeric run collapses to a
// single '_' (spec.md section 3).
func sanitizeKind(kind string) string {
	segs := strings.Split(kind, "/")
	for i, seg := range segs {
		segs[i] = sanitizeSegment(seg)
	}
	return strings.Join(segs, "/")
}

func sanitizeSegment(seg string) string {
	var sb strings.Builder
	prevUnderscore := false
	for _, r := range seg {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevUnderscore = false
			continue
		}
		if !prevUnderscore {
			sb.WriteByte('_')
			prevUnderscore = true
		}
	}
	out := strings.Trim(sb.String(), "_")
	if out == "" {
		return "unknown"
	}
	return out
}
