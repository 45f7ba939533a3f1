// Package truncator implements the size-bounded field redactor (spec.md
// section 4.C): it walks a payload depth-first and replaces oversize or
// sensitive string values with a bounded, tagged sentinel, while leaving
// the set of paths and every non-string value untouched.
package truncator

import (
	"regexp"
	"strings"

	"github.com/schemaforge/schemaforge/internal/payload"
	"github.com/schemaforge/schemaforge/internal/typetree"
)

const sentinel = "...[TRUNCATED]"

var defaultFieldNames = []string{"base64", "jpegthumbnail", "thumbnail", "data", "image"}

var base64Like = regexp.MustCompile(`^[A-Za-z0-9+/]+=*$`)

// Config controls the Truncator's behavior. PreserveStructure is always
// true in this core (spec.md 4.C) and is not exposed as a knob.
type Config struct {
	MaxLength  int
	FieldNames []string
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{MaxLength: 100, FieldNames: append([]string(nil), defaultFieldNames...)}
}

// RedactionEntry records one field that was redacted.
type RedactionEntry struct {
	Path           string
	OriginalLength int
	RedactedLength int
	Tag            typetree.RedactionKind
}

// Report is the set of redactions a single Truncate call produced, keyed
// by path for O(1) lookup by the Analyzer.
type Report struct {
	byPath map[string]RedactionEntry
}

func newReport() *Report { return &Report{byPath: map[string]RedactionEntry{}} }

// Lookup returns the redaction entry recorded at path, if any.
func (r *Report) Lookup(path string) (RedactionEntry, bool) {
	if r == nil {
		return RedactionEntry{}, false
	}
	e, ok := r.byPath[path]
	return e, ok
}

// Entries returns all recorded redactions, order unspecified.
func (r *Report) Entries() []RedactionEntry {
	if r == nil {
		return nil
	}
	out := make([]RedactionEntry, 0, len(r.byPath))
	for _, e := range r.byPath {
		out = append(out, e)
	}
	return out
}

func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byPath)
}

// Truncator redacts oversize string fields by name or heuristic.
type Truncator struct {
	cfg         Config
	lowerFields map[string]struct{}
}

func New(cfg Config) *Truncator {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = 100
	}
	if len(cfg.FieldNames) == 0 {
		cfg.FieldNames = append([]string(nil), defaultFieldNames...)
	}
	lower := make(map[string]struct{}, len(cfg.FieldNames))
	for _, f := range cfg.FieldNames {
		lower[strings.ToLower(strings.TrimSpace(f))] = struct{}{}
	}
	return &Truncator{cfg: cfg, lowerFields: lower}
}

// Truncate walks v depth-first and returns the redacted value alongside a
// report of every field that was redacted. The set of paths present in
// the result equals the set of paths present in v; only terminal string
// values change, and numeric/boolean values are never touched.
func (t *Truncator) Truncate(v payload.Value) (payload.Value, *Report) {
	report := newReport()
	out := t.walk("", v, report)
	return out, report
}

func (t *Truncator) walk(path string, v payload.Value, report *Report) payload.Value {
	switch v.Kind() {
	case payload.KindString:
		s, _ := v.StringValue()
		return t.maybeRedact(path, s, report)
	case payload.KindArray:
		items := v.Items()
		out := make([]payload.Value, len(items))
		for i, item := range items {
			out[i] = t.walk(typetree.JoinIndex(path, i), item, report)
		}
		return payload.Array(out)
	case payload.KindObject:
		keys := v.Keys()
		fields := make(map[string]payload.Value, len(keys))
		for _, k := range keys {
			child, _ := v.Field(k)
			fields[k] = t.walk(typetree.JoinField(path, k), child, report)
		}
		return payload.Object(append([]string(nil), keys...), fields)
	default:
		return v
	}
}

func (t *Truncator) maybeRedact(path, s string, report *Report) payload.Value {
	// Idempotence (spec.md 8): a string that already carries the
	// truncation sentinel is left exactly as-is on a repeat pass, rather
	// than being re-truncated to a shorter prefix of itself.
	if strings.HasSuffix(s, sentinel) {
		report.byPath[path] = RedactionEntry{
			Path:           path,
			OriginalLength: len(s),
			RedactedLength: len(s),
			Tag:            typetree.RedactedText,
		}
		return payload.String(s)
	}

	fieldMatch := t.fieldNameMatches(path)
	heuristicMatch := !fieldMatch && len(s) > 10*t.cfg.MaxLength && looksLikeBase64(s)
	if !fieldMatch && !heuristicMatch {
		return payload.String(s)
	}

	tag := typetree.RedactedText
	if looksLikeBase64(s) {
		tag = typetree.RedactedBase64
	} else if looksLikeJSON(s) {
		tag = typetree.RedactedJSON
	}

	redacted := truncateString(s, t.cfg.MaxLength)
	report.byPath[path] = RedactionEntry{
		Path:           path,
		OriginalLength: len(s),
		RedactedLength: len(redacted),
		Tag:            tag,
	}
	return payload.String(redacted)
}

func (t *Truncator) fieldNameMatches(path string) bool {
	last := strings.ToLower(typetree.LastSegment(path))
	if last == "" {
		return false
	}
	for name := range t.lowerFields {
		if strings.Contains(last, name) {
			return true
		}
	}
	return false
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + sentinel
}

// looksLikeBase64 implements the base64 heuristic: length >= 20, a multiple
// of 4, and matches the base64 alphabet with optional trailing padding.
func looksLikeBase64(s string) bool {
	if len(s) < 20 || len(s)%4 != 0 {
		return false
	}
	return base64Like.MatchString(s)
}

// looksLikeJSON implements the JSON heuristic: the string parses to an
// object or array when considered alone. This only tags the redaction
// reason — it never by itself triggers truncation.
func looksLikeJSON(s string) bool {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 {
		return false
	}
	first, last := trimmed[0], trimmed[len(trimmed)-1]
	if !((first == '{' && last == '}') || (first == '[' && last == ']')) {
		return false
	}
	v, err := payload.Parse([]byte(trimmed))
	if err != nil {
		return false
	}
	return v.Kind() == payload.KindObject || v.Kind() == payload.KindArray
}
