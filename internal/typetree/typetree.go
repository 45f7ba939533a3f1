// Package typetree implements the TypeTree data model (spec.md section 3):
// the recursive structural description of a payload that the Analyzer
// builds and the Comparator merges over time.
package typetree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/schemaforge/schemaforge/internal/payload"
)

// Kind is the TypeTree's closed kind set — one wider than payload.Kind
// because two structurally different shapes observed at the same position
// collapse into "union".
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindUnion   Kind = "union"
)

// FromPayloadKind maps a detected payload.Kind onto the wider TypeTree Kind.
func FromPayloadKind(k payload.Kind) Kind {
	switch k {
	case payload.KindString:
		return KindString
	case payload.KindNumber:
		return KindNumber
	case payload.KindBoolean:
		return KindBoolean
	case payload.KindNull:
		return KindNull
	case payload.KindObject:
		return KindObject
	case payload.KindArray:
		return KindArray
	default:
		return KindUnion
	}
}

// RedactionKind tags the heuristic guess of what a truncated string held.
type RedactionKind string

const (
	RedactedNone RedactionKind = ""
	RedactedBase64 RedactionKind = "base64"
	RedactedJSON   RedactionKind = "json"
	RedactedText   RedactionKind = "text"
)

// MaxExamples is the persisted per-node example bound (Invariant R4).
const MaxExamples = 10

// TypeTree is a single node in the structural description of a payload.
// Children is keyed by field name; ChildOrder preserves first-encounter
// order for artifact emission while hashing always walks Children in
// lexicographic order (see internal/fingerprint).
type TypeTree struct {
	Path     string
	Kind     Kind
	Optional bool

	ChildOrder []string
	Children   map[string]*TypeTree

	ItemType *TypeTree

	Examples []payload.Value

	Redacted     bool
	RedactedKind RedactionKind
}

// NewLeaf builds a childless node of the given kind at path.
func NewLeaf(path string, kind Kind) *TypeTree {
	return &TypeTree{Path: path, Kind: kind}
}

// NewObject builds an empty object node with an initialized children map.
func NewObject(path string) *TypeTree {
	return &TypeTree{Path: path, Kind: KindObject, Children: map[string]*TypeTree{}}
}

// SetChild inserts or replaces a named child, recording first-encounter
// order in ChildOrder.
func (t *TypeTree) SetChild(name string, child *TypeTree) {
	if t.Children == nil {
		t.Children = map[string]*TypeTree{}
	}
	if _, exists := t.Children[name]; !exists {
		t.ChildOrder = append(t.ChildOrder, name)
	}
	t.Children[name] = child
}

// AddExample appends a new observed representative, dropping JSON-equal
// duplicates and bounding the retained set to maxExamples, keeping the
// most recently seen ones (Invariant R4; spec.md 4.F example rule).
func (t *TypeTree) AddExample(v payload.Value, maxExamples int) {
	t.Examples = AppendExample(t.Examples, v, maxExamples)
}

// AppendExample is the free-function form of AddExample, shared by the
// Analyzer (single insert) and the Comparator (bulk merge).
func AppendExample(existing []payload.Value, v payload.Value, maxExamples int) []payload.Value {
	canon := payload.CanonicalJSON(v)
	out := make([]payload.Value, 0, len(existing)+1)
	for _, e := range existing {
		if payload.CanonicalJSON(e) == canon {
			continue
		}
		out = append(out, e)
	}
	out = append(out, v)
	if maxExamples > 0 && len(out) > maxExamples {
		out = out[len(out)-maxExamples:]
	}
	return out
}

// MergeExampleLists concatenates two example lists (most recent = B's tail
// wins ties), drops JSON-equal duplicates keeping the latest occurrence,
// and caps the result at maxExamples. Used by the Comparator's example
// rule, which permits a transient cap higher than the persisted bound.
func MergeExampleLists(a, b []payload.Value, maxExamples int) []payload.Value {
	out := append([]payload.Value(nil), a...)
	for _, v := range b {
		out = AppendExample(out, v, 0) // dedupe without capping yet
	}
	if maxExamples > 0 && len(out) > maxExamples {
		out = out[len(out)-maxExamples:]
	}
	return out
}

// TruncateExamples walks the tree and caps every node's Examples to
// maxExamples, keeping the most recently observed (tail) entries. Called
// before persistence to enforce Invariant R4 even though a merge may have
// carried up to MAX_EXAMPLES_PER_SCHEMA transiently.
func TruncateExamples(t *TypeTree, maxExamples int) {
	if t == nil {
		return
	}
	if len(t.Examples) > maxExamples {
		t.Examples = append([]payload.Value(nil), t.Examples[len(t.Examples)-maxExamples:]...)
	}
	for _, name := range t.ChildOrder {
		TruncateExamples(t.Children[name], maxExamples)
	}
	TruncateExamples(t.ItemType, maxExamples)
}

// Clone deep-copies a TypeTree.
func Clone(t *TypeTree) *TypeTree {
	if t == nil {
		return nil
	}
	c := &TypeTree{
		Path:         t.Path,
		Kind:         t.Kind,
		Optional:     t.Optional,
		Redacted:     t.Redacted,
		RedactedKind: t.RedactedKind,
		Examples:     append([]payload.Value(nil), t.Examples...),
	}
	if t.Children != nil {
		c.Children = make(map[string]*TypeTree, len(t.Children))
		c.ChildOrder = append([]string(nil), t.ChildOrder...)
		for k, v := range t.Children {
			c.Children[k] = Clone(v)
		}
	}
	if t.ItemType != nil {
		c.ItemType = Clone(t.ItemType)
	}
	return c
}

// Path-building helpers. Root path is "".

// JoinField builds the dotted path of an object field.
func JoinField(parent, field string) string {
	if parent == "" {
		return field
	}
	return parent + "." + field
}

// JoinIndex builds the bracketed path of an array element at a concrete
// index (used transiently while scanning; merged array item paths always
// collapse to JoinWildcard).
func JoinIndex(parent string, idx int) string {
	return parent + "[" + strconv.Itoa(idx) + "]"
}

// JoinWildcard builds the path of a merged array item type.
func JoinWildcard(parent string) string {
	return parent + "[*]"
}

// LastSegment returns the trailing field-name segment of a dotted path
// after stripping any bracketed indices, used by the Truncator's field-name
// match (spec.md 4.C). "a.b[0].image" -> "image"; "image" -> "image".
func LastSegment(path string) string {
	if path == "" {
		return ""
	}
	segs := strings.Split(path, ".")
	last := segs[len(segs)-1]
	if i := strings.IndexByte(last, '['); i >= 0 {
		last = last[:i]
	}
	return last
}

// RetagPath rewrites a node's Path (and recursively its children's) after
// it has been relocated within a tree, e.g. when a field moves between A
// and C during a merge. Kept purely so Invariant R1 holds after every
// structural operation, not just after a fresh Analyzer pass.
func RetagPath(t *TypeTree, newPath string) {
	if t == nil {
		return
	}
	t.Path = newPath
	for _, name := range t.ChildOrder {
		RetagPath(t.Children[name], JoinField(newPath, name))
	}
	if t.ItemType != nil {
		RetagPath(t.ItemType, JoinWildcard(newPath))
	}
}

// String renders a compact debug form, e.g. for log lines and test
// failure messages.
func (t *TypeTree) String() string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprintf("TypeTree{path=%q kind=%s optional=%v children=%d}", t.Path, t.Kind, t.Optional, len(t.Children))
}
