// Package fingerprint implements the Hasher: stable structural and
// payload fingerprints over SHA-256, plus the short-identifier and
// similarity helpers spec.md 4.B calls for.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/schemaforge/schemaforge/internal/payload"
	"github.com/schemaforge/schemaforge/internal/typetree"
)

// Structure computes the structure fingerprint of a TypeTree: a SHA-256
// hash over a canonical serialization that retains Kind, Optional,
// Children (lexicographically ordered), and ItemType, and excludes
// Examples, Path, Redacted, and RedactedKind (spec.md 4.B). Two trees with
// the same fingerprint are structurally indistinguishable.
func Structure(t *typetree.TypeTree) string {
	var buf bytes.Buffer
	writeStructural(&buf, t)
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

func writeStructural(buf *bytes.Buffer, t *typetree.TypeTree) {
	if t == nil {
		buf.WriteString("<nil>")
		return
	}
	buf.WriteString("k:")
	buf.WriteString(string(t.Kind))
	if t.Optional {
		buf.WriteString(";opt")
	}
	if len(t.Children) > 0 {
		keys := make([]string, 0, len(t.Children))
		for k := range t.Children {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteString(";children:{")
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(k)
			buf.WriteByte('=')
			writeStructural(buf, t.Children[k])
		}
		buf.WriteByte('}')
	}
	if t.ItemType != nil {
		buf.WriteString(";item:(")
		writeStructural(buf, t.ItemType)
		buf.WriteByte(')')
	}
}

// Payload computes the payload fingerprint: a SHA-256 hash over the
// canonical JSON-equivalent serialization of the value, with object keys
// sorted at every level and oversize strings collapsed to a constant
// sentinel (payload.CanonicalJSON already implements both rules).
func Payload(v payload.Value) string {
	sum := sha256.Sum256([]byte(payload.CanonicalJSON(v)))
	return hex.EncodeToString(sum[:])
}

// ShortID truncates a hex digest to a 12-character diagnostic prefix, used
// as the short form of variations[].treeFingerprint in telemetry and logs.
func ShortID(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}

// Similarity returns a Hamming-distance-derived similarity in [0, 1]
// between two equal-length hex digests: 1.0 iff the digests are equal.
// Digests of differing length are defined to have similarity 0 — this
// metric is diagnostic only and is never consulted by the merge logic.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	diff := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			diff++
		}
	}
	return 1.0 - float64(diff)/float64(len(a))
}
