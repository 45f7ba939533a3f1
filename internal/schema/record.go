// Package schema defines the persisted per-kind SchemaRecord (spec.md
// section 3) and the append-only EventRow, independent of how they are
// stored — internal/store owns persistence.
package schema

import (
	"sort"
	"time"

	"github.com/schemaforge/schemaforge/internal/typetree"
)

// FieldSets holds the three disjoint dotted-path sets spec.md requires:
// required ∩ optional == ∅ and redacted ⊆ required ∪ optional.
type FieldSets struct {
	Required []string `json:"required"`
	Optional []string `json:"optional"`
	Redacted []string `json:"redacted"`
}

// MaxVariations bounds the variations list (spec.md section 3).
const MaxVariations = 10

// Variation is one historically observed distinct structure fingerprint
// for a kind, retained for drift analysis.
type Variation struct {
	TreeFingerprint string `json:"tree_fingerprint"`
	Count           int    `json:"count"`
	Description     string `json:"description"`
}

// SchemaRecord is the persisted per-kind state.
type SchemaRecord struct {
	Kind                 string              `json:"kind"`
	Version              int                 `json:"version"`
	StructureFingerprint string              `json:"structure_fingerprint"`
	FirstSeen            time.Time           `json:"first_seen"`
	LastSeen             time.Time           `json:"last_seen"`
	LastModified         time.Time           `json:"last_modified"`
	TotalReceived        int64               `json:"total_received"`
	Fields               FieldSets           `json:"fields"`
	Variations           []Variation         `json:"variations"`
	SavedTree            *typetree.TypeTree  `json:"saved_tree"`
}

// EventRow is the append-only per-processed-event record (spec.md
// section 3).
type EventRow struct {
	Kind                 string
	PayloadFingerprint   string
	SizeOriginal         int
	SizeRedacted         int
	RedactedFieldCount   int
	ReceivedAt           time.Time
	ProcessedAt          time.Time
	ProcessingDurationMs int64
}

// DeriveFieldSets walks t and classifies every non-root path into exactly
// one of Required/Optional, additionally collecting Redacted (a subset of
// the other two), satisfying the invariant required ∩ optional == ∅ and
// redacted ⊆ required ∪ optional.
func DeriveFieldSets(t *typetree.TypeTree) FieldSets {
	var fs FieldSets
	walkFields(t, &fs)
	sort.Strings(fs.Required)
	sort.Strings(fs.Optional)
	sort.Strings(fs.Redacted)
	return fs
}

func walkFields(t *typetree.TypeTree, fs *FieldSets) {
	if t == nil {
		return
	}
	if t.Path != "" {
		if t.Optional {
			fs.Optional = append(fs.Optional, t.Path)
		} else {
			fs.Required = append(fs.Required, t.Path)
		}
		if t.Redacted {
			fs.Redacted = append(fs.Redacted, t.Path)
		}
	}
	for _, name := range t.ChildOrder {
		walkFields(t.Children[name], fs)
	}
	walkFields(t.ItemType, fs)
}

// AddVariation records a newly observed structure fingerprint, bumping its
// count if already present, and keeps the list bounded to MaxVariations,
// ordered by count descending.
func AddVariation(variations []Variation, fingerprint string, description string) []Variation {
	for i := range variations {
		if variations[i].TreeFingerprint == fingerprint {
			variations[i].Count++
			return sortVariations(variations)
		}
	}
	variations = append(variations, Variation{TreeFingerprint: fingerprint, Count: 1, Description: description})
	variations = sortVariations(variations)
	if len(variations) > MaxVariations {
		variations = variations[:MaxVariations]
	}
	return variations
}

func sortVariations(variations []Variation) []Variation {
	sort.SliceStable(variations, func(i, j int) bool {
		return variations[i].Count > variations[j].Count
	})
	return variations
}
