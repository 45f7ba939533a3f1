package generator

import (
	"fmt"
	"time"

	"github.com/schemaforge/schemaforge/internal/fingerprint"
	"github.com/schemaforge/schemaforge/internal/schema"
	"github.com/schemaforge/schemaforge/internal/typetree"
)

// Metadata builds or updates a schema.SchemaRecord for kind from a merged
// TypeTree (spec.md 4.G). prior is nil the first time a kind is observed.
// The structure fingerprint determines whether Version is bumped. Optional
// is part of the hashed structure alongside Kind/Children/ItemType, so an
// optionality-only change (a new or newly optional field) changes the
// fingerprint and bumps Version — see DESIGN.md for the resolved open
// question on what counts as a version-bumping change.
func Metadata(prior *schema.SchemaRecord, kind string, merged *typetree.TypeTree, now time.Time) *schema.SchemaRecord {
	typetree.TruncateExamples(merged, typetree.MaxExamples)
	fp := fingerprint.Structure(merged)

	if prior == nil {
		return &schema.SchemaRecord{
			Kind:                 kind,
			Version:              1,
			StructureFingerprint: fp,
			FirstSeen:            now,
			LastSeen:             now,
			LastModified:         now,
			TotalReceived:        1,
			Fields:               schema.DeriveFieldSets(merged),
			Variations:           schema.AddVariation(nil, fp, describeVariation(merged)),
			SavedTree:            merged,
		}
	}

	rec := &schema.SchemaRecord{
		Kind:                 kind,
		Version:              prior.Version,
		StructureFingerprint: fp,
		FirstSeen:            prior.FirstSeen,
		LastSeen:             now,
		LastModified:         prior.LastModified,
		TotalReceived:        prior.TotalReceived + 1,
		Fields:               schema.DeriveFieldSets(merged),
		Variations:           schema.AddVariation(append([]schema.Variation(nil), prior.Variations...), fp, describeVariation(merged)),
		SavedTree:            merged,
	}
	if fp != prior.StructureFingerprint {
		rec.Version = prior.Version + 1
		rec.LastModified = now
	}
	return rec
}

func describeVariation(t *typetree.TypeTree) string {
	required := 0
	optional := 0
	for _, name := range t.ChildOrder {
		if t.Children[name].Optional {
			optional++
		} else {
			required++
		}
	}
	return fmt.Sprintf("%d required field(s), %d optional field(s)", required, optional)
}
