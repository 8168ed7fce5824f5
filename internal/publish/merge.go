package publish

import (
	"github.com/gearscope/spec-factory/internal/model"
)

// ManualOverrideMethod marks provenance entries synthesized from a human
// correction.
const ManualOverrideMethod = "manual_override"

// mergeResult carries merged fields with the override bookkeeping the rest
// of the publish flow needs.
type mergeResult struct {
	fields        map[string]any
	provenance    map[string][]model.EvidenceItem
	overridden    map[string]bool
	overrideCount int
}

// applyOverrides merges an approved override document onto extraction
// output. Each accepted override rewrites the field value and prepends a
// synthesized tier-1 provenance entry carrying whatever evidence metadata
// the override supplied; the field's other provenance entries are kept.
// A non-approved document changes nothing.
func applyOverrides(artifact *model.ExtractionArtifact, doc *model.OverrideDocument) mergeResult {
	res := mergeResult{
		fields:     make(map[string]any, len(artifact.Fields)),
		provenance: make(map[string][]model.EvidenceItem, len(artifact.Provenance)),
		overridden: make(map[string]bool),
	}
	for k, v := range artifact.Fields {
		res.fields[k] = v
	}
	for k, items := range artifact.Provenance {
		res.provenance[k] = append([]model.EvidenceItem(nil), items...)
	}

	if !doc.Approved() {
		return res
	}

	for field, ov := range doc.Overrides {
		value := ov.EffectiveValue()
		if value == nil {
			continue
		}
		res.fields[field] = value
		res.overridden[field] = true
		res.overrideCount++

		entry := model.EvidenceItem{
			Tier:       1,
			Method:     ManualOverrideMethod,
			Confidence: 1,
		}
		if p := ov.OverrideProvenance; p != nil {
			entry.URL = p.URL
			entry.SourceID = p.SourceID
			entry.SnippetID = p.SnippetID
			entry.SnippetHash = p.SnippetHash
			entry.QuoteSpan = p.QuoteSpan
			entry.Quote = p.Quote
			entry.RetrievedAt = p.RetrievedAt
		}
		res.provenance[field] = append([]model.EvidenceItem{entry}, res.provenance[field]...)
	}

	return res
}

// migrateKeys renames legacy field keys per the contract's migration map,
// moving both values and provenance. A migrated key never clobbers a value
// already present under the current name.
func migrateKeys(res *mergeResult, migrations map[string]string) {
	for oldKey, newKey := range migrations {
		if v, ok := res.fields[oldKey]; ok {
			if _, exists := res.fields[newKey]; !exists {
				res.fields[newKey] = v
			}
			delete(res.fields, oldKey)
		}
		if items, ok := res.provenance[oldKey]; ok {
			if _, exists := res.provenance[newKey]; !exists {
				res.provenance[newKey] = items
			}
			delete(res.provenance, oldKey)
		}
		if res.overridden[oldKey] {
			res.overridden[newKey] = true
			delete(res.overridden, oldKey)
		}
	}
}
