package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearscope/spec-factory/internal/model"
)

func sampleArtifact() *model.ExtractionArtifact {
	return &model.ExtractionArtifact{
		ProductID: "acme-x1",
		Category:  "mouse",
		Identity:  model.Identity{Brand: "Acme", Model: "X1"},
		Fields: map[string]any{
			"dpi":    "8000",
			"weight": "59",
		},
		Provenance: map[string][]model.EvidenceItem{
			"dpi": {{URL: "https://acme.example/x1", Host: "acme.example", Tier: 1, Quote: "8000 DPI", SnippetID: "sn-1", Confidence: 0.9}},
		},
	}
}

func TestApplyOverrides_NotApprovedIsNoop(t *testing.T) {
	doc := &model.OverrideDocument{
		ReviewStatus: model.OverridePending,
		Overrides: map[string]model.FieldOverride{
			"dpi": {OverrideValue: "16000"},
		},
	}
	res := applyOverrides(sampleArtifact(), doc)
	assert.Equal(t, "8000", res.fields["dpi"])
	assert.Zero(t, res.overrideCount)
}

func TestApplyOverrides_SynthesizesProvenance(t *testing.T) {
	doc := &model.OverrideDocument{
		ReviewStatus: model.OverrideApproved,
		Overrides: map[string]model.FieldOverride{
			"dpi": {
				OverrideValue: "16000",
				OverrideProvenance: &model.OverrideProvenance{
					URL:       "https://acme.example/x1/specs",
					Quote:     "up to 16000 DPI",
					SnippetID: "sn-9",
				},
			},
		},
	}
	res := applyOverrides(sampleArtifact(), doc)

	assert.Equal(t, "16000", res.fields["dpi"])
	assert.Equal(t, 1, res.overrideCount)
	assert.True(t, res.overridden["dpi"])

	// The synthesized entry is prepended; the original evidence is kept.
	items := res.provenance["dpi"]
	require.Len(t, items, 2)
	assert.Equal(t, ManualOverrideMethod, items[0].Method)
	assert.Equal(t, 1, items[0].Tier)
	assert.Equal(t, "https://acme.example/x1/specs", items[0].URL)
	assert.Equal(t, "sn-9", items[0].SnippetID)
	assert.Equal(t, "8000 DPI", items[1].Quote)
}

func TestMigrateKeys(t *testing.T) {
	res := applyOverrides(sampleArtifact(), &model.OverrideDocument{})
	migrateKeys(&res, map[string]string{"weight": "weight_grams"})

	assert.Equal(t, "59", res.fields["weight_grams"])
	_, hasOld := res.fields["weight"]
	assert.False(t, hasOld)
}

func TestMigrateKeys_NeverClobbersCurrentKey(t *testing.T) {
	artifact := sampleArtifact()
	artifact.Fields["weight_grams"] = "60"
	res := applyOverrides(artifact, &model.OverrideDocument{})
	migrateKeys(&res, map[string]string{"weight": "weight_grams"})

	assert.Equal(t, "60", res.fields["weight_grams"])
}
