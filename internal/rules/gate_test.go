package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearscope/spec-factory/internal/model"
)

func testContract() *model.FieldContract {
	return &model.FieldContract{
		Category: "mouse",
		Fields: []model.ContractField{
			{Key: "brand", Type: model.TypeIdentity},
			{Key: "dpi", Type: model.TypeNumber, Constraints: model.Constraints{Min: 100, Max: 36000, HasRange: true}},
			{Key: "rgb_lighting", Type: model.TypeBoolean},
			{
				Key:  "connection_type",
				Type: model.TypeString,
				Constraints: model.Constraints{
					Enum:    []string{"hybrid", "wired", "wireless"},
					Aliases: map[string]string{"dual": "hybrid", "wired or wireless": "hybrid"},
				},
			},
		},
		Required: []string{"brand", "dpi"},
	}
}

func TestGate_RangeViolationFails(t *testing.T) {
	g := NewGate()
	res := g.Run(testContract(), GateRequest{
		Fields: map[string]any{"dpi": "50"},
	})
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "dpi")
	assert.Contains(t, res.Failures[0], "outside range")
}

func TestGate_EnumAliasResolved(t *testing.T) {
	g := NewGate()
	res := g.Run(testContract(), GateRequest{
		Fields: map[string]any{"connection_type": "Dual"},
	})
	assert.Empty(t, res.Failures)
	assert.Equal(t, "hybrid", res.Fields["connection_type"])
}

func TestGate_UnknownEnumValueWarnsButKeeps(t *testing.T) {
	g := NewGate()
	res := g.Run(testContract(), GateRequest{
		Fields: map[string]any{"connection_type": "telepathic"},
	})
	assert.Empty(t, res.Failures)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "needs curation")
	assert.Equal(t, "telepathic", res.Fields["connection_type"])
}

func TestGate_UnknownValuesPass(t *testing.T) {
	g := NewGate()
	res := g.Run(testContract(), GateRequest{
		Fields: map[string]any{"dpi": "unknown", "rgb_lighting": ""},
	})
	assert.Empty(t, res.Failures)
	assert.Equal(t, model.UnknownValue, res.Fields["dpi"])
	assert.Equal(t, model.UnknownValue, res.Fields["rgb_lighting"])
}

func TestGate_FailuresFollowFieldOrder(t *testing.T) {
	g := NewGate()
	res := g.Run(testContract(), GateRequest{
		Fields: map[string]any{
			"rgb_lighting": 7.0,
			"dpi":          "50",
			"zz_extra":     "anything",
			"aa_extra":     "anything",
		},
		FieldOrder: []string{"brand", "dpi", "rgb_lighting", "connection_type"},
	})
	require.Len(t, res.Failures, 2)
	assert.Contains(t, res.Failures[0], "dpi")
	assert.Contains(t, res.Failures[1], "rgb_lighting")
}

func TestGate_ExtrasAfterOrderedFields(t *testing.T) {
	order := gateOrder(GateRequest{
		Fields: map[string]any{
			"dpi": "16000", "zz_extra": "a", "aa_extra": "b", "brand": "Acme",
		},
		FieldOrder: []string{"brand", "dpi", "connection_type"},
	})
	assert.Equal(t, []string{"brand", "dpi", "aa_extra", "zz_extra"}, order)
}

func TestGate_EvidenceEnforcementToggle(t *testing.T) {
	g := NewGate()
	req := GateRequest{
		Fields:     map[string]any{"dpi": "16000"},
		Provenance: map[string][]model.EvidenceItem{},
	}

	res := g.Run(testContract(), req)
	assert.Empty(t, res.Failures)

	req.EnforceEvidence = true
	res = g.Run(testContract(), req)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], model.WarnNoEvidence)
}

func TestCheckEvidence_MissingQuoteOnly(t *testing.T) {
	items := []model.EvidenceItem{
		{URL: "https://acme.example/specs", SnippetID: "sn-1"},
	}
	warns := CheckEvidence("dpi", items)
	require.Len(t, warns, 1)
	assert.Equal(t, model.WarnMissingQuote, warns[0].Code)
	assert.Equal(t, "dpi", warns[0].Field)
}

func TestCheckEvidence_AttributesSatisfiedAcrossItems(t *testing.T) {
	// One item has the url, another the quote and snippet: each attribute is
	// checked independently across the list.
	items := []model.EvidenceItem{
		{URL: "https://acme.example/specs"},
		{Quote: "16000 DPI sensor", SnippetID: "sn-2"},
	}
	assert.Empty(t, CheckEvidence("dpi", items))
}

func TestCheckEvidence_NoEvidence(t *testing.T) {
	warns := CheckEvidence("dpi", nil)
	require.Len(t, warns, 1)
	assert.Equal(t, model.WarnNoEvidence, warns[0].Code)
}
