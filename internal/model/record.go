package model

import "time"

// SpecMeta is the per-field metadata mirror of a published spec value.
// The specs and specs_with_metadata maps always share identical key sets.
type SpecMeta struct {
	Value          any     `json:"value"`
	Unit           string  `json:"unit,omitempty"`
	Confidence     float64 `json:"confidence"`
	SourceHost     string  `json:"source_host,omitempty"`
	SourceTier     int     `json:"source_tier,omitempty"`
	SourceID       string  `json:"source_id,omitempty"`
	SnippetID      string  `json:"snippet_id,omitempty"`
	QuoteSpan      string  `json:"quote_span,omitempty"`
	Overridden     bool    `json:"overridden,omitempty"`
	OverrideSource string  `json:"override_source,omitempty"`
}

// RecordIdentity extends the resolved identity with display fields.
type RecordIdentity struct {
	Identity
	DisplayName string `json:"display_name"`
	Slug        string `json:"slug"`
}

// RecordMetrics summarizes publish-time quality measures for a record.
type RecordMetrics struct {
	Coverage       float64   `json:"coverage"`
	AvgConfidence  float64   `json:"avg_confidence"`
	SourcesUsed    int       `json:"sources_used"`
	HumanOverrides int       `json:"human_overrides"`
	LastCrawled    time.Time `json:"last_crawled"`
}

// EvidenceWarning flags a known-valued field whose provenance is incomplete.
type EvidenceWarning struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

// Evidence warning codes.
const (
	WarnNoEvidence       = "no_evidence"
	WarnMissingURL       = "missing_url"
	WarnMissingQuote     = "missing_quote"
	WarnMissingSnippetID = "missing_snippet_id"
)

// PublishValidation is the gate outcome embedded in a published record.
type PublishValidation struct {
	Failures         []string          `json:"failures,omitempty"`
	Warnings         []string          `json:"warnings,omitempty"`
	RequiredMissing  []string          `json:"required_missing,omitempty"`
	EvidenceWarnings []EvidenceWarning `json:"evidence_warnings,omitempty"`
}

// PublishedRecord is the canonical versioned product record.
type PublishedRecord struct {
	ProductID         string                    `json:"product_id"`
	Category          string                    `json:"category"`
	PublishedVersion  string                    `json:"published_version"`
	PublishedAt       time.Time                 `json:"published_at"`
	ContractHash      string                    `json:"contract_hash,omitempty"`
	Identity          RecordIdentity            `json:"identity"`
	Specs             map[string]any            `json:"specs"`
	SpecsWithMetadata map[string]SpecMeta       `json:"specs_with_metadata"`
	Unknowns          []string                  `json:"unknowns,omitempty"`
	Metrics           RecordMetrics             `json:"metrics"`
	Provenance        map[string][]EvidenceItem `json:"provenance,omitempty"`
	PublishValidation PublishValidation         `json:"publish_validation"`
}

// FieldChange records one field's before/after across a publish.
type FieldChange struct {
	Field  string `json:"field"`
	Before any    `json:"before"`
	After  any    `json:"after"`
}

// ChangelogEntry is one publish event in a product's change history.
type ChangelogEntry struct {
	Version     string        `json:"version"`
	PublishedAt time.Time     `json:"published_at"`
	ChangeCount int           `json:"change_count"`
	Changes     []FieldChange `json:"changes"`
}

// Changelog is a product's ordered (newest first) change history.
type Changelog struct {
	ProductID string           `json:"product_id"`
	Category  string           `json:"category"`
	Entries   []ChangelogEntry `json:"entries"`
}

// IndexEntry is one product's row in a category index.
type IndexEntry struct {
	ProductID        string    `json:"product_id"`
	DisplayName      string    `json:"display_name"`
	PublishedVersion string    `json:"published_version"`
	PublishedAt      time.Time `json:"published_at"`
	Coverage         float64   `json:"coverage"`
}

// CategoryIndex lists a category's published products, most recent first.
type CategoryIndex struct {
	Category    string       `json:"category"`
	GeneratedAt time.Time    `json:"generated_at"`
	Products    []IndexEntry `json:"products"`
}
