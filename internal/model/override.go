package model

// Override review statuses. Only approved documents are applied at publish.
const (
	OverrideApproved = "approved"
	OverridePending  = "pending"
	OverrideRejected = "rejected"
)

// OverrideProvenance carries the evidence metadata supplied with a manual
// correction. It is merged onto the field's synthesized provenance entry.
type OverrideProvenance struct {
	URL         string `json:"url,omitempty"`
	SourceID    string `json:"source_id,omitempty"`
	SnippetID   string `json:"snippet_id,omitempty"`
	SnippetHash string `json:"snippet_hash,omitempty"`
	QuoteSpan   string `json:"quote_span,omitempty"`
	Quote       string `json:"quote,omitempty"`
	RetrievedAt string `json:"retrieved_at,omitempty"`
}

// FieldOverride is one manually corrected field value.
type FieldOverride struct {
	Value              any                 `json:"value,omitempty"`
	OverrideValue      any                 `json:"override_value,omitempty"`
	OverrideProvenance *OverrideProvenance `json:"override_provenance,omitempty"`
	OverrideReason     string              `json:"override_reason,omitempty"`
	SetAt              string              `json:"set_at,omitempty"`
}

// EffectiveValue returns the corrected value, preferring override_value.
func (o FieldOverride) EffectiveValue() any {
	if o.OverrideValue != nil {
		return o.OverrideValue
	}
	return o.Value
}

// OverrideDocument is the per-product manual-correction document.
type OverrideDocument struct {
	ProductID    string                   `json:"product_id"`
	ReviewStatus string                   `json:"review_status"`
	Overrides    map[string]FieldOverride `json:"overrides"`
}

// Approved reports whether the document may be applied at publish time.
func (d *OverrideDocument) Approved() bool {
	return d != nil && d.ReviewStatus == OverrideApproved
}
