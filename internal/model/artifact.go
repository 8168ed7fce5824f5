package model

import "time"

// UnknownValue is the sentinel recorded for fields with no known value.
const UnknownValue = "unknown"

// EvidenceItem is one piece of evidence substantiating a field value:
// where it came from, how trusted the source is, and the exact quote.
type EvidenceItem struct {
	URL         string  `json:"url,omitempty"`
	Host        string  `json:"host,omitempty"`
	SourceID    string  `json:"source_id,omitempty"`
	Tier        int     `json:"tier,omitempty"`
	Method      string  `json:"method,omitempty"`
	Quote       string  `json:"quote,omitempty"`
	QuoteSpan   string  `json:"quote_span,omitempty"`
	SnippetID   string  `json:"snippet_id,omitempty"`
	SnippetHash string  `json:"snippet_hash,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	RetrievedAt string  `json:"retrieved_at,omitempty"`
}

// Identity is the externally resolved brand/model/variant lock for a product.
type Identity struct {
	Brand   string `json:"brand"`
	Model   string `json:"model"`
	Variant string `json:"variant,omitempty"`
}

// ExtractionArtifact is the latest automated extraction output for one
// product. Produced upstream; read-only to the publish pipeline.
type ExtractionArtifact struct {
	ProductID   string                    `json:"product_id"`
	Category    string                    `json:"category"`
	Identity    Identity                  `json:"identity"`
	Fields      map[string]any            `json:"fields"`
	Provenance  map[string][]EvidenceItem `json:"provenance"`
	Summary     string                    `json:"summary,omitempty"`
	ExtractedAt time.Time                 `json:"extracted_at"`
}

// SourceObservation is one line of a product's evidence source-history log.
type SourceObservation struct {
	SourceID        string    `json:"source_id,omitempty"`
	URL             string    `json:"url,omitempty"`
	Host            string    `json:"host,omitempty"`
	Tier            int       `json:"tier"`
	PageContentHash string    `json:"page_content_hash,omitempty"`
	TextHash        string    `json:"text_hash,omitempty"`
	ObservedAt      time.Time `json:"observed_at"`
}
