package model

import "time"

// SourceFingerprint is the last observed content fingerprint of one source.
type SourceFingerprint struct {
	PageContentHash string    `json:"page_content_hash,omitempty"`
	TextHash        string    `json:"text_hash,omitempty"`
	Tier            int       `json:"tier"`
	LastSeenAt      time.Time `json:"last_seen_at"`
}

// SourceHashSnapshot fingerprints a product's evidence sources, keyed by
// stable source identity (source id over host over URL).
type SourceHashSnapshot struct {
	ProductID string                       `json:"product_id"`
	Category  string                       `json:"category"`
	Sources   map[string]SourceFingerprint `json:"sources"`
	CheckedAt time.Time                    `json:"checked_at"`
}

// Drift scan per-product statuses.
const (
	DriftSkippedNoSnapshot = "skipped_no_hash_snapshot"
	DriftBaselineSeeded    = "baseline_seeded"
	DriftNone              = "no_drift"
	DriftDetected          = "drift_detected"
	DriftDetectedEnqueued  = "drift_detected_enqueued"
	DriftScanError         = "scan_error"
)

// SourceChange describes one drifted source in a scan.
type SourceChange struct {
	SourceKey string `json:"source_key"`
	Kind      string `json:"kind"` // changed, added, removed
}

// DriftRow is one product's outcome in a drift scan run.
type DriftRow struct {
	ProductID string         `json:"product_id"`
	Status    string         `json:"status"`
	Changes   []SourceChange `json:"changes,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// DriftReport is the aggregate audit artifact of one drift scan run.
type DriftReport struct {
	RunID     string         `json:"run_id"`
	Category  string         `json:"category"`
	StartedAt time.Time      `json:"started_at"`
	Counts    map[string]int `json:"counts"`
	Rows      []DriftRow     `json:"rows"`
}

// Reconcile outcomes.
const (
	ReconcileMissingRecord    = "missing_published_record"
	ReconcileMissingArtifacts = "missing_latest_artifacts"
	ReconcileQuarantined      = "quarantined"
	ReconcileNeedsReview      = "queued_for_review"
	ReconcileAutoRepublished  = "auto_republished"
	ReconcileNoChange         = "no_change"
)

// ReconcileOutcome is the durable result of reconciling one product after a
// drift-triggered re-extraction.
type ReconcileOutcome struct {
	ProductID        string            `json:"product_id"`
	Category         string            `json:"category"`
	Outcome          string            `json:"outcome"`
	ChangedFields    []FieldChange     `json:"changed_fields,omitempty"`
	EvidenceFailures []EvidenceWarning `json:"evidence_failures,omitempty"`
	RepublishedAs    string            `json:"republished_as,omitempty"`
	ReconciledAt     time.Time         `json:"reconciled_at"`
}
