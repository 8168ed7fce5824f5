package blob

import (
	"fmt"
	"strings"
	"time"
)

// KeyScheme builds artifact keys under one naming convention. Two schemes
// coexist during the storage migration: writes land on both, reads prefer
// current and fall back to legacy.
type KeyScheme interface {
	ProductKey(category, productID, artifact string) string
	CategoryKey(category, artifact string) string
	ContractKey(category, artifact string) string
	ProductPrefix(category string) string
	// Normalize maps a key from this scheme into the scheme-independent
	// (category, productID, artifact) form for deduplication during listing.
	Normalize(key string) (category, productID, artifact string, ok bool)
}

// CurrentScheme is the target key layout: products/<cat>/<id>/<artifact>.
type CurrentScheme struct{}

func (CurrentScheme) ProductKey(category, productID, artifact string) string {
	return fmt.Sprintf("products/%s/%s/%s", category, productID, artifact)
}

func (CurrentScheme) CategoryKey(category, artifact string) string {
	return fmt.Sprintf("categories/%s/%s", category, artifact)
}

func (CurrentScheme) ContractKey(category, artifact string) string {
	return fmt.Sprintf("contracts/%s/%s", category, artifact)
}

func (CurrentScheme) ProductPrefix(category string) string {
	return fmt.Sprintf("products/%s/", category)
}

func (CurrentScheme) Normalize(key string) (string, string, string, bool) {
	parts := strings.SplitN(key, "/", 4)
	if len(parts) != 4 || parts[0] != "products" {
		return "", "", "", false
	}
	return parts[1], parts[2], parts[3], true
}

// LegacyScheme is the pre-migration flat layout: <cat>/<id>/<artifact> for
// products and <cat>/_meta/<artifact> for category-level documents.
type LegacyScheme struct{}

func (LegacyScheme) ProductKey(category, productID, artifact string) string {
	return fmt.Sprintf("%s/%s/%s", category, productID, artifact)
}

func (LegacyScheme) CategoryKey(category, artifact string) string {
	return fmt.Sprintf("%s/_meta/%s", category, artifact)
}

func (LegacyScheme) ContractKey(category, artifact string) string {
	return fmt.Sprintf("%s/_meta/contracts/%s", category, artifact)
}

func (LegacyScheme) ProductPrefix(category string) string {
	return category + "/"
}

func (LegacyScheme) Normalize(key string) (string, string, string, bool) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 || parts[1] == "_meta" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// Artifact names shared by both schemes.
const (
	ArtifactCurrent    = "current.json"
	ArtifactCompact    = "compact.json"
	ArtifactProvenance = "provenance.json"
	ArtifactStructured = "structured.json"
	ArtifactMarkdown   = "summary.md"
	ArtifactChangelog  = "changelog.json"
	ArtifactOverrides  = "overrides.json"
	ArtifactExtraction = "extraction/latest.json"
	ArtifactSourceLog  = "evidence/source_history.jsonl"
	ArtifactDriftState = "drift/state.json"
	ArtifactReconcile  = "drift/reconcile.json"
	ArtifactDriftAudit = "drift/audit.jsonl"

	CategoryIndexArtifact     = "index.json"
	CategoryChangelogArtifact = "changelog.json"
	CategoryRecentArtifact    = "recent.json"
	CategoryAccuracyArtifact  = "accuracy.json"
	CategoryDriftReport       = "drift/report.json"

	ContractArtifact     = "contract.json"
	ExpectationsArtifact = "expectations.json"
)

// VersionArtifact returns the immutable archive artifact name for a version.
func VersionArtifact(version string) string {
	return fmt.Sprintf("versions/%s.json", version)
}

// DatedArtifact returns a timestamped immutable copy name under dir, e.g.
// drift/reports/2026-08-29T120000Z.json. The time component keeps multiple
// runs on the same day from overwriting each other.
func DatedArtifact(dir string, t time.Time) string {
	return fmt.Sprintf("%s/%s.json", dir, t.UTC().Format("2006-01-02T150405Z"))
}
