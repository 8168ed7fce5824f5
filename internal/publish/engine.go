package publish

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gearscope/spec-factory/internal/blob"
	"github.com/gearscope/spec-factory/internal/contract"
	"github.com/gearscope/spec-factory/internal/model"
	"github.com/gearscope/spec-factory/internal/rules"
)

// Per-product failure reason codes.
const (
	ReasonMissingArtifacts = "missing_latest_artifacts"
	ReasonContractMissing  = "contract_not_compiled"
	ReasonValidationFailed = "validation_failed_after_merge"
	ReasonInternalError    = "internal_error"
)

// Result is the structured outcome of publishing one product.
type Result struct {
	ProductID        string                  `json:"product_id"`
	OK               bool                    `json:"ok"`
	Changed          bool                    `json:"changed"`
	Version          string                  `json:"version,omitempty"`
	Reason           string                  `json:"reason,omitempty"`
	Failures         []string                `json:"failures,omitempty"`
	Warnings         []string                `json:"warnings,omitempty"`
	RequiredMissing  []string                `json:"required_missing,omitempty"`
	Changes          []model.FieldChange     `json:"changes,omitempty"`
	EvidenceWarnings []model.EvidenceWarning `json:"evidence_warnings,omitempty"`
}

// Engine publishes products: it merges extraction output with approved
// overrides, validates against the compiled contract, versions records, and
// writes artifacts.
type Engine struct {
	store     *blob.DualStore
	contracts *contract.Cache
	gate      rules.Gate
	exporter  Exporter
	now       func() time.Time
}

// NewEngine wires a publish engine over the given store and contract cache.
func NewEngine(store *blob.DualStore, contracts *contract.Cache, gate rules.Gate) *Engine {
	if gate == nil {
		gate = rules.NewGate()
	}
	return &Engine{store: store, contracts: contracts, gate: gate, now: time.Now}
}

// PublishProduct runs the full publish flow for one product. Failures of the
// product itself come back inside Result; only storage-level errors
// propagate.
func (e *Engine) PublishProduct(ctx context.Context, category, productID string) (*Result, error) {
	res := &Result{ProductID: productID}

	// 1. Latest extraction artifact. Absence or malformation is a structural
	// precondition failure for this product only.
	var artifact model.ExtractionArtifact
	found, err := e.store.ReadProductJSON(ctx, category, productID, blob.ArtifactExtraction, &artifact)
	if err != nil {
		zap.L().Warn("publish: malformed extraction artifact",
			zap.String("product", productID), zap.Error(err))
		res.Reason = ReasonMissingArtifacts
		return res, nil
	}
	if !found {
		res.Reason = ReasonMissingArtifacts
		return res, nil
	}

	// 2. Override document, applied only when approved.
	var doc model.OverrideDocument
	if _, err := e.store.ReadProductJSON(ctx, category, productID, blob.ArtifactOverrides, &doc); err != nil {
		zap.L().Warn("publish: malformed override document, ignoring",
			zap.String("product", productID), zap.Error(err))
		doc = model.OverrideDocument{}
	}

	// 3. Compiled contract, with key migrations applied before validation.
	c, err := e.contracts.Get(ctx, category)
	if err != nil {
		return nil, err
	}
	if c == nil {
		res.Reason = ReasonContractMissing
		return res, nil
	}

	merged := applyOverrides(&artifact, &doc)
	migrateKeys(&merged, c.KeyMigrations)

	// 4. Gate run. Evidence was already enforced upstream.
	gated := e.gate.Run(c, rules.GateRequest{
		Fields:          merged.fields,
		Provenance:      merged.provenance,
		FieldOrder:      c.FieldOrder,
		EnforceEvidence: false,
	})
	res.Warnings = gated.Warnings

	// 5. Required-but-missing fields block this product.
	res.RequiredMissing = requiredMissing(c, gated.Fields)
	res.Failures = gated.Failures
	if len(res.Failures) > 0 || len(res.RequiredMissing) > 0 {
		res.Reason = ReasonValidationFailed
		return res, nil
	}

	// 6-8. Build the record: typed specs, metadata mirror, identity,
	// metrics, evidence warnings.
	record := e.buildRecord(c, &artifact, &merged, gated)
	res.EvidenceWarnings = record.PublishValidation.EvidenceWarnings

	// 9-10. Diff against the prior record and version.
	var prior model.PublishedRecord
	hadPrior, err := e.store.ReadProductJSON(ctx, category, productID, blob.ArtifactCurrent, &prior)
	if err != nil {
		zap.L().Warn("publish: unreadable prior record, treating as first publish",
			zap.String("product", productID), zap.Error(err))
		hadPrior = false
	}

	switch {
	case !hadPrior:
		record.PublishedVersion = FirstVersion
		res.Changed = true
		// First publish has no prior specs: every known field is a change
		// from nothing, recorded against an empty spec set.
		res.Changes = DiffSpecs(nil, record.Specs)
	default:
		res.Changes = DiffSpecs(prior.Specs, record.Specs)
		if len(res.Changes) == 0 {
			res.OK = true
			res.Changed = false
			res.Version = prior.PublishedVersion
			return res, nil
		}
		record.PublishedVersion = NextVersion(prior.PublishedVersion)
		res.Changed = true
	}

	if hadPrior {
		if err := e.archivePrior(ctx, &prior); err != nil {
			return nil, err
		}
	}
	if err := e.writeArtifacts(ctx, record); err != nil {
		return nil, err
	}
	if err := e.appendChangelog(ctx, record, res.Changes); err != nil {
		return nil, err
	}

	res.OK = true
	res.Version = record.PublishedVersion
	zap.L().Info("publish: product published",
		zap.String("category", category),
		zap.String("product", productID),
		zap.String("version", record.PublishedVersion),
		zap.Int("changes", len(res.Changes)),
	)
	return res, nil
}

func requiredMissing(c *model.FieldContract, gated map[string]any) []string {
	var missing []string
	for _, key := range c.Required {
		v, ok := gated[key]
		if !ok || rules.IsUnknown(v) {
			missing = append(missing, key)
		}
	}
	return missing
}

// buildRecord assembles the canonical record from gated fields.
func (e *Engine) buildRecord(c *model.FieldContract, artifact *model.ExtractionArtifact, merged *mergeResult, gated rules.GateResult) *model.PublishedRecord {
	now := e.now().UTC()
	record := &model.PublishedRecord{
		ProductID:         artifact.ProductID,
		Category:          c.Category,
		PublishedAt:       now,
		ContractHash:      c.ContentHash,
		Identity:          buildIdentity(artifact.Identity),
		Specs:             make(map[string]any),
		SpecsWithMetadata: make(map[string]model.SpecMeta),
		Provenance:        merged.provenance,
	}
	if record.ProductID == "" {
		record.ProductID = record.Identity.Slug
	}

	// Contract fields first in contract order, then any extra runtime
	// fields the extraction carried, sorted for determinism.
	keys := append([]string(nil), c.FieldOrder...)
	inContract := make(map[string]bool, len(keys))
	for _, k := range keys {
		inContract[k] = true
	}
	var extras []string
	for k := range gated.Fields {
		if !inContract[k] {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	keys = append(keys, extras...)

	sourceIDs := make(map[string]bool)
	var confSum float64
	known := 0

	for _, key := range keys {
		raw, present := gated.Fields[key]
		if !present {
			raw = model.UnknownValue
		}
		value := raw
		record.Specs[key] = value

		meta := model.SpecMeta{Value: value}
		if f := c.Field(key); f != nil {
			meta.Unit = f.Normalization.Unit
		}
		if best := bestEvidence(merged.provenance[key]); best != nil {
			meta.Confidence = best.Confidence
			meta.SourceHost = best.Host
			meta.SourceTier = best.Tier
			meta.SourceID = best.SourceID
			meta.SnippetID = best.SnippetID
			meta.QuoteSpan = best.QuoteSpan
		}
		if merged.overridden[key] {
			meta.Overridden = true
			meta.OverrideSource = ManualOverrideMethod
		}
		record.SpecsWithMetadata[key] = meta

		if rules.IsUnknown(value) {
			record.Unknowns = append(record.Unknowns, key)
			continue
		}
		known++
		confSum += meta.Confidence
		for _, item := range merged.provenance[key] {
			if id := sourceIdentity(item); id != "" {
				sourceIDs[id] = true
			}
		}
		record.PublishValidation.EvidenceWarnings = append(
			record.PublishValidation.EvidenceWarnings,
			rules.CheckEvidence(key, merged.provenance[key])...,
		)
	}
	sort.Strings(record.Unknowns)

	record.Metrics = model.RecordMetrics{
		SourcesUsed:    len(sourceIDs),
		HumanOverrides: merged.overrideCount,
		LastCrawled:    artifact.ExtractedAt,
	}
	if total := len(record.Specs); total > 0 {
		record.Metrics.Coverage = float64(known) / float64(total)
	}
	if known > 0 {
		record.Metrics.AvgConfidence = confSum / float64(known)
	}
	record.PublishValidation.Warnings = gated.Warnings
	return record
}

// bestEvidence picks the provenance item whose attributes back the published
// value: highest confidence, ties broken by the more trusted (lower) tier.
func bestEvidence(items []model.EvidenceItem) *model.EvidenceItem {
	var best *model.EvidenceItem
	for i := range items {
		it := &items[i]
		if best == nil || it.Confidence > best.Confidence ||
			(it.Confidence == best.Confidence && it.Tier != 0 && (best.Tier == 0 || it.Tier < best.Tier)) {
			best = it
		}
	}
	return best
}

func sourceIdentity(item model.EvidenceItem) string {
	if item.SourceID != "" {
		return item.SourceID
	}
	return item.Host
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func buildIdentity(id model.Identity) model.RecordIdentity {
	parts := []string{id.Brand, id.Model}
	if id.Variant != "" {
		parts = append(parts, id.Variant)
	}
	display := strings.TrimSpace(strings.Join(parts, " "))
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(display), "-"), "-")
	return model.RecordIdentity{Identity: id, DisplayName: display, Slug: slug}
}
