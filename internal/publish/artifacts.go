package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/gearscope/spec-factory/internal/blob"
	"github.com/gearscope/spec-factory/internal/model"
	"github.com/gearscope/spec-factory/internal/rules"
)

// maxChangelogEntries caps a product's retained change history.
const maxChangelogEntries = 50

// archivePrior stores the superseded current snapshot immutably under its
// own version before it is overwritten. A prior whose version does not parse
// archives under the first version, matching the bump base.
func (e *Engine) archivePrior(ctx context.Context, prior *model.PublishedRecord) error {
	return e.store.WriteProductJSON(ctx, prior.Category, prior.ProductID,
		blob.VersionArtifact(canonicalVersion(prior.PublishedVersion)), prior)
}

// writeArtifacts writes the record's artifact set. The writes are
// independent keyed objects, so they run concurrently.
func (e *Engine) writeArtifacts(ctx context.Context, record *model.PublishedRecord) error {
	category, id := record.Category, record.ProductID

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.store.WriteProductJSON(gCtx, category, id, blob.ArtifactCurrent, record)
	})
	g.Go(func() error {
		return e.store.WriteProductJSON(gCtx, category, id, blob.ArtifactCompact, compactRecord(record))
	})
	g.Go(func() error {
		return e.store.WriteProductJSON(gCtx, category, id, blob.ArtifactProvenance, record.Provenance)
	})
	g.Go(func() error {
		return e.store.WriteProductJSON(gCtx, category, id, blob.ArtifactStructured, structuredMarkup(record))
	})
	g.Go(func() error {
		return e.store.WriteProduct(gCtx, category, id, blob.ArtifactMarkdown,
			[]byte(markdownSummary(record)), blob.ContentTypeMarkdown)
	})
	if err := g.Wait(); err != nil {
		return eris.Wrapf(err, "publish: write artifacts %s/%s", category, id)
	}
	return nil
}

// appendChangelog prepends a change entry, deduplicated by version and
// capped in length.
func (e *Engine) appendChangelog(ctx context.Context, record *model.PublishedRecord, changes []model.FieldChange) error {
	var log model.Changelog
	if _, err := e.store.ReadProductJSON(ctx, record.Category, record.ProductID, blob.ArtifactChangelog, &log); err != nil {
		return err
	}
	log.ProductID = record.ProductID
	log.Category = record.Category

	entry := model.ChangelogEntry{
		Version:     record.PublishedVersion,
		PublishedAt: record.PublishedAt,
		ChangeCount: len(changes),
		Changes:     changes,
	}

	kept := log.Entries[:0]
	for _, existing := range log.Entries {
		if existing.Version != entry.Version {
			kept = append(kept, existing)
		}
	}
	log.Entries = append([]model.ChangelogEntry{entry}, kept...)
	if len(log.Entries) > maxChangelogEntries {
		log.Entries = log.Entries[:maxChangelogEntries]
	}

	return e.store.WriteProductJSON(ctx, record.Category, record.ProductID, blob.ArtifactChangelog, &log)
}

// compactRecord is the lightweight projection served to listing surfaces.
func compactRecord(r *model.PublishedRecord) map[string]any {
	return map[string]any{
		"product_id":        r.ProductID,
		"category":          r.Category,
		"published_version": r.PublishedVersion,
		"published_at":      r.PublishedAt,
		"identity":          r.Identity,
		"specs":             r.Specs,
		"unknowns":          r.Unknowns,
		"metrics":           r.Metrics,
	}
}

// structuredMarkup renders the record as a schema.org Product document.
func structuredMarkup(r *model.PublishedRecord) map[string]any {
	props := make([]map[string]any, 0, len(r.Specs))
	for _, key := range sortedSpecKeys(r.Specs) {
		value := r.Specs[key]
		if rules.IsUnknown(value) {
			continue
		}
		prop := map[string]any{
			"@type": "PropertyValue",
			"name":  key,
			"value": value,
		}
		if meta, ok := r.SpecsWithMetadata[key]; ok && meta.Unit != "" {
			prop["unitText"] = meta.Unit
		}
		props = append(props, prop)
	}

	return map[string]any{
		"@context": "https://schema.org",
		"@type":    "Product",
		"name":     r.Identity.DisplayName,
		"sku":      r.ProductID,
		"brand": map[string]any{
			"@type": "Brand",
			"name":  r.Identity.Brand,
		},
		"additionalProperty": props,
	}
}

// markdownSummary renders the human-readable record summary.
func markdownSummary(r *model.PublishedRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Identity.DisplayName)
	fmt.Fprintf(&b, "Version %s, published %s.\n\n", r.PublishedVersion, r.PublishedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Coverage %.0f%%, average confidence %.2f, %d sources, %d manual corrections.\n\n",
		r.Metrics.Coverage*100, r.Metrics.AvgConfidence, r.Metrics.SourcesUsed, r.Metrics.HumanOverrides)

	b.WriteString("| Field | Value | Confidence |\n|---|---|---|\n")
	for _, key := range sortedSpecKeys(r.Specs) {
		meta := r.SpecsWithMetadata[key]
		value := r.Specs[key]
		if rules.IsUnknown(value) {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %.2f |\n", key, formatValue(value), meta.Confidence)
	}

	if len(r.Unknowns) > 0 {
		fmt.Fprintf(&b, "\nUnknown: %s\n", strings.Join(r.Unknowns, ", "))
	}
	return b.String()
}

func sortedSpecKeys(specs map[string]any) []string {
	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
