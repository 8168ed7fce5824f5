package publish

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/gearscope/spec-factory/internal/blob"
	"github.com/gearscope/spec-factory/internal/model"
)

// ExportStatus reports what a bulk export run produced and any soft failure
// from the relational loader.
type ExportStatus struct {
	CSVPath               string `json:"csv_path,omitempty"`
	XLSXPath              string `json:"xlsx_path,omitempty"`
	Records               int    `json:"records"`
	RelationalExportError string `json:"relational_export_error,omitempty"`
}

// Exporter regenerates a category's bulk exports. Implementations report the
// relational tool's unavailability as a soft failure inside ExportStatus.
type Exporter interface {
	ExportCategory(ctx context.Context, category string) (ExportStatus, error)
}

// BatchResult is the structured outcome of a category publish batch.
type BatchResult struct {
	Category              string    `json:"category"`
	Results               []*Result `json:"results"`
	Published             int       `json:"published"`
	Unchanged             int       `json:"unchanged"`
	Blocked               int       `json:"blocked"`
	Errored               int       `json:"errored"`
	RelationalExportError string    `json:"relational_export_error,omitempty"`
}

// SetExporter attaches the bulk exporter run in the batch epilogue.
func (e *Engine) SetExporter(exp Exporter) { e.exporter = exp }

// PublishProducts publishes the union of the explicit ids and every product
// with a discovered approved override, each in isolation: one product's
// failure never aborts the batch. The epilogue regenerates the category
// index, changelog rollup, recent feed, accuracy report, and bulk exports.
func (e *Engine) PublishProducts(ctx context.Context, category string, ids []string) (*BatchResult, error) {
	targets, err := e.resolveTargets(ctx, category, ids)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{Category: category}
	for _, id := range targets {
		res, err := e.PublishProduct(ctx, category, id)
		if err != nil {
			// Per-product isolation: record and continue.
			zap.L().Error("publish: product errored",
				zap.String("category", category),
				zap.String("product", id),
				zap.Error(err))
			res = &Result{ProductID: id, Reason: ReasonInternalError}
			batch.Errored++
		}
		batch.Results = append(batch.Results, res)
		switch {
		case res.OK && res.Changed:
			batch.Published++
		case res.OK:
			batch.Unchanged++
		case res.Reason != ReasonInternalError:
			batch.Blocked++
		}
	}

	if err := e.RegenerateIndex(ctx, category); err != nil {
		return nil, err
	}
	if _, err := e.RegenerateAccuracy(ctx, category); err != nil {
		return nil, err
	}
	if e.exporter != nil {
		status, err := e.exporter.ExportCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		batch.RelationalExportError = status.RelationalExportError
	}
	return batch, nil
}

// resolveTargets returns the sorted union of explicit ids and products whose
// override documents are approved.
func (e *Engine) resolveTargets(ctx context.Context, category string, ids []string) ([]string, error) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}

	overrideIDs, err := e.store.ListProductIDs(ctx, category, blob.ArtifactOverrides)
	if err != nil {
		return nil, err
	}
	for _, id := range overrideIDs {
		var doc model.OverrideDocument
		found, err := e.store.ReadProductJSON(ctx, category, id, blob.ArtifactOverrides, &doc)
		if err != nil || !found {
			continue
		}
		if doc.Approved() {
			set[id] = true
		}
	}

	targets := make([]string, 0, len(set))
	for id := range set {
		targets = append(targets, id)
	}
	sort.Strings(targets)
	return targets, nil
}
