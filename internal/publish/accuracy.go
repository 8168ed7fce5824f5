package publish

import (
	"context"
	"time"

	"github.com/gearscope/spec-factory/internal/blob"
	"github.com/gearscope/spec-factory/internal/rules"
)

// FieldAccuracy aggregates one field's quality across current records.
type FieldAccuracy struct {
	FillRate      float64 `json:"fill_rate"`
	AvgConfidence float64 `json:"avg_confidence"`
	Overrides     int     `json:"overrides"`
}

// AccuracyReport is the per-category field-quality rollup. It feeds the
// spreadsheet export's accuracy sheet and the expectation profile's observed
// fill rates.
type AccuracyReport struct {
	Category    string                   `json:"category"`
	GeneratedAt time.Time                `json:"generated_at"`
	Products    int                      `json:"products"`
	Fields      map[string]FieldAccuracy `json:"fields"`
}

// RegenerateAccuracy recomputes the accuracy report from current records and
// writes it as the category-current copy plus an immutable dated copy.
func (e *Engine) RegenerateAccuracy(ctx context.Context, category string) (*AccuracyReport, error) {
	records, err := e.loadCurrentRecords(ctx, category)
	if err != nil {
		return nil, err
	}

	type agg struct {
		known     int
		confSum   float64
		overrides int
	}
	byField := make(map[string]*agg)
	for _, r := range records {
		for key, meta := range r.SpecsWithMetadata {
			a := byField[key]
			if a == nil {
				a = &agg{}
				byField[key] = a
			}
			if !rules.IsUnknown(meta.Value) {
				a.known++
				a.confSum += meta.Confidence
			}
			if meta.Overridden {
				a.overrides++
			}
		}
	}

	report := &AccuracyReport{
		Category:    category,
		GeneratedAt: e.now().UTC(),
		Products:    len(records),
		Fields:      make(map[string]FieldAccuracy, len(byField)),
	}
	for key, a := range byField {
		fa := FieldAccuracy{Overrides: a.overrides}
		if len(records) > 0 {
			fa.FillRate = float64(a.known) / float64(len(records))
		}
		if a.known > 0 {
			fa.AvgConfidence = a.confSum / float64(a.known)
		}
		report.Fields[key] = fa
	}

	if err := e.store.WriteCategoryJSON(ctx, category, blob.CategoryAccuracyArtifact, report); err != nil {
		return nil, err
	}
	dated := blob.DatedArtifact("accuracy", report.GeneratedAt)
	if err := e.store.WriteCategoryJSON(ctx, category, dated, report); err != nil {
		return nil, err
	}
	return report, nil
}
