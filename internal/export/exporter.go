package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gearscope/spec-factory/internal/blob"
	"github.com/gearscope/spec-factory/internal/contract"
	"github.com/gearscope/spec-factory/internal/model"
	"github.com/gearscope/spec-factory/internal/publish"
)

// Exporter materializes a category's current records as flat files and
// optionally hands them to a relational loader. It satisfies the publish
// engine's export hook.
type Exporter struct {
	store     *blob.DualStore
	contracts *contract.Cache
	outDir    string
	loader    *RelationalLoader
}

// NewExporter wires an exporter writing under outDir.
func NewExporter(store *blob.DualStore, contracts *contract.Cache, outDir string, loader *RelationalLoader) *Exporter {
	return &Exporter{store: store, contracts: contracts, outDir: outDir, loader: loader}
}

// ExportCategory writes the category's CSV and XLSX exports and runs the
// relational loader when configured. Loader failure is reported in the
// status, not as an error: file exports stand on their own.
func (e *Exporter) ExportCategory(ctx context.Context, category string) (publish.ExportStatus, error) {
	var status publish.ExportStatus

	records, err := e.currentRecords(ctx, category)
	if err != nil {
		return status, err
	}
	if len(records) == 0 {
		zap.L().Info("export: no current records, skipping", zap.String("category", category))
		return status, nil
	}

	c, err := e.contracts.Get(ctx, category)
	if err != nil {
		return status, err
	}

	var report *publish.AccuracyReport
	var loaded publish.AccuracyReport
	found, err := e.store.ReadCategoryJSON(ctx, category, blob.CategoryAccuracyArtifact, &loaded)
	if err != nil {
		zap.L().Warn("export: unreadable accuracy report", zap.String("category", category), zap.Error(err))
	} else if found {
		report = &loaded
	}

	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return status, eris.Wrap(err, "export: create output dir")
	}

	csvPath := filepath.Join(e.outDir, fmt.Sprintf("%s.csv", category))
	if err := WriteCSV(records, c, csvPath); err != nil {
		return status, err
	}
	xlsxPath := filepath.Join(e.outDir, fmt.Sprintf("%s.xlsx", category))
	if err := WriteXLSX(records, c, report, xlsxPath); err != nil {
		return status, err
	}
	status.CSVPath = csvPath
	status.XLSXPath = xlsxPath
	status.Records = len(records)

	if e.loader.Enabled() {
		if err := e.loader.Load(ctx, category, csvPath); err != nil {
			zap.L().Warn("export: relational load failed", zap.String("category", category), zap.Error(err))
			status.RelationalExportError = err.Error()
		}
	}

	zap.L().Info("export: category exported",
		zap.String("category", category),
		zap.Int("records", len(records)),
	)
	return status, nil
}

// currentRecords loads every readable current record in the category, in
// product-id order. Unreadable records are skipped with a warning.
func (e *Exporter) currentRecords(ctx context.Context, category string) ([]*model.PublishedRecord, error) {
	ids, err := e.store.ListProductIDs(ctx, category, blob.ArtifactCurrent)
	if err != nil {
		return nil, err
	}

	records := make([]*model.PublishedRecord, 0, len(ids))
	for _, id := range ids {
		var r model.PublishedRecord
		found, err := e.store.ReadProductJSON(ctx, category, id, blob.ArtifactCurrent, &r)
		if err != nil {
			zap.L().Warn("export: skipping unreadable record",
				zap.String("product", id), zap.Error(err))
			continue
		}
		if !found {
			continue
		}
		records = append(records, &r)
	}
	return records, nil
}
