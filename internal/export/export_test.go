package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/gearscope/spec-factory/internal/blob"
	"github.com/gearscope/spec-factory/internal/contract"
	"github.com/gearscope/spec-factory/internal/model"
	"github.com/gearscope/spec-factory/internal/publish"
)

func sampleContract(t *testing.T) *model.FieldContract {
	t.Helper()
	schema := &contract.CategorySchema{
		Category:       "mouse",
		FieldOrder:     []string{"brand", "model", "dpi", "weight_grams"},
		IdentityFields: []string{"brand", "model"},
		NumericFields:  []string{"dpi", "weight_grams"},
	}
	c, err := contract.Compile(schema, nil)
	require.NoError(t, err)
	return c
}

func sampleRecords() []*model.PublishedRecord {
	return []*model.PublishedRecord{
		{
			ProductID:        "acme-x1",
			Category:         "mouse",
			PublishedVersion: "1.0.2",
			PublishedAt:      time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
			Identity: model.RecordIdentity{
				Identity:    model.Identity{Brand: "Acme", Model: "X1"},
				DisplayName: "Acme X1",
				Slug:        "acme-x1",
			},
			Specs: map[string]any{
				"dpi":          16000.0,
				"weight_grams": model.UnknownValue,
				"cable_type":   "paracord",
			},
			SpecsWithMetadata: map[string]model.SpecMeta{
				"dpi":          {Confidence: 0.9},
				"weight_grams": {},
				"cable_type":   {OverrideSource: "manual_override", Confidence: 1},
			},
		},
		{
			ProductID:        "acme-x2",
			Category:         "mouse",
			PublishedVersion: "1.0.0",
			PublishedAt:      time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
			Identity: model.RecordIdentity{
				Identity: model.Identity{Brand: "Acme", Model: "X2"},
			},
			Specs: map[string]any{
				"dpi":          26000.0,
				"weight_grams": 59.0,
			},
			SpecsWithMetadata: map[string]model.SpecMeta{
				"dpi":          {Confidence: 0.3},
				"weight_grams": {Confidence: 0.8},
			},
		},
	}
}

func TestWriteCSV_ColumnsAndValues(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "mouse.csv")
	require.NoError(t, WriteCSV(sampleRecords(), sampleContract(t), outPath))

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Identity columns lead; contract fields follow in contract order,
	// then extras seen only in records, sorted.
	assert.Equal(t, []string{
		"product_id", "brand", "model", "published_version", "published_at",
		"Dpi", "Weight Grams", "cable_type",
	}, rows[0])

	assert.Equal(t, []string{"acme-x1", "Acme", "X1", "1.0.2", "2026-08-29", "16000", "unknown", "paracord"}, rows[1])
	assert.Equal(t, []string{"acme-x2", "Acme", "X2", "1.0.0", "2026-08-20", "26000", "59", "unknown"}, rows[2])
}

func TestWriteCSV_NilContract(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "mouse.csv")
	require.NoError(t, WriteCSV(sampleRecords(), nil, outPath))

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	// All spec keys appear sorted with raw names when no contract exists.
	assert.Equal(t, []string{
		"product_id", "brand", "model", "published_version", "published_at",
		"cable_type", "dpi", "weight_grams",
	}, rows[0])
}

func TestWriteXLSX_SheetsAndStyling(t *testing.T) {
	report := &publish.AccuracyReport{
		Category: "mouse",
		Products: 2,
		Fields: map[string]publish.FieldAccuracy{
			"dpi":          {FillRate: 1, AvgConfidence: 0.6},
			"weight_grams": {FillRate: 0.5, AvgConfidence: 0.8, Overrides: 1},
		},
	}

	outPath := filepath.Join(t.TempDir(), "mouse.xlsx")
	require.NoError(t, WriteXLSX(sampleRecords(), sampleContract(t), report, outPath))

	f, err := xlsx.OpenFile(outPath)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)
	assert.Equal(t, "Specs", f.Sheets[0].Name)
	assert.Equal(t, "Accuracy", f.Sheets[1].Name)

	specs := f.Sheets[0]
	require.Len(t, specs.Rows, 3)
	// Header plus one row per record in input order.
	assert.Equal(t, "acme-x1", specs.Rows[1].Cells[0].Value)
	assert.Equal(t, "16000", specs.Rows[1].Cells[5].Value)
	assert.Equal(t, "unknown", specs.Rows[1].Cells[6].Value)

	accuracy := f.Sheets[1]
	require.Len(t, accuracy.Rows, 3)
	assert.Equal(t, "dpi", accuracy.Rows[1].Cells[0].Value)
	assert.Equal(t, "1.00", accuracy.Rows[1].Cells[1].Value)
	assert.Equal(t, "weight_grams", accuracy.Rows[2].Cells[0].Value)
	assert.Equal(t, "1", accuracy.Rows[2].Cells[3].Value)
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "unknown", cellString(nil))
	assert.Equal(t, "unknown", cellString(""))
	assert.Equal(t, "59", cellString(59.0))
	assert.Equal(t, "4.5", cellString(4.5))
	assert.Equal(t, "yes", cellString(true))
	assert.Equal(t, "no", cellString(false))
	assert.Equal(t, "paracord", cellString("paracord"))
}

func TestExporter_ExportCategory(t *testing.T) {
	fs, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)
	dual := blob.NewDualStore(fs)
	ctx := context.Background()

	c := sampleContract(t)
	cs := contract.NewStore(dual, "")
	require.NoError(t, cs.SaveContract(ctx, c))

	for _, r := range sampleRecords() {
		require.NoError(t, dual.WriteProductJSON(ctx, "mouse", r.ProductID, blob.ArtifactCurrent, r))
	}

	outDir := filepath.Join(t.TempDir(), "exports")
	exp := NewExporter(dual, contract.NewCache(cs, time.Minute), outDir, nil)

	status, err := exp.ExportCategory(ctx, "mouse")
	require.NoError(t, err)
	assert.Equal(t, 2, status.Records)
	assert.Empty(t, status.RelationalExportError)
	assert.FileExists(t, status.CSVPath)
	assert.FileExists(t, status.XLSXPath)
}

func TestExporter_EmptyCategory(t *testing.T) {
	fs, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)
	dual := blob.NewDualStore(fs)

	cs := contract.NewStore(dual, "")
	exp := NewExporter(dual, contract.NewCache(cs, time.Minute), t.TempDir(), nil)

	status, err := exp.ExportCategory(context.Background(), "mouse")
	require.NoError(t, err)
	assert.Zero(t, status.Records)
	assert.Empty(t, status.CSVPath)
}

func TestRelationalLoader_Disabled(t *testing.T) {
	var l *RelationalLoader
	assert.False(t, l.Enabled())
	assert.NoError(t, l.Load(context.Background(), "mouse", "/tmp/none.csv"))

	l = NewRelationalLoader("", 0)
	assert.False(t, l.Enabled())
}

func TestRelationalLoader_Failure(t *testing.T) {
	l := NewRelationalLoader("/nonexistent/loader-tool", time.Second)
	require.True(t, l.Enabled())
	err := l.Load(context.Background(), "mouse", "/tmp/none.csv")
	assert.Error(t, err)
}
