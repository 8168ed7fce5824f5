package export

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/gearscope/spec-factory/internal/model"
	"github.com/gearscope/spec-factory/internal/publish"
)

// Cell fill colors for the spec sheet.
const (
	fillUnknown  = "FFD9D9D9" // gray: value is unknown
	fillOverride = "FFBDD7EE" // blue: value came from a manual override
	fillLowConf  = "FFF8CBAD" // orange: confidence below the floor
)

// lowConfidenceFloor marks cells whose best evidence is weak.
const lowConfidenceFloor = 0.5

// WriteXLSX writes a styled workbook: a Specs sheet with one row per record
// and an Accuracy sheet summarizing per-field fill and confidence.
func WriteXLSX(records []*model.PublishedRecord, c *model.FieldContract, report *publish.AccuracyReport, outputPath string) error {
	f := xlsx.NewFile()

	if err := addSpecsSheet(f, records, c); err != nil {
		return err
	}
	if report != nil {
		if err := addAccuracySheet(f, report); err != nil {
			return err
		}
	}

	if err := f.Save(outputPath); err != nil {
		return eris.Wrap(err, "export: save xlsx")
	}
	return nil
}

func addSpecsSheet(f *xlsx.File, records []*model.PublishedRecord, c *model.FieldContract) error {
	sheet, err := f.AddSheet("Specs")
	if err != nil {
		return eris.Wrap(err, "export: add specs sheet")
	}

	headerStyle := xlsx.NewStyle()
	headerStyle.Font.Bold = true
	headerStyle.ApplyFont = true

	unknownStyle := fillStyle(fillUnknown)
	overrideStyle := fillStyle(fillOverride)
	lowConfStyle := fillStyle(fillLowConf)

	cols := specColumns(c, records)
	header := sheet.AddRow()
	for _, col := range identityColumns {
		cell := header.AddCell()
		cell.Value = col
		cell.SetStyle(headerStyle)
	}
	for _, key := range cols {
		cell := header.AddCell()
		cell.Value = columnLabel(c, key)
		cell.SetStyle(headerStyle)
	}

	for _, r := range records {
		row := sheet.AddRow()
		for _, v := range []string{
			r.ProductID,
			r.Identity.Brand,
			r.Identity.Model,
			r.PublishedVersion,
			r.PublishedAt.UTC().Format("2006-01-02"),
		} {
			row.AddCell().Value = v
		}

		for _, key := range cols {
			cell := row.AddCell()
			v := r.Specs[key]
			cell.Value = cellString(v)

			meta, hasMeta := r.SpecsWithMetadata[key]
			switch {
			case isUnknownCell(v):
				cell.SetStyle(unknownStyle)
			case hasMeta && meta.OverrideSource != "":
				cell.SetStyle(overrideStyle)
			case hasMeta && meta.Confidence > 0 && meta.Confidence < lowConfidenceFloor:
				cell.SetStyle(lowConfStyle)
			}
		}
	}
	return nil
}

func addAccuracySheet(f *xlsx.File, report *publish.AccuracyReport) error {
	sheet, err := f.AddSheet("Accuracy")
	if err != nil {
		return eris.Wrap(err, "export: add accuracy sheet")
	}

	headerStyle := xlsx.NewStyle()
	headerStyle.Font.Bold = true
	headerStyle.ApplyFont = true

	header := sheet.AddRow()
	for _, col := range []string{"field", "fill_rate", "avg_confidence", "overrides"} {
		cell := header.AddCell()
		cell.Value = col
		cell.SetStyle(headerStyle)
	}

	keys := make([]string, 0, len(report.Fields))
	for key := range report.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fa := report.Fields[key]
		row := sheet.AddRow()
		row.AddCell().Value = key
		row.AddCell().Value = fmt.Sprintf("%.2f", fa.FillRate)
		row.AddCell().Value = fmt.Sprintf("%.2f", fa.AvgConfidence)
		row.AddCell().Value = fmt.Sprintf("%d", fa.Overrides)
	}
	return nil
}

func fillStyle(color string) *xlsx.Style {
	s := xlsx.NewStyle()
	s.Fill = *xlsx.NewFill("solid", color, color)
	s.ApplyFill = true
	return s
}

func isUnknownCell(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && (s == "" || s == model.UnknownValue)
}
