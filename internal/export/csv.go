package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/rotisserie/eris"

	"github.com/gearscope/spec-factory/internal/model"
)

// WriteCSV writes published records as a flat CSV file: fixed identity
// columns followed by one column per spec field.
func WriteCSV(records []*model.PublishedRecord, c *model.FieldContract, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return eris.Wrap(err, "export: create csv file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	cols := specColumns(c, records)
	header := append([]string{}, identityColumns...)
	for _, key := range cols {
		header = append(header, columnLabel(c, key))
	}
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	for _, r := range records {
		row := make([]string, 0, len(header))
		row = append(row,
			r.ProductID,
			r.Identity.Brand,
			r.Identity.Model,
			r.PublishedVersion,
			r.PublishedAt.UTC().Format("2006-01-02"),
		)
		for _, key := range cols {
			row = append(row, cellString(r.Specs[key]))
		}
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "export: write csv row for %s", r.ProductID)
		}
	}

	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

// cellString renders a spec value for a flat cell. Missing values render as
// the unknown marker so consumers never see an ambiguous blank.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return model.UnknownValue
	case string:
		if t == "" {
			return model.UnknownValue
		}
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
	default:
		return fmt.Sprintf("%v", t)
	}
}
