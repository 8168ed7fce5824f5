package export

import (
	"sort"

	"github.com/gearscope/spec-factory/internal/model"
)

// identityColumns lead every export regardless of the contract.
var identityColumns = []string{"product_id", "brand", "model", "published_version", "published_at"}

// specColumns returns the spec column keys for a set of records: the
// contract's field order first, then any extra keys seen in the records,
// sorted. Identity fields already covered by the fixed columns are skipped.
func specColumns(c *model.FieldContract, records []*model.PublishedRecord) []string {
	seen := make(map[string]bool, len(identityColumns))
	for _, col := range identityColumns {
		seen[col] = true
	}

	var cols []string
	if c != nil {
		for _, key := range c.FieldOrder {
			if f := c.Field(key); f != nil && f.Type == model.TypeIdentity {
				continue
			}
			if !seen[key] {
				seen[key] = true
				cols = append(cols, key)
			}
		}
	}

	var extras []string
	for _, r := range records {
		for key := range r.Specs {
			if !seen[key] {
				seen[key] = true
				extras = append(extras, key)
			}
		}
	}
	sort.Strings(extras)
	return append(cols, extras...)
}

// columnLabel resolves the header label for a spec column.
func columnLabel(c *model.FieldContract, key string) string {
	if c != nil {
		if f := c.Field(key); f != nil && f.Label != "" {
			return f.Label
		}
	}
	return key
}
