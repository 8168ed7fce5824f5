package overrides

import (
	"context"
	"sort"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gearscope/spec-factory/internal/blob"
	"github.com/gearscope/spec-factory/internal/model"
)

// correction is one parsed review-database row: a single field of a single
// product, with the reviewer's value and optional supporting evidence.
type correction struct {
	productID string
	category  string
	field     string
	value     string
	reason    string
	url       string
	quote     string
	snippetID string
	editedAt  time.Time
}

// SyncResult summarizes one override sync run.
type SyncResult struct {
	Products int `json:"products"`
	Fields   int `json:"fields"`
	Skipped  int `json:"skipped"`
}

// Syncer materializes approved Notion corrections as per-product override
// documents the publish engine reads.
type Syncer struct {
	client Client
	store  *blob.DualStore
	dbID   string
	now    func() time.Time
}

// NewSyncer wires an override syncer against the given review database.
func NewSyncer(client Client, store *blob.DualStore, dbID string) *Syncer {
	return &Syncer{client: client, store: store, dbID: dbID, now: time.Now}
}

// SyncCategory pulls all approved rows for the category and writes one
// override document per product. Malformed rows are skipped, not fatal.
func (s *Syncer) SyncCategory(ctx context.Context, category string) (*SyncResult, error) {
	filter := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.AndCompoundFilter{
			notionapi.PropertyFilter{
				Property: "Status",
				Select:   &notionapi.SelectFilterCondition{Equals: "Approved"},
			},
			notionapi.PropertyFilter{
				Property: "Category",
				Select:   &notionapi.SelectFilterCondition{Equals: category},
			},
		},
	}

	pages, err := queryAll(ctx, s.client, s.dbID, filter)
	if err != nil {
		return nil, eris.Wrap(err, "overrides: sync category")
	}

	result := &SyncResult{}
	byProduct := make(map[string][]correction)
	for _, p := range pages {
		c, err := parseCorrectionPage(p)
		if err != nil {
			zap.L().Warn("overrides: skipping malformed review row",
				zap.String("page_id", string(p.ID)),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}
		byProduct[c.productID] = append(byProduct[c.productID], c)
	}

	ids := make([]string, 0, len(byProduct))
	for id := range byProduct {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		doc := buildDocument(id, byProduct[id])
		if err := s.store.WriteProductJSON(ctx, category, id, blob.ArtifactOverrides, doc); err != nil {
			return nil, eris.Wrapf(err, "overrides: write document for %s", id)
		}
		result.Products++
		result.Fields += len(doc.Overrides)
	}

	zap.L().Info("overrides: sync complete",
		zap.String("category", category),
		zap.Int("products", result.Products),
		zap.Int("fields", result.Fields),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// buildDocument folds a product's corrections into one approved override
// document. When the same field appears twice, the most recently edited row
// wins.
func buildDocument(productID string, corrections []correction) *model.OverrideDocument {
	sort.Slice(corrections, func(i, j int) bool {
		return corrections[i].editedAt.Before(corrections[j].editedAt)
	})

	doc := &model.OverrideDocument{
		ProductID:    productID,
		ReviewStatus: model.OverrideApproved,
		Overrides:    make(map[string]model.FieldOverride, len(corrections)),
	}
	for _, c := range corrections {
		o := model.FieldOverride{
			OverrideValue:  c.value,
			OverrideReason: c.reason,
			SetAt:          c.editedAt.UTC().Format(time.RFC3339),
		}
		if c.url != "" || c.quote != "" || c.snippetID != "" {
			o.OverrideProvenance = &model.OverrideProvenance{
				URL:       c.url,
				Quote:     c.quote,
				SnippetID: c.snippetID,
			}
		}
		doc.Overrides[c.field] = o
	}
	return doc
}

func parseCorrectionPage(p notionapi.Page) (correction, error) {
	c := correction{editedAt: p.LastEditedTime}

	if prop, ok := p.Properties["Product"]; ok {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			c.productID = plainText(tp.Title)
		}
	}
	if prop, ok := p.Properties["Category"]; ok {
		if sp, ok := prop.(*notionapi.SelectProperty); ok {
			c.category = sp.Select.Name
		}
	}
	if prop, ok := p.Properties["Field"]; ok {
		if rtp, ok := prop.(*notionapi.RichTextProperty); ok {
			c.field = plainText(rtp.RichText)
		}
	}
	if prop, ok := p.Properties["Value"]; ok {
		if rtp, ok := prop.(*notionapi.RichTextProperty); ok {
			c.value = plainText(rtp.RichText)
		}
	}
	if prop, ok := p.Properties["Reason"]; ok {
		if rtp, ok := prop.(*notionapi.RichTextProperty); ok {
			c.reason = plainText(rtp.RichText)
		}
	}
	if prop, ok := p.Properties["URL"]; ok {
		if up, ok := prop.(*notionapi.URLProperty); ok {
			c.url = up.URL
		}
	}
	if prop, ok := p.Properties["Quote"]; ok {
		if rtp, ok := prop.(*notionapi.RichTextProperty); ok {
			c.quote = plainText(rtp.RichText)
		}
	}
	if prop, ok := p.Properties["SnippetID"]; ok {
		if rtp, ok := prop.(*notionapi.RichTextProperty); ok {
			c.snippetID = plainText(rtp.RichText)
		}
	}

	if c.productID == "" {
		return c, eris.New("missing Product property")
	}
	if c.field == "" {
		return c, eris.New("missing Field property")
	}
	if c.value == "" {
		return c, eris.New("missing Value property")
	}
	return c, nil
}
