package publish

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gearscope/spec-factory/internal/blob"
	"github.com/gearscope/spec-factory/internal/model"
)

// maxRecentItems caps the category's recent-items feed.
const maxRecentItems = 20

// maxCategoryChangelog caps the category changelog rollup.
const maxCategoryChangelog = 100

// CategoryChangelogEntry is one product's publish event in the rollup.
type CategoryChangelogEntry struct {
	ProductID   string    `json:"product_id"`
	Version     string    `json:"version"`
	PublishedAt time.Time `json:"published_at"`
	ChangeCount int       `json:"change_count"`
}

// CategoryChangelog rolls up publish events across a category's products.
type CategoryChangelog struct {
	Category    string                   `json:"category"`
	GeneratedAt time.Time                `json:"generated_at"`
	Entries     []CategoryChangelogEntry `json:"entries"`
}

// loadCurrentRecords reads every current published record in a category, in
// sorted product-id order. Unreadable records are skipped with a warning.
func (e *Engine) loadCurrentRecords(ctx context.Context, category string) ([]*model.PublishedRecord, error) {
	ids, err := e.store.ListProductIDs(ctx, category, blob.ArtifactCurrent)
	if err != nil {
		return nil, err
	}
	records := make([]*model.PublishedRecord, 0, len(ids))
	for _, id := range ids {
		var r model.PublishedRecord
		found, err := e.store.ReadProductJSON(ctx, category, id, blob.ArtifactCurrent, &r)
		if err != nil || !found {
			zap.L().Warn("publish: skipping unreadable record",
				zap.String("category", category),
				zap.String("product", id),
				zap.Error(err))
			continue
		}
		records = append(records, &r)
	}
	return records, nil
}

// RegenerateIndex rebuilds the category index, the category changelog
// rollup, and the capped recent-items feed from current records.
func (e *Engine) RegenerateIndex(ctx context.Context, category string) error {
	records, err := e.loadCurrentRecords(ctx, category)
	if err != nil {
		return err
	}

	index := model.CategoryIndex{
		Category:    category,
		GeneratedAt: e.now().UTC(),
		Products:    make([]model.IndexEntry, 0, len(records)),
	}
	for _, r := range records {
		index.Products = append(index.Products, model.IndexEntry{
			ProductID:        r.ProductID,
			DisplayName:      r.Identity.DisplayName,
			PublishedVersion: r.PublishedVersion,
			PublishedAt:      r.PublishedAt,
			Coverage:         r.Metrics.Coverage,
		})
	}
	// Most recent first, ties by id for stable output.
	sort.Slice(index.Products, func(i, j int) bool {
		a, b := index.Products[i], index.Products[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.ProductID < b.ProductID
	})

	if err := e.store.WriteCategoryJSON(ctx, category, blob.CategoryIndexArtifact, &index); err != nil {
		return err
	}

	if err := e.regenerateCategoryChangelog(ctx, category, records); err != nil {
		return err
	}

	recent := index.Products
	if len(recent) > maxRecentItems {
		recent = recent[:maxRecentItems]
	}
	return e.store.WriteCategoryJSON(ctx, category, blob.CategoryRecentArtifact, map[string]any{
		"category":     category,
		"generated_at": index.GeneratedAt,
		"items":        recent,
	})
}

func (e *Engine) regenerateCategoryChangelog(ctx context.Context, category string, records []*model.PublishedRecord) error {
	rollup := CategoryChangelog{Category: category, GeneratedAt: e.now().UTC()}
	for _, r := range records {
		var log model.Changelog
		found, err := e.store.ReadProductJSON(ctx, category, r.ProductID, blob.ArtifactChangelog, &log)
		if err != nil || !found {
			continue
		}
		for _, entry := range log.Entries {
			rollup.Entries = append(rollup.Entries, CategoryChangelogEntry{
				ProductID:   r.ProductID,
				Version:     entry.Version,
				PublishedAt: entry.PublishedAt,
				ChangeCount: entry.ChangeCount,
			})
		}
	}
	sort.Slice(rollup.Entries, func(i, j int) bool {
		a, b := rollup.Entries[i], rollup.Entries[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.ProductID < b.ProductID
	})
	if len(rollup.Entries) > maxCategoryChangelog {
		rollup.Entries = rollup.Entries[:maxCategoryChangelog]
	}
	return e.store.WriteCategoryJSON(ctx, category, blob.CategoryChangelogArtifact, &rollup)
}
