package drift

import (
	"context"
	"time"

	"github.com/gearscope/spec-factory/internal/blob"
)

// queueItemArtifact is the per-product queue document.
const queueItemArtifact = "queue/item.json"

// QueueItem is the durable state of one product's extraction queue entry.
type QueueItem struct {
	Category  string    `json:"category"`
	ProductID string    `json:"product_id"`
	Priority  int       `json:"priority"`
	Hint      string    `json:"hint,omitempty"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreQueue keeps queue items as per-product artifacts in the object store.
// External extraction workers poll these documents.
type StoreQueue struct {
	store *blob.DualStore
	now   func() time.Time
}

// NewStoreQueue wires a store-backed extraction queue.
func NewStoreQueue(store *blob.DualStore) *StoreQueue {
	return &StoreQueue{store: store, now: time.Now}
}

// Upsert writes the queue item, resetting its status to pending. A higher
// existing priority is kept.
func (q *StoreQueue) Upsert(ctx context.Context, req EnqueueRequest) error {
	var existing QueueItem
	if _, err := q.store.ReadProductJSON(ctx, req.Category, req.ProductID, queueItemArtifact, &existing); err == nil {
		if existing.Priority > req.Priority {
			req.Priority = existing.Priority
		}
	}

	item := QueueItem{
		Category:  req.Category,
		ProductID: req.ProductID,
		Priority:  req.Priority,
		Hint:      req.Hint,
		Status:    "pending",
		UpdatedAt: q.now(),
	}
	return q.store.WriteProductJSON(ctx, req.Category, req.ProductID, queueItemArtifact, &item)
}

// SetStatus updates the status of an existing queue item. A missing item is
// created so reconcile outcomes are never lost.
func (q *StoreQueue) SetStatus(ctx context.Context, category, productID, status string) error {
	var item QueueItem
	if _, err := q.store.ReadProductJSON(ctx, category, productID, queueItemArtifact, &item); err != nil {
		item = QueueItem{}
	}
	item.Category = category
	item.ProductID = productID
	item.Status = status
	item.UpdatedAt = q.now()
	return q.store.WriteProductJSON(ctx, category, productID, queueItemArtifact, &item)
}
