package drift

import (
	"context"

	"golang.org/x/time/rate"
)

// Queue item statuses driven by reconciliation.
const (
	QueueStatusBlocked     = "blocked"
	QueueStatusNeedsManual = "needs_manual"
	QueueStatusComplete    = "complete"
)

// PriorityElevated marks drift-triggered work ahead of routine extraction.
const PriorityElevated = 10

// ReextractHint tags queue items created by the drift scanner.
const ReextractHint = "drift_reextract"

// EnqueueRequest asks the extraction queue to (re)visit one product.
type EnqueueRequest struct {
	Category  string
	ProductID string
	Priority  int
	Hint      string
}

// Queue is the extraction work queue the scanner feeds and the reconciler
// resolves. Upsert is idempotent per (category, product).
type Queue interface {
	Upsert(ctx context.Context, req EnqueueRequest) error
	SetStatus(ctx context.Context, category, productID, status string) error
}

// ratedQueue wraps a queue with a client-side rate limit so a large drift
// scan cannot flood the extraction backend.
type ratedQueue struct {
	inner   Queue
	limiter *rate.Limiter
}

// NewRatedQueue limits enqueue operations to perSecond upserts.
func NewRatedQueue(inner Queue, perSecond float64) Queue {
	if perSecond <= 0 {
		return inner
	}
	return &ratedQueue{inner: inner, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (q *ratedQueue) Upsert(ctx context.Context, req EnqueueRequest) error {
	if err := q.limiter.Wait(ctx); err != nil {
		return err
	}
	return q.inner.Upsert(ctx, req)
}

func (q *ratedQueue) SetStatus(ctx context.Context, category, productID, status string) error {
	return q.inner.SetStatus(ctx, category, productID, status)
}
