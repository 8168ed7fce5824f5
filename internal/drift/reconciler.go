package drift

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/gearscope/spec-factory/internal/blob"
	"github.com/gearscope/spec-factory/internal/contract"
	"github.com/gearscope/spec-factory/internal/model"
	"github.com/gearscope/spec-factory/internal/publish"
	"github.com/gearscope/spec-factory/internal/rules"
)

// Reconciler compares a drift-triggered re-extraction against the published
// record and decides what happens next: quarantine, manual review,
// auto-republish, or nothing.
type Reconciler struct {
	store         *blob.DualStore
	contracts     *contract.Cache
	engine        *publish.Engine
	queue         Queue
	gate          rules.Gate
	autoRepublish bool
	now           func() time.Time
}

// NewReconciler wires a reconciler. A nil engine disables auto-republish
// regardless of the flag; a nil queue skips queue status updates.
func NewReconciler(store *blob.DualStore, contracts *contract.Cache, engine *publish.Engine, queue Queue, autoRepublish bool) *Reconciler {
	return &Reconciler{
		store:         store,
		contracts:     contracts,
		engine:        engine,
		queue:         queue,
		gate:          rules.NewGate(),
		autoRepublish: autoRepublish && engine != nil,
		now:           time.Now,
	}
}

// Reconcile runs one reconciliation for a product. The outcome document and
// an audit log line are persisted for every invocation; only storage errors
// propagate.
func (r *Reconciler) Reconcile(ctx context.Context, category, productID string) (*model.ReconcileOutcome, error) {
	outcome := &model.ReconcileOutcome{
		ProductID:    productID,
		Category:     category,
		ReconciledAt: r.now(),
	}

	var published model.PublishedRecord
	found, err := r.store.ReadProductJSON(ctx, category, productID, blob.ArtifactCurrent, &published)
	if err != nil || !found {
		outcome.Outcome = model.ReconcileMissingRecord
		return outcome, r.persist(ctx, outcome)
	}

	var artifact model.ExtractionArtifact
	found, err = r.store.ReadProductJSON(ctx, category, productID, blob.ArtifactExtraction, &artifact)
	if err != nil || !found {
		outcome.Outcome = model.ReconcileMissingArtifacts
		return outcome, r.persist(ctx, outcome)
	}

	c, err := r.contracts.Get(ctx, category)
	if err != nil {
		return nil, err
	}

	gated := r.gate.Run(c, rules.GateRequest{Fields: artifact.Fields})
	outcome.ChangedFields = publish.DiffSpecs(published.Specs, gated.Fields)

	for key, value := range gated.Fields {
		if rules.IsUnknown(value) {
			continue
		}
		outcome.EvidenceFailures = append(outcome.EvidenceFailures,
			rules.CheckEvidence(key, artifact.Provenance[key])...)
	}

	// Evidence problems outrank content changes: an under-evidenced change
	// must never republish on its own.
	switch {
	case len(outcome.EvidenceFailures) > 0:
		outcome.Outcome = model.ReconcileQuarantined
		r.setQueueStatus(ctx, category, productID, QueueStatusBlocked)
	case len(outcome.ChangedFields) > 0:
		// Content changed: a human decides, even when auto-republish is on.
		outcome.Outcome = model.ReconcileNeedsReview
		r.setQueueStatus(ctx, category, productID, QueueStatusNeedsManual)
	case r.autoRepublish:
		res, err := r.engine.PublishProduct(ctx, category, productID)
		if err != nil {
			return nil, err
		}
		if res.OK {
			outcome.Outcome = model.ReconcileAutoRepublished
			outcome.RepublishedAs = res.Version
			r.setQueueStatus(ctx, category, productID, QueueStatusComplete)
		} else {
			// The republish was blocked by validation: a human has to look.
			outcome.Outcome = model.ReconcileNeedsReview
			r.setQueueStatus(ctx, category, productID, QueueStatusNeedsManual)
		}
	default:
		outcome.Outcome = model.ReconcileNoChange
		r.setQueueStatus(ctx, category, productID, QueueStatusComplete)
	}

	zap.L().Info("drift: reconciled",
		zap.String("category", category),
		zap.String("product", productID),
		zap.String("outcome", outcome.Outcome),
		zap.Int("changed_fields", len(outcome.ChangedFields)),
		zap.Int("evidence_failures", len(outcome.EvidenceFailures)),
	)
	return outcome, r.persist(ctx, outcome)
}

func (r *Reconciler) persist(ctx context.Context, outcome *model.ReconcileOutcome) error {
	if err := r.store.WriteProductJSON(ctx, outcome.Category, outcome.ProductID, blob.ArtifactReconcile, outcome); err != nil {
		return err
	}
	line, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	return r.store.AppendProductLine(ctx, outcome.Category, outcome.ProductID, blob.ArtifactDriftAudit, line)
}

func (r *Reconciler) setQueueStatus(ctx context.Context, category, productID, status string) {
	if r.queue == nil {
		return
	}
	if err := r.queue.SetStatus(ctx, category, productID, status); err != nil {
		zap.L().Warn("drift: queue status update failed",
			zap.String("product", productID),
			zap.String("status", status),
			zap.Error(err))
	}
}
