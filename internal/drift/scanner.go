package drift

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearscope/spec-factory/internal/blob"
	"github.com/gearscope/spec-factory/internal/model"
)

// DefaultScanLimit caps how many products one scan run visits.
const DefaultScanLimit = 500

// Scanner fingerprints evidence sources for published products and detects
// change against each product's stored snapshot.
type Scanner struct {
	store   *blob.DualStore
	queue   Queue
	enqueue bool
	limit   int
	now     func() time.Time
}

// NewScanner wires a drift scanner. A nil queue or enqueue=false detects
// drift without feeding the extraction queue.
func NewScanner(store *blob.DualStore, queue Queue, enqueue bool) *Scanner {
	return &Scanner{
		store:   store,
		queue:   queue,
		enqueue: enqueue && queue != nil,
		limit:   DefaultScanLimit,
		now:     time.Now,
	}
}

// SetLimit overrides the per-run product cap.
func (s *Scanner) SetLimit(n int) {
	if n > 0 {
		s.limit = n
	}
}

// ScanCategory runs one drift scan over the category's published products,
// in sorted order, and persists the aggregate report as both the current
// category report and an immutable dated copy.
func (s *Scanner) ScanCategory(ctx context.Context, category string) (*model.DriftReport, error) {
	ids, err := s.store.ListProductIDs(ctx, category, blob.ArtifactCurrent)
	if err != nil {
		return nil, err
	}
	if len(ids) > s.limit {
		ids = ids[:s.limit]
	}

	report := &model.DriftReport{
		RunID:     uuid.NewString(),
		Category:  category,
		StartedAt: s.now(),
		Counts:    make(map[string]int),
	}

	for _, id := range ids {
		row := s.scanProduct(ctx, category, id)
		report.Rows = append(report.Rows, row)
		report.Counts[row.Status]++
	}

	if err := s.store.WriteCategoryJSON(ctx, category, blob.CategoryDriftReport, report); err != nil {
		return nil, err
	}
	if err := s.store.WriteCategoryJSON(ctx, category, blob.DatedArtifact("drift/reports", report.StartedAt), report); err != nil {
		return nil, err
	}

	zap.L().Info("drift: scan complete",
		zap.String("category", category),
		zap.String("run", report.RunID),
		zap.Int("products", len(report.Rows)),
		zap.Int("drifted", report.Counts[model.DriftDetected]+report.Counts[model.DriftDetectedEnqueued]),
	)
	return report, nil
}

// scanProduct fingerprints one product and compares against its stored
// snapshot. All failures are contained in the returned row.
func (s *Scanner) scanProduct(ctx context.Context, category, id string) model.DriftRow {
	row := model.DriftRow{ProductID: id}

	logData, err := s.store.ReadProduct(ctx, category, id, blob.ArtifactSourceLog)
	if err != nil {
		row.Status = model.DriftScanError
		row.Error = err.Error()
		return row
	}

	snapshot := buildSnapshot(category, id, logData, s.now())
	if snapshot == nil {
		row.Status = model.DriftSkippedNoSnapshot
		return row
	}

	var prior model.SourceHashSnapshot
	hadPrior, err := s.store.ReadProductJSON(ctx, category, id, blob.ArtifactDriftState, &prior)
	if err != nil {
		zap.L().Warn("drift: unreadable snapshot, reseeding",
			zap.String("product", id), zap.Error(err))
		hadPrior = false
	}

	// State is refreshed every scan so checked_at always reflects the last
	// look, drifted or not.
	if err := s.store.WriteProductJSON(ctx, category, id, blob.ArtifactDriftState, snapshot); err != nil {
		row.Status = model.DriftScanError
		row.Error = err.Error()
		return row
	}

	if !hadPrior {
		row.Status = model.DriftBaselineSeeded
		return row
	}

	row.Changes = diffSnapshots(prior.Sources, snapshot.Sources)
	if len(row.Changes) == 0 {
		row.Status = model.DriftNone
		return row
	}

	row.Status = model.DriftDetected
	if s.enqueue {
		err := s.queue.Upsert(ctx, EnqueueRequest{
			Category:  category,
			ProductID: id,
			Priority:  PriorityElevated,
			Hint:      ReextractHint,
		})
		if err != nil {
			zap.L().Warn("drift: enqueue failed",
				zap.String("product", id), zap.Error(err))
			row.Error = err.Error()
			return row
		}
		row.Status = model.DriftDetectedEnqueued
	}
	return row
}
