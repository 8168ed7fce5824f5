package drift

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearscope/spec-factory/internal/blob"
	"github.com/gearscope/spec-factory/internal/contract"
	"github.com/gearscope/spec-factory/internal/model"
	"github.com/gearscope/spec-factory/internal/publish"
)

// reconcileEnv wires a store, compiled contract, engine, and queue.
type reconcileEnv struct {
	dual      *blob.DualStore
	contracts *contract.Cache
	engine    *publish.Engine
	queue     *fakeQueue
}

func newReconcileEnv(t *testing.T) *reconcileEnv {
	t.Helper()
	fs, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)
	dual := blob.NewDualStore(fs)
	ctx := context.Background()

	schema := &contract.CategorySchema{
		Category:       "mouse",
		FieldOrder:     []string{"brand", "model", "dpi"},
		IdentityFields: []string{"brand", "model"},
		NumericFields:  []string{"dpi"},
	}
	c, err := contract.Compile(schema, nil)
	require.NoError(t, err)
	cs := contract.NewStore(dual, "")
	require.NoError(t, cs.SaveContract(ctx, c))

	cache := contract.NewCache(cs, time.Minute)
	return &reconcileEnv{
		dual:      dual,
		contracts: cache,
		engine:    publish.NewEngine(dual, cache, nil),
		queue:     newFakeQueue(),
	}
}

func fullProvenance(fields ...string) map[string][]model.EvidenceItem {
	prov := make(map[string][]model.EvidenceItem, len(fields))
	for _, f := range fields {
		prov[f] = []model.EvidenceItem{{
			URL: "https://acme.example/x1", Host: "acme.example", SourceID: "acme-site",
			Tier: 1, Quote: "spec sheet", SnippetID: "sn-" + f, Confidence: 0.9,
		}}
	}
	return prov
}

func (e *reconcileEnv) writeArtifact(t *testing.T, fields map[string]any, prov map[string][]model.EvidenceItem) {
	t.Helper()
	artifact := model.ExtractionArtifact{
		ProductID:  "acme-x1",
		Category:   "mouse",
		Identity:   model.Identity{Brand: "Acme", Model: "X1"},
		Fields:     fields,
		Provenance: prov,
	}
	require.NoError(t, e.dual.WriteProductJSON(context.Background(), "mouse", "acme-x1", blob.ArtifactExtraction, &artifact))
}

func (e *reconcileEnv) publishBaseline(t *testing.T) {
	t.Helper()
	e.writeArtifact(t, map[string]any{"brand": "Acme", "model": "X1", "dpi": "16000"},
		fullProvenance("brand", "model", "dpi"))
	res, err := e.engine.PublishProduct(context.Background(), "mouse", "acme-x1")
	require.NoError(t, err)
	require.True(t, res.OK)
}

func TestReconcile_MissingPublishedRecord(t *testing.T) {
	env := newReconcileEnv(t)
	r := NewReconciler(env.dual, env.contracts, env.engine, env.queue, false)

	outcome, err := r.Reconcile(context.Background(), "mouse", "ghost")
	require.NoError(t, err)
	assert.Equal(t, model.ReconcileMissingRecord, outcome.Outcome)
	assert.Empty(t, env.queue.statuses)
}

func TestReconcile_MissingExtractionArtifact(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()
	record := model.PublishedRecord{ProductID: "acme-x1", Category: "mouse"}
	require.NoError(t, env.dual.WriteProductJSON(ctx, "mouse", "acme-x1", blob.ArtifactCurrent, &record))

	r := NewReconciler(env.dual, env.contracts, env.engine, env.queue, false)
	outcome, err := r.Reconcile(ctx, "mouse", "acme-x1")
	require.NoError(t, err)
	assert.Equal(t, model.ReconcileMissingArtifacts, outcome.Outcome)
}

func TestReconcile_EvidenceFailuresOutrankFieldChanges(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()
	env.publishBaseline(t)

	// New extraction changes dpi AND its evidence lost the quote: both
	// conditions hold, quarantine must win.
	prov := fullProvenance("brand", "model")
	prov["dpi"] = []model.EvidenceItem{{URL: "https://acme.example/x1", Tier: 1, SnippetID: "sn-dpi"}}
	env.writeArtifact(t, map[string]any{"brand": "Acme", "model": "X1", "dpi": "26000"}, prov)

	r := NewReconciler(env.dual, env.contracts, env.engine, env.queue, true)
	outcome, err := r.Reconcile(ctx, "mouse", "acme-x1")
	require.NoError(t, err)

	assert.Equal(t, model.ReconcileQuarantined, outcome.Outcome)
	assert.NotEmpty(t, outcome.ChangedFields)
	assert.NotEmpty(t, outcome.EvidenceFailures)
	assert.Equal(t, QueueStatusBlocked, env.queue.statuses["acme-x1"])
}

func TestReconcile_ChangedFieldsNeedReview(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()
	env.publishBaseline(t)

	env.writeArtifact(t, map[string]any{"brand": "Acme", "model": "X1", "dpi": "26000"},
		fullProvenance("brand", "model", "dpi"))

	r := NewReconciler(env.dual, env.contracts, env.engine, env.queue, true)
	outcome, err := r.Reconcile(ctx, "mouse", "acme-x1")
	require.NoError(t, err)

	assert.Equal(t, model.ReconcileNeedsReview, outcome.Outcome)
	require.Len(t, outcome.ChangedFields, 1)
	assert.Equal(t, "dpi", outcome.ChangedFields[0].Field)
	assert.Equal(t, QueueStatusNeedsManual, env.queue.statuses["acme-x1"])
}

func TestReconcile_CleanReextractionAutoRepublishes(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()
	env.publishBaseline(t)

	r := NewReconciler(env.dual, env.contracts, env.engine, env.queue, true)
	outcome, err := r.Reconcile(ctx, "mouse", "acme-x1")
	require.NoError(t, err)

	assert.Equal(t, model.ReconcileAutoRepublished, outcome.Outcome)
	assert.Equal(t, "1.0.0", outcome.RepublishedAs)
	assert.Equal(t, QueueStatusComplete, env.queue.statuses["acme-x1"])
}

func TestReconcile_NoChangeWithoutAutoRepublish(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()
	env.publishBaseline(t)

	r := NewReconciler(env.dual, env.contracts, env.engine, env.queue, false)
	outcome, err := r.Reconcile(ctx, "mouse", "acme-x1")
	require.NoError(t, err)

	assert.Equal(t, model.ReconcileNoChange, outcome.Outcome)
	assert.Equal(t, QueueStatusComplete, env.queue.statuses["acme-x1"])
}

func TestReconcile_PersistsOutcomeAndAuditLine(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()
	env.publishBaseline(t)

	r := NewReconciler(env.dual, env.contracts, env.engine, env.queue, false)
	_, err := r.Reconcile(ctx, "mouse", "acme-x1")
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, "mouse", "acme-x1")
	require.NoError(t, err)

	var stored model.ReconcileOutcome
	found, err := env.dual.ReadProductJSON(ctx, "mouse", "acme-x1", blob.ArtifactReconcile, &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.ReconcileNoChange, stored.Outcome)

	audit, err := env.dual.ReadProduct(ctx, "mouse", "acme-x1", blob.ArtifactDriftAudit)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(audit)), "\n")
	assert.Len(t, lines, 2)
}
