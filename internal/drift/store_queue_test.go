package drift

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreQueue_UpsertKeepsHigherPriority(t *testing.T) {
	dual := newScannerStore(t)
	q := NewStoreQueue(dual)
	ctx := context.Background()

	require.NoError(t, q.Upsert(ctx, EnqueueRequest{
		Category: "mouse", ProductID: "acme-x1", Priority: PriorityElevated, Hint: ReextractHint,
	}))
	require.NoError(t, q.Upsert(ctx, EnqueueRequest{
		Category: "mouse", ProductID: "acme-x1", Priority: 1,
	}))

	var item QueueItem
	found, err := dual.ReadProductJSON(ctx, "mouse", "acme-x1", queueItemArtifact, &item)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, PriorityElevated, item.Priority)
	assert.Equal(t, "pending", item.Status)
}

func TestStoreQueue_SetStatus(t *testing.T) {
	dual := newScannerStore(t)
	q := NewStoreQueue(dual)
	ctx := context.Background()

	require.NoError(t, q.Upsert(ctx, EnqueueRequest{Category: "mouse", ProductID: "acme-x1", Priority: 1}))
	require.NoError(t, q.SetStatus(ctx, "mouse", "acme-x1", QueueStatusBlocked))

	var item QueueItem
	_, err := dual.ReadProductJSON(ctx, "mouse", "acme-x1", queueItemArtifact, &item)
	require.NoError(t, err)
	assert.Equal(t, QueueStatusBlocked, item.Status)

	// Status lands even when no item was enqueued first.
	require.NoError(t, q.SetStatus(ctx, "mouse", "ghost", QueueStatusComplete))
	found, err := dual.ReadProductJSON(ctx, "mouse", "ghost", queueItemArtifact, &item)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, QueueStatusComplete, item.Status)
}
