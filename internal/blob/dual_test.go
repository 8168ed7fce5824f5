package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDual(t *testing.T) *DualStore {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	require.NoError(t, err)
	return NewDualStore(fs)
}

func TestDualStore_WriteLandsOnBothSchemes(t *testing.T) {
	d := newTestDual(t)
	ctx := context.Background()

	require.NoError(t, d.WriteProduct(ctx, "mouse", "acme-x1", ArtifactCurrent, []byte(`{"a":1}`), ContentTypeJSON))

	cur, err := d.Inner().ReadObject(ctx, "products/mouse/acme-x1/current.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(cur))

	leg, err := d.Inner().ReadObject(ctx, "mouse/acme-x1/current.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(leg))
}

func TestDualStore_ReadFallsBackToLegacy(t *testing.T) {
	d := newTestDual(t)
	ctx := context.Background()

	// Object written before the migration exists only under the legacy key.
	require.NoError(t, d.Inner().WriteObject(ctx, "mouse/acme-x1/current.json", []byte(`{"old":true}`), ContentTypeJSON))

	data, err := d.ReadProduct(ctx, "mouse", "acme-x1", ArtifactCurrent)
	require.NoError(t, err)
	assert.JSONEq(t, `{"old":true}`, string(data))

	ok, err := d.ProductExists(ctx, "mouse", "acme-x1", ArtifactCurrent)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDualStore_ReadPrefersCurrent(t *testing.T) {
	d := newTestDual(t)
	ctx := context.Background()

	require.NoError(t, d.Inner().WriteObject(ctx, "mouse/acme-x1/current.json", []byte(`{"v":"legacy"}`), ContentTypeJSON))
	require.NoError(t, d.Inner().WriteObject(ctx, "products/mouse/acme-x1/current.json", []byte(`{"v":"current"}`), ContentTypeJSON))

	data, err := d.ReadProduct(ctx, "mouse", "acme-x1", ArtifactCurrent)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"current"}`, string(data))
}

func TestDualStore_AbsentIsNilNotError(t *testing.T) {
	d := newTestDual(t)

	data, err := d.ReadProduct(context.Background(), "mouse", "nope", ArtifactCurrent)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestDualStore_ListProductIDs_MergesSchemes(t *testing.T) {
	d := newTestDual(t)
	ctx := context.Background()

	// One product written through the facade (both schemes), one legacy-only,
	// one unrelated artifact that must not count.
	require.NoError(t, d.WriteProduct(ctx, "mouse", "beta-b2", ArtifactCurrent, []byte(`{}`), ContentTypeJSON))
	require.NoError(t, d.Inner().WriteObject(ctx, "mouse/acme-x1/current.json", []byte(`{}`), ContentTypeJSON))
	require.NoError(t, d.Inner().WriteObject(ctx, "mouse/_meta/index.json", []byte(`{}`), ContentTypeJSON))

	ids, err := d.ListProductIDs(ctx, "mouse", ArtifactCurrent)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme-x1", "beta-b2"}, ids)
}

func TestDualStore_AppendProductLine(t *testing.T) {
	d := newTestDual(t)
	ctx := context.Background()

	require.NoError(t, d.AppendProductLine(ctx, "mouse", "acme-x1", ArtifactDriftAudit, []byte(`{"n":1}`)))
	require.NoError(t, d.AppendProductLine(ctx, "mouse", "acme-x1", ArtifactDriftAudit, []byte(`{"n":2}`)))

	data, err := d.ReadProduct(ctx, "mouse", "acme-x1", ArtifactDriftAudit)
	require.NoError(t, err)
	assert.Equal(t, "{\"n\":1}\n{\"n\":2}\n", string(data))
}

func TestDualStore_JSONRoundTrip(t *testing.T) {
	d := newTestDual(t)
	ctx := context.Background()

	in := map[string]any{"product_id": "acme-x1", "coverage": 0.5}
	require.NoError(t, d.WriteCategoryJSON(ctx, "mouse", CategoryIndexArtifact, in))

	var out map[string]any
	found, err := d.ReadCategoryJSON(ctx, "mouse", CategoryIndexArtifact, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "acme-x1", out["product_id"])

	found, err = d.ReadCategoryJSON(ctx, "keyboard", CategoryIndexArtifact, &out)
	require.NoError(t, err)
	assert.False(t, found)
}
