package drift

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearscope/spec-factory/internal/model"
)

var scanTime = time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

func TestBuildSnapshot_LatestTrustedPerKey(t *testing.T) {
	log := strings.Join([]string{
		`{"source_id":"acme-site","tier":1,"page_content_hash":"aaa","observed_at":"2026-08-01T00:00:00Z"}`,
		`{"source_id":"acme-site","tier":1,"page_content_hash":"bbb","observed_at":"2026-08-20T00:00:00Z"}`,
		`{"host":"reviews.example","tier":2,"text_hash":"ccc","observed_at":"2026-08-10T00:00:00Z"}`,
		`{"host":"forum.example","tier":3,"text_hash":"ddd","observed_at":"2026-08-15T00:00:00Z"}`,
		`{"url":"https://nohash.example/p","tier":1,"observed_at":"2026-08-15T00:00:00Z"}`,
		`not json at all`,
		``,
	}, "\n")

	snap := buildSnapshot("mouse", "acme-x1", []byte(log), scanTime)
	require.NotNil(t, snap)
	assert.Equal(t, "mouse", snap.Category)
	assert.Equal(t, scanTime, snap.CheckedAt)

	// Tier 3 and hashless rows are out; the newer acme-site row wins.
	require.Len(t, snap.Sources, 2)
	assert.Equal(t, "bbb", snap.Sources["acme-site"].PageContentHash)
	assert.Equal(t, "ccc", snap.Sources["reviews.example"].TextHash)
}

func TestBuildSnapshot_NoUsableRows(t *testing.T) {
	assert.Nil(t, buildSnapshot("mouse", "acme-x1", nil, scanTime))
	assert.Nil(t, buildSnapshot("mouse", "acme-x1", []byte("garbage\n"), scanTime))

	onlyTier3 := `{"host":"forum.example","tier":3,"text_hash":"ddd","observed_at":"2026-08-15T00:00:00Z"}`
	assert.Nil(t, buildSnapshot("mouse", "acme-x1", []byte(onlyTier3), scanTime))
}

func TestSourceKey_Precedence(t *testing.T) {
	o := &model.SourceObservation{SourceID: "sid", Host: "host", URL: "https://u"}
	assert.Equal(t, "sid", sourceKey(o))
	o.SourceID = ""
	assert.Equal(t, "host", sourceKey(o))
	o.Host = ""
	assert.Equal(t, "https://u", sourceKey(o))
}

func TestDiffSnapshots(t *testing.T) {
	prior := map[string]model.SourceFingerprint{
		"a": {PageContentHash: "h1"},
		"b": {TextHash: "t1"},
		"c": {PageContentHash: "h3"},
	}
	current := map[string]model.SourceFingerprint{
		"a": {PageContentHash: "h1"},
		"b": {TextHash: "t2"},
		"d": {PageContentHash: "h4"},
	}

	changes := diffSnapshots(prior, current)
	require.Len(t, changes, 3)
	assert.Equal(t, model.SourceChange{SourceKey: "b", Kind: "changed"}, changes[0])
	assert.Equal(t, model.SourceChange{SourceKey: "c", Kind: "removed"}, changes[1])
	assert.Equal(t, model.SourceChange{SourceKey: "d", Kind: "added"}, changes[2])

	assert.Empty(t, diffSnapshots(prior, prior))
}
