package drift

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gearscope/spec-factory/internal/model"
)

// maxTrustedTier bounds which sources count toward a fingerprint. Tier 3
// community material is too volatile to treat its churn as drift.
const maxTrustedTier = 2

// sourceKey resolves the stable identity of an observation: source id, then
// host, then the URL itself.
func sourceKey(o *model.SourceObservation) string {
	switch {
	case o.SourceID != "":
		return o.SourceID
	case o.Host != "":
		return o.Host
	default:
		return strings.TrimSpace(o.URL)
	}
}

// buildSnapshot folds a source-history log into a fingerprint snapshot:
// trusted tiers only, most recent observation per source key, at least one
// content or text hash required. A nil return means no usable rows.
func buildSnapshot(category, productID string, log []byte, now time.Time) *model.SourceHashSnapshot {
	sources := make(map[string]model.SourceFingerprint)
	latest := make(map[string]time.Time)

	scanner := bufio.NewScanner(bytes.NewReader(log))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var o model.SourceObservation
		if err := json.Unmarshal(line, &o); err != nil {
			zap.L().Debug("drift: skipping malformed log line",
				zap.String("product", productID), zap.Error(err))
			continue
		}
		if o.Tier > maxTrustedTier {
			continue
		}
		if o.PageContentHash == "" && o.TextHash == "" {
			continue
		}
		key := sourceKey(&o)
		if key == "" {
			continue
		}
		if seen, ok := latest[key]; ok && !o.ObservedAt.After(seen) {
			continue
		}
		latest[key] = o.ObservedAt
		sources[key] = model.SourceFingerprint{
			PageContentHash: o.PageContentHash,
			TextHash:        o.TextHash,
			Tier:            o.Tier,
			LastSeenAt:      o.ObservedAt,
		}
	}

	if len(sources) == 0 {
		return nil
	}
	return &model.SourceHashSnapshot{
		ProductID: productID,
		Category:  category,
		Sources:   sources,
		CheckedAt: now,
	}
}

// diffSnapshots compares two fingerprint maps by source key. Kinds are
// "changed", "added" (new source), and "removed" (source gone).
func diffSnapshots(prior, current map[string]model.SourceFingerprint) []model.SourceChange {
	var changes []model.SourceChange
	for key, cur := range current {
		old, ok := prior[key]
		switch {
		case !ok:
			changes = append(changes, model.SourceChange{SourceKey: key, Kind: "added"})
		case old.PageContentHash != cur.PageContentHash || old.TextHash != cur.TextHash:
			changes = append(changes, model.SourceChange{SourceKey: key, Kind: "changed"})
		}
	}
	for key := range prior {
		if _, ok := current[key]; !ok {
			changes = append(changes, model.SourceChange{SourceKey: key, Kind: "removed"})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].SourceKey < changes[j].SourceKey })
	return changes
}
