package blob

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DualStore is the migration facade over one ObjectStore: every artifact is
// written under both the current and legacy key schemes, and every read tries
// current first, then legacy. A crash between the two writes leaves one path
// stale, which readers tolerate via the fallback rather than treating as
// corruption.
type DualStore struct {
	inner   ObjectStore
	current KeyScheme
	legacy  KeyScheme
}

// NewDualStore wraps inner with the current/legacy key schemes.
func NewDualStore(inner ObjectStore) *DualStore {
	return &DualStore{inner: inner, current: CurrentScheme{}, legacy: LegacyScheme{}}
}

// Inner exposes the wrapped store for callers that need raw key access.
func (d *DualStore) Inner() ObjectStore { return d.inner }

func (d *DualStore) Close() error { return d.inner.Close() }

// keyPair resolves an artifact to its current and legacy keys.
type keyPair struct{ current, legacy string }

func (d *DualStore) productKeys(category, productID, artifact string) keyPair {
	return keyPair{
		current: d.current.ProductKey(category, productID, artifact),
		legacy:  d.legacy.ProductKey(category, productID, artifact),
	}
}

func (d *DualStore) categoryKeys(category, artifact string) keyPair {
	return keyPair{
		current: d.current.CategoryKey(category, artifact),
		legacy:  d.legacy.CategoryKey(category, artifact),
	}
}

func (d *DualStore) contractKeys(category, artifact string) keyPair {
	return keyPair{
		current: d.current.ContractKey(category, artifact),
		legacy:  d.legacy.ContractKey(category, artifact),
	}
}

// writeBoth writes the object under both schemes. The current-scheme write
// happens first so a crash in between leaves the preferred path fresh.
func (d *DualStore) writeBoth(ctx context.Context, keys keyPair, data []byte, contentType string) error {
	if err := d.inner.WriteObject(ctx, keys.current, data, contentType); err != nil {
		return eris.Wrapf(err, "blob: write %s", keys.current)
	}
	if err := d.inner.WriteObject(ctx, keys.legacy, data, contentType); err != nil {
		// The current path is already fresh; surface but do not undo.
		return eris.Wrapf(err, "blob: write legacy %s", keys.legacy)
	}
	return nil
}

// readFallback reads the current key, falling back to legacy when absent.
func (d *DualStore) readFallback(ctx context.Context, keys keyPair) ([]byte, error) {
	data, err := d.inner.ReadObject(ctx, keys.current)
	if err != nil {
		return nil, eris.Wrapf(err, "blob: read %s", keys.current)
	}
	if data != nil {
		return data, nil
	}
	data, err = d.inner.ReadObject(ctx, keys.legacy)
	if err != nil {
		return nil, eris.Wrapf(err, "blob: read legacy %s", keys.legacy)
	}
	if data != nil {
		zap.L().Debug("blob: served from legacy key", zap.String("key", keys.legacy))
	}
	return data, nil
}

func (d *DualStore) existsEither(ctx context.Context, keys keyPair) (bool, error) {
	ok, err := d.inner.ObjectExists(ctx, keys.current)
	if err != nil || ok {
		return ok, err
	}
	return d.inner.ObjectExists(ctx, keys.legacy)
}

// WriteProduct stores a per-product artifact under both schemes.
func (d *DualStore) WriteProduct(ctx context.Context, category, productID, artifact string, data []byte, contentType string) error {
	return d.writeBoth(ctx, d.productKeys(category, productID, artifact), data, contentType)
}

// ReadProduct reads a per-product artifact, nil when absent on both paths.
func (d *DualStore) ReadProduct(ctx context.Context, category, productID, artifact string) ([]byte, error) {
	return d.readFallback(ctx, d.productKeys(category, productID, artifact))
}

// ProductExists reports whether the artifact exists on either path.
func (d *DualStore) ProductExists(ctx context.Context, category, productID, artifact string) (bool, error) {
	return d.existsEither(ctx, d.productKeys(category, productID, artifact))
}

// WriteCategory stores a category-level artifact under both schemes.
func (d *DualStore) WriteCategory(ctx context.Context, category, artifact string, data []byte, contentType string) error {
	return d.writeBoth(ctx, d.categoryKeys(category, artifact), data, contentType)
}

// ReadCategory reads a category-level artifact, nil when absent.
func (d *DualStore) ReadCategory(ctx context.Context, category, artifact string) ([]byte, error) {
	return d.readFallback(ctx, d.categoryKeys(category, artifact))
}

// WriteContract stores a compiled-contract artifact under both schemes.
func (d *DualStore) WriteContract(ctx context.Context, category, artifact string, data []byte) error {
	return d.writeBoth(ctx, d.contractKeys(category, artifact), data, ContentTypeJSON)
}

// ReadContract reads a compiled-contract artifact, nil when absent.
func (d *DualStore) ReadContract(ctx context.Context, category, artifact string) ([]byte, error) {
	return d.readFallback(ctx, d.contractKeys(category, artifact))
}

// ListProductIDs lists distinct product ids that have the given artifact in a
// category, merged across both schemes and returned sorted.
func (d *DualStore) ListProductIDs(ctx context.Context, category, artifact string) ([]string, error) {
	seen := make(map[string]bool)

	currentKeys, err := d.inner.ListKeys(ctx, d.current.ProductPrefix(category))
	if err != nil {
		return nil, eris.Wrap(err, "blob: list current keys")
	}
	for _, k := range currentKeys {
		if _, id, art, ok := d.current.Normalize(k); ok && art == artifact {
			seen[id] = true
		}
	}

	legacyKeys, err := d.inner.ListKeys(ctx, d.legacy.ProductPrefix(category))
	if err != nil {
		return nil, eris.Wrap(err, "blob: list legacy keys")
	}
	for _, k := range legacyKeys {
		if _, id, art, ok := d.legacy.Normalize(k); ok && art == artifact {
			seen[id] = true
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadProductJSON unmarshals a per-product JSON artifact into out. Returns
// (false, nil) when the artifact is absent on both paths.
func (d *DualStore) ReadProductJSON(ctx context.Context, category, productID, artifact string, out any) (bool, error) {
	data, err := d.ReadProduct(ctx, category, productID, artifact)
	if err != nil || data == nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, eris.Wrapf(err, "blob: decode %s/%s/%s", category, productID, artifact)
	}
	return true, nil
}

// WriteProductJSON marshals v and stores it as a per-product JSON artifact.
func (d *DualStore) WriteProductJSON(ctx context.Context, category, productID, artifact string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "blob: encode %s/%s/%s", category, productID, artifact)
	}
	return d.WriteProduct(ctx, category, productID, artifact, data, ContentTypeJSON)
}

// ReadCategoryJSON unmarshals a category JSON artifact into out. Returns
// (false, nil) when absent.
func (d *DualStore) ReadCategoryJSON(ctx context.Context, category, artifact string, out any) (bool, error) {
	data, err := d.ReadCategory(ctx, category, artifact)
	if err != nil || data == nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, eris.Wrapf(err, "blob: decode %s/%s", category, artifact)
	}
	return true, nil
}

// WriteCategoryJSON marshals v and stores it as a category JSON artifact.
func (d *DualStore) WriteCategoryJSON(ctx context.Context, category, artifact string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "blob: encode %s/%s", category, artifact)
	}
	return d.WriteCategory(ctx, category, artifact, data, ContentTypeJSON)
}

// AppendProductLine appends one line to a newline-delimited per-product log
// artifact. The append is read-modify-write; callers run products
// sequentially so there is no cross-writer race on a key.
func (d *DualStore) AppendProductLine(ctx context.Context, category, productID, artifact string, line []byte) error {
	existing, err := d.ReadProduct(ctx, category, productID, artifact)
	if err != nil {
		return err
	}
	buf := make([]byte, 0, len(existing)+len(line)+1)
	buf = append(buf, existing...)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	return d.WriteProduct(ctx, category, productID, artifact, buf, ContentTypeText)
}
