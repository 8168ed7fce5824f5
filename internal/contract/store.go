package contract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gearscope/spec-factory/internal/blob"
	"github.com/gearscope/spec-factory/internal/model"
)

// Store persists compiled contracts and expectation profiles to a primary
// location and, when configured, a secondary mirror. Reads prefer the
// primary and fall back to the mirror; absence of both is "not compiled
// yet", never an error.
type Store struct {
	store        *blob.DualStore
	mirrorPrefix string
}

// NewStore creates a contract store. mirrorPrefix may be empty, which
// disables the secondary mirror.
func NewStore(store *blob.DualStore, mirrorPrefix string) *Store {
	return &Store{store: store, mirrorPrefix: mirrorPrefix}
}

func (s *Store) mirrorKey(category, artifact string) string {
	return fmt.Sprintf("%s/%s/%s", s.mirrorPrefix, category, artifact)
}

func (s *Store) save(ctx context.Context, category, artifact string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "contract: encode %s/%s", category, artifact)
	}
	if err := s.store.WriteContract(ctx, category, artifact, data); err != nil {
		return err
	}
	if s.mirrorPrefix != "" {
		key := s.mirrorKey(category, artifact)
		if err := s.store.Inner().WriteObject(ctx, key, data, blob.ContentTypeJSON); err != nil {
			// The primary copy is durable; the mirror is best effort.
			zap.L().Warn("contract: mirror write failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Store) load(ctx context.Context, category, artifact string, out any) (bool, error) {
	data, err := s.store.ReadContract(ctx, category, artifact)
	if err != nil {
		return false, err
	}
	if data == nil && s.mirrorPrefix != "" {
		data, err = s.store.Inner().ReadObject(ctx, s.mirrorKey(category, artifact))
		if err != nil {
			return false, eris.Wrapf(err, "contract: read mirror %s/%s", category, artifact)
		}
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, eris.Wrapf(err, "contract: decode %s/%s", category, artifact)
	}
	return true, nil
}

// SaveContract persists a compiled contract.
func (s *Store) SaveContract(ctx context.Context, c *model.FieldContract) error {
	return s.save(ctx, c.Category, blob.ContractArtifact, c)
}

// LoadContract returns the category's compiled contract, or (nil, nil) when
// the category has not been compiled yet.
func (s *Store) LoadContract(ctx context.Context, category string) (*model.FieldContract, error) {
	var c model.FieldContract
	found, err := s.load(ctx, category, blob.ContractArtifact, &c)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

// SaveExpectations persists an expectation profile.
func (s *Store) SaveExpectations(ctx context.Context, p *model.ExpectationProfile) error {
	return s.save(ctx, p.Category, blob.ExpectationsArtifact, p)
}

// LoadExpectations returns the category's expectation profile, or (nil, nil)
// when not compiled yet.
func (s *Store) LoadExpectations(ctx context.Context, category string) (*model.ExpectationProfile, error) {
	var p model.ExpectationProfile
	found, err := s.load(ctx, category, blob.ExpectationsArtifact, &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}
