package contract

import (
	"time"

	"github.com/gearscope/spec-factory/internal/model"
)

// Fill-rate thresholds for difficulty classification.
const (
	fillRateEasy      = 0.70
	fillRateSometimes = 0.20
)

// Time targets per difficulty class, in seconds.
const (
	timeTargetEasy      = 120
	timeTargetSometimes = 300
	timeTargetDeep      = 900
)

// DeriveExpectations classifies a contract's non-identity fields by
// extraction difficulty and attaches per-field acceptance policy. Required
// and critical fields are forced easy; explicit schema overrides come next;
// everything else falls back to observed fill rate.
func DeriveExpectations(c *model.FieldContract, schema *CategorySchema, signals *LearnedSignals) *model.ExpectationProfile {
	if signals == nil {
		signals = &LearnedSignals{}
	}

	p := &model.ExpectationProfile{
		Category:     c.Category,
		Required:     append([]string(nil), c.Required...),
		Fields:       make(map[string]model.FieldExpectation),
		ContractHash: c.ContentHash,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	requiredSet := c.RequiredSet()

	for _, f := range c.Fields {
		if f.Type == model.TypeIdentity {
			continue
		}

		difficulty := classify(f.Key, requiredSet[f.Key], schema, signals)
		switch difficulty {
		case model.DifficultyEasy:
			p.ExpectedEasy = append(p.ExpectedEasy, f.Key)
		case model.DifficultySometimes:
			p.ExpectedSometimes = append(p.ExpectedSometimes, f.Key)
		default:
			p.Deep = append(p.Deep, f.Key)
		}

		exp := model.FieldExpectation{
			Key:              f.Key,
			Type:             f.Type,
			Difficulty:       difficulty,
			Enum:             f.Constraints.Enum,
			Aliases:          f.Constraints.Aliases,
			EvidenceMinTier:  2,
			AcceptancePolicy: "standard",
		}
		if requiredSet[f.Key] || difficulty == model.DifficultyEasy {
			exp.EvidenceMinTier = 1
			exp.AcceptancePolicy = "strict"
		}
		switch difficulty {
		case model.DifficultyEasy:
			exp.TimeTargetSecs = timeTargetEasy
		case model.DifficultySometimes:
			exp.TimeTargetSecs = timeTargetSometimes
		default:
			exp.TimeTargetSecs = timeTargetDeep
		}

		p.Fields[f.Key] = exp
	}

	return p
}

// classify picks a field's difficulty: required forces easy, then explicit
// schema overrides, then observed fill rate across sampled data.
func classify(key string, required bool, schema *CategorySchema, signals *LearnedSignals) model.Difficulty {
	if required {
		return model.DifficultyEasy
	}
	if schema != nil {
		if d, ok := schema.Expectations.Difficulty[key]; ok {
			return d
		}
	}
	switch rate := fillRate(key, signals); {
	case rate >= fillRateEasy:
		return model.DifficultyEasy
	case rate >= fillRateSometimes:
		return model.DifficultySometimes
	default:
		return model.DifficultyDeep
	}
}

// fillRate returns the observed fill rate for a field: the explicit learned
// rate when present, else the known fraction of its sampled values.
func fillRate(key string, signals *LearnedSignals) float64 {
	if rate, ok := signals.FillRates[key]; ok {
		return rate
	}
	samples := signals.Samples[key]
	if len(samples) == 0 {
		return 0
	}
	known := 0
	for _, v := range samples {
		if t := CanonicalToken(key, v); t != "" && t != model.UnknownValue {
			known++
		}
	}
	return float64(known) / float64(len(samples))
}
