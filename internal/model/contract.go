package model

// FieldType enumerates the value types a contract field can carry.
type FieldType string

const (
	TypeNumber   FieldType = "number"
	TypeString   FieldType = "string"
	TypeBoolean  FieldType = "boolean"
	TypeList     FieldType = "list"
	TypeIdentity FieldType = "identity"
	TypeDate     FieldType = "date"
)

// RequiredLevel ranks how strongly a field is expected to be present.
type RequiredLevel string

const (
	RequiredHard RequiredLevel = "required"
	RequiredCrit RequiredLevel = "critical"
	RequiredOpt  RequiredLevel = "optional"
)

// Normalization describes how raw values for a field are normalized.
type Normalization struct {
	Unit          string  `json:"unit,omitempty"`
	Decimals      int     `json:"decimals,omitempty"`
	Min           float64 `json:"min,omitempty"`
	Max           float64 `json:"max,omitempty"`
	HasRange      bool    `json:"has_range,omitempty"`
	ItemSeparator string  `json:"item_separator,omitempty"`
}

// Constraints holds validation constraints derived for a field.
type Constraints struct {
	Min      float64           `json:"min,omitempty"`
	Max      float64           `json:"max,omitempty"`
	HasRange bool              `json:"has_range,omitempty"`
	Enum     []string          `json:"enum,omitempty"`
	Aliases  map[string]string `json:"aliases,omitempty"`
}

// ContractField is one field's entry in a compiled FieldContract.
type ContractField struct {
	Key           string        `json:"key"`
	Label         string        `json:"label"`
	Type          FieldType     `json:"type"`
	RequiredLevel RequiredLevel `json:"required_level"`
	Normalization Normalization `json:"normalization"`
	Constraints   Constraints   `json:"constraints"`
	Synonyms      []string      `json:"synonyms,omitempty"`
}

// FieldContract is the compiled per-category typing and validation rulebook.
// ContentHash is a pure function of the derived content; GeneratedAt is
// excluded from hashing so recompiling identical inputs yields the same hash.
type FieldContract struct {
	Category      string            `json:"category"`
	Fields        []ContractField   `json:"fields"`
	FieldOrder    []string          `json:"field_order"`
	Required      []string          `json:"required"`
	KeyMigrations map[string]string `json:"key_migrations,omitempty"`
	IdentityKeys  []string          `json:"identity_keys"`
	ContentHash   string            `json:"content_hash"`
	GeneratedAt   string            `json:"generated_at"`
}

// Field returns the contract entry for key, or nil.
func (c *FieldContract) Field(key string) *ContractField {
	if c == nil {
		return nil
	}
	for i := range c.Fields {
		if c.Fields[i].Key == key {
			return &c.Fields[i]
		}
	}
	return nil
}

// RequiredSet returns the required field keys as a set.
func (c *FieldContract) RequiredSet() map[string]bool {
	set := make(map[string]bool, len(c.Required))
	for _, k := range c.Required {
		set[k] = true
	}
	return set
}

// Difficulty classifies how hard a field is to fill from public sources.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "expected_easy"
	DifficultySometimes Difficulty = "expected_sometimes"
	DifficultyDeep      Difficulty = "deep"
)

// FieldExpectation is the per-field acceptance policy in an ExpectationProfile.
type FieldExpectation struct {
	Key              string            `json:"key"`
	Type             FieldType         `json:"type"`
	Difficulty       Difficulty        `json:"difficulty"`
	Enum             []string          `json:"enum,omitempty"`
	Aliases          map[string]string `json:"aliases,omitempty"`
	EvidenceMinTier  int               `json:"evidence_min_tier"`
	TimeTargetSecs   int               `json:"time_target_secs"`
	AcceptancePolicy string            `json:"acceptance_policy"`
}

// ExpectationProfile classifies a category's fields by extraction difficulty.
type ExpectationProfile struct {
	Category          string                      `json:"category"`
	Required          []string                    `json:"required"`
	ExpectedEasy      []string                    `json:"expected_easy"`
	ExpectedSometimes []string                    `json:"expected_sometimes"`
	Deep              []string                    `json:"deep"`
	Fields            map[string]FieldExpectation `json:"fields"`
	ContractHash      string                      `json:"contract_hash"`
	GeneratedAt       string                      `json:"generated_at"`
}
