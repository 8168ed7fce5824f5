// Package contract compiles per-category field contracts and expectation
// profiles from category schemas and optional learned signals.
package contract

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/gearscope/spec-factory/internal/model"
)

// Range bounds a numeric field. Unset sides are left at zero with Set=false
// markers handled by the pointer form in YAML.
type Range struct {
	Min *float64 `yaml:"min" json:"min,omitempty"`
	Max *float64 `yaml:"max" json:"max,omitempty"`
}

// FieldOverrideSpec is an authored per-field contract override. Authored
// configuration always wins over derived defaults.
type FieldOverrideSpec struct {
	Label         string              `yaml:"label"`
	Type          model.FieldType     `yaml:"type"`
	Unit          string              `yaml:"unit"`
	Decimals      *int                `yaml:"decimals"`
	Range         *Range              `yaml:"range"`
	Enum          []string            `yaml:"enum"`
	Aliases       map[string]string   `yaml:"aliases"`
	Synonyms      []string            `yaml:"synonyms"`
	RequiredLevel model.RequiredLevel `yaml:"required_level"`
	ItemSeparator string              `yaml:"item_separator"`
}

// SchemaDefaults supplies per-category fallbacks for derived rules.
type SchemaDefaults struct {
	Ranges        map[string]Range `yaml:"ranges"`
	ListSeparator string           `yaml:"list_separator"`
}

// ExpectationOverrides lets the schema pin a field's difficulty class.
type ExpectationOverrides struct {
	Difficulty map[string]model.Difficulty `yaml:"difficulty"`
}

// CategorySchema is the authored input to contract compilation: field order,
// required/critical sets, type memberships, and optional per-field overrides.
// It is plain structured data parsed from YAML, never executable.
type CategorySchema struct {
	Category       string                       `yaml:"category"`
	FieldOrder     []string                     `yaml:"field_order"`
	Required       []string                     `yaml:"required"`
	Critical       []string                     `yaml:"critical"`
	IdentityFields []string                     `yaml:"identity_fields"`
	NumericFields  []string                     `yaml:"numeric_fields"`
	BooleanFields  []string                     `yaml:"boolean_fields"`
	ListFields     []string                     `yaml:"list_fields"`
	DateFields     []string                     `yaml:"date_fields"`
	KeyMigrations  map[string]string            `yaml:"key_migrations"`
	Defaults       SchemaDefaults               `yaml:"defaults"`
	FieldOverrides map[string]FieldOverrideSpec `yaml:"field_overrides"`
	Expectations   ExpectationOverrides         `yaml:"expectations"`
}

// LoadCategorySchema parses a category schema YAML file.
func LoadCategorySchema(path string) (*CategorySchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "contract: read schema %s", path)
	}
	var s CategorySchema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "contract: parse schema %s", path)
	}
	if s.Category == "" {
		return nil, eris.Errorf("contract: schema %s has no category", path)
	}
	return &s, nil
}

func memberSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
