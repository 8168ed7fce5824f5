package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearscope/spec-factory/internal/model"
)

func f64(v float64) *float64 { return &v }

func mouseSchema() *CategorySchema {
	return &CategorySchema{
		Category:       "mouse",
		FieldOrder:     []string{"brand", "model", "dpi", "weight_grams", "connection_type", "rgb_lighting", "button_count", "switch_types", "release_date"},
		Required:       []string{"brand", "model", "dpi"},
		Critical:       []string{"brand", "model"},
		IdentityFields: []string{"brand", "model"},
		NumericFields:  []string{"dpi", "weight_grams", "button_count"},
		BooleanFields:  []string{"rgb_lighting"},
		ListFields:     []string{"switch_types"},
		DateFields:     []string{"release_date"},
		KeyMigrations:  map[string]string{"weight": "weight_grams"},
		Defaults: SchemaDefaults{
			Ranges: map[string]Range{
				"dpi":          {Min: f64(100), Max: f64(36000)},
				"weight_grams": {Min: f64(10), Max: f64(250)},
			},
		},
	}
}

func mouseSignals() *LearnedSignals {
	return &LearnedSignals{
		Sliders: map[string]SliderSignal{
			"dpi":          {Type: "number", Unit: "dpi", Min: "400", Max: "auto"},
			"weight_grams": {Type: "number", Label: "Weight", Unit: "g", Decimals: 1, Min: "auto", Max: "auto"},
		},
		Toggles: map[string]ToggleSignal{
			"rgb_lighting": {Label: "RGB Lighting"},
		},
		Options: map[string][]string{
			"connection_type": {"Wired", "Wireless", "Dual"},
		},
		CollectSamples: true,
	}
}

func TestCompile_TypeInferencePriority(t *testing.T) {
	c, err := Compile(mouseSchema(), mouseSignals())
	require.NoError(t, err)

	want := map[string]model.FieldType{
		"brand":           model.TypeIdentity,
		"dpi":             model.TypeNumber,
		"weight_grams":    model.TypeNumber,
		"connection_type": model.TypeString,
		"rgb_lighting":    model.TypeBoolean,
		"switch_types":    model.TypeList,
		"release_date":    model.TypeDate,
	}
	for key, typ := range want {
		require.NotNil(t, c.Field(key), key)
		assert.Equal(t, typ, c.Field(key).Type, key)
	}
}

func TestCompile_SliderNumberWithoutMembership(t *testing.T) {
	schema := mouseSchema()
	schema.FieldOrder = append(schema.FieldOrder, "polling_rate_hz")
	signals := mouseSignals()
	signals.Sliders["polling_rate_hz"] = SliderSignal{Type: "number", Unit: "hz"}

	c, err := Compile(schema, signals)
	require.NoError(t, err)
	assert.Equal(t, model.TypeNumber, c.Field("polling_rate_hz").Type)
}

func TestCompile_LabelResolution(t *testing.T) {
	c, err := Compile(mouseSchema(), mouseSignals())
	require.NoError(t, err)

	// Toggle label wins, slider label wins, otherwise title-cased key.
	assert.Equal(t, "RGB Lighting", c.Field("rgb_lighting").Label)
	assert.Equal(t, "Weight", c.Field("weight_grams").Label)
	assert.Equal(t, "Connection Type", c.Field("connection_type").Label)
}

func TestCompile_RangeIntersection(t *testing.T) {
	c, err := Compile(mouseSchema(), mouseSignals())
	require.NoError(t, err)

	// dpi: default [100, 36000], learned min 400, learned max auto.
	dpi := c.Field("dpi")
	require.True(t, dpi.Constraints.HasRange)
	assert.Equal(t, 400.0, dpi.Constraints.Min)
	assert.Equal(t, 36000.0, dpi.Constraints.Max)

	// weight: both bounds auto, falls back to defaults.
	weight := c.Field("weight_grams")
	assert.Equal(t, 10.0, weight.Constraints.Min)
	assert.Equal(t, 250.0, weight.Constraints.Max)
}

func TestCompile_ConnectionEnumCollapsesToHybrid(t *testing.T) {
	c, err := Compile(mouseSchema(), mouseSignals())
	require.NoError(t, err)

	conn := c.Field("connection_type")
	assert.Equal(t, []string{"hybrid", "wired", "wireless"}, conn.Constraints.Enum)
	assert.Equal(t, "hybrid", conn.Constraints.Aliases["dual"])
	assert.Equal(t, "hybrid", conn.Constraints.Aliases["wired or wireless"])
}

func TestCompile_SampledEnumCollapse(t *testing.T) {
	schema := mouseSchema()
	schema.FieldOrder = append(schema.FieldOrder, "sensor")
	signals := mouseSignals()
	signals.Samples = map[string][]string{
		"sensor": {"PAW3395", "paw3395", " HERO 2 ", "Focus Pro 30K", "unknown"},
	}

	c, err := Compile(schema, signals)
	require.NoError(t, err)
	assert.Equal(t, []string{"focus pro 30k", "hero 2", "paw3395"}, c.Field("sensor").Constraints.Enum)
}

func TestCompile_SampledEnumSkippedAboveLimit(t *testing.T) {
	schema := mouseSchema()
	schema.FieldOrder = append(schema.FieldOrder, "shape_name")
	signals := mouseSignals()
	values := make([]string, 0, enumCollapseLimit+1)
	for i := 0; i <= enumCollapseLimit; i++ {
		values = append(values, string(rune('a'+i)))
	}
	signals.Samples = map[string][]string{"shape_name": values}

	c, err := Compile(schema, signals)
	require.NoError(t, err)
	assert.Empty(t, c.Field("shape_name").Constraints.Enum)
}

func TestCompile_BooleanAliasExpansion(t *testing.T) {
	schema := mouseSchema()
	signals := mouseSignals()
	signals.Options["rgb_lighting"] = []string{"Yes", "No"}

	c, err := Compile(schema, signals)
	require.NoError(t, err)

	aliases := c.Field("rgb_lighting").Constraints.Aliases
	assert.Equal(t, "yes", aliases["true"])
	assert.Equal(t, "yes", aliases["1"])
	assert.Equal(t, "no", aliases["false"])
	assert.Equal(t, "no", aliases["0"])
}

func TestCompile_ExplicitOverrideWins(t *testing.T) {
	schema := mouseSchema()
	schema.FieldOverrides = map[string]FieldOverrideSpec{
		"dpi": {
			Label: "Max DPI",
			Unit:  "dpi",
			Range: &Range{Min: f64(800), Max: f64(32000)},
		},
		"connection_type": {
			Enum: []string{"Wired", "Wireless"},
		},
	}

	c, err := Compile(schema, mouseSignals())
	require.NoError(t, err)

	dpi := c.Field("dpi")
	assert.Equal(t, "Max DPI", dpi.Label)
	assert.Equal(t, 800.0, dpi.Constraints.Min)
	assert.Equal(t, 32000.0, dpi.Constraints.Max)

	// Authored enum replaces the derived one.
	assert.Equal(t, []string{"wired", "wireless"}, c.Field("connection_type").Constraints.Enum)
}

func TestCompile_HashStableAcrossInputOrdering(t *testing.T) {
	a, err := Compile(mouseSchema(), mouseSignals())
	require.NoError(t, err)

	// Rebuild the same inputs with maps populated in a different insertion
	// order; Go maps are unordered but this exercises marshal determinism.
	schema := mouseSchema()
	reordered := &LearnedSignals{
		CollectSamples: true,
		Options: map[string][]string{
			"connection_type": {"Wired", "Wireless", "Dual"},
		},
		Toggles: map[string]ToggleSignal{
			"rgb_lighting": {Label: "RGB Lighting"},
		},
		Sliders: map[string]SliderSignal{
			"weight_grams": {Type: "number", Label: "Weight", Unit: "g", Decimals: 1, Min: "auto", Max: "auto"},
			"dpi":          {Type: "number", Unit: "dpi", Min: "400", Max: "auto"},
		},
	}
	b, err := Compile(schema, reordered)
	require.NoError(t, err)

	assert.Equal(t, a.ContentHash, b.ContentHash)
}

func TestCompile_HashChangesWithContent(t *testing.T) {
	a, err := Compile(mouseSchema(), mouseSignals())
	require.NoError(t, err)

	schema := mouseSchema()
	schema.Required = append(schema.Required, "weight_grams")
	b, err := Compile(schema, mouseSignals())
	require.NoError(t, err)

	assert.NotEqual(t, a.ContentHash, b.ContentHash)
}

func TestCompile_RequiredListKeepsSchemaOrder(t *testing.T) {
	c, err := Compile(mouseSchema(), mouseSignals())
	require.NoError(t, err)
	assert.Equal(t, []string{"brand", "model", "dpi"}, c.Required)
	assert.Equal(t, model.RequiredCrit, c.Field("brand").RequiredLevel)
	assert.Equal(t, model.RequiredHard, c.Field("dpi").RequiredLevel)
}
