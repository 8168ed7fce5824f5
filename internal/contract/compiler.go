package contract

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gearscope/spec-factory/internal/model"
)

// enumCollapseLimit caps how many distinct normalized sample values a field
// may have and still be treated as an enum.
const enumCollapseLimit = 12

var titleCaser = cases.Title(language.English)

// sliderMeta is the per-field metadata derived from slider signals.
type sliderMeta struct {
	typ      string
	unit     string
	decimals int
	min, max *float64
}

// Compile derives a FieldContract from a category schema and optional
// learned signals. The result's ContentHash depends only on derived content:
// identical inputs, in any map order, hash identically.
func Compile(schema *CategorySchema, signals *LearnedSignals) (*model.FieldContract, error) {
	if schema == nil {
		return nil, eris.New("contract: nil schema")
	}
	if signals == nil {
		signals = &LearnedSignals{}
	}

	numeric := memberSet(schema.NumericFields)
	boolean := memberSet(schema.BooleanFields)
	list := memberSet(schema.ListFields)
	date := memberSet(schema.DateFields)
	identity := memberSet(schema.IdentityFields)
	critical := memberSet(schema.Critical)
	required := memberSet(schema.Required)

	sliders := buildSliderMeta(schema, signals)

	c := &model.FieldContract{
		Category:      schema.Category,
		FieldOrder:    fieldUniverse(schema),
		KeyMigrations: schema.KeyMigrations,
		IdentityKeys:  append([]string(nil), schema.IdentityFields...),
	}

	for _, key := range c.FieldOrder {
		f := model.ContractField{
			Key:   key,
			Label: resolveLabel(key, signals),
			Type:  inferType(key, sliders, numeric, boolean, list, date, identity),
		}

		switch {
		case critical[key]:
			f.RequiredLevel = model.RequiredCrit
		case required[key]:
			f.RequiredLevel = model.RequiredHard
		default:
			f.RequiredLevel = model.RequiredOpt
		}

		if sm, ok := sliders[key]; ok {
			f.Normalization.Unit = sm.unit
			f.Normalization.Decimals = sm.decimals
		}
		if f.Type == model.TypeList {
			sep := schema.Defaults.ListSeparator
			if sep == "" {
				sep = ", "
			}
			f.Normalization.ItemSeparator = sep
		}

		if f.Type == model.TypeNumber {
			lo, hi, ok := intersectRange(schema.Defaults.Ranges[key], sliders[key])
			if ok {
				f.Normalization.Min, f.Normalization.Max = lo, hi
				f.Normalization.HasRange = true
				f.Constraints.Min, f.Constraints.Max = lo, hi
				f.Constraints.HasRange = true
			}
		}

		if enum := deriveEnum(key, f.Type, signals); len(enum) > 0 {
			f.Constraints.Enum = enum
			f.Constraints.Aliases = buildAliases(key, enum, signals)
		}

		applyOverride(&f, schema.FieldOverrides[key])
		c.Fields = append(c.Fields, f)
	}

	// The required list keeps schema order for required fields present in the
	// field universe, criticals included.
	for _, key := range c.FieldOrder {
		if required[key] || critical[key] {
			c.Required = append(c.Required, key)
		}
	}

	hash, err := HashContract(c)
	if err != nil {
		return nil, err
	}
	c.ContentHash = hash
	c.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	return c, nil
}

// fieldUniverse is field_order plus any required or overridden field the
// order list missed, extras appended in sorted order.
func fieldUniverse(schema *CategorySchema) []string {
	seen := memberSet(schema.FieldOrder)
	order := append([]string(nil), schema.FieldOrder...)

	var extras []string
	for _, k := range schema.Required {
		if !seen[k] {
			seen[k] = true
			extras = append(extras, k)
		}
	}
	for k := range schema.FieldOverrides {
		if !seen[k] {
			seen[k] = true
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	return append(order, extras...)
}

// buildSliderMeta maps slider signals to per-field metadata, resolving "auto"
// bounds against the category's configured default ranges.
func buildSliderMeta(schema *CategorySchema, signals *LearnedSignals) map[string]sliderMeta {
	out := make(map[string]sliderMeta, len(signals.Sliders))
	for key, s := range signals.Sliders {
		sm := sliderMeta{typ: s.Type, unit: s.Unit, decimals: s.Decimals}
		def := schema.Defaults.Ranges[key]
		sm.min = resolveBound(s.Min, def.Min)
		sm.max = resolveBound(s.Max, def.Max)
		out[key] = sm
	}
	return out
}

func resolveBound(raw string, fallback *float64) *float64 {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" || raw == "auto" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return &v
}

// inferType picks a field's type by priority: date marker, numeric
// membership or slider number, boolean, list, identity, default string.
func inferType(key string, sliders map[string]sliderMeta, numeric, boolean, list, date, identity map[string]bool) model.FieldType {
	switch {
	case date[key]:
		return model.TypeDate
	case numeric[key]:
		return model.TypeNumber
	}
	if sm, ok := sliders[key]; ok && sm.typ == "number" {
		return model.TypeNumber
	}
	switch {
	case boolean[key]:
		return model.TypeBoolean
	case list[key]:
		return model.TypeList
	case identity[key]:
		return model.TypeIdentity
	}
	return model.TypeString
}

// resolveLabel title-cases the key, letting learned widget labels win:
// toggle, then slider, then comparison.
func resolveLabel(key string, signals *LearnedSignals) string {
	if t, ok := signals.Toggles[key]; ok && t.Label != "" {
		return t.Label
	}
	if s, ok := signals.Sliders[key]; ok && s.Label != "" {
		return s.Label
	}
	if l, ok := signals.Comparisons[key]; ok && l != "" {
		return l
	}
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}

// intersectRange intersects the configured default range with learned slider
// bounds: min is the max of mins, max is the min of maxes.
func intersectRange(def Range, sm sliderMeta) (float64, float64, bool) {
	var lo, hi *float64
	if def.Min != nil {
		lo = def.Min
	}
	if sm.min != nil && (lo == nil || *sm.min > *lo) {
		lo = sm.min
	}
	if def.Max != nil {
		hi = def.Max
	}
	if sm.max != nil && (hi == nil || *sm.max < *hi) {
		hi = sm.max
	}
	if lo == nil && hi == nil {
		return 0, 0, false
	}
	var l, h float64
	if lo != nil {
		l = *lo
	}
	if hi != nil {
		h = *hi
	} else {
		h = l
	}
	if lo == nil {
		l = h
	}
	return l, h, true
}

// deriveEnum collects enum hints from explicit option lists and, when sample
// collection is enabled, from string fields whose sampled canonical values
// collapse to at most enumCollapseLimit distinct forms.
func deriveEnum(key string, typ model.FieldType, signals *LearnedSignals) []string {
	tokens := make(map[string]bool)
	for _, v := range signals.Options[key] {
		if t := CanonicalToken(key, v); t != "" {
			tokens[t] = true
		}
	}

	if len(tokens) == 0 && signals.CollectSamples && typ == model.TypeString {
		samples := signals.Samples[key]
		distinct := make(map[string]bool)
		for _, v := range samples {
			if t := CanonicalToken(key, v); t != "" && t != model.UnknownValue {
				distinct[t] = true
			}
		}
		if len(distinct) > 0 && len(distinct) <= enumCollapseLimit {
			tokens = distinct
		}
	}

	if len(tokens) == 0 {
		return nil
	}
	enum := make([]string, 0, len(tokens))
	for t := range tokens {
		enum = append(enum, t)
	}
	sort.Strings(enum)
	return enum
}

// connectionCollapse maps vendor phrasings of dual-mode connectivity onto one
// canonical token for connection-type fields.
var connectionCollapse = map[string]string{
	"dual":               "hybrid",
	"wired or wireless":  "hybrid",
	"wired/wireless":     "hybrid",
	"wired and wireless": "hybrid",
	"wired + wireless":   "hybrid",
}

func isConnectionField(key string) bool {
	return strings.Contains(key, "connection") || strings.Contains(key, "connectivity")
}

// CanonicalToken folds case and whitespace and applies domain collapses.
func CanonicalToken(key, raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.Join(strings.Fields(t), " ")
	if isConnectionField(key) {
		if c, ok := connectionCollapse[t]; ok {
			return c
		}
	}
	return t
}

// buildAliases maps every observed raw form onto its canonical enum token,
// expanding boolean yes/no synonyms when the enum carries them.
func buildAliases(key string, enum []string, signals *LearnedSignals) map[string]string {
	aliases := make(map[string]string)
	inEnum := memberSet(enum)

	addAlias := func(raw, canonical string) {
		folded := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(raw))), " ")
		if folded != "" && folded != canonical {
			aliases[folded] = canonical
		}
	}

	for _, v := range append(signals.Options[key], signals.Samples[key]...) {
		canonical := CanonicalToken(key, v)
		if inEnum[canonical] {
			addAlias(v, canonical)
		}
	}

	if isConnectionField(key) && inEnum["hybrid"] {
		for raw := range connectionCollapse {
			addAlias(raw, "hybrid")
		}
	}

	if inEnum["yes"] {
		for _, raw := range []string{"y", "true", "1"} {
			addAlias(raw, "yes")
		}
	}
	if inEnum["no"] {
		for _, raw := range []string{"n", "false", "0"} {
			addAlias(raw, "no")
		}
	}

	if len(aliases) == 0 {
		return nil
	}
	return aliases
}

// applyOverride applies an authored per-field override last, so configured
// values win over everything derived.
func applyOverride(f *model.ContractField, ov FieldOverrideSpec) {
	if ov.Label != "" {
		f.Label = ov.Label
	}
	if ov.Type != "" {
		f.Type = ov.Type
	}
	if ov.Unit != "" {
		f.Normalization.Unit = ov.Unit
	}
	if ov.Decimals != nil {
		f.Normalization.Decimals = *ov.Decimals
	}
	if ov.Range != nil {
		if ov.Range.Min != nil {
			f.Normalization.Min = *ov.Range.Min
			f.Constraints.Min = *ov.Range.Min
		}
		if ov.Range.Max != nil {
			f.Normalization.Max = *ov.Range.Max
			f.Constraints.Max = *ov.Range.Max
		}
		f.Normalization.HasRange = true
		f.Constraints.HasRange = true
	}
	if len(ov.Enum) > 0 {
		enum := make([]string, 0, len(ov.Enum))
		for _, v := range ov.Enum {
			enum = append(enum, CanonicalToken(f.Key, v))
		}
		sort.Strings(enum)
		f.Constraints.Enum = enum
	}
	if len(ov.Aliases) > 0 {
		if f.Constraints.Aliases == nil {
			f.Constraints.Aliases = make(map[string]string, len(ov.Aliases))
		}
		for raw, canonical := range ov.Aliases {
			f.Constraints.Aliases[raw] = canonical
		}
	}
	if len(ov.Synonyms) > 0 {
		syn := append([]string(nil), ov.Synonyms...)
		sort.Strings(syn)
		f.Synonyms = syn
	}
	if ov.RequiredLevel != "" {
		f.RequiredLevel = ov.RequiredLevel
	}
	if ov.ItemSeparator != "" {
		f.Normalization.ItemSeparator = ov.ItemSeparator
	}
}

// HashContract computes the contract's content hash: SHA-256 over the JSON
// form with hash and generation timestamp zeroed. encoding/json writes map
// keys in sorted order, so the digest is stable under input ordering.
func HashContract(c *model.FieldContract) (string, error) {
	clone := *c
	clone.ContentHash = ""
	clone.GeneratedAt = ""
	data, err := json.Marshal(&clone)
	if err != nil {
		return "", eris.Wrap(err, "contract: hash marshal")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
