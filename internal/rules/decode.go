// Package rules implements the runtime field rules gate: typed validation
// and normalization of merged fields against a compiled contract.
package rules

import (
	"strconv"
	"strings"

	"github.com/gearscope/spec-factory/internal/model"
)

// unknownTokens are raw forms that all decode to the unknown sentinel.
var unknownTokens = map[string]bool{
	"":        true,
	"unk":     true,
	"unknown": true,
	"na":      true,
	"n/a":     true,
	"none":    true,
	"null":    true,
	"-":       true,
}

var trueTokens = map[string]bool{"yes": true, "y": true, "true": true, "1": true}
var falseTokens = map[string]bool{"no": true, "n": true, "false": true, "0": true}

// IsUnknown reports whether a decoded value is the unknown sentinel.
func IsUnknown(v any) bool {
	s, ok := v.(string)
	return ok && s == model.UnknownValue
}

// DecodeScalar coerces a raw extracted value into a typed scalar, honoring
// the field's contract type when known and falling back to heuristic
// detection for untyped fields. Blank and unknown-like tokens decode to the
// unknown sentinel; arrays and objects pass through untouched.
func DecodeScalar(raw any, field *model.ContractField) any {
	switch v := raw.(type) {
	case nil:
		return model.UnknownValue
	case bool, float64, int, int64:
		return v
	case []any, map[string]any:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if unknownTokens[strings.ToLower(trimmed)] {
			return model.UnknownValue
		}
		if field != nil {
			return decodeTyped(trimmed, field)
		}
		return decodeHeuristic(trimmed)
	default:
		return raw
	}
}

func decodeTyped(s string, field *model.ContractField) any {
	switch field.Type {
	case model.TypeNumber:
		if n, ok := parseNumber(s); ok {
			return n
		}
		return strings.TrimSpace(s)
	case model.TypeBoolean:
		if b, ok := parseBool(s); ok {
			return b
		}
		return strings.TrimSpace(s)
	case model.TypeList:
		sep := field.Normalization.ItemSeparator
		if sep == "" {
			sep = ","
		}
		parts := strings.Split(s, strings.TrimSpace(sep))
		items := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		return items
	default:
		return strings.TrimSpace(s)
	}
}

func decodeHeuristic(s string) any {
	if b, ok := parseBool(s); ok {
		return b
	}
	if n, ok := parseNumber(s); ok {
		return n
	}
	return strings.TrimSpace(s)
}

// parseNumber accepts numeric literals, tolerating thousands separators.
func parseNumber(s string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseBool(s string) (bool, bool) {
	t := strings.ToLower(strings.TrimSpace(s))
	if trueTokens[t] {
		return true, true
	}
	if falseTokens[t] {
		return false, true
	}
	return false, false
}
