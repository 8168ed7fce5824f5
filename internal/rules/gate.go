package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gearscope/spec-factory/internal/model"
)

// GateRequest carries merged fields and their provenance through the gate.
type GateRequest struct {
	Fields          map[string]any
	Provenance      map[string][]model.EvidenceItem
	FieldOrder      []string
	EnforceEvidence bool
}

// GateResult is the gate's structured outcome: normalized fields plus
// failures (which block publish) and warnings (which do not).
type GateResult struct {
	Fields   map[string]any
	Failures []string
	Warnings []string
}

// Gate validates and normalizes merged fields against a compiled contract.
type Gate interface {
	Run(contract *model.FieldContract, req GateRequest) GateResult
}

// ContractGate is the contract-backed Gate implementation.
type ContractGate struct{}

// NewGate returns the default contract-backed gate.
func NewGate() *ContractGate { return &ContractGate{} }

// Run checks every field: type decoding, numeric range membership, enum
// membership with alias resolution, and, when enabled, evidence presence for
// known values. Unknown values always pass. Fields are walked in contract
// order, extras after in sorted order, so failures and warnings come out
// deterministic.
func (g *ContractGate) Run(contract *model.FieldContract, req GateRequest) GateResult {
	out := GateResult{Fields: make(map[string]any, len(req.Fields))}

	for _, key := range gateOrder(req) {
		raw := req.Fields[key]
		field := contract.Field(key)
		value := DecodeScalar(raw, field)

		if field != nil && !IsUnknown(value) {
			value = g.checkField(field, value, &out)
		}
		out.Fields[key] = value

		if req.EnforceEvidence && !IsUnknown(value) {
			for _, w := range CheckEvidence(key, req.Provenance[key]) {
				out.Failures = append(out.Failures, fmt.Sprintf("%s: evidence %s", w.Field, w.Code))
			}
		}
	}

	return out
}

func gateOrder(req GateRequest) []string {
	seen := make(map[string]bool, len(req.Fields))
	order := make([]string, 0, len(req.Fields))
	for _, key := range req.FieldOrder {
		if _, ok := req.Fields[key]; ok && !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}
	var rest []string
	for key := range req.Fields {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func (g *ContractGate) checkField(field *model.ContractField, value any, out *GateResult) any {
	switch field.Type {
	case model.TypeNumber:
		n, ok := value.(float64)
		if !ok {
			out.Failures = append(out.Failures, fmt.Sprintf("%s: not numeric", field.Key))
			return value
		}
		if field.Constraints.HasRange {
			if n < field.Constraints.Min || n > field.Constraints.Max {
				out.Failures = append(out.Failures, fmt.Sprintf(
					"%s: %v outside range [%v, %v]",
					field.Key, n, field.Constraints.Min, field.Constraints.Max))
			}
		}
	case model.TypeBoolean:
		if _, ok := value.(bool); !ok {
			out.Failures = append(out.Failures, fmt.Sprintf("%s: not boolean", field.Key))
		}
	case model.TypeString:
		if len(field.Constraints.Enum) > 0 {
			if s, ok := value.(string); ok {
				canonical := ResolveEnum(field, s)
				if canonical == "" {
					out.Warnings = append(out.Warnings, fmt.Sprintf(
						"%s: %q not in enum, needs curation", field.Key, s))
				} else {
					return canonical
				}
			}
		}
	}
	return value
}

// ResolveEnum canonicalizes a raw string against a field's enum and alias
// map; empty means no enum member matched.
func ResolveEnum(field *model.ContractField, raw string) string {
	token := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(raw))), " ")
	if alias, ok := field.Constraints.Aliases[token]; ok {
		token = alias
	}
	for _, member := range field.Constraints.Enum {
		if member == token {
			return token
		}
	}
	return ""
}

// CheckEvidence flags a field's missing evidence attributes. A field needs at
// least one evidence item carrying each of url, quote, and snippet id; each
// missing attribute is flagged independently. A field with no evidence at all
// gets the single no_evidence code.
func CheckEvidence(key string, items []model.EvidenceItem) []model.EvidenceWarning {
	if len(items) == 0 {
		return []model.EvidenceWarning{{Field: key, Code: model.WarnNoEvidence}}
	}
	var hasURL, hasQuote, hasSnippet bool
	for _, e := range items {
		if e.URL != "" {
			hasURL = true
		}
		if e.Quote != "" {
			hasQuote = true
		}
		if e.SnippetID != "" {
			hasSnippet = true
		}
	}
	var warns []model.EvidenceWarning
	if !hasURL {
		warns = append(warns, model.EvidenceWarning{Field: key, Code: model.WarnMissingURL})
	}
	if !hasQuote {
		warns = append(warns, model.EvidenceWarning{Field: key, Code: model.WarnMissingQuote})
	}
	if !hasSnippet {
		warns = append(warns, model.EvidenceWarning{Field: key, Code: model.WarnMissingSnippetID})
	}
	return warns
}
