// Package publish implements the publish engine: merging extraction output
// with approved overrides, validating against the compiled contract, and
// writing versioned artifacts.
package publish

import (
	"reflect"
	"sort"

	"github.com/gearscope/spec-factory/internal/model"
)

// DiffSpecs reports field-level changes between two spec maps. Both sides
// are unknown-defaulted: a key absent from one side compares as the unknown
// sentinel, so adding an unknown field is not a change. Output is sorted by
// field name and the diff is symmetric with before/after swapped.
func DiffSpecs(before, after map[string]any) []model.FieldChange {
	keys := make(map[string]bool, len(before)+len(after))
	for k := range before {
		keys[k] = true
	}
	for k := range after {
		keys[k] = true
	}

	var changes []model.FieldChange
	for k := range keys {
		b := defaultUnknown(before[k])
		a := defaultUnknown(after[k])
		if !specEqual(b, a) {
			changes = append(changes, model.FieldChange{Field: k, Before: b, After: a})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

func defaultUnknown(v any) any {
	if v == nil {
		return model.UnknownValue
	}
	return v
}

// specEqual is structural equality tolerant of the numeric representations
// JSON round-trips produce.
func specEqual(a, b any) bool {
	if na, ok := toFloat(a); ok {
		if nb, ok := toFloat(b); ok {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
