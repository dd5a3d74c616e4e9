package transform

import (
	"fmt"
	"strconv"
	"strings"

	"catalogai/pkg/apperr"
)

// featureFields are list-valued fields that read as line items rather than
// keyword lists, so they join with '|'.
var featureFields = map[string]bool{
	"key_features": true,
	"how_to_use":   true,
	"ingredients":  true,
}

// FieldMapper applies a mapping profile's rules (AI field key -> attribute
// code) to a raw generated field map. Fields without a rule are dropped
// silently; values that are empty after mapping are omitted so callers leave
// existing attribute values untouched on update and fall back to defaults on
// create.
type FieldMapper struct {
	rules map[string]string
}

// NewFieldMapper creates a mapper from a profile's rules
func NewFieldMapper(rules map[string]string) *FieldMapper {
	return &FieldMapper{rules: rules}
}

// Map converts raw generated fields into an attribute -> value map. It fails
// with ErrMappingMissing when no rules exist at all: applying AI text to
// unknown attributes is never acceptable, so mapping is a hard precondition.
func (m *FieldMapper) Map(raw map[string]interface{}) (map[string]string, error) {
	if len(m.rules) == 0 {
		return nil, apperr.ErrMappingMissing
	}

	mapped := make(map[string]string)
	for field, attribute := range m.rules {
		value, ok := raw[field]
		if !ok {
			continue
		}
		text := stringifyValue(field, value)
		if strings.TrimSpace(text) == "" {
			continue
		}
		mapped[attribute] = text
	}

	// Derive a price from the nested pricing structure when nothing mapped one
	// directly: USD min, then USD max, then CAD min, then CAD max.
	if _, ok := mapped["price"]; !ok {
		if price, ok := FlattenPricing(raw); ok {
			mapped["price"] = price
		}
	}

	return mapped, nil
}

// FlattenPricing extracts a single price from a nested pricing structure,
// preferring USD min over USD max over CAD min over CAD max.
func FlattenPricing(raw map[string]interface{}) (string, bool) {
	pricing, ok := raw["pricing"].(map[string]interface{})
	if !ok {
		return "", false
	}

	candidates := []struct {
		currency string
		bound    string
	}{
		{"USD", "min_price"},
		{"USD", "max_price"},
		{"CAD", "min_price"},
		{"CAD", "max_price"},
	}

	for _, c := range candidates {
		currency, ok := pricing[c.currency].(map[string]interface{})
		if !ok {
			continue
		}
		if value, ok := currency[c.bound].(float64); ok {
			return strconv.FormatFloat(value, 'f', -1, 64), true
		}
	}

	return "", false
}

// stringifyValue renders a raw field value as an attribute string. List values
// join with ',' except feature-style lists which join with '|', matching the
// tabular form.
func stringifyValue(field string, value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		return strings.Join(v, delimiterFor(field))
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, stringifyValue(field, item))
		}
		return strings.Join(parts, delimiterFor(field))
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func delimiterFor(field string) string {
	if featureFields[field] {
		return "|"
	}
	return ","
}
