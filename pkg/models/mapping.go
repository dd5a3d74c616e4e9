package models

import "encoding/json"

// FieldMappingProfile maps AI-generated field keys (meta_title, key_features,
// ...) to destination product attribute codes. At most one profile per
// (product_type, attribute_set_id) pair may be the default; setting a new
// default unsets prior ones.
type FieldMappingProfile struct {
	BaseModel
	Name           string `gorm:"not null" json:"name"`
	IsDefault      bool   `gorm:"default:false;index" json:"is_default"`
	ProductType    string `gorm:"not null;index" json:"product_type"`
	AttributeSetID *int   `json:"attribute_set_id,omitempty"`
	Rules          string `gorm:"type:jsonb" json:"-"`
}

// RuleMap decodes the stored AI-field -> attribute-code rules
func (p *FieldMappingProfile) RuleMap() (map[string]string, error) {
	if p.Rules == "" {
		return map[string]string{}, nil
	}
	var rules map[string]string
	if err := json.Unmarshal([]byte(p.Rules), &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// SetRuleMap encodes and stores the mapping rules
func (p *FieldMappingProfile) SetRuleMap(rules map[string]string) error {
	data, err := json.Marshal(rules)
	if err != nil {
		return err
	}
	p.Rules = string(data)
	return nil
}
