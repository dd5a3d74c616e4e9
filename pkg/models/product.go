package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Product is the catalog entity the applier writes mapped attributes into.
// Columns cover the well-known attribute codes; anything else a mapping
// profile produces lands in ExtraAttributes.
type Product struct {
	BaseModel
	Name             string `gorm:"not null" json:"name"`
	SKU              string `gorm:"uniqueIndex;not null" json:"sku"`
	ProductType      string `gorm:"default:'simple'" json:"product_type"`
	AttributeSetID   *int   `json:"attribute_set_id,omitempty"`
	Description      string `json:"description,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
	MetaTitle        string `json:"meta_title,omitempty"`
	MetaDescription  string `json:"meta_description,omitempty"`
	MetaKeywords     string `json:"meta_keywords,omitempty"`
	Price            string `json:"price,omitempty"`
	SpecialPrice     string `json:"special_price,omitempty"`
	Weight           string `json:"weight,omitempty"`
	Qty              int    `gorm:"default:0" json:"qty"`
	Status           bool   `gorm:"default:true" json:"status"`
	UPC              string `gorm:"column:upc" json:"upc,omitempty"`
	ExtraAttributes  string `gorm:"type:jsonb" json:"-"`
}

// ExtraAttributeMap decodes the overflow attribute map
func (p *Product) ExtraAttributeMap() (map[string]string, error) {
	if p.ExtraAttributes == "" {
		return map[string]string{}, nil
	}
	var attrs map[string]string
	if err := json.Unmarshal([]byte(p.ExtraAttributes), &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

// SetExtraAttributeMap encodes and stores the overflow attribute map
func (p *Product) SetExtraAttributeMap(attrs map[string]string) error {
	data, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	p.ExtraAttributes = string(data)
	return nil
}

// ProductRef identifies a created or updated product
type ProductRef struct {
	ID  uuid.UUID `json:"id"`
	SKU string    `json:"sku"`
}
