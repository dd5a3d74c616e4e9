package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

type GenerationType string

const (
	GenerationTypeBatch  GenerationType = "batch"
	GenerationTypeSingle GenerationType = "single"
)

// GeneratedProductRecord is one AI-generated product's raw field set. JobID is
// nil for standalone generations. SourceBatchIndex is the row position within
// the originating batch and serves as the stable key for batch records, so
// duplicate product names inside one batch do not collide.
type GeneratedProductRecord struct {
	BaseModel
	JobID            *uuid.UUID     `gorm:"type:uuid;index" json:"job_id,omitempty"`
	GenerationType   GenerationType `gorm:"not null;default:'batch'" json:"generation_type"`
	SourceBatchIndex *int           `json:"source_batch_index,omitempty"`
	Name             string         `gorm:"not null;index" json:"name"`
	SourceFields     string         `gorm:"type:jsonb" json:"-"`
	TargetProductID  *uuid.UUID     `gorm:"type:uuid" json:"target_product_id,omitempty"`
	IsApplied        bool           `gorm:"default:false" json:"is_applied"`
}

// Fields decodes the stored raw field map
func (r *GeneratedProductRecord) Fields() (map[string]interface{}, error) {
	if r.SourceFields == "" {
		return map[string]interface{}{}, nil
	}
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(r.SourceFields), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// SetFields encodes and stores the raw field map
func (r *GeneratedProductRecord) SetFields(fields map[string]interface{}) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	r.SourceFields = string(data)
	return nil
}
