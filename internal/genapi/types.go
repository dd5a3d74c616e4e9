package genapi

import (
	"encoding/json"

	"catalogai/pkg/apperr"
)

// GenerateRequest is the payload for single-product generation
type GenerateRequest struct {
	ProductName       string   `json:"product_name" validate:"required"`
	PrimaryKeywords   []string `json:"primary_keywords"`
	SecondaryKeywords []string `json:"secondary_keywords"`
	IncludePricing    bool     `json:"include_pricing"`
}

// PriceRange is one currency's suggested price bounds. Pointers distinguish
// "not suggested" from an actual zero price.
type PriceRange struct {
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

// GeneratedProduct is the raw generated field set for one product
type GeneratedProduct struct {
	ProductName       string                `json:"product_name"`
	PrimaryKeywords   []string              `json:"primary_keywords,omitempty"`
	SecondaryKeywords []string              `json:"secondary_keywords,omitempty"`
	IncludePricing    bool                  `json:"include_pricing"`
	MetaTitle         string                `json:"meta_title,omitempty"`
	MetaDescription   string                `json:"meta_description,omitempty"`
	ShortDescription  string                `json:"short_description,omitempty"`
	Description       string                `json:"description,omitempty"`
	KeyFeatures       []string              `json:"key_features,omitempty"`
	HowToUse          []string              `json:"how_to_use,omitempty"`
	Ingredients       []string              `json:"ingredients,omitempty"`
	UPC               string                `json:"upc,omitempty"`
	Keywords          []string              `json:"keywords,omitempty"`
	Pricing           map[string]PriceRange `json:"pricing,omitempty"`
}

// FieldMap flattens the product into the raw field map stored on records and
// consumed by the field mapper.
func (p *GeneratedProduct) FieldMap() (map[string]interface{}, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// BatchSubmitResponse is returned when a batch file is accepted
type BatchSubmitResponse struct {
	JobID      string `json:"job_id"`
	TotalItems int    `json:"total_items"`
	Status     string `json:"status"`
}

// LoginResponse is returned by the service login endpoint
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// RegenerateKeyResponse is returned when a new API key is issued
type RegenerateKeyResponse struct {
	APIKey string `json:"api_key"`
}

// HealthStatus is the unauthenticated liveness response
type HealthStatus struct {
	Status string `json:"status"`
}

type downloadPayload struct {
	Products []GeneratedProduct `json:"products"`
}

// ParseDownload decodes the raw job-download body into generated products
func ParseDownload(raw []byte) ([]GeneratedProduct, error) {
	var payload downloadPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &apperr.ParseError{Op: "job-download", Err: err}
	}
	return payload.Products, nil
}
