package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"catalogai/internal/repo"
	"catalogai/internal/transform"
	"catalogai/pkg/apperr"
	"catalogai/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProductStore is the catalog capability the applier writes through. The
// default implementation is the gorm product repository.
type ProductStore interface {
	GetByID(id uuid.UUID) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
}

// ProductService applies mapped generated fields to catalog products
type ProductService struct {
	store    ProductStore
	records  *repo.GeneratedRecordRepository
	profiles *repo.MappingProfileRepository
}

// NewProductService creates a new product service
func NewProductService(db *gorm.DB, store ProductStore) *ProductService {
	return &ProductService{
		store:    store,
		records:  repo.NewGeneratedRecordRepository(db),
		profiles: repo.NewMappingProfileRepository(db),
	}
}

// CreateFromRecord creates a new catalog product from a generated record.
// Mapping rules must exist before the store is touched. When no SKU is
// mapped, a deterministic fallback is derived from the UPC when present,
// else a time-based random one; collisions surface as ErrDuplicateSKU from
// the store, they are not pre-checked here.
func (s *ProductService) CreateFromRecord(ctx context.Context, recordID uuid.UUID, typeHint string, attributeSetID *int) (*models.ProductRef, error) {
	record, err := s.records.GetByID(recordID)
	if err != nil {
		return nil, err
	}

	mapped, err := s.mapRecord(record, typeHint, attributeSetID)
	if err != nil {
		return nil, err
	}

	name := mapped["name"]
	if name == "" {
		name = record.Name
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("cannot create a product without a name")
	}

	product := &models.Product{
		Name:           name,
		SKU:            s.resolveSKU(mapped),
		ProductType:    typeHint,
		AttributeSetID: attributeSetID,
	}
	if product.ProductType == "" {
		product.ProductType = "simple"
	}

	if err := applyAttributes(product, mapped); err != nil {
		return nil, err
	}

	if err := s.store.Create(product); err != nil {
		return nil, err
	}

	if err := s.records.MarkApplied(record.ID, product.ID); err != nil {
		log.Warn().Err(err).Str("record_id", record.ID.String()).Msg("Failed to mark record as applied")
	}

	log.Info().Str("product_id", product.ID.String()).Str("sku", product.SKU).Msg("Product created from generated record")
	return &models.ProductRef{ID: product.ID, SKU: product.SKU}, nil
}

// UpdateFromRecord applies a generated record to an existing product. The
// record must be strictly newer than the product's last modification, so AI
// data generated before a manual edit can never clobber that edit.
func (s *ProductService) UpdateFromRecord(ctx context.Context, recordID, productID uuid.UUID) (*models.ProductRef, error) {
	record, err := s.records.GetByID(recordID)
	if err != nil {
		return nil, err
	}

	// Mapping is checked before any store access
	mapped, err := s.mapRecord(record, "simple", nil)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetByID(productID)
	if err != nil {
		return nil, err
	}

	if !record.UpdatedAt.After(product.UpdatedAt) {
		return nil, &apperr.StaleDataError{
			RecordModifiedAt:  record.UpdatedAt,
			ProductModifiedAt: product.UpdatedAt,
		}
	}

	// Unmapped and empty fields are absent from the map, leaving the existing
	// attribute values untouched.
	if err := applyAttributes(product, mapped); err != nil {
		return nil, err
	}

	if err := s.store.Update(product); err != nil {
		return nil, err
	}

	if err := s.records.MarkApplied(record.ID, product.ID); err != nil {
		log.Warn().Err(err).Str("record_id", record.ID.String()).Msg("Failed to mark record as applied")
	}

	log.Info().Str("product_id", product.ID.String()).Str("sku", product.SKU).Msg("Product updated from generated record")
	return &models.ProductRef{ID: product.ID, SKU: product.SKU}, nil
}

// mapRecord resolves the default mapping profile and applies it to the
// record's raw fields.
func (s *ProductService) mapRecord(record *models.GeneratedProductRecord, productType string, attributeSetID *int) (map[string]string, error) {
	if productType == "" {
		productType = "simple"
	}

	profile, err := s.profiles.GetDefault(productType, attributeSetID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrMappingMissing
		}
		return nil, err
	}

	rules, err := profile.RuleMap()
	if err != nil {
		return nil, fmt.Errorf("mapping profile %s has invalid rules: %w", profile.ID, err)
	}

	fields, err := record.Fields()
	if err != nil {
		return nil, fmt.Errorf("record %s has invalid fields: %w", record.ID, err)
	}

	return transform.NewFieldMapper(rules).Map(fields)
}

// resolveSKU picks the mapped SKU, falls back to the UPC, then to a
// time-based random value. Uniqueness is best effort only.
func (s *ProductService) resolveSKU(mapped map[string]string) string {
	if sku := strings.TrimSpace(mapped["sku"]); sku != "" {
		return sku
	}
	if upc := strings.TrimSpace(mapped["upc"]); upc != "" {
		return upc
	}
	return fmt.Sprintf("ai-%d-%04d", nowFunc().Unix(), rand.Intn(10000))
}

// wellKnownAttributes routes attribute codes onto product columns
var wellKnownAttributes = map[string]func(*models.Product, string){
	"name":              func(p *models.Product, v string) { p.Name = v },
	"sku":               func(p *models.Product, v string) { p.SKU = v },
	"description":       func(p *models.Product, v string) { p.Description = v },
	"short_description": func(p *models.Product, v string) { p.ShortDescription = v },
	"meta_title":        func(p *models.Product, v string) { p.MetaTitle = v },
	"meta_description":  func(p *models.Product, v string) { p.MetaDescription = v },
	"meta_keywords":     func(p *models.Product, v string) { p.MetaKeywords = v },
	"price":             func(p *models.Product, v string) { p.Price = v },
	"special_price":     func(p *models.Product, v string) { p.SpecialPrice = v },
	"weight":            func(p *models.Product, v string) { p.Weight = v },
	"upc":               func(p *models.Product, v string) { p.UPC = v },
	"qty": func(p *models.Product, v string) {
		if qty, err := strconv.Atoi(v); err == nil {
			p.Qty = qty
		}
	},
	"status": func(p *models.Product, v string) {
		switch strings.ToLower(v) {
		case "enabled", "1", "yes", "true":
			p.Status = true
		case "disabled", "0", "no", "false":
			p.Status = false
		}
	},
}

// applyAttributes writes mapped attribute values onto the product; codes
// without a dedicated column accumulate in the extra-attribute map.
func applyAttributes(product *models.Product, mapped map[string]string) error {
	extras, err := product.ExtraAttributeMap()
	if err != nil {
		return err
	}

	changedExtras := false
	for code, value := range mapped {
		if setter, ok := wellKnownAttributes[code]; ok {
			setter(product, value)
			continue
		}
		extras[code] = value
		changedExtras = true
	}

	if changedExtras {
		return product.SetExtraAttributeMap(extras)
	}
	return nil
}
