package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"catalogai/internal/repo"
	"catalogai/pkg/apperr"
	"catalogai/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedProfile(t *testing.T, db *gorm.DB, rules map[string]string) {
	t.Helper()
	profile := &models.FieldMappingProfile{
		Name:        "default",
		IsDefault:   true,
		ProductType: "simple",
	}
	if err := profile.SetRuleMap(rules); err != nil {
		t.Fatal(err)
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}
}

func seedRecord(t *testing.T, db *gorm.DB, name string, fields map[string]interface{}) *models.GeneratedProductRecord {
	t.Helper()
	record := &models.GeneratedProductRecord{
		Name:           name,
		GenerationType: models.GenerationTypeSingle,
	}
	if err := record.SetFields(fields); err != nil {
		t.Fatal(err)
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}
	return record
}

// countingStore wraps the real repository to prove call ordering
type countingStore struct {
	inner *repo.ProductRepository
	calls int
}

func (s *countingStore) GetByID(id uuid.UUID) (*models.Product, error) {
	s.calls++
	return s.inner.GetByID(id)
}

func (s *countingStore) Create(product *models.Product) error {
	s.calls++
	return s.inner.Create(product)
}

func (s *countingStore) Update(product *models.Product) error {
	s.calls++
	return s.inner.Update(product)
}

func TestCreateFromRecord(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, map[string]string{
		"description": "description",
		"meta_title":  "meta_title",
		"upc":         "upc",
	})
	record := seedRecord(t, db, "Vitamin C Serum", map[string]interface{}{
		"product_name": "Vitamin C Serum",
		"description":  "Brightening serum",
		"meta_title":   "Vitamin C Serum | Shop",
		"upc":          "012345678905",
	})

	productRepo := repo.NewProductRepository(db)
	svc := NewProductService(db, productRepo)

	ref, err := svc.CreateFromRecord(context.Background(), record.ID, "simple", nil)
	if err != nil {
		t.Fatalf("CreateFromRecord returned error: %v", err)
	}

	product, err := productRepo.GetByID(ref.ID)
	if err != nil {
		t.Fatalf("created product not found: %v", err)
	}
	if product.Name != "Vitamin C Serum" {
		t.Errorf("Name = %q", product.Name)
	}
	if product.Description != "Brightening serum" {
		t.Errorf("Description = %q", product.Description)
	}
	if product.MetaTitle != "Vitamin C Serum | Shop" {
		t.Errorf("MetaTitle = %q", product.MetaTitle)
	}
	// No SKU rule, so the UPC stands in
	if product.SKU != "012345678905" {
		t.Errorf("SKU = %q, expected the UPC fallback", product.SKU)
	}

	var stored models.GeneratedProductRecord
	if err := db.First(&stored, "id = ?", record.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !stored.IsApplied {
		t.Error("record not marked as applied")
	}
	if stored.TargetProductID == nil || *stored.TargetProductID != ref.ID {
		t.Error("record not linked to the created product")
	}
}

func TestCreateFromRecordPrefersMappedSKU(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, map[string]string{"sku": "sku"})
	record := seedRecord(t, db, "Widget", map[string]interface{}{
		"sku": "CUSTOM-1",
		"upc": "012345678905",
	})

	productRepo := repo.NewProductRepository(db)
	svc := NewProductService(db, productRepo)

	ref, err := svc.CreateFromRecord(context.Background(), record.ID, "simple", nil)
	if err != nil {
		t.Fatalf("CreateFromRecord returned error: %v", err)
	}
	if ref.SKU != "CUSTOM-1" {
		t.Errorf("SKU = %q, expected the mapped value", ref.SKU)
	}
}

func TestCreateFromRecordRandomSKUFallback(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, map[string]string{"description": "description"})
	record := seedRecord(t, db, "Widget", map[string]interface{}{
		"description": "body",
	})

	productRepo := repo.NewProductRepository(db)
	svc := NewProductService(db, productRepo)

	ref, err := svc.CreateFromRecord(context.Background(), record.ID, "simple", nil)
	if err != nil {
		t.Fatalf("CreateFromRecord returned error: %v", err)
	}
	if !strings.HasPrefix(ref.SKU, "ai-") {
		t.Errorf("SKU = %q, expected a generated fallback", ref.SKU)
	}
}

func TestMappingMissingBeforeAnyStoreCall(t *testing.T) {
	db := newTestDB(t)
	// No mapping profile seeded
	record := seedRecord(t, db, "Widget", map[string]interface{}{"description": "body"})

	store := &countingStore{inner: repo.NewProductRepository(db)}
	svc := NewProductService(db, store)

	if _, err := svc.CreateFromRecord(context.Background(), record.ID, "simple", nil); !errors.Is(err, apperr.ErrMappingMissing) {
		t.Errorf("create: expected ErrMappingMissing, got %v", err)
	}
	if _, err := svc.UpdateFromRecord(context.Background(), record.ID, uuid.New()); !errors.Is(err, apperr.ErrMappingMissing) {
		t.Errorf("update: expected ErrMappingMissing, got %v", err)
	}
	if store.calls != 0 {
		t.Errorf("store was called %d times before the mapping check", store.calls)
	}
}

func TestCreateFromRecordDuplicateSKU(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, map[string]string{"sku": "sku"})
	record := seedRecord(t, db, "Widget", map[string]interface{}{"sku": "TAKEN"})

	productRepo := repo.NewProductRepository(db)
	if err := productRepo.Create(&models.Product{Name: "Existing", SKU: "TAKEN"}); err != nil {
		t.Fatal(err)
	}

	svc := NewProductService(db, productRepo)
	if _, err := svc.CreateFromRecord(context.Background(), record.ID, "simple", nil); !errors.Is(err, apperr.ErrDuplicateSKU) {
		t.Errorf("expected ErrDuplicateSKU, got %v", err)
	}
}

func setUpdatedAt(t *testing.T, db *gorm.DB, model interface{}, ts time.Time) {
	t.Helper()
	if err := db.Model(model).UpdateColumn("updated_at", ts).Error; err != nil {
		t.Fatal(err)
	}
}

func TestUpdateFromRecordStalenessGuard(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, map[string]string{"description": "description"})
	record := seedRecord(t, db, "Widget", map[string]interface{}{"description": "generated copy"})

	productRepo := repo.NewProductRepository(db)
	product := &models.Product{Name: "Widget", SKU: "W-1", Description: "manual copy"}
	if err := productRepo.Create(product); err != nil {
		t.Fatal(err)
	}

	// Product edited after the content was generated: applying must refuse
	setUpdatedAt(t, db, record, time.Now().Add(-time.Hour))
	setUpdatedAt(t, db, product, time.Now())

	svc := NewProductService(db, productRepo)

	_, err := svc.UpdateFromRecord(context.Background(), record.ID, product.ID)
	var staleErr *apperr.StaleDataError
	if !errors.As(err, &staleErr) {
		t.Fatalf("expected StaleDataError, got %v", err)
	}

	fresh, _ := productRepo.GetByID(product.ID)
	if fresh.Description != "manual copy" {
		t.Errorf("stale apply overwrote the product: %q", fresh.Description)
	}

	// Newer record wins
	setUpdatedAt(t, db, record, time.Now().Add(time.Hour))

	ref, err := svc.UpdateFromRecord(context.Background(), record.ID, product.ID)
	if err != nil {
		t.Fatalf("UpdateFromRecord returned error: %v", err)
	}
	if ref.ID != product.ID {
		t.Errorf("ref.ID = %s, expected the existing product", ref.ID)
	}

	fresh, _ = productRepo.GetByID(product.ID)
	if fresh.Description != "generated copy" {
		t.Errorf("Description = %q, expected the applied value", fresh.Description)
	}
}

func TestUpdateFromRecordLeavesUnmappedFieldsAlone(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, map[string]string{"meta_title": "meta_title"})
	record := seedRecord(t, db, "Widget", map[string]interface{}{
		"meta_title":  "Widget | Shop",
		"description": "not mapped, must not apply",
	})

	productRepo := repo.NewProductRepository(db)
	product := &models.Product{Name: "Widget", SKU: "W-2", Description: "handwritten"}
	if err := productRepo.Create(product); err != nil {
		t.Fatal(err)
	}
	setUpdatedAt(t, db, product, time.Now().Add(-time.Hour))

	svc := NewProductService(db, productRepo)
	if _, err := svc.UpdateFromRecord(context.Background(), record.ID, product.ID); err != nil {
		t.Fatalf("UpdateFromRecord returned error: %v", err)
	}

	fresh, _ := productRepo.GetByID(product.ID)
	if fresh.MetaTitle != "Widget | Shop" {
		t.Errorf("MetaTitle = %q", fresh.MetaTitle)
	}
	if fresh.Description != "handwritten" {
		t.Errorf("Description = %q, unmapped field must stay untouched", fresh.Description)
	}
}

func TestApplyUnknownAttributesOverflow(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, map[string]string{
		"description": "description",
		"ingredients": "ingredient_list",
	})
	record := seedRecord(t, db, "Widget", map[string]interface{}{
		"description": "body",
		"ingredients": []interface{}{"Water", "Glycerin"},
	})

	productRepo := repo.NewProductRepository(db)
	svc := NewProductService(db, productRepo)

	ref, err := svc.CreateFromRecord(context.Background(), record.ID, "simple", nil)
	if err != nil {
		t.Fatalf("CreateFromRecord returned error: %v", err)
	}

	product, err := productRepo.GetByID(ref.ID)
	if err != nil {
		t.Fatal(err)
	}

	extras, err := product.ExtraAttributeMap()
	if err != nil {
		t.Fatal(err)
	}
	if extras["ingredient_list"] != "Water|Glycerin" {
		t.Errorf("ingredient_list = %q", extras["ingredient_list"])
	}
}
