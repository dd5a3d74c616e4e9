package repo

import (
	"errors"

	"catalogai/pkg/apperr"
	"catalogai/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MappingProfileRepository handles field mapping profile data access
type MappingProfileRepository struct {
	db *gorm.DB
}

// NewMappingProfileRepository creates a new mapping profile repository
func NewMappingProfileRepository(db *gorm.DB) *MappingProfileRepository {
	return &MappingProfileRepository{db: db}
}

// Save creates or updates a profile. When the profile is marked default, any
// prior default for the same (product_type, attribute_set_id) pair is unset in
// the same transaction, keeping at most one default per pair.
func (r *MappingProfileRepository) Save(profile *models.FieldMappingProfile) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if profile.IsDefault {
			query := tx.Model(&models.FieldMappingProfile{}).
				Where("product_type = ? AND is_default = ?", profile.ProductType, true)
			if profile.AttributeSetID != nil {
				query = query.Where("attribute_set_id = ?", *profile.AttributeSetID)
			} else {
				query = query.Where("attribute_set_id IS NULL")
			}
			if profile.ID != uuid.Nil {
				query = query.Where("id <> ?", profile.ID)
			}
			if err := query.Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(profile).Error
	})
}

// GetByID gets a profile by ID
func (r *MappingProfileRepository) GetByID(id uuid.UUID) (*models.FieldMappingProfile, error) {
	var profile models.FieldMappingProfile
	if err := r.db.Where("id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// GetDefault finds the default profile for a product type and attribute set.
// When no exact attribute-set match exists, the type-wide default (null
// attribute set) is used.
func (r *MappingProfileRepository) GetDefault(productType string, attributeSetID *int) (*models.FieldMappingProfile, error) {
	var profile models.FieldMappingProfile

	if attributeSetID != nil {
		err := r.db.Where("product_type = ? AND attribute_set_id = ? AND is_default = ?",
			productType, *attributeSetID, true).First(&profile).Error
		if err == nil {
			return &profile, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	err := r.db.Where("product_type = ? AND attribute_set_id IS NULL AND is_default = ?",
		productType, true).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// List returns all profiles ordered by name
func (r *MappingProfileRepository) List() ([]models.FieldMappingProfile, error) {
	var profiles []models.FieldMappingProfile
	if err := r.db.Order("name ASC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// Delete soft deletes a profile
func (r *MappingProfileRepository) Delete(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&models.FieldMappingProfile{}).Error
}
