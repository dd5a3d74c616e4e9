package repo

import (
	"errors"

	"catalogai/pkg/apperr"
	"catalogai/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GeneratedRecordRepository handles generated product record data access
type GeneratedRecordRepository struct {
	db *gorm.DB
}

// NewGeneratedRecordRepository creates a new record repository
func NewGeneratedRecordRepository(db *gorm.DB) *GeneratedRecordRepository {
	return &GeneratedRecordRepository{db: db}
}

// Create inserts a new record
func (r *GeneratedRecordRepository) Create(record *models.GeneratedProductRecord) error {
	return r.db.Create(record).Error
}

// GetByID gets a record by ID
func (r *GeneratedRecordRepository) GetByID(id uuid.UUID) (*models.GeneratedProductRecord, error) {
	var record models.GeneratedProductRecord
	if err := r.db.Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// UpsertBatchRecord creates or replaces a record keyed by its batch position.
// Re-transforming a job's results overwrites the prior row for that position
// instead of colliding on duplicate product names.
func (r *GeneratedRecordRepository) UpsertBatchRecord(record *models.GeneratedProductRecord) error {
	if record.JobID == nil || record.SourceBatchIndex == nil {
		return r.db.Create(record).Error
	}

	var existing models.GeneratedProductRecord
	err := r.db.Where("job_id = ? AND source_batch_index = ?", *record.JobID, *record.SourceBatchIndex).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(record).Error
	}
	if err != nil {
		return err
	}

	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	return r.db.Save(record).Error
}

// UpsertStandaloneRecord creates or replaces a single-shot generation record
// keyed by (name, generation_type); last write wins.
func (r *GeneratedRecordRepository) UpsertStandaloneRecord(record *models.GeneratedProductRecord) error {
	var existing models.GeneratedProductRecord
	err := r.db.Where("name = ? AND generation_type = ? AND job_id IS NULL",
		record.Name, models.GenerationTypeSingle).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(record).Error
	}
	if err != nil {
		return err
	}

	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	return r.db.Save(record).Error
}

// MarkApplied links a record to the product it was applied to
func (r *GeneratedRecordRepository) MarkApplied(id, productID uuid.UUID) error {
	return r.db.Model(&models.GeneratedProductRecord{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_applied":        true,
			"target_product_id": productID,
		}).Error
}

// List returns records newest first, optionally filtered by job
func (r *GeneratedRecordRepository) List(page, limit int, jobID *uuid.UUID) ([]models.GeneratedProductRecord, int64, error) {
	var records []models.GeneratedProductRecord
	var total int64

	query := r.db.Model(&models.GeneratedProductRecord{})
	if jobID != nil {
		query = query.Where("job_id = ?", *jobID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// DeleteByJob removes all records belonging to a job
func (r *GeneratedRecordRepository) DeleteByJob(jobID uuid.UUID) error {
	return r.db.Where("job_id = ?", jobID).Delete(&models.GeneratedProductRecord{}).Error
}
