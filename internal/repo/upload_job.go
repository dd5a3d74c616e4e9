package repo

import (
	"errors"

	"catalogai/pkg/apperr"
	"catalogai/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadJobRepository handles upload job data access
type UploadJobRepository struct {
	db *gorm.DB
}

// NewUploadJobRepository creates a new upload job repository
func NewUploadJobRepository(db *gorm.DB) *UploadJobRepository {
	return &UploadJobRepository{db: db}
}

// Create inserts a new job
func (r *UploadJobRepository) Create(job *models.UploadJob) error {
	return r.db.Create(job).Error
}

// GetByID gets a job by ID
func (r *UploadJobRepository) GetByID(id uuid.UUID) (*models.UploadJob, error) {
	var job models.UploadJob
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Update saves a job
func (r *UploadJobRepository) Update(job *models.UploadJob) error {
	return r.db.Save(job).Error
}

// UpdateFields applies a partial update to a job
func (r *UploadJobRepository) UpdateFields(id uuid.UUID, fields map[string]interface{}) error {
	return r.db.Model(&models.UploadJob{}).Where("id = ?", id).Updates(fields).Error
}

// Delete soft deletes a job
func (r *UploadJobRepository) Delete(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&models.UploadJob{}).Error
}

// List returns jobs ordered by creation time, newest first, with pagination
// and an optional status filter.
func (r *UploadJobRepository) List(page, limit int, status string) ([]models.UploadJob, int64, error) {
	var jobs []models.UploadJob
	var total int64

	query := r.db.Model(&models.UploadJob{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&jobs).Error; err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}
