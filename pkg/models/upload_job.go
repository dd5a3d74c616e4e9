package models

import (
	"time"

	"github.com/google/uuid"
)

type UploadJobStatus string

const (
	UploadJobStatusPending    UploadJobStatus = "pending"
	UploadJobStatusProcessing UploadJobStatus = "processing"
	UploadJobStatusCompleted  UploadJobStatus = "completed"
	UploadJobStatusFailed     UploadJobStatus = "failed"
)

// IsTerminal reports whether the status admits no further poll transitions
func (s UploadJobStatus) IsTerminal() bool {
	return s == UploadJobStatusCompleted || s == UploadJobStatusFailed
}

// UploadJob represents one batch submitted to the content generation service.
// ExternalJobID is set at creation and never changes. Status only moves
// forward (pending -> processing -> completed/failed); the single exception is
// the manual failed -> pending reset after an import failure.
type UploadJob struct {
	BaseModel
	InputFileName    string          `gorm:"not null" json:"input_file_name"`
	InputFilePath    string          `gorm:"not null" json:"input_file_path"`
	ExternalJobID    string          `gorm:"not null;index" json:"external_job_id"`
	Status           UploadJobStatus `gorm:"not null;default:'pending'" json:"status"`
	ResponseFileName string          `json:"response_file_name,omitempty"`
	ResponseFilePath string          `json:"response_file_path,omitempty"`
	TotalCount       int             `gorm:"default:0" json:"total_count"`
	ImportedCount    int             `gorm:"default:0" json:"imported_count"`
	ErrorMessage     *string         `json:"error_message,omitempty"`
	ImportedAt       *time.Time      `json:"imported_at,omitempty"`
}

// PollResponse is the contract consumed by the UI poll loop. RefreshGrid is
// true exactly once, on the poll that first observes completion.
type PollResponse struct {
	Success     bool            `json:"success"`
	JobID       uuid.UUID       `json:"job_id"`
	Status      UploadJobStatus `json:"status"`
	Progress    float64         `json:"progress"`
	Completed   int             `json:"completed"`
	Total       int             `json:"total"`
	RefreshGrid bool            `json:"refresh_grid"`
	Error       string          `json:"error,omitempty"`
}
