package genapi

import "catalogai/pkg/models"

// JobStatus is the normalized job-status poll result
type JobStatus struct {
	Status    models.UploadJobStatus `json:"status"`
	RawStatus string                 `json:"raw_status"`
	Progress  float64                `json:"progress"`
	Completed int                    `json:"completed"`
	Total     int                    `json:"total"`
	Error     string                 `json:"error,omitempty"`
}

// NormalizeStatus collapses the service's raw status values into the
// four-member job-status enumeration. Unrecognized values map to pending so a
// later poll can settle them.
func NormalizeStatus(raw string) models.UploadJobStatus {
	switch raw {
	case "pending":
		return models.UploadJobStatusPending
	case "in_progress", "processing":
		return models.UploadJobStatusProcessing
	case "completed":
		return models.UploadJobStatusCompleted
	case "failed", "error":
		return models.UploadJobStatusFailed
	default:
		return models.UploadJobStatusPending
	}
}
