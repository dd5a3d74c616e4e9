package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"catalogai/internal/genapi"
	"catalogai/internal/repo"
	"catalogai/internal/transform"
	"catalogai/internal/validation"
	"catalogai/pkg/apperr"
	"catalogai/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// generationClient is the slice of the API client the job service needs
type generationClient interface {
	SubmitBatch(ctx context.Context, filePath string) (*genapi.BatchSubmitResponse, error)
	JobStatus(ctx context.Context, externalJobID string) (*genapi.JobStatus, error)
	DownloadResults(ctx context.Context, externalJobID string) ([]byte, error)
}

// UploadOutcome is the result of an upload attempt. Job is nil when
// validation rejected the file; ErrorReportName then points at the
// downloadable report.
type UploadOutcome struct {
	Job             *models.UploadJob            `json:"job,omitempty"`
	Validation      *validation.ValidationResult `json:"validation"`
	ErrorReportName string                       `json:"error_report_name,omitempty"`
}

// JobService owns the upload job lifecycle: validate, submit, poll, transform
// results, retry, delete. Each job is mutated only by its poll handler, so no
// locking is needed.
type JobService struct {
	jobs      *repo.UploadJobRepository
	records   *repo.GeneratedRecordRepository
	client    generationClient
	store     *ArtifactStore
	validator *validation.FileValidator
}

// NewJobService creates a new job service
func NewJobService(db *gorm.DB, client generationClient, store *ArtifactStore) *JobService {
	return &JobService{
		jobs:      repo.NewUploadJobRepository(db),
		records:   repo.NewGeneratedRecordRepository(db),
		client:    client,
		store:     store,
		validator: validation.NewFileValidator(),
	}
}

// SubmitUpload saves the uploaded file, validates it, and on success submits
// it to the generation service and registers a pending job. Invalid files
// produce a downloadable error report and no job.
func (s *JobService) SubmitUpload(ctx context.Context, filename string, reader io.Reader) (*UploadOutcome, error) {
	inputPath, err := s.store.SaveInput(filename, reader)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen input file: %w", err)
	}
	result, err := s.validator.Validate(file, filename)
	file.Close()
	if err != nil {
		return nil, err
	}

	if !result.IsValid {
		reportName, _, reportErr := s.store.WriteErrorReport(filename, result.ErrorReportRows())
		if reportErr != nil {
			log.Warn().Err(reportErr).Str("file", filename).Msg("Failed to write validation error report")
		}
		return &UploadOutcome{Validation: result, ErrorReportName: reportName}, nil
	}

	submitted, err := s.client.SubmitBatch(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	job := &models.UploadJob{
		InputFileName: filename,
		InputFilePath: inputPath,
		ExternalJobID: submitted.JobID,
		Status:        models.UploadJobStatusPending,
		TotalCount:    submitted.TotalItems,
	}
	if job.TotalCount == 0 {
		job.TotalCount = result.ProcessedRows
	}

	if err := s.jobs.Create(job); err != nil {
		return nil, fmt.Errorf("failed to create upload job: %w", err)
	}

	log.Info().Str("job_id", job.ID.String()).Str("external_job_id", job.ExternalJobID).
		Int("total", job.TotalCount).Msg("Batch job submitted")

	return &UploadOutcome{Job: job, Validation: result}, nil
}

// Poll performs one status check against the generation service and applies
// the resulting transition. Polls on a terminal job re-report the stored
// status without contacting the service. RefreshGrid is true only on the poll
// that first observes completion.
func (s *JobService) Poll(ctx context.Context, jobID uuid.UUID) (*models.PollResponse, error) {
	job, err := s.jobs.GetByID(jobID)
	if err != nil {
		return nil, err
	}

	if job.Status.IsTerminal() {
		return s.terminalResponse(job), nil
	}

	remote, err := s.client.JobStatus(ctx, job.ExternalJobID)
	if err != nil {
		var remoteErr *apperr.RemoteError
		var parseErr *apperr.ParseError
		if errors.As(err, &remoteErr) || errors.As(err, &parseErr) {
			// Service-side and malformed-response failures are job failures,
			// not poll failures.
			s.markFailed(job, err.Error())
			return s.terminalResponse(job), nil
		}
		// Auth and transport problems are the caller's to resolve; the job
		// stays pollable.
		return nil, err
	}

	switch remote.Status {
	case models.UploadJobStatusPending:
		// Not picked up remotely yet

	case models.UploadJobStatusProcessing:
		if job.Status == models.UploadJobStatusPending {
			job.Status = models.UploadJobStatusProcessing
			if err := s.jobs.Update(job); err != nil {
				return nil, err
			}
		}

	case models.UploadJobStatusFailed:
		message := remote.Error
		if message == "" {
			message = "generation failed"
		}
		s.markFailed(job, message)
		return s.terminalResponse(job), nil

	case models.UploadJobStatusCompleted:
		if err := s.completeJob(ctx, job, remote); err != nil {
			s.markFailed(job, err.Error())
			return s.terminalResponse(job), nil
		}
		resp := s.terminalResponse(job)
		resp.RefreshGrid = true
		return resp, nil
	}

	return &models.PollResponse{
		Success:   true,
		JobID:     job.ID,
		Status:    job.Status,
		Progress:  remote.Progress,
		Completed: remote.Completed,
		Total:     remote.Total,
	}, nil
}

// completeJob downloads and transforms the results, persists the per-product
// records, and moves the job to completed. The result CSV is staged through a
// transient Import/ copy while the records import runs; the Output/ artifact
// is published only once the import succeeded, and the staged copy is removed
// either way.
func (s *JobService) completeJob(ctx context.Context, job *models.UploadJob, remote *genapi.JobStatus) error {
	raw, err := s.client.DownloadResults(ctx, job.ExternalJobID)
	if err != nil {
		return err
	}

	products, err := genapi.ParseDownload(raw)
	if err != nil {
		return err
	}

	csvBytes, err := transform.ToTabular(products)
	if err != nil {
		return err
	}

	scratchPath := s.store.ImportScratchPath()
	if err := os.WriteFile(scratchPath, csvBytes, 0o644); err != nil {
		return fmt.Errorf("failed to stage import file: %w", err)
	}
	defer func() {
		for _, removeErr := range s.store.Remove(scratchPath) {
			log.Warn().Err(removeErr).Str("job_id", job.ID.String()).Msg("Failed to remove import staging file")
		}
	}()

	records, err := transform.ToRecords(products, &job.ID)
	if err != nil {
		return err
	}
	for i := range records {
		if err := s.records.UpsertBatchRecord(&records[i]); err != nil {
			return fmt.Errorf("failed to persist generated record %d: %w", i, err)
		}
	}

	name, path, err := s.store.WriteOutputCSV(job.InputFileName, csvBytes)
	if err != nil {
		return err
	}

	job.Status = models.UploadJobStatusCompleted
	job.ResponseFileName = name
	job.ResponseFilePath = path
	job.ImportedCount = len(records)
	if remote.Total > 0 {
		job.TotalCount = remote.Total
	}
	job.ImportedAt = models.TimePtr(nowFunc())
	if err := s.jobs.Update(job); err != nil {
		return err
	}

	log.Info().Str("job_id", job.ID.String()).Int("products", len(records)).
		Str("response_file", name).Msg("Batch job completed")
	return nil
}

func (s *JobService) markFailed(job *models.UploadJob, message string) {
	job.Status = models.UploadJobStatusFailed
	job.ErrorMessage = &message
	if err := s.jobs.Update(job); err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Msg("Failed to record job failure")
	}
	log.Warn().Str("job_id", job.ID.String()).Str("error", message).Msg("Batch job failed")
}

func (s *JobService) terminalResponse(job *models.UploadJob) *models.PollResponse {
	resp := &models.PollResponse{
		Success:   true,
		JobID:     job.ID,
		Status:    job.Status,
		Completed: job.ImportedCount,
		Total:     job.TotalCount,
	}
	if job.Status == models.UploadJobStatusCompleted {
		resp.Progress = 100
		resp.Completed = job.ImportedCount
	}
	if job.ErrorMessage != nil {
		resp.Error = *job.ErrorMessage
	}
	return resp
}

// ResetForRetry moves a failed job back to pending so the import can be
// retried. This is the only backward transition the state machine allows.
func (s *JobService) ResetForRetry(ctx context.Context, jobID uuid.UUID) (*models.UploadJob, error) {
	job, err := s.jobs.GetByID(jobID)
	if err != nil {
		return nil, err
	}

	if job.Status != models.UploadJobStatusFailed {
		return nil, fmt.Errorf("only failed jobs can be reset, job is %s", job.Status)
	}

	job.Status = models.UploadJobStatusPending
	job.ErrorMessage = nil
	if err := s.jobs.Update(job); err != nil {
		return nil, err
	}

	log.Info().Str("job_id", job.ID.String()).Msg("Job reset to pending for retry")
	return job, nil
}

// Get returns one job
func (s *JobService) Get(ctx context.Context, jobID uuid.UUID) (*models.UploadJob, error) {
	return s.jobs.GetByID(jobID)
}

// List returns jobs with pagination and an optional status filter
func (s *JobService) List(ctx context.Context, page, limit int, status string) ([]models.UploadJob, int64, error) {
	return s.jobs.List(page, limit, status)
}

// Delete removes a job, its generated records, and its files. File deletion
// errors are collected and logged, never fatal.
func (s *JobService) Delete(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobs.GetByID(jobID)
	if err != nil {
		return err
	}

	for _, removeErr := range s.store.Remove(job.InputFilePath, job.ResponseFilePath) {
		log.Warn().Err(removeErr).Str("job_id", job.ID.String()).Msg("Failed to delete job file")
	}

	if err := s.records.DeleteByJob(job.ID); err != nil {
		return err
	}
	return s.jobs.Delete(job.ID)
}
