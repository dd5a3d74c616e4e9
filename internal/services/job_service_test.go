package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catalogai/internal/config"
	"catalogai/internal/genapi"
	"catalogai/pkg/apperr"
	"catalogai/pkg/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(models.GetAllModels()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) *ArtifactStore {
	t.Helper()
	store, err := NewArtifactStore(t.TempDir(), config.S3Config{})
	if err != nil {
		t.Fatalf("failed to create artifact store: %v", err)
	}
	return store
}

type fakeGenClient struct {
	submitResp  *genapi.BatchSubmitResponse
	submitErr   error
	submitCalls int

	statusResp  *genapi.JobStatus
	statusErr   error
	statusCalls int

	download    []byte
	downloadErr error
}

func (f *fakeGenClient) SubmitBatch(ctx context.Context, filePath string) (*genapi.BatchSubmitResponse, error) {
	f.submitCalls++
	return f.submitResp, f.submitErr
}

func (f *fakeGenClient) JobStatus(ctx context.Context, externalJobID string) (*genapi.JobStatus, error) {
	f.statusCalls++
	return f.statusResp, f.statusErr
}

func (f *fakeGenClient) DownloadResults(ctx context.Context, externalJobID string) ([]byte, error) {
	return f.download, f.downloadErr
}

func seedJob(t *testing.T, db *gorm.DB, status models.UploadJobStatus) *models.UploadJob {
	t.Helper()
	job := &models.UploadJob{
		InputFileName: "products.csv",
		InputFilePath: "",
		ExternalJobID: "remote-1",
		Status:        status,
		TotalCount:    2,
	}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("failed to seed job: %v", err)
	}
	return job
}

func reloadJob(t *testing.T, db *gorm.DB, job *models.UploadJob) *models.UploadJob {
	t.Helper()
	var fresh models.UploadJob
	if err := db.First(&fresh, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("failed to reload job: %v", err)
	}
	return &fresh
}

func TestSubmitUploadValidFile(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeGenClient{
		submitResp: &genapi.BatchSubmitResponse{JobID: "remote-9", Status: "pending"},
	}
	svc := NewJobService(db, fake, newTestStore(t))

	outcome, err := svc.SubmitUpload(context.Background(), "products.csv",
		strings.NewReader("name,price\nWidget,10.50\nGadget,7\n"))
	if err != nil {
		t.Fatalf("SubmitUpload returned error: %v", err)
	}

	if outcome.Job == nil {
		t.Fatalf("expected a job, validation: %+v", outcome.Validation)
	}
	if outcome.Job.Status != models.UploadJobStatusPending {
		t.Errorf("Status = %s, expected pending", outcome.Job.Status)
	}
	if outcome.Job.ExternalJobID != "remote-9" {
		t.Errorf("ExternalJobID = %q", outcome.Job.ExternalJobID)
	}
	// Service did not report a count, so the validated row count stands in
	if outcome.Job.TotalCount != 2 {
		t.Errorf("TotalCount = %d, expected 2", outcome.Job.TotalCount)
	}
	if _, err := os.Stat(outcome.Job.InputFilePath); err != nil {
		t.Errorf("input file not stored: %v", err)
	}
}

func TestSubmitUploadInvalidFileProducesReport(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeGenClient{}
	store := newTestStore(t)
	svc := NewJobService(db, fake, store)

	outcome, err := svc.SubmitUpload(context.Background(), "products.csv",
		strings.NewReader("name,price\n,abc\n"))
	if err != nil {
		t.Fatalf("SubmitUpload returned error: %v", err)
	}

	if outcome.Job != nil {
		t.Fatal("invalid file must not create a job")
	}
	if fake.submitCalls != 0 {
		t.Error("invalid file must not reach the generation service")
	}
	if outcome.ErrorReportName == "" {
		t.Fatal("expected an error report name")
	}
	if _, err := store.ErrorReportPath(outcome.ErrorReportName); err != nil {
		t.Errorf("error report not stored: %v", err)
	}

	var count int64
	db.Model(&models.UploadJob{}).Count(&count)
	if count != 0 {
		t.Errorf("found %d jobs, expected none", count)
	}
}

func TestPollPendingToProcessing(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeGenClient{
		statusResp: &genapi.JobStatus{Status: models.UploadJobStatusProcessing, Progress: 40, Completed: 1, Total: 2},
	}
	svc := NewJobService(db, fake, newTestStore(t))
	job := seedJob(t, db, models.UploadJobStatusPending)

	resp, err := svc.Poll(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}

	if resp.Status != models.UploadJobStatusProcessing {
		t.Errorf("Status = %s, expected processing", resp.Status)
	}
	if resp.RefreshGrid {
		t.Error("RefreshGrid must be false before completion")
	}
	if got := reloadJob(t, db, job); got.Status != models.UploadJobStatusProcessing {
		t.Errorf("stored status = %s, expected processing", got.Status)
	}
}

func TestPollCompletionTransformsResults(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeGenClient{
		statusResp: &genapi.JobStatus{Status: models.UploadJobStatusCompleted, Progress: 100, Completed: 2, Total: 2},
		download:   []byte(`{"products":[{"product_name":"Widget"},{"product_name":"Widget"}]}`),
	}
	store := newTestStore(t)
	svc := NewJobService(db, fake, store)
	job := seedJob(t, db, models.UploadJobStatusProcessing)

	resp, err := svc.Poll(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}

	if !resp.RefreshGrid {
		t.Error("first completed poll must set RefreshGrid")
	}
	if resp.Status != models.UploadJobStatusCompleted {
		t.Errorf("Status = %s, expected completed", resp.Status)
	}

	stored := reloadJob(t, db, job)
	if stored.Status != models.UploadJobStatusCompleted {
		t.Errorf("stored status = %s, expected completed", stored.Status)
	}
	if stored.ImportedCount != 2 {
		t.Errorf("ImportedCount = %d, expected 2", stored.ImportedCount)
	}
	if stored.ImportedAt == nil {
		t.Error("ImportedAt not set")
	}
	if stored.ResponseFileName == "" {
		t.Fatal("ResponseFileName not set")
	}
	if _, err := store.OutputPath(stored.ResponseFileName); err != nil {
		t.Errorf("result CSV not stored: %v", err)
	}

	// Two records despite identical product names, keyed by batch position
	var count int64
	db.Model(&models.GeneratedProductRecord{}).Where("job_id = ?", job.ID).Count(&count)
	if count != 2 {
		t.Errorf("found %d records, expected 2", count)
	}

	// The staged import copy is gone once the job completes
	scratchDir := filepath.Dir(store.ImportScratchPath())
	entries, err := os.ReadDir(scratchDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("found %d staging files after import", len(entries))
	}

	// A second poll re-reports the terminal state without contacting the service
	callsBefore := fake.statusCalls
	again, err := svc.Poll(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("second Poll returned error: %v", err)
	}
	if again.RefreshGrid {
		t.Error("RefreshGrid must be false after the first completed poll")
	}
	if again.Status != models.UploadJobStatusCompleted {
		t.Errorf("second poll status = %s", again.Status)
	}
	if fake.statusCalls != callsBefore {
		t.Error("terminal poll must not contact the generation service")
	}
}

func TestPollImportFailureLeavesNoOutputArtifact(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeGenClient{
		statusResp: &genapi.JobStatus{Status: models.UploadJobStatusCompleted, Total: 1},
		download:   []byte(`{"products":[{"product_name":"Widget"}]}`),
	}
	store := newTestStore(t)
	svc := NewJobService(db, fake, store)
	job := seedJob(t, db, models.UploadJobStatusProcessing)

	// Force the records import to fail mid-completion
	if err := db.Migrator().DropTable(&models.GeneratedProductRecord{}); err != nil {
		t.Fatal(err)
	}

	resp, err := svc.Poll(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if resp.Status != models.UploadJobStatusFailed {
		t.Errorf("Status = %s, expected failed", resp.Status)
	}

	stored := reloadJob(t, db, job)
	if stored.ResponseFileName != "" {
		t.Errorf("ResponseFileName = %q, no output artifact may exist for a failed import", stored.ResponseFileName)
	}

	entries, err := os.ReadDir(filepath.Dir(store.ImportScratchPath()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("found %d staging files after failed import", len(entries))
	}
}

func TestPollRemoteFailureFailsJob(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeGenClient{
		statusErr: &apperr.RemoteError{StatusCode: 500, Message: "generation crashed"},
	}
	svc := NewJobService(db, fake, newTestStore(t))
	job := seedJob(t, db, models.UploadJobStatusProcessing)

	resp, err := svc.Poll(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("remote failure should resolve into a failed job, got error %v", err)
	}

	if resp.Status != models.UploadJobStatusFailed {
		t.Errorf("Status = %s, expected failed", resp.Status)
	}
	if resp.Error == "" {
		t.Error("expected an error message in the response")
	}

	stored := reloadJob(t, db, job)
	if stored.Status != models.UploadJobStatusFailed {
		t.Errorf("stored status = %s, expected failed", stored.Status)
	}
	if stored.ErrorMessage == nil {
		t.Error("ErrorMessage not recorded")
	}
}

func TestPollTransientErrorsLeaveJobUntouched(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"transport failure", errors.New("connection refused")},
		{"expired token", apperr.ErrAuthExpired},
		{"missing credentials", apperr.ErrNoCredentials},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			db := newTestDB(t)
			fake := &fakeGenClient{statusErr: test.err}
			svc := NewJobService(db, fake, newTestStore(t))
			job := seedJob(t, db, models.UploadJobStatusProcessing)

			if _, err := svc.Poll(context.Background(), job.ID); err == nil {
				t.Fatal("expected the poll to fail")
			}

			if got := reloadJob(t, db, job); got.Status != models.UploadJobStatusProcessing {
				t.Errorf("stored status = %s, job must stay pollable", got.Status)
			}
		})
	}
}

func TestPollRemoteFailedStatus(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeGenClient{
		statusResp: &genapi.JobStatus{Status: models.UploadJobStatusFailed, Error: "invalid input rows"},
	}
	svc := NewJobService(db, fake, newTestStore(t))
	job := seedJob(t, db, models.UploadJobStatusProcessing)

	resp, err := svc.Poll(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}

	if resp.Status != models.UploadJobStatusFailed {
		t.Errorf("Status = %s, expected failed", resp.Status)
	}
	if resp.Error != "invalid input rows" {
		t.Errorf("Error = %q", resp.Error)
	}
}

func TestResetForRetry(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db, &fakeGenClient{}, newTestStore(t))

	failed := seedJob(t, db, models.UploadJobStatusFailed)
	message := "old failure"
	db.Model(failed).Update("error_message", &message)

	job, err := svc.ResetForRetry(context.Background(), failed.ID)
	if err != nil {
		t.Fatalf("ResetForRetry returned error: %v", err)
	}
	if job.Status != models.UploadJobStatusPending {
		t.Errorf("Status = %s, expected pending", job.Status)
	}
	if job.ErrorMessage != nil {
		t.Error("ErrorMessage should be cleared")
	}

	// Only failed jobs can be reset
	completed := seedJob(t, db, models.UploadJobStatusCompleted)
	if _, err := svc.ResetForRetry(context.Background(), completed.ID); err == nil {
		t.Error("expected reset of a completed job to fail")
	}
}

func TestDeleteRemovesRecordsAndFiles(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeGenClient{
		submitResp: &genapi.BatchSubmitResponse{JobID: "remote-3"},
		statusResp: &genapi.JobStatus{Status: models.UploadJobStatusCompleted, Total: 1},
		download:   []byte(`{"products":[{"product_name":"Widget"}]}`),
	}
	store := newTestStore(t)
	svc := NewJobService(db, fake, store)

	outcome, err := svc.SubmitUpload(context.Background(), "products.csv",
		strings.NewReader("name\nWidget\n"))
	if err != nil || outcome.Job == nil {
		t.Fatalf("SubmitUpload failed: %v %+v", err, outcome)
	}
	if _, err := svc.Poll(context.Background(), outcome.Job.ID); err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}

	job := reloadJob(t, db, outcome.Job)
	if err := svc.Delete(context.Background(), job.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, err := os.Stat(job.InputFilePath); !os.IsNotExist(err) {
		t.Error("input file should be removed")
	}
	if _, err := os.Stat(job.ResponseFilePath); !os.IsNotExist(err) {
		t.Error("response file should be removed")
	}

	var count int64
	db.Model(&models.GeneratedProductRecord{}).Where("job_id = ?", job.ID).Count(&count)
	if count != 0 {
		t.Errorf("found %d records after delete", count)
	}

	if _, err := svc.Get(context.Background(), job.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
