package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"catalogai/internal/services"
	"catalogai/pkg/apperr"
	"catalogai/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// JobHandler handles upload job endpoints
type JobHandler struct {
	jobService *services.JobService
	store      *services.ArtifactStore
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobService *services.JobService, store *services.ArtifactStore) *JobHandler {
	return &JobHandler{jobService: jobService, store: store}
}

// List godoc
// @Summary List upload jobs
// @Description List upload jobs with pagination and an optional status filter
// @Tags jobs
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Success 200 {object} models.PaginationResult[models.UploadJob]
// @Router /jobs [get]
func (h *JobHandler) List(c echo.Context) error {
	page, limit := paginationParams(c)

	jobs, total, err := h.jobService.List(c.Request().Context(), page, limit, c.QueryParam("status"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, paginate(jobs, total, page, limit))
}

// Get godoc
// @Summary Get an upload job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.UploadJob
// @Failure 404 {object} map[string]string
// @Router /jobs/{id} [get]
func (h *JobHandler) Get(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid job id"})
	}

	job, err := h.jobService.Get(c.Request().Context(), jobID)
	if err != nil {
		return jobError(c, err)
	}

	return c.JSON(http.StatusOK, job)
}

// Poll godoc
// @Summary Poll an upload job
// @Description Check the remote generation status once and apply the resulting transition
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.PollResponse
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /jobs/{id}/poll [post]
func (h *JobHandler) Poll(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid job id"})
	}

	resp, err := h.jobService.Poll(c.Request().Context(), jobID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
		}
		if errors.Is(err, apperr.ErrNoCredentials) || errors.Is(err, apperr.ErrAuthExpired) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

// Retry godoc
// @Summary Retry a failed job
// @Description Move a failed job back to pending so it can be polled again
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.UploadJob
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /jobs/{id}/retry [post]
func (h *JobHandler) Retry(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid job id"})
	}

	job, err := h.jobService.ResetForRetry(c.Request().Context(), jobID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
		}
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, job)
}

// Delete godoc
// @Summary Delete an upload job
// @Description Remove a job together with its generated records and stored files
// @Tags jobs
// @Param id path string true "Job ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /jobs/{id} [delete]
func (h *JobHandler) Delete(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid job id"})
	}

	if err := h.jobService.Delete(c.Request().Context(), jobID); err != nil {
		return jobError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// DownloadResult godoc
// @Summary Download a job's result CSV
// @Tags jobs
// @Produce octet-stream
// @Param id path string true "Job ID"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Router /jobs/{id}/result [get]
func (h *JobHandler) DownloadResult(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid job id"})
	}

	job, err := h.jobService.Get(c.Request().Context(), jobID)
	if err != nil {
		return jobError(c, err)
	}

	if job.ResponseFileName == "" {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job has no result file"})
	}

	path, err := h.store.OutputPath(job.ResponseFileName)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "result file not found"})
	}

	return c.Attachment(path, job.ResponseFileName)
}

// DownloadErrorReport godoc
// @Summary Download a validation error report
// @Tags jobs
// @Produce octet-stream
// @Param name path string true "Report file name"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Router /jobs/error-reports/{name} [get]
func (h *JobHandler) DownloadErrorReport(c echo.Context) error {
	name := c.Param("name")

	path, err := h.store.ErrorReportPath(name)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "error report not found"})
	}

	return c.Attachment(path, name)
}

func jobError(c echo.Context, err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func paginate[T any](data []T, total int64, page, limit int) models.PaginationResult[T] {
	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}
	return models.PaginationResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PerPage:    limit,
		TotalPages: totalPages,
	}
}

func paginationParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
