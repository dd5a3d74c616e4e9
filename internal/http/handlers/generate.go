package handlers

import (
	"errors"
	"net/http"

	"catalogai/internal/genapi"
	"catalogai/internal/services"
	"catalogai/pkg/apperr"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// GenerateHandler handles single product generation and record endpoints
type GenerateHandler struct {
	generationService *services.GenerationService
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(generationService *services.GenerationService) *GenerateHandler {
	return &GenerateHandler{generationService: generationService}
}

// Generate godoc
// @Summary Generate content for one product
// @Description Request generated content for a single product and store it as a standalone record
// @Tags generate
// @Accept json
// @Produce json
// @Param request body genapi.GenerateRequest true "Product to generate"
// @Success 200 {object} models.GeneratedProductRecord
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /generate [post]
func (h *GenerateHandler) Generate(c echo.Context) error {
	var req genapi.GenerateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	record, err := h.generationService.Generate(c.Request().Context(), req)
	if err != nil {
		return generationError(c, err)
	}

	return c.JSON(http.StatusOK, record)
}

// ListRecords godoc
// @Summary List generated records
// @Description List generated product records with pagination and an optional job filter
// @Tags records
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param job_id query string false "Filter by job ID"
// @Success 200 {object} models.PaginationResult[models.GeneratedProductRecord]
// @Router /records [get]
func (h *GenerateHandler) ListRecords(c echo.Context) error {
	page, limit := paginationParams(c)

	var jobID *uuid.UUID
	if raw := c.QueryParam("job_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid job_id"})
		}
		jobID = &parsed
	}

	records, total, err := h.generationService.ListRecords(c.Request().Context(), page, limit, jobID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, paginate(records, total, page, limit))
}

// GetRecord godoc
// @Summary Get a generated record
// @Tags records
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} models.GeneratedProductRecord
// @Failure 404 {object} map[string]string
// @Router /records/{id} [get]
func (h *GenerateHandler) GetRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid record id"})
	}

	record, err := h.generationService.GetRecord(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "record not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, record)
}

func generationError(c echo.Context, err error) error {
	var remoteErr *apperr.RemoteError
	switch {
	case errors.Is(err, apperr.ErrNoCredentials), errors.Is(err, apperr.ErrAuthExpired):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.As(err, &remoteErr):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": remoteErr.Message})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
