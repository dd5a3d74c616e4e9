package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"path/filepath"
	"strings"

	"catalogai/internal/services"
	"catalogai/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
)

// templateColumns is the header offered to merchants preparing a source file
var templateColumns = []string{
	"name", "sku", "description", "short_description", "price",
	"special_price", "weight", "qty", "status", "upc",
}

var templateSampleRow = []string{
	"Vitamin C Serum", "VCS-001", "Brightening facial serum with 15% vitamin C",
	"Brightening facial serum", "29.99", "24.99", "0.2", "100", "enabled", "012345678905",
}

// UploadHandler handles source file upload and validation endpoints
type UploadHandler struct {
	jobService *services.JobService
	store      *services.ArtifactStore
	validator  *validation.FileValidator
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(jobService *services.JobService, store *services.ArtifactStore) *UploadHandler {
	return &UploadHandler{
		jobService: jobService,
		store:      store,
		validator:  validation.NewFileValidator(),
	}
}

// Upload godoc
// @Summary Upload a source file for batch generation
// @Description Validate a CSV or XLSX source file and, when valid, submit it for batch content generation
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 202 {object} services.UploadOutcome
// @Failure 400 {object} map[string]string
// @Failure 422 {object} services.UploadOutcome
// @Router /uploads [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	file, header, err := c.Request().FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file not found in request"})
	}
	defer file.Close()

	if !hasSupportedExtension(header.Filename) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "only CSV and XLSX files are accepted"})
	}

	outcome, err := h.jobService.SubmitUpload(c.Request().Context(), header.Filename, file)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	if outcome.Job == nil {
		return c.JSON(http.StatusUnprocessableEntity, outcome)
	}
	return c.JSON(http.StatusAccepted, outcome)
}

// Validate godoc
// @Summary Validate a source file without submitting it
// @Description Run structural and per-row validation on a CSV or XLSX file and return the findings
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} validation.ValidationResult
// @Failure 400 {object} map[string]string
// @Router /uploads/validate [post]
func (h *UploadHandler) Validate(c echo.Context) error {
	file, header, err := c.Request().FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file not found in request"})
	}
	defer file.Close()

	if !hasSupportedExtension(header.Filename) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "only CSV and XLSX files are accepted"})
	}

	result, err := h.validator.Validate(file, header.Filename)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, result)
}

// UploadCustomImport godoc
// @Summary Upload a custom import file
// @Description Store a user-edited CSV that overrides generated results for catalog import
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /uploads/custom-import [post]
func (h *UploadHandler) UploadCustomImport(c echo.Context) error {
	file, header, err := c.Request().FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file not found in request"})
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "only CSV files are accepted"})
	}

	path, err := h.store.SaveCustomImport(file)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"file_name": filepath.Base(path),
	})
}

// DownloadTemplate godoc
// @Summary Download a source file template
// @Description Download an empty source file template with the expected columns, as CSV or XLSX
// @Tags uploads
// @Produce octet-stream
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} map[string]string
// @Router /uploads/template [get]
func (h *UploadHandler) DownloadTemplate(c echo.Context) error {
	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = "csv"
	}

	switch format {
	case "csv":
		var buf bytes.Buffer
		writer := csv.NewWriter(&buf)
		writer.Write(templateColumns)
		writer.Write(templateSampleRow)
		writer.Flush()
		if err := writer.Error(); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="product_template.csv"`)
		return c.Blob(http.StatusOK, "text/csv", buf.Bytes())

	case "xlsx":
		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)
		for i, col := range templateColumns {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, col)
			cell, _ = excelize.CoordinatesToCellName(i+1, 2)
			f.SetCellValue(sheet, cell, templateSampleRow[i])
		}
		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="product_template.xlsx"`)
		return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())

	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "format must be csv or xlsx"})
	}
}

func hasSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".csv" || ext == ".xlsx"
}
