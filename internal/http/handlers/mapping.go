package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"catalogai/internal/repo"
	"catalogai/pkg/apperr"
	"catalogai/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// MappingHandler handles field mapping profile endpoints
type MappingHandler struct {
	mappingRepo *repo.MappingProfileRepository
}

// NewMappingHandler creates a new mapping handler
func NewMappingHandler(mappingRepo *repo.MappingProfileRepository) *MappingHandler {
	return &MappingHandler{mappingRepo: mappingRepo}
}

type mappingProfileRequest struct {
	Name           string            `json:"name" validate:"required"`
	IsDefault      bool              `json:"is_default"`
	ProductType    string            `json:"product_type"`
	AttributeSetID *int              `json:"attribute_set_id"`
	Rules          map[string]string `json:"rules" validate:"required"`
}

// List godoc
// @Summary List mapping profiles
// @Tags mapping
// @Produce json
// @Success 200 {array} models.FieldMappingProfile
// @Router /mapping-profiles [get]
func (h *MappingHandler) List(c echo.Context) error {
	profiles, err := h.mappingRepo.List()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, profiles)
}

// Get godoc
// @Summary Get a mapping profile
// @Tags mapping
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} models.FieldMappingProfile
// @Failure 404 {object} map[string]string
// @Router /mapping-profiles/{id} [get]
func (h *MappingHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid profile id"})
	}

	profile, err := h.mappingRepo.GetByID(id)
	if err != nil {
		return mappingError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

// GetDefault godoc
// @Summary Get the default mapping profile
// @Description Resolve the default mapping profile for a product type and optional attribute set
// @Tags mapping
// @Produce json
// @Param product_type query string false "Product type" default(simple)
// @Param attribute_set_id query int false "Attribute set ID"
// @Success 200 {object} models.FieldMappingProfile
// @Failure 404 {object} map[string]string
// @Router /mapping-profiles/default [get]
func (h *MappingHandler) GetDefault(c echo.Context) error {
	productType := c.QueryParam("product_type")
	if productType == "" {
		productType = "simple"
	}

	var attributeSetID *int
	if raw := c.QueryParam("attribute_set_id"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid attribute_set_id"})
		}
		attributeSetID = &parsed
	}

	profile, err := h.mappingRepo.GetDefault(productType, attributeSetID)
	if err != nil {
		return mappingError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

// Create godoc
// @Summary Create a mapping profile
// @Tags mapping
// @Accept json
// @Produce json
// @Param request body mappingProfileRequest true "Profile data"
// @Success 201 {object} models.FieldMappingProfile
// @Failure 400 {object} map[string]string
// @Router /mapping-profiles [post]
func (h *MappingHandler) Create(c echo.Context) error {
	var req mappingProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	profile, err := profileFromRequest(&models.FieldMappingProfile{}, req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.mappingRepo.Save(profile); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, profile)
}

// Update godoc
// @Summary Update a mapping profile
// @Tags mapping
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param request body mappingProfileRequest true "Profile data"
// @Success 200 {object} models.FieldMappingProfile
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /mapping-profiles/{id} [put]
func (h *MappingHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid profile id"})
	}

	existing, err := h.mappingRepo.GetByID(id)
	if err != nil {
		return mappingError(c, err)
	}

	var req mappingProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	profile, err := profileFromRequest(existing, req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.mappingRepo.Save(profile); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, profile)
}

// Delete godoc
// @Summary Delete a mapping profile
// @Tags mapping
// @Param id path string true "Profile ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /mapping-profiles/{id} [delete]
func (h *MappingHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid profile id"})
	}

	if err := h.mappingRepo.Delete(id); err != nil {
		return mappingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func profileFromRequest(profile *models.FieldMappingProfile, req mappingProfileRequest) (*models.FieldMappingProfile, error) {
	profile.Name = req.Name
	profile.IsDefault = req.IsDefault
	profile.ProductType = req.ProductType
	if profile.ProductType == "" {
		profile.ProductType = "simple"
	}
	profile.AttributeSetID = req.AttributeSetID
	if err := profile.SetRuleMap(req.Rules); err != nil {
		return nil, err
	}
	return profile, nil
}

func mappingError(c echo.Context, err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "mapping profile not found"})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
