package handlers

import (
	"errors"
	"net/http"

	"catalogai/internal/repo"
	"catalogai/internal/services"
	"catalogai/pkg/apperr"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ProductHandler handles catalog product endpoints
type ProductHandler struct {
	productService *services.ProductService
	productRepo    *repo.ProductRepository
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *services.ProductService, productRepo *repo.ProductRepository) *ProductHandler {
	return &ProductHandler{productService: productService, productRepo: productRepo}
}

// List godoc
// @Summary List catalog products
// @Tags products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} models.PaginationResult[models.Product]
// @Router /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	page, limit := paginationParams(c)

	products, total, err := h.productRepo.List(page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, paginate(products, total, page, limit))
}

// Get godoc
// @Summary Get a catalog product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid product id"})
	}

	product, err := h.productRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, product)
}

type applyCreateRequest struct {
	RecordID       string `json:"record_id" validate:"required,uuid"`
	ProductType    string `json:"product_type"`
	AttributeSetID *int   `json:"attribute_set_id"`
}

// ApplyCreate godoc
// @Summary Create a product from a generated record
// @Description Map a generated record through the default mapping profile and create a new catalog product from it
// @Tags products
// @Accept json
// @Produce json
// @Param request body applyCreateRequest true "Record to apply"
// @Success 201 {object} models.ProductRef
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /products/apply [post]
func (h *ProductHandler) ApplyCreate(c echo.Context) error {
	var req applyCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	recordID, err := uuid.Parse(req.RecordID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid record_id"})
	}

	ref, err := h.productService.CreateFromRecord(c.Request().Context(), recordID, req.ProductType, req.AttributeSetID)
	if err != nil {
		return applyError(c, err)
	}

	return c.JSON(http.StatusCreated, ref)
}

type applyUpdateRequest struct {
	RecordID string `json:"record_id" validate:"required,uuid"`
}

// ApplyUpdate godoc
// @Summary Update a product from a generated record
// @Description Map a generated record through the default mapping profile and apply it to an existing product
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body applyUpdateRequest true "Record to apply"
// @Success 200 {object} models.ProductRef
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /products/{id}/apply [post]
func (h *ProductHandler) ApplyUpdate(c echo.Context) error {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid product id"})
	}

	var req applyUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	recordID, err := uuid.Parse(req.RecordID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid record_id"})
	}

	ref, err := h.productService.UpdateFromRecord(c.Request().Context(), recordID, productID)
	if err != nil {
		return applyError(c, err)
	}

	return c.JSON(http.StatusOK, ref)
}

func applyError(c echo.Context, err error) error {
	var staleErr *apperr.StaleDataError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, apperr.ErrMappingMissing):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, apperr.ErrDuplicateSKU):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &staleErr):
		return c.JSON(http.StatusConflict, map[string]string{"error": staleErr.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
