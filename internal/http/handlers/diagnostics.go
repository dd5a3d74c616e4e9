package handlers

import (
	"errors"
	"net/http"

	"catalogai/internal/genapi"
	"catalogai/pkg/apperr"

	"github.com/labstack/echo/v4"
)

// DiagnosticsHandler exposes the generation service's account and health
// surface for the admin UI.
type DiagnosticsHandler struct {
	client *genapi.Client
}

// NewDiagnosticsHandler creates a new diagnostics handler
func NewDiagnosticsHandler(client *genapi.Client) *DiagnosticsHandler {
	return &DiagnosticsHandler{client: client}
}

// Health godoc
// @Summary Check generation service health
// @Tags diagnostics
// @Produce json
// @Success 200 {object} genapi.HealthStatus
// @Failure 502 {object} map[string]string
// @Router /genapi/health [get]
func (h *DiagnosticsHandler) Health(c echo.Context) error {
	status, err := h.client.Health(c.Request().Context())
	if err != nil {
		return remoteProxyError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// Login godoc
// @Summary Login to the generation service
// @Description Exchange generation service credentials for an access token used by later calls
// @Tags diagnostics
// @Accept json
// @Produce json
// @Param request body object true "Email and password"
// @Success 200 {object} genapi.LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /genapi/login [post]
func (h *DiagnosticsHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	resp, err := h.client.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return remoteProxyError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// RegenerateKey godoc
// @Summary Regenerate the generation service API key
// @Tags diagnostics
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /genapi/regenerate-key [post]
func (h *DiagnosticsHandler) RegenerateKey(c echo.Context) error {
	key, err := h.client.RegenerateAPIKey(c.Request().Context())
	if err != nil {
		return remoteProxyError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"api_key": key})
}

// Me godoc
// @Summary Get the generation service account profile
// @Tags diagnostics
// @Produce json
// @Success 200 {object} object
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /genapi/me [get]
func (h *DiagnosticsHandler) Me(c echo.Context) error {
	raw, err := h.client.Me(c.Request().Context())
	if err != nil {
		return remoteProxyError(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

// UsageStats godoc
// @Summary Get generation service usage statistics
// @Tags diagnostics
// @Produce json
// @Success 200 {object} object
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /genapi/usage [get]
func (h *DiagnosticsHandler) UsageStats(c echo.Context) error {
	raw, err := h.client.UsageStats(c.Request().Context())
	if err != nil {
		return remoteProxyError(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

// Billing godoc
// @Summary Get generation service billing information
// @Tags diagnostics
// @Produce json
// @Param section path string true "Billing section"
// @Success 200 {object} object
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /genapi/billing/{section} [get]
func (h *DiagnosticsHandler) Billing(c echo.Context) error {
	raw, err := h.client.BillingInfo(c.Request().Context(), c.Param("section"))
	if err != nil {
		return remoteProxyError(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

func remoteProxyError(c echo.Context, err error) error {
	var remoteErr *apperr.RemoteError
	switch {
	case errors.Is(err, apperr.ErrNoCredentials), errors.Is(err, apperr.ErrAuthExpired):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.As(err, &remoteErr):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": remoteErr.Message})
	default:
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
}
