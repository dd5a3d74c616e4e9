package genapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"catalogai/internal/config"
	"catalogai/pkg/apperr"

	"github.com/rs/zerolog/log"
)

// Client wraps the content generation service's REST API. Authentication
// prefers a short-lived access token over the long-lived API key; an access
// token older than its TTL surfaces apperr.ErrAuthExpired instead of being
// refreshed silently, because refresh requires a password round-trip that must
// stay an explicit user action. No request is retried internally.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokenTTL   time.Duration

	mu              sync.Mutex
	apiKey          string
	accessToken     string
	tokenAcquiredAt time.Time
}

// NewClient creates a client from explicit configuration
func NewClient(cfg config.GenAPIConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		tokenTTL:   tokenTTL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetAccessToken stores a freshly issued access token and its acquisition time
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
	c.tokenAcquiredAt = time.Now()
}

// bearerToken resolves the credential to send. Access token wins over API key
// when both exist; an expired access token is an error, not a fallback.
func (c *Client) bearerToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" {
		if time.Since(c.tokenAcquiredAt) > c.tokenTTL {
			return "", apperr.ErrAuthExpired
		}
		return c.accessToken, nil
	}
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	return "", apperr.ErrNoCredentials
}

// Login authenticates with the service and stores the returned access token
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login", body, false, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &apperr.ParseError{Op: "login", Err: fmt.Errorf("response missing access_token")}
	}
	c.SetAccessToken(out.AccessToken)
	log.Info().Msg("generation service login succeeded")
	return &out, nil
}

// RegenerateAPIKey requests a new long-lived API key and adopts it
func (c *Client) RegenerateAPIKey(ctx context.Context) (string, error) {
	var out RegenerateKeyResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/regenerate-api-key", map[string]string{}, true, &out); err != nil {
		return "", err
	}
	if out.APIKey == "" {
		return "", &apperr.ParseError{Op: "regenerate-api-key", Err: fmt.Errorf("response missing api_key")}
	}
	c.mu.Lock()
	c.apiKey = out.APIKey
	c.mu.Unlock()
	return out.APIKey, nil
}

// Me returns the authenticated user profile as reported by the service
func (c *Client) Me(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/v1/auth/me", true)
}

// UsageStats returns the account's usage counters
func (c *Client) UsageStats(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/v1/usage-stats", true)
}

// Health is an unauthenticated liveness probe, used only as a pre-flight
// diagnostic.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/health", nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateProduct requests content for a single product
func (c *Client) GenerateProduct(ctx context.Context, req GenerateRequest) (*GeneratedProduct, error) {
	var out GeneratedProduct
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/product-details", req, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitBatch uploads a validated input file as a new batch job
func (c *Client) SubmitBatch(ctx context.Context, filePath string) (*BatchSubmitResponse, error) {
	token, err := c.bearerToken()
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/batch-jobs", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, remoteError(resp)
	}

	var out BatchSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &apperr.ParseError{Op: "batch-jobs", Err: err}
	}
	return &out, nil
}

// JobStatus polls a batch job and normalizes the raw status value
func (c *Client) JobStatus(ctx context.Context, externalJobID string) (*JobStatus, error) {
	var raw struct {
		Status    string  `json:"status"`
		Progress  float64 `json:"progress"`
		Completed int     `json:"completed"`
		Total     int     `json:"total"`
		Error     string  `json:"error,omitempty"`
	}
	path := "/api/v1/job-status/" + externalJobID
	if err := c.doJSON(ctx, http.MethodGet, path, nil, true, &raw); err != nil {
		return nil, err
	}
	return &JobStatus{
		Status:    NormalizeStatus(raw.Status),
		RawStatus: raw.Status,
		Progress:  raw.Progress,
		Completed: raw.Completed,
		Total:     raw.Total,
		Error:     raw.Error,
	}, nil
}

// DownloadResults fetches a completed job's result body as opaque bytes
func (c *Client) DownloadResults(ctx context.Context, externalJobID string) ([]byte, error) {
	token, err := c.bearerToken()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/job-download/"+externalJobID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, remoteError(resp)
	}

	return io.ReadAll(resp.Body)
}

// BillingInfo proxies the read-only billing endpoints (plan, subscription,
// history).
func (c *Client) BillingInfo(ctx context.Context, section string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/v1/billing/"+section, true)
}

func (c *Client) getRaw(ctx context.Context, path string, authed bool) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, authed, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// doJSON issues a JSON request and decodes a JSON response. Non-2xx responses
// become RemoteError; malformed 2xx bodies become ParseError.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, authed bool, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token, err := c.bearerToken()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return remoteError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperr.ParseError{Op: path, Err: err}
	}
	return nil
}

// remoteError builds a RemoteError with a best-effort message extracted from
// the response body's message/error/errors field.
func remoteError(resp *http.Response) error {
	message := fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(body) > 0 {
		var payload struct {
			Message string          `json:"message"`
			Error   string          `json:"error"`
			Errors  json.RawMessage `json:"errors"`
		}
		if json.Unmarshal(body, &payload) == nil {
			switch {
			case payload.Message != "":
				message = payload.Message
			case payload.Error != "":
				message = payload.Error
			case len(payload.Errors) > 0:
				message = flattenErrors(payload.Errors)
			}
		}
	}

	return &apperr.RemoteError{StatusCode: resp.StatusCode, Message: message}
}

// flattenErrors stringifies an errors field that may be a list or a map
func flattenErrors(raw json.RawMessage) string {
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		out := list[0]
		for _, item := range list[1:] {
			out += "; " + item
		}
		return out
	}

	var keyed map[string][]string
	if json.Unmarshal(raw, &keyed) == nil && len(keyed) > 0 {
		out := ""
		for field, msgs := range keyed {
			for _, msg := range msgs {
				if out != "" {
					out += "; "
				}
				out += field + ": " + msg
			}
		}
		return out
	}

	return string(raw)
}
