package genapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"catalogai/internal/config"
	"catalogai/pkg/apperr"
	"catalogai/pkg/models"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw      string
		expected models.UploadJobStatus
	}{
		{"pending", models.UploadJobStatusPending},
		{"in_progress", models.UploadJobStatusProcessing},
		{"processing", models.UploadJobStatusProcessing},
		{"completed", models.UploadJobStatusCompleted},
		{"failed", models.UploadJobStatusFailed},
		{"error", models.UploadJobStatusFailed},
		{"queued", models.UploadJobStatusPending},
		{"", models.UploadJobStatusPending},
	}

	for _, test := range tests {
		got := NormalizeStatus(test.raw)
		if got != test.expected {
			t.Errorf("NormalizeStatus(%q) = %s, expected %s", test.raw, got, test.expected)
		}
	}
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.GenAPIConfig{
		BaseURL:  baseURL,
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
		TokenTTL: 30 * time.Minute,
	})
}

func TestJobStatusNormalizesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/job-status/job-42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"status":"in_progress","progress":40,"completed":4,"total":10}`))
	}))
	defer server.Close()

	status, err := newTestClient(server.URL).JobStatus(context.Background(), "job-42")
	if err != nil {
		t.Fatalf("JobStatus returned error: %v", err)
	}

	if status.Status != models.UploadJobStatusProcessing {
		t.Errorf("Status = %s, expected processing", status.Status)
	}
	if status.RawStatus != "in_progress" {
		t.Errorf("RawStatus = %q, expected in_progress", status.RawStatus)
	}
	if status.Completed != 4 || status.Total != 10 {
		t.Errorf("Completed/Total = %d/%d, expected 4/10", status.Completed, status.Total)
	}
}

func TestRemoteErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"message field", `{"message":"quota exceeded"}`, "quota exceeded"},
		{"error field", `{"error":"invalid file"}`, "invalid file"},
		{"errors list", `{"errors":["first","second"]}`, "first; second"},
		{"errors map", `{"errors":{"file":["too large"]}}`, "file: too large"},
		{"no body", ``, "HTTP 500 Internal Server Error"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(test.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).JobStatus(context.Background(), "job-1")

			var remoteErr *apperr.RemoteError
			if !errors.As(err, &remoteErr) {
				t.Fatalf("expected RemoteError, got %v", err)
			}
			if remoteErr.StatusCode != http.StatusInternalServerError {
				t.Errorf("StatusCode = %d, expected 500", remoteErr.StatusCode)
			}
			if remoteErr.Message != test.expected {
				t.Errorf("Message = %q, expected %q", remoteErr.Message, test.expected)
			}
		})
	}
}

func TestMalformedResponseIsParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).JobStatus(context.Background(), "job-1")

	var parseErr *apperr.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestNoCredentials(t *testing.T) {
	client := NewClient(config.GenAPIConfig{BaseURL: "http://localhost:1"})

	_, err := client.JobStatus(context.Background(), "job-1")
	if !errors.Is(err, apperr.ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
}

func TestAccessTokenExpiry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"pending"}`))
	}))
	defer server.Close()

	client := NewClient(config.GenAPIConfig{
		BaseURL:  server.URL,
		TokenTTL: 50 * time.Millisecond,
	})
	client.SetAccessToken("short-lived")

	if _, err := client.JobStatus(context.Background(), "job-1"); err != nil {
		t.Fatalf("fresh token should work, got %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	_, err := client.JobStatus(context.Background(), "job-1")
	if !errors.Is(err, apperr.ErrAuthExpired) {
		t.Errorf("expected ErrAuthExpired after TTL, got %v", err)
	}
}

func TestAccessTokenPreferredOverAPIKey(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"status":"pending"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.SetAccessToken("session-token")

	if _, err := client.JobStatus(context.Background(), "job-1"); err != nil {
		t.Fatalf("JobStatus returned error: %v", err)
	}
	if gotAuth != "Bearer session-token" {
		t.Errorf("Authorization = %q, expected the access token", gotAuth)
	}
}

func TestLoginStoresAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/login" {
			w.Write([]byte(`{"access_token":"fresh-token","expires_in":1800}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			t.Errorf("expected login token on follow-up call, got %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"status":"pending"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.Login(context.Background(), "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if resp.AccessToken != "fresh-token" {
		t.Errorf("AccessToken = %q, expected fresh-token", resp.AccessToken)
	}

	if _, err := client.JobStatus(context.Background(), "job-1"); err != nil {
		t.Fatalf("JobStatus after login returned error: %v", err)
	}
}

func TestSubmitBatchUploadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.csv")
	if err := os.WriteFile(path, []byte("name\nWidget\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse multipart form: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		file.Close()
		if header.Filename != "products.csv" {
			t.Errorf("Filename = %q, expected products.csv", header.Filename)
		}
		w.Write([]byte(`{"job_id":"remote-7","total_items":1,"status":"pending"}`))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).SubmitBatch(context.Background(), path)
	if err != nil {
		t.Fatalf("SubmitBatch returned error: %v", err)
	}
	if resp.JobID != "remote-7" || resp.TotalItems != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestParseDownload(t *testing.T) {
	raw := []byte(`{"products":[{"product_name":"Widget","keywords":["a","b"]}]}`)

	products, err := ParseDownload(raw)
	if err != nil {
		t.Fatalf("ParseDownload returned error: %v", err)
	}
	if len(products) != 1 || products[0].ProductName != "Widget" {
		t.Errorf("unexpected products %+v", products)
	}

	if _, err := ParseDownload([]byte(`<html>`)); err == nil {
		t.Error("expected error for non-JSON body")
	} else {
		var parseErr *apperr.ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("expected ParseError, got %v", err)
		}
	}
}
