// Package api provides the REST client for the compliance backend, plus the
// error taxonomy every workflow stage funnels its failures through.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vithaluntold/rai-compliance-client/internal/core/domain"
	"github.com/vithaluntold/rai-compliance-client/internal/metrics"
)

// Client is the backend surface the workflow manager consumes.
type Client interface {
	Upload(ctx context.Context, path string) (*UploadResponse, error)
	GetDocument(ctx context.Context, documentID string) (*domain.Document, error)
	GetFrameworks(ctx context.Context) ([]domain.Framework, error)
	SelectFramework(ctx context.Context, documentID string, sel FrameworkSelection) error
	StartAnalysis(ctx context.Context, documentID string) error
	GetProgress(ctx context.Context, documentID string) (*domain.Progress, error)
	GetResults(ctx context.Context, documentID string) (*domain.AnalysisResults, error)
	Probe(ctx context.Context) error
}

// UploadResponse is the backend's answer to a document upload.
type UploadResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
}

// FrameworkSelection names the framework and standards to analyze against.
type FrameworkSelection struct {
	Framework string   `json:"framework"`
	Standards []string `json:"standards,omitempty"`
}

// HTTPClient implements Client over net/http.
type HTTPClient struct {
	baseURL    string
	probePath  string
	httpClient *http.Client
}

// NewHTTPClient creates a backend client with a tuned transport.
func NewHTTPClient(baseURL, probePath string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		probePath: probePath,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Upload posts a document as multipart form data.
func (c *HTTPClient) Upload(ctx context.Context, path string) (*UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	out := &UploadResponse{}
	if err := c.do(req, "upload", out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDocument fetches the current server-side state of a document.
func (c *HTTPClient) GetDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	out := &domain.Document{}
	endpoint := fmt.Sprintf("%s/documents/%s", c.baseURL, url.PathEscape(documentID))
	if err := c.doJSON(ctx, http.MethodGet, endpoint, "get_document", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetFrameworks lists the frameworks the backend can analyze against.
func (c *HTTPClient) GetFrameworks(ctx context.Context) ([]domain.Framework, error) {
	var out struct {
		Frameworks []domain.Framework `json:"frameworks"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/frameworks", "get_frameworks", nil, &out); err != nil {
		return nil, err
	}
	return out.Frameworks, nil
}

// SelectFramework records the framework and standards for a document.
func (c *HTTPClient) SelectFramework(ctx context.Context, documentID string, sel FrameworkSelection) error {
	endpoint := fmt.Sprintf("%s/documents/%s/select-framework", c.baseURL, url.PathEscape(documentID))
	return c.doJSON(ctx, http.MethodPost, endpoint, "select_framework", sel, nil)
}

// StartAnalysis kicks off server-side compliance analysis.
func (c *HTTPClient) StartAnalysis(ctx context.Context, documentID string) error {
	endpoint := fmt.Sprintf("%s/documents/%s/start-compliance", c.baseURL, url.PathEscape(documentID))
	return c.doJSON(ctx, http.MethodPost, endpoint, "start_analysis", struct{}{}, nil)
}

// GetProgress fetches analysis progress for a document.
func (c *HTTPClient) GetProgress(ctx context.Context, documentID string) (*domain.Progress, error) {
	out := &domain.Progress{}
	endpoint := fmt.Sprintf("%s/progress/%s", c.baseURL, url.PathEscape(documentID))
	if err := c.doJSON(ctx, http.MethodGet, endpoint, "get_progress", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetResults fetches the final compliance report for a document.
func (c *HTTPClient) GetResults(ctx context.Context, documentID string) (*domain.AnalysisResults, error) {
	out := &domain.AnalysisResults{}
	endpoint := fmt.Sprintf("%s/documents/%s/report", c.baseURL, url.PathEscape(documentID))
	if err := c.doJSON(ctx, http.MethodGet, endpoint, "get_results", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Probe checks backend reachability. Used by the connectivity monitor.
func (c *HTTPClient) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.probePath, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint, name string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, name, out)
}

func (c *HTTPClient) do(req *http.Request, name string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APICallsTotal.WithLabelValues(name, "transport_error").Inc()
		return err
	}
	defer resp.Body.Close()

	metrics.APICallsTotal.WithLabelValues(name, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	metrics.APILatency.WithLabelValues(name).Observe(time.Since(start).Seconds())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{Status: resp.StatusCode, Detail: extractDetail(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// extractDetail pulls the server-provided error message from a failure body.
// The backend uses "detail"; "error" and "message" are accepted as fallbacks.
func extractDetail(body []byte) string {
	var payload struct {
		Detail  string `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
