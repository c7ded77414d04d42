package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPSink ships compact summaries to a remote telemetry endpoint.
// Shipping is fire-and-forget: failures are logged at debug level and
// dropped, never surfaced to the caller.
type HTTPSink struct {
	url        string
	httpClient *http.Client
}

// NewHTTPSink creates a sink posting to the given URL.
func NewHTTPSink(url string) *HTTPSink {
	return &HTTPSink{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Ship posts the summary. Errors are swallowed.
func (s *HTTPSink) Ship(summary Summary) {
	data, err := json.Marshal(summary)
	if err != nil {
		slog.Debug("Failed to marshal escalation summary", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		slog.Debug("Failed to build escalation request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Debug("Failed to ship escalation summary", "error", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
}
