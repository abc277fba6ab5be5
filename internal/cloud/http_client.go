package cloud

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// PublishError represents an error from the export ingest endpoint.
type PublishError struct {
	StatusCode int
	Body       string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("export publish failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and network errors.
// Client errors (4xx) are considered permanent.
func (e *PublishError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// HTTPClient is a real cloud client that communicates with the ReelForge SaaS.
// Publishes are rate limited so a burst of export jobs cannot flood the
// ingest endpoint.
type HTTPClient struct {
	baseURL    string
	token      string
	orgSlug    string
	deviceID   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, token, orgSlug string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		orgSlug: orgSlug,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(30.0/60.0), 3),
		logger:  logger,
	}
}

func (c *HTTPClient) SetDeviceID(id string) {
	c.deviceID = id
}

func (c *HTTPClient) RegisterDevice(ctx context.Context, deviceID string) error {
	c.deviceID = deviceID
	if c.logger != nil {
		c.logger.Info("cloud http: device registered", "device_id", deviceID)
	}
	return nil
}

func (c *HTTPClient) PublishExport(ctx context.Context, payload ExportPayload) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal export payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/ingest/exports", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Reelforge-Request-Id", generateRequestID())
	if c.deviceID != "" {
		req.Header.Set("X-Reelforge-Device-Id", c.deviceID)
	}

	// The SaaS resolves the org from the Host header subdomain.
	if c.orgSlug != "" {
		req.Host = c.orgSlug + ".app.reelforge.local"
	}

	if c.logger != nil {
		c.logger.Info("publishing export to cloud",
			"url", url,
			"host", req.Host,
			"project_id", payload.ProjectID,
			"clip_count", len(payload.Clips),
			"body_bytes", len(body),
		)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var result ExportIngestResponse
		if err := json.Unmarshal(respBody, &result); err == nil && c.logger != nil {
			c.logger.Info("export publish succeeded",
				"export_id", result.ExportID,
				"received_clips", result.ReceivedClips,
			)
		}
		return nil
	}

	return &PublishError{StatusCode: resp.StatusCode, Body: string(respBody)}
}

func generateRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
