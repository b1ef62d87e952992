package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/juansemartinez01/API-FACTURACION/internal/config"
)

// SendResult is the uniform outcome of one outbound call. Exactly one of
// the two shapes occurs: a response (StatusCode set, Body/Header captured,
// any status code) or a transport failure (Err set, StatusCode nil).
// Non-2xx statuses are data here, not errors; classification belongs to
// the retry policy.
type SendResult struct {
	StatusCode *int
	Body       []byte
	Header     http.Header
	LatencyMs  int64
	Err        error
}

// Sender performs the outbound call to the remote invoicing service.
type Sender interface {
	Send(ctx context.Context, doc *OutboundDocument) *SendResult
}

// Client posts normalized documents to the remote facturador endpoint.
type Client struct {
	httpClient *http.Client
	url        string
	maxBody    int
	logger     *zap.Logger
}

func NewClient(cfg *config.SubmitterConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		url:     cfg.RemoteURL,
		maxBody: cfg.MaxResponseBodySize,
		logger:  logger,
	}
}

// Send performs the HTTP POST. It always returns a structured result and
// never surfaces a non-2xx status as an error.
func (c *Client) Send(ctx context.Context, doc *OutboundDocument) *SendResult {
	result := &SendResult{}

	payload, err := json.Marshal(doc)
	if err != nil {
		result.Err = fmt.Errorf("failed to marshal document: %w", err)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		result.Err = fmt.Errorf("failed to create HTTP request: %w", err)
		return result
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	startTime := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.LatencyMs = time.Since(startTime).Milliseconds()
		result.Err = fmt.Errorf("HTTP request failed: %w", err)
		return result
	}
	defer resp.Body.Close()

	result.LatencyMs = time.Since(startTime).Milliseconds()
	result.StatusCode = &resp.StatusCode
	result.Header = resp.Header

	// Body is read on every status code; the audit trail needs it.
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, int64(c.maxBody)))
	if readErr != nil {
		c.logger.Warn("Failed to read response body",
			zap.Error(readErr),
			zap.Int("status", resp.StatusCode),
		)
	}
	result.Body = body

	return result
}
