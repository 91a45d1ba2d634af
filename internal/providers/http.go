package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alex-user-go/placeomat/internal/apperr"
)

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 10 << 20

// HTTPClient sends provider queries over HTTP.
type HTTPClient struct {
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTPClient. Every request is bounded by timeout.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get issues a GET to rawURL with params added to its query string.
// Any status code is returned as a Response; only transport failures are errors.
func (c *HTTPClient) Get(ctx context.Context, rawURL string, params Params, headers http.Header) (*Response, error) {
	// Build URL with query parameters
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperr.Internal("invalid provider URL", err).WithOp("http get")
	}

	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	// Create request with context
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperr.Internal("failed to create request", err).WithOp("http get")
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	// Execute request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Explicitly ignore close error
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
