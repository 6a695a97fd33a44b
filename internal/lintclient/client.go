// Package lintclient talks to the external lint service that semantically
// validates exposition text before it is forwarded.
package lintclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnreachable reports that the lint service could not be contacted at all
// (connection refused, DNS failure, or timeout). The transaction is rejected
// conservatively on this condition, never waved through.
var ErrUnreachable = errors.New("lint service unreachable")

// ServiceError reports a non-2xx answer from the lint service.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("lint service returned status %d", e.StatusCode)
}

// Verdict is the lint service's answer for one payload.
type Verdict struct {
	OK         bool
	StatusCode int
	Message    string
}

// Client calls the lint service over HTTP.
type Client struct {
	lintURL    string
	httpClient *http.Client
}

// New constructs a Client for the given lint endpoint with a bounded timeout.
func New(lintURL string, timeout time.Duration) *Client {
	return &Client{
		lintURL: lintURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Lint submits the raw exposition text for semantic validation. Only a 2xx
// response whose JSON body carries status "success" yields an OK verdict; any
// other status value, or a missing field, yields a non-OK verdict with the raw
// body captured as the message. Transport failures map to ErrUnreachable and
// non-2xx answers to ServiceError.
func (c *Client) Lint(ctx context.Context, expositionText string) (*Verdict, error) {
	if c == nil {
		return nil, fmt.Errorf("lint client not configured")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPut, c.lintURL, strings.NewReader(expositionText))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Status != "success" {
		return &Verdict{
			OK:         false,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}, nil
	}

	return &Verdict{OK: true, StatusCode: resp.StatusCode}, nil
}
