// Package relay re-issues the caller's original request against the real
// metrics gateway and classifies the response.
package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrGatewayUnreachable reports a connection-level failure reaching the target
// gateway (DNS, refusal, timeout). This is always surfaced as a 5xx-class
// condition regardless of what the target would have returned.
var ErrGatewayUnreachable = errors.New("error connecting to gateway")

// Request describes the outbound request to reconstruct: the exact method,
// headers, and body the caller packed into the envelope.
type Request struct {
	TargetURL string
	Method    string
	Headers   map[string]string
	Body      []byte
}

// Outcome is the classified result of one forwarding attempt.
type Outcome struct {
	Success    bool
	StatusCode int
	Message    string
}

// Forwarder performs exactly one forwarding attempt per transaction.
type Forwarder struct {
	httpClient *http.Client
}

// New constructs a Forwarder with a bounded per-attempt timeout.
func New(timeout time.Duration) *Forwarder {
	return &Forwarder{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Forward issues the request with the exact method, headers, and body from
// req. Header values pass through unmodified. A response below 400 is a
// success; 400 and above is a failure carrying the gateway's own status code;
// a transport failure wraps ErrGatewayUnreachable. No retry is attempted.
func (f *Forwarder) Forward(ctx context.Context, req *Request) (*Outcome, error) {
	if f == nil {
		return nil, fmt.Errorf("forwarder not configured")
	}

	outbound, err := http.NewRequestWithContext(ctx, req.Method, req.TargetURL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, value := range req.Headers {
		outbound.Header.Set(key, value)
	}

	resp, err := f.httpClient.Do(outbound)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return &Outcome{
			Success:    false,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Error from gateway: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}, nil
	}

	return &Outcome{
		Success:    true,
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("Successfully forwarded to %s", req.TargetURL),
	}, nil
}
