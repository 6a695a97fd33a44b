// Package envelope decodes the JSON wrapper carrying one relay transaction:
// the target address, HTTP method, headers, and base64-encoded exposition payload.
package envelope

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrMalformedEnvelope = errors.New("request body is not a valid JSON envelope")
	ErrMissingTargetURL  = errors.New("missing 'target_url' parameter")
	ErrMissingData       = errors.New("missing 'data' parameter")
	ErrInvalidHeader     = errors.New("header name must not be empty")
)

// InvalidEncodingError reports a payload that is not valid base64.
type InvalidEncodingError struct {
	Err error
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("Invalid base64 data: %v", e.Err)
}

func (e *InvalidEncodingError) Unwrap() error {
	return e.Err
}

// Envelope is the wrapper accepted on /push_metrics.
type Envelope struct {
	TargetURL string            `json:"target_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Data      string            `json:"data"`
}

// Decoded is an envelope whose payload has been unwrapped.
type Decoded struct {
	Envelope

	// Payload is the raw decoded bytes; all protocol decisions operate on it.
	Payload []byte
	// Text is a lossy UTF-8 rendering of Payload for display only. Invalid
	// byte sequences are replaced, never failed on.
	Text string
}

// Decode parses body as a JSON envelope and unwraps its base64 payload.
// Method defaults to POST and Headers to an empty map when absent.
func Decode(body []byte) (*Decoded, error) {
	if len(body) == 0 {
		return nil, ErrMalformedEnvelope
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	if strings.TrimSpace(env.TargetURL) == "" {
		return nil, ErrMissingTargetURL
	}
	if env.Data == "" {
		return nil, ErrMissingData
	}
	if env.Method == "" {
		env.Method = "POST"
	}
	if env.Headers == nil {
		env.Headers = map[string]string{}
	}
	// Headers pass through to the gateway untouched; only well-formedness of
	// the names is checked.
	for key := range env.Headers {
		if strings.TrimSpace(key) == "" {
			return nil, ErrInvalidHeader
		}
	}

	payload, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, &InvalidEncodingError{Err: err}
	}

	return &Decoded{
		Envelope: env,
		Payload:  payload,
		Text:     lossyUTF8(payload),
	}, nil
}

// lossyUTF8 renders b as UTF-8 text, substituting the replacement character
// for invalid sequences.
func lossyUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
