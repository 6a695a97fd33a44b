package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devYaoYH/prometheus-proxy-gateway/internal/envelope"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/lintclient"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/relay"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/service"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/state"
)

type mockPushService struct {
	result *service.PushResult
	err    error
	calls  int
}

func (m *mockPushService) Push(ctx context.Context, body []byte) (*service.PushResult, error) {
	m.calls++
	return m.result, m.err
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(ctx context.Context, source string) (bool, error) { return false, nil }
func (denyAllLimiter) Close() error                                           { return nil }

func doPush(t *testing.T, h *PushHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/push_metrics", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.HandlePush(rr, req)
	return rr
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var parsed map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &parsed))
	return parsed["error"]
}

func TestHandlePush_Success(t *testing.T) {
	svc := &mockPushService{result: &service.PushResult{
		Success:    true,
		Message:    "Successfully forwarded to http://gw/metrics/job/x",
		StatusCode: http.StatusOK,
	}}
	h := NewPushHandler(svc, state.NewTracker(), nil, nil)

	rr := doPush(t, h, `{"target_url":"http://gw/metrics/job/x","data":"Zm9vIDEK"}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	var result service.PushResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestHandlePush_MethodNotAllowed(t *testing.T) {
	svc := &mockPushService{}
	h := NewPushHandler(svc, state.NewTracker(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/push_metrics", nil)
	rr := httptest.NewRecorder()
	h.HandlePush(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, 0, svc.calls)
}

func TestHandlePush_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed envelope",
			err:        envelope.ErrMalformedEnvelope,
			wantStatus: http.StatusBadRequest,
			wantError:  "No data provided",
		},
		{
			name:       "missing target_url",
			err:        envelope.ErrMissingTargetURL,
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing 'target_url' parameter",
		},
		{
			name:       "missing data",
			err:        envelope.ErrMissingData,
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing 'data' parameter",
		},
		{
			name:       "empty header name",
			err:        envelope.ErrInvalidHeader,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid header name",
		},
		{
			name:       "lint rejected",
			err:        service.ErrLintRejected,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid metrics data",
		},
		{
			name:       "invalid properties",
			err:        service.ErrInvalidMetricProperties,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid metrics data",
		},
		{
			name:       "lint unreachable",
			err:        lintclient.ErrUnreachable,
			wantStatus: http.StatusBadGateway,
			wantError:  "lint service unreachable",
		},
		{
			name:       "gateway unreachable",
			err:        relay.ErrGatewayUnreachable,
			wantStatus: http.StatusBadGateway,
			wantError:  "Error connecting to gateway",
		},
		{
			name:       "gateway rejected passthrough",
			err:        &service.GatewayRejectedError{StatusCode: http.StatusServiceUnavailable, Message: "Error from gateway: 503 Service Unavailable"},
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "Error from gateway: 503 Service Unavailable",
		},
		{
			name:       "unexpected fault",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusInternalServerError,
			wantError:  "unexpected error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPushService{err: tt.err}
			h := NewPushHandler(svc, state.NewTracker(), nil, nil)

			rr := doPush(t, h, `{}`)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantError, errorBody(t, rr))
		})
	}
}

func TestHandlePush_InvalidBase64Message(t *testing.T) {
	env := `{"target_url":"http://gw/metrics/job/x","data":"!!!"}`
	_, decodeErr := envelope.Decode([]byte(env))
	require.Error(t, decodeErr)

	svc := &mockPushService{err: decodeErr}
	h := NewPushHandler(svc, state.NewTracker(), nil, nil)

	rr := doPush(t, h, env)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, errorBody(t, rr), "Invalid base64 data")
}

func TestHandlePush_RateLimited(t *testing.T) {
	svc := &mockPushService{}
	h := NewPushHandler(svc, state.NewTracker(), denyAllLimiter{}, nil)

	rr := doPush(t, h, `{}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, 0, svc.calls, "a rate-limited request never reaches the pipeline")
}

func TestHealth(t *testing.T) {
	h := NewPushHandler(&mockPushService{}, state.NewTracker(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.Health(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &parsed))
	assert.Equal(t, "healthy", parsed["status"])
}

func TestClear_ResetsTrackerAndRedirects(t *testing.T) {
	tracker := state.NewTracker()
	tracker.Record(state.TransactionRecord{
		TargetURL: "http://gw/metrics/job/x",
		Method:    "PUT",
	})
	h := NewPushHandler(&mockPushService{}, tracker, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/clear", nil)
	rr := httptest.NewRecorder()
	h.Clear(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.False(t, tracker.Snapshot().Recorded())
}

func TestIndex_NoData(t *testing.T) {
	h := NewPushHandler(&mockPushService{}, state.NewTracker(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.Index(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No metrics have been received yet")
}

func TestIndex_RendersRecord(t *testing.T) {
	tracker := state.NewTracker()
	tracker.Record(state.TransactionRecord{
		Timestamp:   time.Now(),
		TargetURL:   "http://gw/metrics/job/example",
		Method:      "PUT",
		Headers:     map[string]string{"Content-Type": "text/plain"},
		RawData:     base64.StdEncoding.EncodeToString([]byte("foo 1\n")),
		DecodedData: "foo 1\n",
		Result:      &state.Result{Success: true, Status: "Success: 200", Message: "forwarded"},
	})
	h := NewPushHandler(&mockPushService{}, tracker, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.Index(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "http://gw/metrics/job/example")
	assert.Contains(t, body, "PUT")
	assert.Contains(t, body, "Success: 200")
}

func TestIndex_EscapesDecodedData(t *testing.T) {
	tracker := state.NewTracker()
	tracker.Record(state.TransactionRecord{
		Timestamp:   time.Now(),
		TargetURL:   "http://gw/metrics/job/x",
		Method:      "POST",
		DecodedData: `<script>alert("x")</script>`,
	})
	h := NewPushHandler(&mockPushService{}, tracker, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.Index(rr, req)

	assert.NotContains(t, rr.Body.String(), "<script>", "payload text must be HTML-escaped")
}

func TestIndex_UnknownPath(t *testing.T) {
	h := NewPushHandler(&mockPushService{}, state.NewTracker(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	h.Index(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
