package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/devYaoYH/prometheus-proxy-gateway/internal/envelope"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/exposition"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/httputil"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/lintclient"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/logging"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/ratelimit"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/relay"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/service"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/state"
)

// PushService is the pipeline contract the handlers consume.
type PushService interface {
	Push(ctx context.Context, body []byte) (*service.PushResult, error)
}

// PushHandler serves the relay's HTTP surface.
type PushHandler struct {
	service     PushService
	tracker     *state.Tracker
	rateLimiter ratelimit.RateLimiter
	logger      *logging.Logger
}

// NewPushHandler constructs the handler set. rateLimiter may be nil when rate
// limiting is disabled.
func NewPushHandler(svc PushService, tracker *state.Tracker, rateLimiter ratelimit.RateLimiter, logger *logging.Logger) *PushHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if rateLimiter == nil {
		rateLimiter = &ratelimit.NoOpRateLimiter{}
	}
	return &PushHandler{
		service:     svc,
		tracker:     tracker,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// HandlePush accepts a packed envelope and forwards it to the metrics gateway.
func (h *PushHandler) HandlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sourceIP := getClientIP(r)
	allowed, err := h.rateLimiter.Allow(r.Context(), sourceIP)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "rate limiter unavailable", logging.Error(err))
		// Fail open on limiter faults; the limiter protects throughput, it is
		// not a correctness gate.
		allowed = true
	}
	if !allowed {
		httputil.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	result, err := h.service.Push(r.Context(), body)
	if err != nil {
		status, message := classifyError(err)
		h.logger.WarnContext(r.Context(), "push rejected",
			logging.Status(status),
			logging.Error(err),
		)
		httputil.WriteError(w, status, message)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// classifyError maps a pipeline stage error to an HTTP status and a stable,
// display-safe error string. Header values and internal detail never leak
// into the body.
func classifyError(err error) (int, string) {
	var (
		encodingErr *envelope.InvalidEncodingError
		syntaxErr   *exposition.SyntaxError
		lintSvcErr  *lintclient.ServiceError
		gatewayErr  *service.GatewayRejectedError
	)

	switch {
	case errors.Is(err, envelope.ErrMalformedEnvelope):
		return http.StatusBadRequest, "No data provided"
	case errors.Is(err, envelope.ErrMissingTargetURL):
		return http.StatusBadRequest, "Missing 'target_url' parameter"
	case errors.Is(err, envelope.ErrMissingData):
		return http.StatusBadRequest, "Missing 'data' parameter"
	case errors.Is(err, envelope.ErrInvalidHeader):
		return http.StatusBadRequest, "Invalid header name"
	case errors.As(err, &encodingErr):
		return http.StatusBadRequest, encodingErr.Error()
	case errors.As(err, &syntaxErr):
		return http.StatusBadRequest, syntaxErr.Error()
	case errors.Is(err, service.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, service.ErrPayloadTooLarge.Error()
	case errors.Is(err, service.ErrLintRejected), errors.Is(err, service.ErrInvalidMetricProperties):
		return http.StatusBadRequest, "Invalid metrics data"
	case errors.Is(err, lintclient.ErrUnreachable):
		return http.StatusBadGateway, "lint service unreachable"
	case errors.As(err, &lintSvcErr):
		return http.StatusBadGateway, lintSvcErr.Error()
	case errors.As(err, &gatewayErr):
		// Status-code passthrough: the caller sees what the gateway answered.
		return gatewayErr.StatusCode, gatewayErr.Message
	case errors.Is(err, relay.ErrGatewayUnreachable):
		return http.StatusBadGateway, "Error connecting to gateway"
	default:
		return http.StatusInternalServerError, "unexpected error"
	}
}

// Health is the unconditional liveness probe.
func (h *PushHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Clear resets the transaction tracker and redirects to the status page.
func (h *PushHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.tracker.Clear()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
