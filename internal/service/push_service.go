// Package service orchestrates the relay pipeline: envelope decode, exposition
// parse, lint, property validation, and the forwarding attempt. Stages run
// strictly sequentially; the first failure short-circuits the rest.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devYaoYH/prometheus-proxy-gateway/internal/envelope"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/exposition"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/lintclient"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/logging"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/metrics"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/relay"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/state"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/validator"
)

// ErrInvalidMetricProperties reports a payload whose parsed families failed a
// structural check.
var ErrInvalidMetricProperties = errors.New("invalid metrics data")

// ErrLintRejected reports a payload the lint service answered for but did not
// accept.
var ErrLintRejected = errors.New("invalid metrics data: lint check failed")

// ErrPayloadTooLarge reports a decoded payload over the configured bound.
var ErrPayloadTooLarge = errors.New("decoded payload exceeds size limit")

// GatewayRejectedError carries the gateway's own status code back to the
// caller unchanged.
type GatewayRejectedError struct {
	StatusCode int
	Message    string
}

func (e *GatewayRejectedError) Error() string {
	return e.Message
}

// Linter is the lint service contract the pipeline consumes.
type Linter interface {
	Lint(ctx context.Context, expositionText string) (*lintclient.Verdict, error)
}

// Forwarder is the gateway-forwarding contract the pipeline consumes.
type Forwarder interface {
	Forward(ctx context.Context, req *relay.Request) (*relay.Outcome, error)
}

// PushResult is the synchronous answer for a fully forwarded transaction.
type PushResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// PushService runs the relay pipeline for one transaction at a time per call.
// It is safe for concurrent use; the tracker is the only shared state.
type PushService struct {
	linter         Linter
	forwarder      Forwarder
	validators     *validator.Chain
	tracker        *state.Tracker
	logger         *logging.Logger
	maxPayloadSize int
}

// NewPushService wires the pipeline's collaborators together.
func NewPushService(linter Linter, forwarder Forwarder, validators *validator.Chain, tracker *state.Tracker, logger *logging.Logger, maxPayloadSize int) *PushService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PushService{
		linter:         linter,
		forwarder:      forwarder,
		validators:     validators,
		tracker:        tracker,
		logger:         logger,
		maxPayloadSize: maxPayloadSize,
	}
}

// Push processes one inbound envelope body end to end and returns either a
// result or the stage error that aborted the pipeline.
//
// Recording policy: every transaction whose envelope decodes successfully is
// recorded in the tracker, failures included, with the failure reason as the
// result. Pre-decode faults (malformed JSON, missing fields, bad base64) are
// not recorded since there is nothing meaningful to display for them.
func (s *PushService) Push(ctx context.Context, body []byte) (*PushResult, error) {
	decoded, err := envelope.Decode(body)
	if err != nil {
		return nil, err
	}

	rec := state.TransactionRecord{
		Timestamp:   time.Now(),
		TargetURL:   decoded.TargetURL,
		Method:      decoded.Method,
		Headers:     decoded.Headers,
		RawData:     decoded.Data,
		DecodedData: decoded.Text,
	}
	record := func(success bool, status, message string) {
		if s.tracker == nil {
			return
		}
		rec.Result = &state.Result{Success: success, Status: status, Message: message}
		s.tracker.Record(rec)
	}

	if s.maxPayloadSize > 0 && len(decoded.Payload) > s.maxPayloadSize {
		record(false, "Rejected", ErrPayloadTooLarge.Error())
		return nil, ErrPayloadTooLarge
	}
	metrics.PayloadBytesTotal.Add(float64(len(decoded.Payload)))

	s.logger.DebugContext(ctx, "envelope decoded",
		logging.TargetURL(decoded.TargetURL),
		logging.Method(decoded.Method),
		logging.Bytes(len(decoded.Payload)),
	)

	// Parsing operates on the raw decoded bytes, not the lossy display text.
	rawText := string(decoded.Payload)

	parseStart := time.Now()
	families, err := exposition.Parse(rawText)
	metrics.StageDuration.WithLabelValues("parse").Observe(time.Since(parseStart).Seconds())
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues("parse_error").Inc()
		record(false, "Rejected", err.Error())
		return nil, err
	}

	lintStart := time.Now()
	verdict, err := s.linter.Lint(ctx, rawText)
	metrics.StageDuration.WithLabelValues("lint").Observe(time.Since(lintStart).Seconds())
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues("lint_error").Inc()
		metrics.LintFailures.WithLabelValues("unreachable").Inc()
		s.logger.ErrorContext(ctx, "lint stage failed", logging.Error(err))
		record(false, "Rejected", "lint service error")
		return nil, err
	}
	if !verdict.OK {
		metrics.TransactionsTotal.WithLabelValues("lint_rejected").Inc()
		metrics.LintFailures.WithLabelValues("rejected").Inc()
		s.logger.WarnContext(ctx, "lint service rejected payload",
			logging.Status(verdict.StatusCode),
		)
		record(false, "Rejected", "lint check failed")
		return nil, ErrLintRejected
	}

	if err := s.validators.Validate(families); err != nil {
		metrics.TransactionsTotal.WithLabelValues("invalid_properties").Inc()
		record(false, "Rejected", err.Error())
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetricProperties, err)
	}

	s.logger.InfoContext(ctx, "payload validated",
		logging.TargetURL(decoded.TargetURL),
		logging.Families(len(families)),
	)

	forwardStart := time.Now()
	outcome, err := s.forwarder.Forward(ctx, &relay.Request{
		TargetURL: decoded.TargetURL,
		Method:    decoded.Method,
		Headers:   decoded.Headers,
		Body:      decoded.Payload,
	})
	metrics.StageDuration.WithLabelValues("forward").Observe(time.Since(forwardStart).Seconds())
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues("gateway_unreachable").Inc()
		metrics.ForwardFailures.WithLabelValues("unreachable").Inc()
		s.logger.ErrorContext(ctx, "forward failed",
			logging.TargetURL(decoded.TargetURL),
			logging.Error(err),
		)
		record(false, "Connection Error", err.Error())
		return nil, err
	}

	if !outcome.Success {
		metrics.TransactionsTotal.WithLabelValues("gateway_rejected").Inc()
		metrics.ForwardFailures.WithLabelValues("rejected").Inc()
		s.logger.ErrorContext(ctx, "gateway rejected forward",
			logging.TargetURL(decoded.TargetURL),
			logging.Status(outcome.StatusCode),
		)
		record(false, fmt.Sprintf("Error: %d", outcome.StatusCode), outcome.Message)
		return nil, &GatewayRejectedError{
			StatusCode: outcome.StatusCode,
			Message:    outcome.Message,
		}
	}

	metrics.TransactionsTotal.WithLabelValues("success").Inc()
	s.logger.InfoContext(ctx, "forwarded successfully",
		logging.TargetURL(decoded.TargetURL),
		logging.Status(outcome.StatusCode),
	)
	record(true, fmt.Sprintf("Success: %d", outcome.StatusCode), outcome.Message)

	return &PushResult{
		Success:    true,
		Message:    outcome.Message,
		StatusCode: outcome.StatusCode,
	}, nil
}
