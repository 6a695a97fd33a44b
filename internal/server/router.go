package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devYaoYH/prometheus-proxy-gateway/internal/handlers"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/middleware"
)

// NewRouter constructs a ServeMux with the relay routes registered.
func NewRouter(h *handlers.PushHandler) http.Handler {
	mux := http.NewServeMux()

	// Relay endpoints
	mux.HandleFunc("/push_metrics", h.HandlePush)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/clear", h.Clear)
	mux.HandleFunc("/", h.Index)

	// Prometheus instrumentation for the relay itself
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
