package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/devYaoYH/prometheus-proxy-gateway/internal/config"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/handlers"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/lintclient"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/logging"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/ratelimit"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/relay"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/server"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/service"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/state"
	"github.com/devYaoYH/prometheus-proxy-gateway/internal/validator"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("gateway"))
	logging.SetDefault(logger)

	slog.Info("Starting metrics proxy gateway",
		slog.Int("port", cfg.Server.Port),
		slog.String("lint_url", cfg.Lint.URL),
		slog.String("log_level", cfg.Logging.Level),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	// Initialize rate limiter
	var rateLimiter ratelimit.RateLimiter
	if cfg.Redis.Enabled && cfg.RateLimit.Enabled {
		limiter, err := ratelimit.NewRedisRateLimiter(
			cfg.Redis.URL,
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window,
		)
		if err != nil {
			log.Printf("WARNING: Failed to initialize Redis rate limiter: %v", err)
			log.Println("Continuing without rate limiting")
			rateLimiter = &ratelimit.NoOpRateLimiter{}
		} else {
			rateLimiter = limiter
			log.Printf("Rate limiting enabled: %d requests per %s", cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	} else {
		rateLimiter = &ratelimit.NoOpRateLimiter{}
	}
	defer rateLimiter.Close()

	// Wire the pipeline
	tracker := state.NewTracker()
	linter := lintclient.New(cfg.Lint.URL, cfg.Lint.Timeout)
	forwarder := relay.New(cfg.Forward.Timeout)
	checks := validator.NewChain(validator.BasicValidator{}, validator.SuffixValidator{})

	pushService := service.NewPushService(linter, forwarder, checks, tracker, logger, cfg.Forward.MaxPayloadSize)
	handler := handlers.NewPushHandler(pushService, tracker, rateLimiter, logger)
	router := server.NewRouter(handler)

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Gateway listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
