package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alex-user-go/placeomat/internal/config"
	"github.com/alex-user-go/placeomat/internal/handler"
	"github.com/alex-user-go/placeomat/internal/logger"
	"github.com/alex-user-go/placeomat/internal/middleware"
	"github.com/alex-user-go/placeomat/internal/obs"
	"github.com/alex-user-go/placeomat/internal/providers"
	"github.com/alex-user-go/placeomat/internal/search"
)

// Services holds the components shared by the HTTP server and the CLI.
type Services struct {
	Config     *config.Config
	Logger     *slog.Logger
	Metrics    *obs.Metrics
	Aggregator *search.Aggregator
}

// NewServices wires providers and the aggregator from cfg.
func NewServices(cfg *config.Config, logger *slog.Logger) (*Services, error) {
	metrics := obs.NewMetrics(logger)
	client := providers.NewHTTPClient(cfg.ProviderTimeout)

	registry, err := providers.FromConfig(cfg.Providers, client, logger)
	if err != nil {
		return nil, fmt.Errorf("build provider registry: %w", err)
	}

	return &Services{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		Aggregator: search.NewAggregator(registry, cfg.ProviderTimeout, metrics, logger),
	}, nil
}

// Handler returns the routed HTTP handler wrapped in middleware.
func (s *Services) Handler() http.Handler {
	h := handler.New(s.Aggregator, s.Metrics, s.Logger)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /healthz", obs.HealthHandler(s.Logger))
	mux.HandleFunc("GET /metrics", s.Metrics.MetricsHandler())

	return middleware.Logging(s.Logger)(mux)
}

// Run initializes and runs the application.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)

	svc, err := NewServices(cfg, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: svc.Handler(),
		// Provider calls share one deadline, so leave headroom above it.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ProviderTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", srv.Addr, "env", cfg.Env, "providers", svc.Aggregator.Providers())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		log.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", "error", err)
		return err
	}

	log.Info("server stopped")
	return nil
}
