// Command mockprovider serves canned Google Places and Yelp Fusion responses
// so the aggregator can run locally without real API keys.
//
// Point the server at it with
//
//	GOOGLE_URL=http://localhost:9001/maps/api/place/textsearch/json
//	GOOGLE_DETAILS_URL=http://localhost:9001/maps/api/place/details/json
//	YELP_URL=http://localhost:9001/v3/businesses/search
//	YELP_DETAILS_URL=http://localhost:9001/v3/businesses
package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

func main() {
	port := getEnv("PORT", "9001")
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	failureRate, err := strconv.ParseFloat(getEnv("FAILURE_RATE", "0"), 64)
	if err != nil || failureRate < 0 || failureRate > 1 {
		logger.Error("FAILURE_RATE must be between 0 and 1", "value", os.Getenv("FAILURE_RATE"))
		os.Exit(1)
	}

	sim := &simulator{
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		failureRate: failureRate,
	}
	mux := newMux(sim, logger)

	// Configure server
	addr := ":" + port
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("mock provider listening", "addr", addr, "failure_rate", failureRate)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newMux routes the Google and Yelp mock endpoints.
func newMux(sim *simulator, logger *slog.Logger) *http.ServeMux {
	google := &googleMock{sim: sim, logger: logger}
	yelp := &yelpMock{sim: sim, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /maps/api/place/textsearch/json", google.search)
	mux.HandleFunc("GET /maps/api/place/details/json", google.details)
	mux.HandleFunc("GET /v3/businesses/search", yelp.search)
	mux.HandleFunc("GET /v3/businesses/{id}", yelp.business)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write healthz response", "error", err)
		}
	})
	return mux
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
