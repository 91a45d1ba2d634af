package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/alex-user-go/placeomat/internal/middleware"
	"github.com/alex-user-go/placeomat/internal/obs"
	"github.com/alex-user-go/placeomat/internal/providers"
	"github.com/alex-user-go/placeomat/internal/search"
	"github.com/alex-user-go/placeomat/internal/search/types"
)

// Handler handles HTTP requests.
type Handler struct {
	aggregator *search.Aggregator
	metrics    *obs.Metrics
	logger     *slog.Logger
}

// New creates a new Handler.
func New(aggregator *search.Aggregator, metrics *obs.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		metrics:    metrics,
		logger:     logger,
	}
}

// Register adds the search routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /search", h.SearchHandler)
	mux.HandleFunc("GET /search/{provider}", h.SearchHandler)
	mux.HandleFunc("GET /search/{provider}/{placeID}", h.DetailsHandler)
}

// SearchHandler handles /search and /search/{provider} requests.
// The query string is forwarded as-is; the provider defaults to all.
// With all providers, the reported failure is the first to arrive, so when several
// providers reject a query the reason can vary with their latency.
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncRequests()
	requestID := middleware.RequestID(r.Context())

	provider := r.PathValue("provider")
	if provider == "" {
		provider = search.AllProviders
	}
	query := QueryParams(r)

	result, err := h.aggregator.Query(r.Context(), provider, query)
	if err != nil {
		h.logger.Error("search failed",
			"request_id", requestID,
			"provider", provider,
			"error", err,
			"ip", ExtractIP(r),
		)
		writeReason(w, http.StatusInternalServerError, "search failed")
		return
	}

	if result.Status == http.StatusBadRequest {
		h.metrics.IncBadRequests()
		h.logger.Debug("search rejected",
			"request_id", requestID,
			"provider", provider,
			"reason", result.Reason,
		)
	}

	if len(result.Places) == 0 {
		writeReason(w, result.Status, result.Reason)
		return
	}

	writeJSON(w, h.logger, result.Status, result.Places)
}

// DetailsHandler handles /search/{provider}/{placeID} requests.
func (h *Handler) DetailsHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncRequests()
	requestID := middleware.RequestID(r.Context())
	provider := r.PathValue("provider")

	result, err := h.aggregator.Details(r.Context(), provider, r.PathValue("placeID"))
	if err != nil {
		h.logger.Error("place details failed",
			"request_id", requestID,
			"provider", provider,
			"error", err,
			"ip", ExtractIP(r),
		)
		writeReason(w, http.StatusInternalServerError, "place details failed")
		return
	}

	if result.Details == nil {
		h.metrics.IncBadRequests()
		writeReason(w, result.Status, result.Reason)
		return
	}

	writeJSON(w, h.logger, result.Status, result.Details)
}

// QueryParams flattens the request query string, keeping the first value of each key.
// A key given without a value, such as ?open, maps to the empty string.
func QueryParams(r *http.Request) providers.Params {
	values := r.URL.Query()
	params := make(providers.Params, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return params
}

// ExtractIP extracts the client IP from the request.
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr.
func ExtractIP(r *http.Request) string {
	// Check X-Forwarded-For (first IP in the list)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fallback to RemoteAddr (strip port)
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Can't change status after WriteHeader, just log
		logger.Error("failed to encode response", "error", err)
	}
}

// writeReason writes a {"reason": ...} JSON response.
func writeReason(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.Reason{Reason: reason})
}
