package main

import (
	"log/slog"
	"net/http"
	"strings"
)

const googleIDPrefix = "ChIJ-"

// googleMock imitates the Places text search and details endpoints.
// Errors are reported in the body status with HTTP 200, like the real API.
type googleMock struct {
	sim    *simulator
	logger *slog.Logger
}

type googleStatus struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func (m *googleMock) search(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(w, r) {
		return
	}
	if err := m.sim.wait(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	found := matching(r.URL.Query().Get("query"))
	if len(found) == 0 {
		writeJSON(w, m.logger, http.StatusOK, map[string]any{"status": "ZERO_RESULTS", "results": []any{}})
		return
	}

	results := make([]map[string]any, 0, len(found))
	for _, f := range found {
		results = append(results, map[string]any{
			"place_id":          googleIDPrefix + f.ID,
			"name":              f.Name,
			"formatted_address": f.Street + ", " + f.City,
			"types":             f.Categories,
			"geometry": map[string]any{
				"location": map[string]float64{"lat": f.Lat, "lng": f.Lng},
			},
		})
	}

	m.logger.Info("google search", "query", r.URL.Query().Get("query"), "results", len(results))
	writeJSON(w, m.logger, http.StatusOK, map[string]any{"status": "OK", "results": results})
}

func (m *googleMock) details(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(w, r) {
		return
	}
	if err := m.sim.wait(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	placeID := r.URL.Query().Get("placeid")
	f, ok := lookup(strings.TrimPrefix(placeID, googleIDPrefix))
	if !ok || !strings.HasPrefix(placeID, googleIDPrefix) {
		writeJSON(w, m.logger, http.StatusOK, googleStatus{Status: "NOT_FOUND"})
		return
	}

	writeJSON(w, m.logger, http.StatusOK, map[string]any{
		"status": "OK",
		"result": map[string]string{
			"url":     "https://maps.google.com/?cid=" + f.ID,
			"website": f.Website,
		},
	})
}

func (m *googleMock) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Query().Get("key") != "" {
		return true
	}
	writeJSON(w, m.logger, http.StatusOK, googleStatus{
		Status:       "REQUEST_DENIED",
		ErrorMessage: "You must use an API key to authenticate each request.",
	})
	return false
}
