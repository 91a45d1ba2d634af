package main

import (
	"log/slog"
	"net/http"
	"strings"
)

// yelpMock imitates the Fusion business search and business lookup endpoints.
type yelpMock struct {
	sim    *simulator
	logger *slog.Logger
}

type yelpErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (m *yelpMock) search(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(w, r) {
		return
	}

	q := r.URL.Query()
	if q.Get("location") == "" && (q.Get("latitude") == "" || q.Get("longitude") == "") {
		m.fail(w, http.StatusBadRequest, "VALIDATION_ERROR", "Please specify a location or a latitude and longitude")
		return
	}
	if err := m.sim.wait(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	found := matching(q.Get("term"))
	businesses := make([]map[string]any, 0, len(found))
	for _, f := range found {
		businesses = append(businesses, toBusiness(f))
	}

	m.logger.Info("yelp search", "term", q.Get("term"), "results", len(businesses))
	writeJSON(w, m.logger, http.StatusOK, map[string]any{"businesses": businesses, "total": len(businesses)})
}

func (m *yelpMock) business(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(w, r) {
		return
	}
	if err := m.sim.wait(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	f, ok := lookup(r.PathValue("id"))
	if !ok {
		m.fail(w, http.StatusNotFound, "BUSINESS_NOT_FOUND", "The requested business could not be found.")
		return
	}
	writeJSON(w, m.logger, http.StatusOK, toBusiness(f))
}

func toBusiness(f fixture) map[string]any {
	categories := make([]map[string]string, 0, len(f.Categories))
	for _, c := range f.Categories {
		categories = append(categories, map[string]string{"alias": c, "title": strings.ToUpper(c[:1]) + c[1:]})
	}
	return map[string]any{
		"id":          f.ID,
		"name":        f.Name,
		"url":         "https://www.yelp.com/biz/" + f.ID,
		"categories":  categories,
		"coordinates": map[string]float64{"latitude": f.Lat, "longitude": f.Lng},
		"location":    map[string][]string{"display_address": {f.Street, f.City}},
	}
}

func (m *yelpMock) authorized(w http.ResponseWriter, r *http.Request) bool {
	if strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		return true
	}
	m.fail(w, http.StatusUnauthorized, "TOKEN_MISSING", "An access token must be supplied in order to use this endpoint.")
	return false
}

func (m *yelpMock) fail(w http.ResponseWriter, status int, code, description string) {
	var body yelpErrorBody
	body.Error.Code = code
	body.Error.Description = description
	writeJSON(w, m.logger, status, body)
}
