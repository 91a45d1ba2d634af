package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
)

var errUpstreamUnavailable = errors.New("upstream unavailable")

// simulator adds random latency and failures to mock responses.
type simulator struct {
	mu          sync.Mutex
	rng         *rand.Rand
	failureRate float64
}

// wait sleeps 20ms to 150ms and then fails with the configured probability.
func (s *simulator) wait(ctx context.Context) error {
	s.mu.Lock()
	latency := time.Duration(20+s.rng.Intn(130)) * time.Millisecond
	fail := s.rng.Float64() < s.failureRate
	s.mu.Unlock()

	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return context.Cause(ctx)
	}

	if fail {
		return errUpstreamUnavailable
	}
	return nil
}

// fixture is a place shared by both mock APIs.
type fixture struct {
	ID         string
	Name       string
	Categories []string
	Lat, Lng   float64
	Street     string
	City       string
	Website    string
}

var fixtures = []fixture{
	{ID: "regina", Name: "Pizzeria Regina", Categories: []string{"pizza", "italian"}, Lat: 42.3653, Lng: -71.0567, Street: "11 1/2 Thacher St", City: "Boston, MA 02113", Website: "https://pizzeriaregina.example"},
	{ID: "santarpios", Name: "Santarpio's Pizza", Categories: []string{"pizza"}, Lat: 42.3697, Lng: -71.0365, Street: "111 Chelsea St", City: "Boston, MA 02128", Website: "https://santarpios.example"},
	{ID: "neptune", Name: "Neptune Oyster", Categories: []string{"seafood", "bar"}, Lat: 42.3633, Lng: -71.0562, Street: "63 Salem St", City: "Boston, MA 02113"},
	{ID: "tatte", Name: "Tatte Bakery", Categories: []string{"bakery", "cafe"}, Lat: 42.3587, Lng: -71.0707, Street: "70 Charles St", City: "Boston, MA 02114", Website: "https://tatte.example"},
}

// matching returns fixtures whose name or categories contain term.
// An empty term matches everything.
func matching(term string) []fixture {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return fixtures
	}

	var out []fixture
	for _, f := range fixtures {
		if strings.Contains(strings.ToLower(f.Name), term) {
			out = append(out, f)
			continue
		}
		for _, c := range f.Categories {
			if strings.Contains(c, term) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func lookup(id string) (fixture, bool) {
	for _, f := range fixtures {
		if f.ID == id {
			return f, true
		}
	}
	return fixture{}, false
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
