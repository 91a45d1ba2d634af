package search_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alex-user-go/placeomat/internal/apperr"
	"github.com/alex-user-go/placeomat/internal/config"
	"github.com/alex-user-go/placeomat/internal/logger"
	"github.com/alex-user-go/placeomat/internal/obs"
	"github.com/alex-user-go/placeomat/internal/providers"
	"github.com/alex-user-go/placeomat/internal/search"
)

// fakeProvider is a test provider that returns a predefined outcome.
type fakeProvider struct {
	name        string
	outcome     providers.Outcome
	validateErr error
	execErr     error
	delay       time.Duration
	executed    atomic.Bool
	gotParams   providers.Params
}

func (f *fakeProvider) Name() string        { return f.name }
func (f *fakeProvider) DisplayName() string { return f.name }

func (f *fakeProvider) ParamMap() providers.ParamMap {
	return providers.ParamMap{"search": "q", "location": "lat,lng"}
}

func (f *fakeProvider) BuildHeaders() http.Header     { return nil }
func (f *fakeProvider) ExtraParams() providers.Params { return providers.Params{"key": f.name} }

func (f *fakeProvider) ValidateParams(params providers.Params) (providers.Params, error) {
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	return params, nil
}

func (f *fakeProvider) Execute(ctx context.Context, params providers.Params, _ http.Header) (*providers.Response, error) {
	f.gotParams = params
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		}
	}
	if f.execErr != nil {
		return nil, f.execErr
	}
	f.executed.Store(true)
	return &providers.Response{StatusCode: http.StatusOK}, nil
}

func (f *fakeProvider) Normalize(*providers.Response) providers.Outcome {
	return f.outcome
}

func newAggregator(t *testing.T, fakes ...*fakeProvider) *search.Aggregator {
	t.Helper()

	reg := providers.NewRegistry()
	for _, f := range fakes {
		reg.Register(f.name, func() (providers.Provider, error) { return f, nil })
	}

	log := logger.Discard()
	return search.NewAggregator(reg, 2*time.Second, obs.NewMetrics(log), log)
}

func place(provider, id string) providers.Place {
	return providers.Place{ID: id, Provider: provider, Name: id}
}

func TestAggregator_Query_All_Merging(t *testing.T) {
	agg := newAggregator(t,
		&fakeProvider{
			name:    "google",
			delay:   50 * time.Millisecond,
			outcome: providers.Valid([]providers.Place{place("google", "G1"), place("google", "G2")}, ""),
		},
		&fakeProvider{
			name:    "yelp",
			outcome: providers.Valid([]providers.Place{place("yelp", "Y1")}, ""),
		},
	)

	result, err := agg.Query(context.Background(), search.AllProviders, providers.Params{"search": "pizza"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != http.StatusOK {
		t.Errorf("expected status 200, got %d", result.Status)
	}

	// Registration order even though google finished last
	var ids []string
	for _, p := range result.Places {
		ids = append(ids, p.ID)
	}
	if strings.Join(ids, ",") != "G1,G2,Y1" {
		t.Errorf("expected G1,G2,Y1, got %v", ids)
	}
}

func TestAggregator_Query_All_FailFast(t *testing.T) {
	slow := &fakeProvider{
		name:    "yelp",
		delay:   time.Second,
		outcome: providers.Valid([]providers.Place{place("yelp", "Y1")}, ""),
	}
	agg := newAggregator(t,
		&fakeProvider{name: "google", outcome: providers.Invalid("Query Limit Exceeded")},
		slow,
	)

	start := time.Now()
	result, err := agg.Query(context.Background(), search.AllProviders, providers.Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", result.Status)
	}
	if result.Reason != "Query Limit Exceeded" {
		t.Errorf("expected first provider's reason, got %q", result.Reason)
	}
	if len(result.Places) != 0 {
		t.Errorf("expected no places, got %v", result.Places)
	}
	if slow.executed.Load() {
		t.Error("expected slow provider to be cancelled")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("expected fail-fast, took %v", time.Since(start))
	}
}

func TestAggregator_Query_All_FailFastLaterProvider(t *testing.T) {
	agg := newAggregator(t,
		&fakeProvider{
			name:    "google",
			outcome: providers.Valid([]providers.Place{place("google", "G1")}, ""),
		},
		&fakeProvider{name: "yelp", outcome: providers.Invalid("Got response code 401")},
	)

	result, err := agg.Query(context.Background(), search.AllProviders, providers.Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != http.StatusBadRequest || result.Reason != "Got response code 401" {
		t.Errorf("unexpected result %+v", result)
	}
	if len(result.Places) != 0 {
		t.Error("partial results must not be returned")
	}
}

// Concurrent fan-out reports whichever failure cancels the group first, so the
// answer for two failing providers depends on their latency.
func TestAggregator_Query_All_LatencyDecidesReportedFailure(t *testing.T) {
	agg := newAggregator(t,
		&fakeProvider{name: "google", delay: 20 * time.Millisecond, outcome: providers.Invalid("first")},
		&fakeProvider{name: "yelp", outcome: providers.Invalid("second")},
	)

	result, err := agg.Query(context.Background(), search.AllProviders, providers.Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// google is slower and gets cancelled by yelp's failure, so yelp's reason
	// wins even though google is registered first.
	if result.Reason != "second" {
		t.Errorf("expected reason of the provider that failed, got %q", result.Reason)
	}
}

func TestAggregator_Query_All_InvalidWithoutReason(t *testing.T) {
	agg := newAggregator(t,
		&fakeProvider{name: "google", outcome: providers.Invalid("")},
		&fakeProvider{name: "yelp", outcome: providers.Valid(nil, "")},
	)

	for _, selector := range []string{search.AllProviders, "google"} {
		t.Run(selector, func(t *testing.T) {
			result, err := agg.Query(context.Background(), selector, providers.Params{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Status != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", result.Status)
			}
			if len(result.Places) != 0 {
				t.Errorf("expected no places, got %d", len(result.Places))
			}
		})
	}
}

func TestAggregator_Query_All_EmptyButValid(t *testing.T) {
	agg := newAggregator(t,
		&fakeProvider{name: "google", outcome: providers.Valid(nil, "No results found for search parameters")},
		&fakeProvider{name: "yelp", outcome: providers.Valid(nil, "No results found")},
	)

	result, err := agg.Query(context.Background(), search.AllProviders, providers.Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != http.StatusOK {
		t.Errorf("expected status 200, got %d", result.Status)
	}
	if result.Reason != "No results found" {
		t.Errorf("expected last provider's reason, got %q", result.Reason)
	}
}

func TestAggregator_Query_All_EmptyWithoutReason(t *testing.T) {
	agg := newAggregator(t,
		&fakeProvider{name: "google", outcome: providers.Valid(nil, "")},
	)

	result, err := agg.Query(context.Background(), search.AllProviders, providers.Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != http.StatusOK || result.Reason != "No results found" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestAggregator_Query_All_ValidationError(t *testing.T) {
	agg := newAggregator(t,
		&fakeProvider{
			name:    "google",
			outcome: providers.Valid([]providers.Place{place("google", "G1")}, ""),
		},
		&fakeProvider{
			name:        "yelp",
			validateErr: apperr.Validation("radius was 45000, must be less than 40000"),
		},
	)

	result, err := agg.Query(context.Background(), search.AllProviders, providers.Params{"radius": "45000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != http.StatusBadRequest || result.Reason != "radius was 45000, must be less than 40000" {
		t.Errorf("unexpected result %+v", result)
	}
	if len(result.Places) != 0 {
		t.Error("partial results must not be returned")
	}
}

func TestAggregator_Query_All_ArityError(t *testing.T) {
	agg := newAggregator(t,
		&fakeProvider{name: "google", outcome: providers.Valid(nil, "")},
	)

	result, err := agg.Query(context.Background(), search.AllProviders, providers.Params{"location": "Boston"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", result.Status)
	}
	if !strings.Contains(result.Reason, "location must have 2 comma-separated values") {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

func TestAggregator_Query_All_TransportError(t *testing.T) {
	transportErr := errors.New("connection refused")
	agg := newAggregator(t,
		&fakeProvider{name: "google", execErr: transportErr},
		&fakeProvider{name: "yelp", outcome: providers.Valid(nil, "")},
	)

	result, err := agg.Query(context.Background(), search.AllProviders, providers.Params{})
	if !errors.Is(err, transportErr) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}
}

func TestAggregator_Query_All_ConfigurationError(t *testing.T) {
	reg := providers.NewRegistry()
	reg.Register("google", func() (providers.Provider, error) {
		return nil, apperr.Configuration("missing credential for google", config.ErrKeyNotFound)
	})
	log := logger.Discard()
	agg := search.NewAggregator(reg, time.Second, obs.NewMetrics(log), log)

	_, err := agg.Query(context.Background(), search.AllProviders, providers.Params{})
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAggregator_Query_Single(t *testing.T) {
	tests := []struct {
		name       string
		provider   *fakeProvider
		wantStatus int
		wantReason string
		wantPlaces int
	}{
		{
			name:       "valid with places",
			provider:   &fakeProvider{name: "yelp", outcome: providers.Valid([]providers.Place{place("yelp", "Y1")}, "")},
			wantStatus: http.StatusOK,
			wantPlaces: 1,
		},
		{
			name:       "valid but empty",
			provider:   &fakeProvider{name: "yelp", outcome: providers.Valid(nil, "No results found")},
			wantStatus: http.StatusOK,
			wantReason: "No results found",
		},
		{
			name:       "invalid",
			provider:   &fakeProvider{name: "yelp", outcome: providers.Invalid("Got response code 500")},
			wantStatus: http.StatusBadRequest,
			wantReason: "Got response code 500",
		},
		{
			name:       "validation error",
			provider:   &fakeProvider{name: "yelp", validateErr: apperr.Validation("Specify location, lat, or long")},
			wantStatus: http.StatusBadRequest,
			wantReason: "Specify location, lat, or long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := newAggregator(t, &fakeProvider{name: "google"}, tt.provider)

			result, err := agg.Query(context.Background(), "yelp", providers.Params{"search": "pizza"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.Status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, result.Status)
			}
			if result.Reason != tt.wantReason {
				t.Errorf("expected reason %q, got %q", tt.wantReason, result.Reason)
			}
			if len(result.Places) != tt.wantPlaces {
				t.Errorf("expected %d places, got %d", tt.wantPlaces, len(result.Places))
			}
		})
	}
}

func TestAggregator_Query_SingleMapsAndMergesParams(t *testing.T) {
	f := &fakeProvider{name: "google", outcome: providers.Valid(nil, "")}
	agg := newAggregator(t, f)

	if _, err := agg.Query(context.Background(), "google", providers.Params{
		"search":   "pizza",
		"location": "1, 2",
		"key":      "caller",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := providers.Params{"q": "pizza", "lat": "1", "lng": "2", "key": "google"}
	if len(f.gotParams) != len(want) {
		t.Fatalf("expected %v, got %v", want, f.gotParams)
	}
	for k, v := range want {
		if f.gotParams[k] != v {
			t.Errorf("expected %s=%q, got %q", k, v, f.gotParams[k])
		}
	}
}

func TestAggregator_Query_UnknownProvider(t *testing.T) {
	agg := newAggregator(t, &fakeProvider{name: "google"}, &fakeProvider{name: "yelp"})

	result, err := agg.Query(context.Background(), "nonexistent", providers.Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", result.Status)
	}
	if result.Reason != "nonexistent not a valid provider, choices are google, yelp" {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

func TestAggregator_Query_ContextCancellation(t *testing.T) {
	agg := newAggregator(t, &fakeProvider{name: "google", delay: 2 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	result, err := agg.Query(ctx, search.AllProviders, providers.Params{})
	if err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
	if result != nil {
		t.Errorf("expected nil result from cancelled context, got %v", result)
	}
}

// Real providers wired through the config table.

func newRealAggregator(t *testing.T, googleURL, yelpURL string) *search.Aggregator {
	t.Helper()
	t.Setenv("GMAPS_KEY", "gkey")
	t.Setenv("YELP_KEY", "ykey")

	table := []config.ProviderConfig{
		{
			Name: "google", DisplayName: "Google Maps", KeyEnv: "GMAPS_KEY",
			URL: googleURL, DetailsURL: googleURL + "/details", MaxRadius: 50000,
			Params: map[string]string{"search": "query", "query": "query", "location": "location", "radius": "radius", "open": "opennow"},
		},
		{
			Name: "yelp", DisplayName: "Yelp", KeyEnv: "YELP_KEY",
			URL: yelpURL, DetailsURL: yelpURL + "/businesses", MaxRadius: 40000,
			Params: map[string]string{"search": "term", "query": "term", "location": "latitude,longitude", "radius": "radius", "open": "open_now"},
		},
	}

	log := logger.Discard()
	reg, err := providers.FromConfig(table, providers.NewHTTPClient(time.Second), log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return search.NewAggregator(reg, 2*time.Second, obs.NewMetrics(log), log)
}

func TestAggregator_GoogleRadiusScenario(t *testing.T) {
	agg := newRealAggregator(t, "http://127.0.0.1:1", "http://127.0.0.1:1")

	result, err := agg.Query(context.Background(), "google", providers.Params{"radius": "60000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", result.Status)
	}
	if result.Reason != "radius was 60000, must be less than 50000" {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

func TestAggregator_YelpNoResultsScenario(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"businesses": []}`))
	}))
	defer srv.Close()

	agg := newRealAggregator(t, "http://127.0.0.1:1", srv.URL)

	result, err := agg.Query(context.Background(), "yelp", providers.Params{"search": "pizza", "location": "42.36,-71.05"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != http.StatusOK {
		t.Errorf("expected status 200, got %d", result.Status)
	}
	if result.Reason != "No results found" {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

func TestAggregator_Details(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","result":{"url":"https://maps.google.com/?cid=1","website":"https://example.com"}}`))
	}))
	defer srv.Close()

	agg := newRealAggregator(t, srv.URL, srv.URL)

	result, err := agg.Details(context.Background(), "google", "ChIJ1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != http.StatusOK || result.Details.Website != "https://example.com" {
		t.Errorf("unexpected result %+v", result)
	}

	result, err = agg.Details(context.Background(), "bing", "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != http.StatusBadRequest || !strings.Contains(result.Reason, "bing not a valid provider") {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestAggregator_DetailsUnsupported(t *testing.T) {
	agg := newAggregator(t, &fakeProvider{name: "google"})

	result, err := agg.Details(context.Background(), "google", "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != http.StatusBadRequest || result.Reason != "google does not support place details" {
		t.Errorf("unexpected result %+v", result)
	}
}
