package providers_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/alex-user-go/placeomat/internal/apperr"
	"github.com/alex-user-go/placeomat/internal/config"
	"github.com/alex-user-go/placeomat/internal/logger"
	"github.com/alex-user-go/placeomat/internal/providers"
)

func TestFromConfig(t *testing.T) {
	t.Setenv("GMAPS_KEY", "gkey")
	t.Setenv("YELP_KEY", "")

	reg, err := providers.FromConfig(
		[]config.ProviderConfig{googleConfig("http://g"), yelpConfig("http://y")},
		providers.NewHTTPClient(time.Second),
		logger.Discard(),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(reg.Names(), []string{"google", "yelp"}) {
		t.Errorf("unexpected names %v", reg.Names())
	}

	ctor, ok := reg.Lookup("google")
	if !ok {
		t.Fatal("google not registered")
	}
	p, err := ctor()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "google" || p.DisplayName() != "Google Maps" {
		t.Errorf("unexpected provider %s / %s", p.Name(), p.DisplayName())
	}
	if p.ExtraParams()["key"] != "gkey" {
		t.Errorf("expected key from environment, got %q", p.ExtraParams()["key"])
	}

	ctor, _ = reg.Lookup("yelp")
	_, err = ctor()
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !errors.Is(err, config.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound in chain, got %v", err)
	}
}

func TestFromConfig_UnknownProvider(t *testing.T) {
	_, err := providers.FromConfig(
		[]config.ProviderConfig{{Name: "foursquare", URL: "http://f"}},
		providers.NewHTTPClient(time.Second),
		logger.Discard(),
	)
	if err == nil {
		t.Fatal("expected error for provider without implementation")
	}
}

func TestRegistry_RegisterKeepsOrder(t *testing.T) {
	reg := providers.NewRegistry()
	ctor := func() (providers.Provider, error) { return nil, nil }

	reg.Register("b", ctor)
	reg.Register("a", ctor)
	reg.Register("b", ctor)

	if !slices.Equal(reg.Names(), []string{"b", "a"}) {
		t.Errorf("unexpected names %v", reg.Names())
	}
	if _, ok := reg.Lookup("c"); ok {
		t.Error("expected c to be missing")
	}
}
