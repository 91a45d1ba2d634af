package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/alex-user-go/placeomat/internal/apperr"
	"github.com/alex-user-go/placeomat/internal/config"
)

// Google queries the Google Places text search API.
type Google struct {
	base
}

// NewGoogle creates a Google provider authenticated with apiKey.
func NewGoogle(cfg config.ProviderConfig, apiKey string, client *HTTPClient, logger *slog.Logger) *Google {
	return &Google{base: newBase(cfg, apiKey, client, logger)}
}

type googleLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googlePlace struct {
	ID               string   `json:"id"`
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Types            []string `json:"types"`
	Geometry         struct {
		Location googleLatLng `json:"location"`
	} `json:"geometry"`
}

type googleSearchResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []googlePlace `json:"results"`
}

type googleDetailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		URL     string `json:"url"`
		Website string `json:"website"`
	} `json:"result"`
}

// BuildHeaders returns nil: Google authenticates with a query parameter.
func (g *Google) BuildHeaders() http.Header {
	return nil
}

// ExtraParams adds the API key.
func (g *Google) ExtraParams() Params {
	return Params{"key": g.apiKey}
}

// ValidateParams enforces the radius cap and the lat,lng shape of location.
func (g *Google) ValidateParams(params Params) (Params, error) {
	out := MergeParams(params)

	if err := checkRadius(out, g.cfg.MaxRadius); err != nil {
		return nil, err
	}

	if loc, ok := out["location"]; ok {
		parts := splitTrim(loc)
		if len(parts) != 2 {
			return nil, apperr.Validationf("location must be latitude,longitude, got %q", loc)
		}
		if err := checkCoordinate("latitude", parts[0], "latitude"); err != nil {
			return nil, err
		}
		if err := checkCoordinate("longitude", parts[1], "longitude"); err != nil {
			return nil, err
		}
		out["location"] = parts[0] + "," + parts[1]
	}

	return out, nil
}

// Normalize converts a text search response into an Outcome.
func (g *Google) Normalize(resp *Response) Outcome {
	if outcome, bad := invalidCode(resp); bad {
		return outcome
	}

	var res googleSearchResponse
	if err := json.Unmarshal(resp.Body, &res); err != nil {
		g.logger.Warn("failed to parse response", "error", err)
		return Invalid(fmt.Sprintf("Could not parse response from %s", g.DisplayName()))
	}

	switch res.Status {
	case googleOK:
	case googleZeroResults:
		return Valid([]Place{}, googleReason(res.Status))
	default:
		g.logger.Warn("provider returned error status",
			"status", res.Status,
			"error_message", res.ErrorMessage)
		return Invalid(googleReason(res.Status))
	}

	places := make([]Place, 0, len(res.Results))
	for _, item := range res.Results {
		id := item.PlaceID
		if id == "" {
			id = item.ID
		}
		places = append(places, Place{
			ID:          id,
			Provider:    g.DisplayName(),
			Name:        item.Name,
			Description: strings.Join(item.Types, ","),
			Location: Location{
				Latitude:  item.Geometry.Location.Lat,
				Longitude: item.Geometry.Location.Lng,
			},
			Address:        item.FormattedAddress,
			MoreDetailsURL: g.DetailsURL(id),
		})
	}

	return Valid(places, "")
}

// DetailsURL builds the place details link for placeID.
func (g *Google) DetailsURL(placeID string) string {
	baseURL := g.cfg.DetailsURL
	params := url.Values{}
	params.Set("placeid", placeID)
	params.Set("key", g.apiKey)

	joiner := "?"
	if u, err := url.Parse(baseURL); err == nil && u.RawQuery != "" {
		joiner = "&"
	}

	return baseURL + joiner + params.Encode()
}

// Details looks up the Google Maps page and website of a place.
func (g *Google) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	params := Params{"placeid": placeID, "key": g.apiKey}

	resp, err := g.client.Get(ctx, g.cfg.DetailsURL, params, nil)
	if err != nil {
		return nil, fmt.Errorf("place details: %w", err)
	}
	if outcome, bad := invalidCode(resp); bad {
		return nil, apperr.Provider(outcome.Reason)
	}

	var res googleDetailsResponse
	if err := json.Unmarshal(resp.Body, &res); err != nil {
		g.logger.Warn("failed to parse details response", "error", err)
		return nil, apperr.Provider(fmt.Sprintf("Could not parse response from %s", g.DisplayName()))
	}
	if res.Status != googleOK {
		g.logger.Warn("provider returned error status",
			"status", res.Status,
			"error_message", res.ErrorMessage)
		return nil, apperr.Provider(googleReason(res.Status))
	}

	return &PlaceDetails{URL: res.Result.URL, Website: res.Result.Website}, nil
}
