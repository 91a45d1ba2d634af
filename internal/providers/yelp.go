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

// Yelp queries the Yelp Fusion business search API.
type Yelp struct {
	base
}

// NewYelp creates a Yelp provider authenticated with apiKey.
func NewYelp(cfg config.ProviderConfig, apiKey string, client *HTTPClient, logger *slog.Logger) *Yelp {
	return &Yelp{base: newBase(cfg, apiKey, client, logger)}
}

type yelpBusiness struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Categories []struct {
		Alias string `json:"alias"`
		Title string `json:"title"`
	} `json:"categories"`
	Coordinates struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coordinates"`
	Location struct {
		DisplayAddress []string `json:"display_address"`
	} `json:"location"`
}

type yelpError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yelpSearchResponse struct {
	Businesses []yelpBusiness `json:"businesses"`
	Error      *yelpError     `json:"error"`
}

// BuildHeaders authenticates with a bearer token.
func (y *Yelp) BuildHeaders() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+y.apiKey)
	return h
}

// ExtraParams returns no parameters: the key travels in a header.
func (y *Yelp) ExtraParams() Params {
	return Params{}
}

// ValidateParams enforces the radius cap and requires a location or both coordinates.
// An open_now flag given without a value is treated as true.
func (y *Yelp) ValidateParams(params Params) (Params, error) {
	out := MergeParams(params)

	if err := checkRadius(out, y.cfg.MaxRadius); err != nil {
		return nil, err
	}

	lat, hasLat := out["latitude"]
	lng, hasLng := out["longitude"]
	if _, hasLocation := out["location"]; !hasLocation && !(hasLat && hasLng) {
		return nil, apperr.Validation(yelpReasons[yelpValidationError])
	}
	if hasLat {
		if err := checkCoordinate("latitude", lat, "latitude"); err != nil {
			return nil, err
		}
	}
	if hasLng {
		if err := checkCoordinate("longitude", lng, "longitude"); err != nil {
			return nil, err
		}
	}

	if open, ok := out["open_now"]; ok && strings.TrimSpace(open) == "" {
		out["open_now"] = "true"
	}

	return out, nil
}

// Normalize converts a business search response into an Outcome.
func (y *Yelp) Normalize(resp *Response) Outcome {
	if outcome, bad := invalidCode(resp); bad {
		var res yelpSearchResponse
		if err := json.Unmarshal(resp.Body, &res); err == nil && res.Error != nil {
			y.logger.Warn("provider returned error",
				"status_code", resp.StatusCode,
				"code", res.Error.Code,
				"reason", yelpReason(res.Error.Code),
				"description", res.Error.Description)
		}
		return outcome
	}

	var res yelpSearchResponse
	if err := json.Unmarshal(resp.Body, &res); err != nil {
		y.logger.Warn("failed to parse response", "error", err)
		return Invalid(fmt.Sprintf("Could not parse response from %s", y.DisplayName()))
	}
	if res.Error != nil {
		y.logger.Warn("provider returned error", "code", res.Error.Code, "description", res.Error.Description)
		return Invalid(yelpReason(res.Error.Code))
	}

	if len(res.Businesses) == 0 {
		return Valid([]Place{}, noResultsReason)
	}

	places := make([]Place, 0, len(res.Businesses))
	for _, item := range res.Businesses {
		titles := make([]string, 0, len(item.Categories))
		for _, c := range item.Categories {
			titles = append(titles, c.Title)
		}
		places = append(places, Place{
			ID:          item.ID,
			Provider:    y.DisplayName(),
			Name:        item.Name,
			Description: strings.Join(titles, ","),
			Location: Location{
				Latitude:  item.Coordinates.Latitude,
				Longitude: item.Coordinates.Longitude,
			},
			Address:        strings.Join(item.Location.DisplayAddress, " "),
			MoreDetailsURL: item.URL,
		})
	}

	return Valid(places, "")
}

// Details looks up a business and returns its Yelp page.
// Yelp does not expose the business's own website, so Website stays empty.
func (y *Yelp) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	detailsURL := strings.TrimSuffix(y.cfg.DetailsURL, "/") + "/" + url.PathEscape(placeID)

	resp, err := y.client.Get(ctx, detailsURL, nil, y.BuildHeaders())
	if err != nil {
		return nil, fmt.Errorf("place details: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.Provider(yelpReasons[yelpNotFound])
	}
	if outcome, bad := invalidCode(resp); bad {
		return nil, apperr.Provider(outcome.Reason)
	}

	var business yelpBusiness
	if err := json.Unmarshal(resp.Body, &business); err != nil {
		y.logger.Warn("failed to parse details response", "error", err)
		return nil, apperr.Provider(fmt.Sprintf("Could not parse response from %s", y.DisplayName()))
	}

	return &PlaceDetails{URL: business.URL}, nil
}
