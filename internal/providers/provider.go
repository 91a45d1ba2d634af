package providers

import (
	"context"
	"net/http"
)

// Location is a latitude/longitude pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a search result normalized across providers.
type Place struct {
	ID             string   `json:"id"`
	Provider       string   `json:"provider"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Location       Location `json:"location"`
	Address        string   `json:"address"`
	MoreDetailsURL string   `json:"more_details_url"`
}

// PlaceDetails holds the links returned by a place details lookup.
type PlaceDetails struct {
	URL     string `json:"url"`
	Website string `json:"website"`
}

// Response is the raw answer of a provider endpoint.
type Response struct {
	StatusCode int
	Body       []byte
}

// OutcomeStatus tells whether a provider produced usable results.
type OutcomeStatus int

const (
	StatusInvalid OutcomeStatus = iota
	StatusValid
)

// Outcome is the normalized result of a single provider query.
// A valid outcome may carry zero places and a reason such as "No results found".
type Outcome struct {
	Status OutcomeStatus
	Places []Place
	Reason string
}

// Valid builds a successful outcome.
func Valid(places []Place, reason string) Outcome {
	return Outcome{Status: StatusValid, Places: places, Reason: reason}
}

// Invalid builds a failed outcome.
func Invalid(reason string) Outcome {
	return Outcome{Status: StatusInvalid, Reason: reason}
}

// IsValid reports whether the outcome is valid.
func (o Outcome) IsValid() bool {
	return o.Status == StatusValid
}

// Provider defines the contract every place-search integration implements.
type Provider interface {
	// Name is the registry key used to select the provider, e.g. "google".
	Name() string
	// DisplayName is reported in Place.Provider.
	DisplayName() string
	// ParamMap translates generic query keys into the provider's parameter names.
	ParamMap() ParamMap
	// BuildHeaders returns request headers, such as an Authorization bearer token.
	BuildHeaders() http.Header
	// ExtraParams returns fixed parameters not derived from the caller, such as an API key.
	ExtraParams() Params
	// ValidateParams applies provider rules to mapped parameters and may adjust them.
	ValidateParams(params Params) (Params, error)
	// Execute sends the query upstream.
	Execute(ctx context.Context, params Params, headers http.Header) (*Response, error)
	// Normalize turns a raw response into an Outcome.
	Normalize(resp *Response) Outcome
}

// DetailsProvider is implemented by providers that can look up a single place.
type DetailsProvider interface {
	Details(ctx context.Context, placeID string) (*PlaceDetails, error)
}
