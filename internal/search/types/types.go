package types

import "github.com/alex-user-go/placeomat/internal/providers"

// Result represents the aggregated answer to a search.
// Places is non-empty on success; otherwise Reason explains the outcome.
type Result struct {
	Status int
	Places []providers.Place
	Reason string
}

// Reason is the JSON body returned when there are no places to show.
type Reason struct {
	Reason string `json:"reason"`
}

// DetailsResult represents the answer to a place details lookup.
// Details is set on success; otherwise Reason explains the failure.
type DetailsResult struct {
	Status  int
	Details *providers.PlaceDetails
	Reason  string
}
