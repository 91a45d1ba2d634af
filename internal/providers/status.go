package providers

// Google Places status values.
const (
	googleOK             = "OK"
	googleZeroResults    = "ZERO_RESULTS"
	googleOverLimit      = "OVER_QUERY_LIMIT"
	googleRequestDenied  = "REQUEST_DENIED"
	googleInvalidRequest = "INVALID_REQUEST"
	googleUnknownError   = "UNKNOWN_ERROR"
	googleNotFound       = "NOT_FOUND"
)

// Reasons are canned so quota and credential problems are not exposed verbatim.
var googleReasons = map[string]string{
	googleOK:             "No errors occurred",
	googleZeroResults:    "No results found for search parameters",
	googleOverLimit:      "Query Limit Exceeded",
	googleRequestDenied:  "Missing required parameters",
	googleInvalidRequest: "Missing required parameters",
	googleUnknownError:   "Unknown error; please try again",
	googleNotFound:       "No results for Place ID",
}

// Yelp Fusion error codes.
const (
	yelpTokenMissing    = "TOKEN_MISSING"
	yelpValidationError = "VALIDATION_ERROR"
	yelpNotFound        = "BUSINESS_NOT_FOUND"
)

var yelpReasons = map[string]string{
	yelpTokenMissing:    "API Key is missing!",
	yelpValidationError: "Specify location, lat, or long",
	yelpNotFound:        "No results for Place ID",
}

const (
	noResultsReason = "No results found"
	unknownReason   = "Unknown error; please try again"
)

// validCodes lists the HTTP status codes a provider answers successfully with.
var validCodes = []int{200}

func googleReason(status string) string {
	if r, ok := googleReasons[status]; ok {
		return r
	}
	return unknownReason
}

func yelpReason(code string) string {
	if r, ok := yelpReasons[code]; ok {
		return r
	}
	return unknownReason
}
