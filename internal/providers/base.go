package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/alex-user-go/placeomat/internal/apperr"
	"github.com/alex-user-go/placeomat/internal/config"
)

var validate = validator.New()

// base carries what every provider shares: its table entry, credential,
// HTTP client and logger.
type base struct {
	cfg    config.ProviderConfig
	apiKey string
	client *HTTPClient
	logger *slog.Logger
}

func newBase(cfg config.ProviderConfig, apiKey string, client *HTTPClient, logger *slog.Logger) base {
	return base{
		cfg:    cfg,
		apiKey: apiKey,
		client: client,
		logger: logger.With("provider", cfg.Name),
	}
}

// Name returns the provider name.
func (b *base) Name() string {
	return b.cfg.Name
}

// DisplayName returns the name reported on each place.
func (b *base) DisplayName() string {
	if b.cfg.DisplayName != "" {
		return b.cfg.DisplayName
	}
	return b.cfg.Name
}

// ParamMap returns the provider's key mapping.
func (b *base) ParamMap() ParamMap {
	return ParamMap(b.cfg.Params)
}

// Execute queries the provider's search endpoint.
func (b *base) Execute(ctx context.Context, params Params, headers http.Header) (*Response, error) {
	return b.client.Get(ctx, b.cfg.URL, params, headers)
}

// invalidCode returns an Invalid outcome for HTTP codes outside validCodes.
func invalidCode(resp *Response) (Outcome, bool) {
	if slices.Contains(validCodes, resp.StatusCode) {
		return Outcome{}, false
	}
	return Invalid(fmt.Sprintf("Got response code %d", resp.StatusCode)), true
}

// checkRadius requires radius, when present, to be a whole number no larger than maxRadius.
func checkRadius(params Params, maxRadius int) error {
	value, ok := params["radius"]
	if !ok {
		return nil
	}

	if err := validate.Var(value, "required,number"); err != nil {
		return apperr.Validationf("radius must be a whole number of meters, got %q", value)
	}
	radius, err := strconv.Atoi(value)
	if err != nil {
		return apperr.Validationf("radius must be a whole number of meters, got %q", value)
	}

	if maxRadius > 0 && radius > maxRadius {
		return apperr.Validationf("radius was %d, must be less than %d", radius, maxRadius)
	}
	return nil
}

// checkCoordinate validates a latitude or longitude string; tag is the validator tag.
func checkCoordinate(name, value, tag string) error {
	if err := validate.Var(value, "required,"+tag); err != nil {
		return apperr.Validationf("%s must be a valid %s, got %q", name, tag, value)
	}
	return nil
}
