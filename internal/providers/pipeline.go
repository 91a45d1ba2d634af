package providers

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
)

// Run sends query through p: map, add extra params, validate, execute, normalize.
//
// Mapping and validation failures are returned as *apperr.Error values.
// Transport failures are returned wrapped and are never turned into an Outcome.
func Run(ctx context.Context, p Provider, query Params, logger *slog.Logger) (Outcome, error) {
	mapped, err := MapParams(query, p.ParamMap())
	if err != nil {
		return Outcome{}, err
	}
	logger.Debug("mapped query",
		"provider", p.Name(),
		"keys", slices.Sorted(maps.Keys(mapped)))

	params, err := p.ValidateParams(MergeParams(mapped, p.ExtraParams()))
	if err != nil {
		return Outcome{}, err
	}

	resp, err := p.Execute(ctx, params, p.BuildHeaders())
	if err != nil {
		return Outcome{}, fmt.Errorf("query %s: %w", p.Name(), err)
	}

	outcome := p.Normalize(resp)
	logger.Debug("normalized response",
		"provider", p.Name(),
		"status_code", resp.StatusCode,
		"valid", outcome.IsValid(),
		"places", len(outcome.Places))

	return outcome, nil
}
