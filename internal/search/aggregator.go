package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alex-user-go/placeomat/internal/apperr"
	"github.com/alex-user-go/placeomat/internal/obs"
	"github.com/alex-user-go/placeomat/internal/providers"
	"github.com/alex-user-go/placeomat/internal/search/types"
)

// AllProviders selects every registered provider.
const AllProviders = "all"

const noResultsReason = "No results found"

var errInvalidOutcome = errors.New("provider returned an invalid outcome")

// Aggregator runs queries against one or all registered providers.
type Aggregator struct {
	registry *providers.Registry
	timeout  time.Duration
	metrics  *obs.Metrics
	logger   *slog.Logger
}

// NewAggregator creates a new Aggregator.
func NewAggregator(registry *providers.Registry, timeout time.Duration, metrics *obs.Metrics, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		registry: registry,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
	}
}

// Providers returns the registered provider names in registration order.
func (a *Aggregator) Providers() []string {
	return a.registry.Names()
}

// Query runs query against the provider named selector, or against every
// provider when selector is AllProviders.
//
// Caller errors and provider failures are reported in the Result with status 400.
// A returned error means the query could not be carried out at all, for example
// a missing credential or an unreachable provider.
func (a *Aggregator) Query(ctx context.Context, selector string, query providers.Params) (*types.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if selector == AllProviders {
		return a.queryAll(ctx, query)
	}
	return a.queryOne(ctx, selector, query)
}

func (a *Aggregator) queryOne(ctx context.Context, name string, query providers.Params) (*types.Result, error) {
	ctor, ok := a.registry.Lookup(name)
	if !ok {
		return badRequest(a.unknownProvider(name)), nil
	}

	p, err := ctor()
	if err != nil {
		return nil, err
	}

	outcome, err := providers.Run(ctx, p, query, a.logger)
	if err != nil {
		if reason, ok := callerReason(err); ok {
			return badRequest(reason), nil
		}
		a.metrics.IncProviderErrors()
		return nil, err
	}

	if !outcome.IsValid() {
		a.metrics.IncProviderErrors()
		return badRequest(outcome.Reason), nil
	}
	if len(outcome.Places) == 0 {
		return noResults(outcome.Reason), nil
	}
	return &types.Result{Status: http.StatusOK, Places: outcome.Places}, nil
}

type slot struct {
	outcome   providers.Outcome
	err       error
	cancelled bool
}

// queryAll fans out to every provider concurrently. The first invalid outcome
// or failure cancels the others; results are concatenated in registration order.
// When several providers fail, the one that fails first in time cancels the rest,
// so which failure is reported can depend on provider latency.
func (a *Aggregator) queryAll(ctx context.Context, query providers.Params) (*types.Result, error) {
	names := a.registry.Names()
	slots := make([]slot, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			ctor, _ := a.registry.Lookup(name)
			p, err := ctor()
			if err != nil {
				slots[i].err = err
				return err
			}

			outcome, err := providers.Run(gctx, p, query, a.logger)
			slots[i] = slot{outcome: outcome, err: err}
			if err != nil {
				// Failing after another provider already cancelled the group.
				if _, typed := apperr.As(err); !typed && gctx.Err() != nil && ctx.Err() == nil {
					slots[i].cancelled = true
				}
				return err
			}
			if !outcome.IsValid() {
				return errInvalidOutcome
			}
			return nil
		})
	}
	groupErr := g.Wait()

	if groupErr != nil {
		return a.firstFailure(names, slots, groupErr)
	}

	var (
		places []providers.Place
		reason string
	)
	for _, s := range slots {
		places = append(places, s.outcome.Places...)
		if s.outcome.Reason != "" {
			reason = s.outcome.Reason
		}
	}

	if len(places) == 0 {
		return noResults(reason), nil
	}
	return &types.Result{Status: http.StatusOK, Places: places}, nil
}

// firstFailure reports the earliest failure in registration order, skipping
// providers that were only cancelled because another one failed first.
func (a *Aggregator) firstFailure(names []string, slots []slot, groupErr error) (*types.Result, error) {
	for i, s := range slots {
		switch {
		case s.cancelled:
			continue
		case s.err != nil:
			if reason, ok := callerReason(s.err); ok {
				return badRequest(reason), nil
			}
			a.metrics.IncProviderErrors()
			a.logger.Error("provider search failed", "provider", names[i], "error", s.err)
			return nil, s.err
		case !s.outcome.IsValid():
			a.metrics.IncProviderErrors()
			a.logger.Warn("provider returned invalid outcome", "provider", names[i], "reason", s.outcome.Reason)
			return badRequest(s.outcome.Reason), nil
		}
	}
	return nil, groupErr
}

// Details looks up a single place with the named provider.
func (a *Aggregator) Details(ctx context.Context, name, placeID string) (*types.DetailsResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	ctor, ok := a.registry.Lookup(name)
	if !ok {
		return &types.DetailsResult{Status: http.StatusBadRequest, Reason: a.unknownProvider(name)}, nil
	}

	p, err := ctor()
	if err != nil {
		return nil, err
	}

	dp, ok := p.(providers.DetailsProvider)
	if !ok {
		return &types.DetailsResult{
			Status: http.StatusBadRequest,
			Reason: fmt.Sprintf("%s does not support place details", name),
		}, nil
	}

	details, err := dp.Details(ctx, placeID)
	if err != nil {
		if reason, ok := callerReason(err); ok {
			return &types.DetailsResult{Status: http.StatusBadRequest, Reason: reason}, nil
		}
		a.metrics.IncProviderErrors()
		return nil, err
	}

	return &types.DetailsResult{Status: http.StatusOK, Details: details}, nil
}

func (a *Aggregator) unknownProvider(name string) string {
	return fmt.Sprintf("%s not a valid provider, choices are %s", name, strings.Join(a.registry.Names(), ", "))
}

// callerReason returns the caller-facing message of validation and provider errors.
func callerReason(err error) (string, bool) {
	e, ok := apperr.As(err)
	if !ok || e.HTTPStatus() != http.StatusBadRequest {
		return "", false
	}
	return e.Message, true
}

func badRequest(reason string) *types.Result {
	return &types.Result{Status: http.StatusBadRequest, Reason: reason}
}

func noResults(reason string) *types.Result {
	if reason == "" {
		reason = noResultsReason
	}
	return &types.Result{Status: http.StatusOK, Reason: reason}
}
