// Package aggregator fans a search out to every provider and assembles
// trip options from the flights they return.
package aggregator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dharmasatrya/tripoptimizer/internal/logging"
	"github.com/dharmasatrya/tripoptimizer/internal/metrics"
	"github.com/dharmasatrya/tripoptimizer/internal/models"
	"github.com/dharmasatrya/tripoptimizer/internal/providers"
	"github.com/dharmasatrya/tripoptimizer/internal/ratelimit"
)

type Config struct {
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
	// MaxRoundTrips caps the outbound x return pairs, cheapest first.
	MaxRoundTrips int
	RateLimiter   *ratelimit.KeyedLimiter
}

func DefaultConfig() Config {
	return Config{
		Timeout:       5 * time.Second,
		MaxRetries:    2,
		RetryDelays:   []time.Duration{100 * time.Millisecond, 200 * time.Millisecond},
		MaxRoundTrips: 50,
	}
}

type Aggregator struct {
	providers []providers.Provider
	config    Config
}

type Result struct {
	Options            []models.TripOption
	ProvidersQueried   int
	ProvidersSucceeded int
	ProvidersFailed    int
	FailedProviders    []string
	// ReturnUnavailable is set when a round trip fell back to one-way
	// options because no return leg could be fetched.
	ReturnUnavailable bool
}

func NewAggregator(providerList []providers.Provider, config Config) *Aggregator {
	return &Aggregator{
		providers: providerList,
		config:    config,
	}
}

type legResult struct {
	flights   []models.Flight
	queried   int
	succeeded int
	failed    []string
}

// Search returns one option per flight for one-way requests and paired
// outbound/return options for round trips.
func (a *Aggregator) Search(ctx context.Context, req models.SearchRequest) (*Result, error) {
	if !req.IsRoundTrip() {
		leg := a.searchLeg(ctx, req)
		options := make([]models.TripOption, len(leg.flights))
		for i, f := range leg.flights {
			options[i] = models.NewTripOption(f)
		}
		return newResult(options, leg), nil
	}

	returnReq := req
	returnReq.Origin, returnReq.Destination = req.Destination, req.Origin
	returnReq.DepartureDate = *req.ReturnDate
	returnReq.ReturnDate = nil

	var outbound, inbound legResult
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		outbound = a.searchLeg(ctx, req)
	}()
	go func() {
		defer wg.Done()
		inbound = a.searchLeg(ctx, returnReq)
	}()
	wg.Wait()

	if len(inbound.flights) == 0 && len(inbound.failed) > 0 {
		logging.Ctx(ctx).Warn().Strs("providers", inbound.failed).Msg("return leg unavailable, falling back to one-way options")
		options := make([]models.TripOption, len(outbound.flights))
		for i, f := range outbound.flights {
			options[i] = models.NewTripOption(f)
		}
		res := newResult(options, outbound)
		res.ReturnUnavailable = true
		return res, nil
	}

	options := pair(outbound.flights, inbound.flights, a.config.MaxRoundTrips)
	res := newResult(options, outbound)
	res.ProvidersQueried += inbound.queried
	res.ProvidersSucceeded += inbound.succeeded
	res.ProvidersFailed += len(inbound.failed)
	res.FailedProviders = append(res.FailedProviders, inbound.failed...)
	return res, nil
}

func newResult(options []models.TripOption, leg legResult) *Result {
	return &Result{
		Options:            options,
		ProvidersQueried:   leg.queried,
		ProvidersSucceeded: leg.succeeded,
		ProvidersFailed:    len(leg.failed),
		FailedProviders:    leg.failed,
	}
}

// pair combines every outbound with every return in the same currency and
// keeps the cheapest limit combinations.
func pair(outbound, inbound []models.Flight, limit int) []models.TripOption {
	var options []models.TripOption
	for _, out := range outbound {
		for _, in := range inbound {
			if out.Price.Currency != in.Price.Currency {
				continue
			}
			options = append(options, models.NewRoundTripOption(out, in))
		}
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].TotalPrice.LessThan(options[j].TotalPrice)
	})
	if limit > 0 && len(options) > limit {
		options = options[:limit]
	}
	return options
}

func (a *Aggregator) searchLeg(ctx context.Context, req models.SearchRequest) legResult {
	searchCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	type providerResult struct {
		provider string
		flights  []models.Flight
		err      error
	}

	resultCh := make(chan providerResult, len(a.providers))
	var wg sync.WaitGroup

	for _, p := range a.providers {
		wg.Add(1)
		go func(provider providers.Provider) {
			defer wg.Done()

			if a.config.RateLimiter != nil {
				if err := a.config.RateLimiter.Wait(searchCtx, provider.Name()); err != nil {
					resultCh <- providerResult{provider: provider.Name(), err: err}
					return
				}
			}

			start := time.Now()
			flights, err := a.searchWithRetry(searchCtx, provider, req)
			metrics.ObserveProvider(provider.Name(), time.Since(start), err)
			resultCh <- providerResult{provider: provider.Name(), flights: flights, err: err}
		}(p)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	res := legResult{queried: len(a.providers)}
	seen := make(map[string]bool)
	for pr := range resultCh {
		if pr.err != nil {
			logging.Ctx(ctx).Warn().Err(pr.err).Str("provider", pr.provider).Msg("provider search failed")
			res.failed = append(res.failed, pr.provider)
			continue
		}
		res.succeeded++
		for _, f := range pr.flights {
			if seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			res.flights = append(res.flights, f)
		}
	}

	// Providers answer in any order; keep output deterministic.
	sort.SliceStable(res.flights, func(i, j int) bool {
		return res.flights[i].ID < res.flights[j].ID
	})
	sort.Strings(res.failed)
	return res
}

func (a *Aggregator) searchWithRetry(ctx context.Context, provider providers.Provider, req models.SearchRequest) ([]models.Flight, error) {
	var lastErr error

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 && len(a.config.RetryDelays) > 0 {
			idx := min(attempt-1, len(a.config.RetryDelays)-1)
			select {
			case <-time.After(a.config.RetryDelays[idx]):
			case <-ctx.Done():
				return nil, providers.NewProviderError(provider.Name(), ctx.Err())
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, providers.NewProviderError(provider.Name(), err)
		}

		flights, err := provider.Search(ctx, req)
		if err == nil {
			return flights, nil
		}

		lastErr = err
		logging.Ctx(ctx).Debug().Err(err).Str("provider", provider.Name()).Int("attempt", attempt+1).Msg("provider attempt failed")
	}

	return nil, providers.NewProviderError(provider.Name(), lastErr)
}
