package aggregator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/tripoptimizer/internal/models"
	"github.com/dharmasatrya/tripoptimizer/internal/providers"
	"github.com/dharmasatrya/tripoptimizer/internal/ratelimit"
)

type fakeProvider struct {
	name     string
	byOrigin map[string][]models.Flight
	failures int32
	calls    atomic.Int32
	delay    time.Duration
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, req models.SearchRequest) ([]models.Flight, error) {
	n := f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n <= f.failures {
		return nil, errors.New("upstream 503")
	}
	return f.byOrigin[req.Origin], nil
}

// routeOnly fails every search that does not start at origin.
type routeOnly struct {
	providers.Provider
	origin string
}

func (r routeOnly) Search(ctx context.Context, req models.SearchRequest) ([]models.Flight, error) {
	if req.Origin != r.origin {
		return nil, errors.New("route not served")
	}
	return r.Provider.Search(ctx, req)
}

func providersOf(ps ...providers.Provider) []providers.Provider {
	return ps
}

func optionIDs(options []models.TripOption) []string {
	ids := make([]string, len(options))
	for i, o := range options {
		ids[i] = o.ID
	}
	return ids
}

func flight(id string, price int64) models.Flight {
	return models.Flight{ID: id, Price: models.Price{Amount: decimal.NewFromInt(price), Currency: "IDR"}}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelays = []time.Duration{time.Millisecond}
	return cfg
}

func oneWay() models.SearchRequest {
	return models.SearchRequest{Origin: "CGK", Destination: "DPS", DepartureDate: "2026-12-15", CabinClass: "economy"}
}

func TestSearch_OneWayMergesProviders(t *testing.T) {
	a := NewAggregator(providersOf(
		&fakeProvider{name: "b", byOrigin: map[string][]models.Flight{"CGK": {flight("B1", 900), flight("A1", 500)}}},
		&fakeProvider{name: "a", byOrigin: map[string][]models.Flight{"CGK": {flight("A1", 500), flight("A2", 700)}}},
	), testConfig())

	res, err := a.Search(context.Background(), oneWay())

	require.NoError(t, err)
	require.Len(t, res.Options, 3)
	assert.Equal(t, []string{"A1", "A2", "B1"}, optionIDs(res.Options))
	assert.Equal(t, 2, res.ProvidersQueried)
	assert.Equal(t, 2, res.ProvidersSucceeded)
	assert.Zero(t, res.ProvidersFailed)
	assert.False(t, res.Options[0].IsRoundTrip())
}

func TestSearch_RetriesThenSucceeds(t *testing.T) {
	p := &fakeProvider{name: "flaky", failures: 2, byOrigin: map[string][]models.Flight{"CGK": {flight("F1", 100)}}}
	a := NewAggregator(providersOf(p), testConfig())

	res, err := a.Search(context.Background(), oneWay())

	require.NoError(t, err)
	assert.Len(t, res.Options, 1)
	assert.Equal(t, int32(3), p.calls.Load())
}

func TestSearch_ReportsFailedProviders(t *testing.T) {
	a := NewAggregator(providersOf(
		&fakeProvider{name: "down", failures: 100},
		&fakeProvider{name: "up", byOrigin: map[string][]models.Flight{"CGK": {flight("U1", 100)}}},
	), testConfig())

	res, err := a.Search(context.Background(), oneWay())

	require.NoError(t, err)
	assert.Len(t, res.Options, 1)
	assert.Equal(t, 1, res.ProvidersFailed)
	assert.Equal(t, []string{"down"}, res.FailedProviders)
}

func TestSearch_Timeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	a := NewAggregator(providersOf(&fakeProvider{name: "slow", delay: time.Second}), cfg)

	res, err := a.Search(context.Background(), oneWay())

	require.NoError(t, err)
	assert.Empty(t, res.Options)
	assert.Equal(t, []string{"slow"}, res.FailedProviders)
}

func TestSearch_RoundTripPairsCheapestFirst(t *testing.T) {
	ret := "2026-12-20"
	req := oneWay()
	req.ReturnDate = &ret

	p := &fakeProvider{name: "p", byOrigin: map[string][]models.Flight{
		"CGK": {flight("O1", 500), flight("O2", 300)},
		"DPS": {flight("R1", 400), flight("R2", 100), {ID: "R3", Price: models.Price{Amount: decimal.NewFromInt(1), Currency: "USD"}}},
	}}
	cfg := testConfig()
	cfg.MaxRoundTrips = 3
	a := NewAggregator(providersOf(p), cfg)

	res, err := a.Search(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, []string{"O2+R2", "O1+R2", "O2+R1"}, optionIDs(res.Options))
	assert.True(t, decimal.NewFromInt(400).Equal(res.Options[0].TotalPrice))
	assert.True(t, res.Options[0].IsRoundTrip())
	assert.Equal(t, 2, res.ProvidersQueried)
}

func TestSearch_RoundTripFallsBackWhenReturnFails(t *testing.T) {
	ret := "2026-12-20"
	req := oneWay()
	req.ReturnDate = &ret

	out := &fakeProvider{name: "out", byOrigin: map[string][]models.Flight{"CGK": {flight("O1", 500)}}}
	a := NewAggregator(providersOf(routeOnly{Provider: out, origin: "CGK"}), testConfig())

	res, err := a.Search(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, res.ReturnUnavailable)
	assert.Equal(t, []string{"O1"}, optionIDs(res.Options))
	assert.False(t, res.Options[0].IsRoundTrip())
}

func TestSearch_UsesRateLimiter(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	cfg.RateLimiter = ratelimit.NewKeyedLimiter(ratelimit.Config{RequestsPerSecond: 0.001, Burst: 1})
	p := &fakeProvider{name: "limited", byOrigin: map[string][]models.Flight{"CGK": {flight("L1", 100)}}}
	a := NewAggregator(providersOf(p), cfg)

	first, err := a.Search(context.Background(), oneWay())
	require.NoError(t, err)
	assert.Len(t, first.Options, 1)

	second, err := a.Search(context.Background(), oneWay())
	require.NoError(t, err)
	assert.Empty(t, second.Options)
	assert.Equal(t, []string{"limited"}, second.FailedProviders)
}
