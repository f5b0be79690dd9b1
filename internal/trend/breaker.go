// Package trend looks up route price trends for the buy/wait policy,
// shielding callers from a slow or failing history store.
package trend

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/dharmasatrya/tripoptimizer/internal/history"
	"github.com/dharmasatrya/tripoptimizer/internal/logging"
	"github.com/dharmasatrya/tripoptimizer/internal/metrics"
)

// Lookup is implemented by history.Service and by the wrappers here.
type Lookup interface {
	ComputeTrend(ctx context.Context, origin, destination string, departure time.Time) (history.TrendResult, error)
}

type BreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// Breaker opens after repeated history failures so searches stop paying
// for a lookup that will not succeed.
type Breaker struct {
	next Lookup
	cb   *gobreaker.CircuitBreaker[history.TrendResult]
	name string
}

func NewBreaker(name string, next Lookup, cfg BreakerConfig) *Breaker {
	metrics.BreakerState.WithLabelValues(name).Set(0)
	logger := logging.WithComponent("breaker")

	cb := gobreaker.NewCircuitBreaker[history.TrendResult](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Breaker{next: next, cb: cb, name: name}
}

func (b *Breaker) ComputeTrend(ctx context.Context, origin, destination string, departure time.Time) (history.TrendResult, error) {
	r, err := b.cb.Execute(func() (history.TrendResult, error) {
		return b.next.ComputeTrend(ctx, origin, destination, departure)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.TrendLookups.WithLabelValues("open").Inc()
	}
	return r, err
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
