// Package providers adapts airline fare sources to models.Flight.
package providers

import (
	"context"
	"time"

	"github.com/dharmasatrya/tripoptimizer/internal/models"
)

// Provider returns the flights one source offers for a one-way search.
type Provider interface {
	Name() string
	Search(ctx context.Context, req models.SearchRequest) ([]models.Flight, error)
}

type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Err:      err,
	}
}

// latency simulates the upstream round trip, honouring cancellation.
func latency(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
