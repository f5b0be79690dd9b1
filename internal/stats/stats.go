// Package stats computes the per-page aggregates that comparative flag rules
// rank options against.
//
// A Statistics value must be computed once per result page and shared by
// every per-option evaluation of that page. Recomputing it per option would
// let percentile rankings drift between options of the same response.
package stats

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/tripoptimizer/internal/models"
)

type Statistics struct {
	MinPrice              decimal.Decimal `json:"min_price"`
	MaxPrice              decimal.Decimal `json:"max_price"`
	P25Price              decimal.Decimal `json:"p25_price"`
	P75Price              decimal.Decimal `json:"p75_price"`
	MedianDurationMinutes int             `json:"median_duration_minutes"`
	OptionCount           int             `json:"option_count"`
}

// FromOptions collects prices and durations from a page of options.
// Options without a flight, or with a non-positive duration, only contribute
// their price.
func FromOptions(options []models.TripOption) Statistics {
	prices := make([]decimal.Decimal, 0, len(options))
	durations := make([]int, 0, len(options))

	for _, o := range options {
		prices = append(prices, o.TotalPrice)
		if o.Flight != nil && o.Flight.Duration.TotalMinutes > 0 {
			durations = append(durations, o.Flight.Duration.TotalMinutes)
		}
	}

	return Compute(prices, durations)
}

func Compute(prices []decimal.Decimal, durations []int) Statistics {
	s := Statistics{OptionCount: len(prices)}
	if len(prices) == 0 {
		return s
	}

	sorted := make([]decimal.Decimal, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})

	s.MinPrice = sorted[0]
	s.MaxPrice = sorted[len(sorted)-1]
	s.P25Price = Percentile(sorted, 25)
	s.P75Price = Percentile(sorted, 75)
	s.MedianDurationMinutes = Median(durations)

	return s
}

// Percentile uses the linear method: index (p/100)*(n-1), interpolated
// between its floor and ceiling. sorted must be ascending.
func Percentile(sorted []decimal.Decimal, p float64) decimal.Decimal {
	n := len(sorted)
	if n == 0 {
		return decimal.Zero
	}
	if n == 1 {
		return sorted[0]
	}

	index := p / 100 * float64(n-1)
	lower := int(index)
	upper := lower + 1
	if float64(lower) == index || upper >= n {
		return sorted[lower]
	}

	fraction := decimal.NewFromFloat(index - float64(lower))
	lowerVal := sorted[lower]
	return lowerVal.Add(sorted[upper].Sub(lowerVal).Mul(fraction))
}

// Median averages the two middle values for even-length input, truncating
// to whole minutes.
func Median(values []int) int {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]int, n)
	copy(sorted, values)
	sort.Ints(sorted)

	mid := n / 2
	if n%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
