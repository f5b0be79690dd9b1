package ranking

import (
	"math"

	"github.com/dharmasatrya/tripoptimizer/internal/models"
	"github.com/dharmasatrya/tripoptimizer/internal/stats"
)

const (
	PriceWeight    = 0.5
	DurationWeight = 0.3
	StopsWeight    = 0.2
)

// CalculateScores returns a copy of options with BestValueScore set. Prices
// are scaled against the page maximum from s.
func CalculateScores(options []models.TripOption, s stats.Statistics) []models.TripOption {
	if len(options) == 0 {
		return options
	}

	maxPrice := s.MaxPrice.InexactFloat64()
	maxDuration := findMaxDuration(options)

	result := make([]models.TripOption, len(options))
	for i, o := range options {
		result[i] = o
		result[i].BestValueScore = CalculateBestValue(o, maxPrice, maxDuration)
	}

	return result
}

// Lower score = better value
func CalculateBestValue(option models.TripOption, maxPrice, maxDuration float64) float64 {
	priceScore := 0.0
	if maxPrice > 0 {
		priceScore = (option.TotalPrice.InexactFloat64() / maxPrice) * 100
	}

	durationScore := 0.0
	if maxDuration > 0 {
		durationScore = (float64(TotalMinutes(option)) / maxDuration) * 100
	}

	stopsScore := float64(TotalStops(option)) * 15
	score := (priceScore * PriceWeight) + (durationScore * DurationWeight) + (stopsScore * StopsWeight)

	return math.Round(score*100) / 100
}

// TotalMinutes is the flying time of both legs.
func TotalMinutes(option models.TripOption) int {
	total := 0
	if option.Flight != nil {
		total += option.Flight.Duration.TotalMinutes
	}
	if option.ReturnFlight != nil {
		total += option.ReturnFlight.Duration.TotalMinutes
	}
	return total
}

func TotalStops(option models.TripOption) int {
	total := 0
	if option.Flight != nil {
		total += option.Flight.Stops
	}
	if option.ReturnFlight != nil {
		total += option.ReturnFlight.Stops
	}
	return total
}

func findMaxDuration(options []models.TripOption) float64 {
	maxDuration := 0.0
	for _, o := range options {
		dur := float64(TotalMinutes(o))
		if dur > maxDuration {
			maxDuration = dur
		}
	}
	return maxDuration
}
