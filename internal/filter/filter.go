package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/tripoptimizer/internal/models"
	"github.com/dharmasatrya/tripoptimizer/internal/ranking"
	"github.com/dharmasatrya/tripoptimizer/internal/stats"
)

// SortConfidence orders by buy/wait confidence. Options carry no confidence
// of their own, so Apply leaves that ordering to the caller after evaluation.
const SortConfidence = "confidence"

// Apply filters options and sorts them. It returns the statistics of the
// filtered page, which the best-value scores were computed against, so the
// caller can share them instead of computing them again.
func Apply(options []models.TripOption, filters *models.SearchFilters, sortBy, sortOrder string) ([]models.TripOption, stats.Statistics) {
	filtered := applyFilters(options, filters)
	s := stats.FromOptions(filtered)
	filtered = ranking.CalculateScores(filtered, s)
	return applySort(filtered, sortBy, sortOrder), s
}

func applyFilters(options []models.TripOption, filters *models.SearchFilters) []models.TripOption {
	if filters == nil {
		return options
	}

	result := make([]models.TripOption, 0, len(options))

	for _, o := range options {
		if matchesFilters(o, filters) {
			result = append(result, o)
		}
	}

	return result
}

func matchesFilters(o models.TripOption, filters *models.SearchFilters) bool {
	if filters.PriceMin != nil && o.TotalPrice.LessThan(decimal.NewFromFloat(*filters.PriceMin)) {
		return false
	}
	if filters.PriceMax != nil && o.TotalPrice.GreaterThan(decimal.NewFromFloat(*filters.PriceMax)) {
		return false
	}

	legs := legsOf(o)
	if len(legs) == 0 {
		return !needsFlight(filters)
	}

	for _, f := range legs {
		if filters.MaxStops != nil && f.Stops > *filters.MaxStops {
			return false
		}
		if len(filters.Airlines) > 0 && !airlineAllowed(f.Airline.Code, filters.Airlines) {
			return false
		}
		if filters.MaxDuration != nil && f.Duration.TotalMinutes > *filters.MaxDuration {
			return false
		}
	}

	// Time-of-day windows apply to the outbound leg.
	out := legs[0]
	if !withinWindow(out.Departure.Time, filters.DepartureTimeMin, filters.DepartureTimeMax) {
		return false
	}
	if !withinWindow(out.Arrival.Time, filters.ArrivalTimeMin, filters.ArrivalTimeMax) {
		return false
	}

	return true
}

func legsOf(o models.TripOption) []*models.Flight {
	var legs []*models.Flight
	if o.Flight != nil {
		legs = append(legs, o.Flight)
	}
	if o.ReturnFlight != nil {
		legs = append(legs, o.ReturnFlight)
	}
	return legs
}

func needsFlight(f *models.SearchFilters) bool {
	return f.MaxStops != nil || len(f.Airlines) > 0 || f.MaxDuration != nil ||
		f.DepartureTimeMin != nil || f.DepartureTimeMax != nil ||
		f.ArrivalTimeMin != nil || f.ArrivalTimeMax != nil
}

func airlineAllowed(code string, airlines []string) bool {
	for _, airline := range airlines {
		if strings.EqualFold(code, airline) {
			return true
		}
	}
	return false
}

// withinWindow compares the local clock of t. Unparseable bounds are ignored.
func withinWindow(t time.Time, minClock, maxClock *string) bool {
	clock := t.Hour()*60 + t.Minute()
	if minClock != nil {
		if m, err := parseTimeOfDay(*minClock); err == nil && clock < m {
			return false
		}
	}
	if maxClock != nil {
		if m, err := parseTimeOfDay(*maxClock); err == nil && clock > m {
			return false
		}
	}
	return true
}

func parseTimeOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func applySort(options []models.TripOption, sortBy, sortOrder string) []models.TripOption {
	if len(options) == 0 {
		return options
	}

	ascending := strings.ToLower(sortOrder) != "desc"
	less := func(a, b bool) bool {
		if ascending {
			return a
		}
		return b
	}

	switch strings.ToLower(sortBy) {
	case "price":
		sort.SliceStable(options, func(i, j int) bool {
			return less(options[i].TotalPrice.LessThan(options[j].TotalPrice), options[i].TotalPrice.GreaterThan(options[j].TotalPrice))
		})

	case "duration":
		sort.SliceStable(options, func(i, j int) bool {
			a, b := ranking.TotalMinutes(options[i]), ranking.TotalMinutes(options[j])
			return less(a < b, a > b)
		})

	case "departure":
		sort.SliceStable(options, func(i, j int) bool {
			a, b := departureOf(options[i]), departureOf(options[j])
			return less(a.Before(b), a.After(b))
		})

	case "arrival":
		sort.SliceStable(options, func(i, j int) bool {
			a, b := arrivalOf(options[i]), arrivalOf(options[j])
			return less(a.Before(b), a.After(b))
		})

	case "best_value":
		sort.SliceStable(options, func(i, j int) bool {
			a, b := options[i].BestValueScore, options[j].BestValueScore
			return less(a < b, a > b)
		})

	case "stops":
		sort.SliceStable(options, func(i, j int) bool {
			a, b := ranking.TotalStops(options[i]), ranking.TotalStops(options[j])
			return less(a < b, a > b)
		})

	case SortConfidence:

	default:
		// Default to price ascending
		sort.SliceStable(options, func(i, j int) bool {
			return options[i].TotalPrice.LessThan(options[j].TotalPrice)
		})
	}

	return options
}

func departureOf(o models.TripOption) time.Time {
	if o.Flight == nil {
		return time.Time{}
	}
	return o.Flight.Departure.Time
}

func arrivalOf(o models.TripOption) time.Time {
	if o.Flight == nil {
		return time.Time{}
	}
	return o.Flight.Arrival.Time
}
