package models

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type SearchFilters struct {
	PriceMin         *float64 `json:"price_min,omitempty"`
	PriceMax         *float64 `json:"price_max,omitempty"`
	MaxStops         *int     `json:"max_stops,omitempty"`
	Airlines         []string `json:"airlines,omitempty"`
	DepartureTimeMin *string  `json:"departure_time_min,omitempty"`
	DepartureTimeMax *string  `json:"departure_time_max,omitempty"`
	ArrivalTimeMin   *string  `json:"arrival_time_min,omitempty"`
	ArrivalTimeMax   *string  `json:"arrival_time_max,omitempty"`
	MaxDuration      *int     `json:"max_duration,omitempty"`
}

type SearchRequest struct {
	Origin        string         `json:"origin"`
	Destination   string         `json:"destination"`
	DepartureDate string         `json:"departure_date"`
	ReturnDate    *string        `json:"return_date,omitempty"`
	Passengers    int            `json:"passengers"`
	CabinClass    string         `json:"cabin_class"`
	Filters       *SearchFilters `json:"filters,omitempty"`
	SortBy        string         `json:"sort_by,omitempty"`
	SortOrder     string         `json:"sort_order,omitempty"`
}

// AirportCode normalizes an IATA code so one route is stored and looked up
// under a single key.
func AirportCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *SearchRequest) Validate() error {
	r.Origin = AirportCode(r.Origin)
	r.Destination = AirportCode(r.Destination)
	if r.Origin == "" {
		return ErrMissingOrigin
	}
	if r.Destination == "" {
		return ErrMissingDestination
	}
	if r.DepartureDate == "" {
		return ErrMissingDepartureDate
	}
	if _, err := time.Parse(DateLayout, r.DepartureDate); err != nil {
		return ErrInvalidDepartureDate
	}
	if r.ReturnDate != nil && *r.ReturnDate != "" {
		if _, err := time.Parse(DateLayout, *r.ReturnDate); err != nil {
			return ErrInvalidReturnDate
		}
	}
	if r.Passengers <= 0 {
		r.Passengers = 1
	}
	if r.CabinClass == "" {
		r.CabinClass = "economy"
	}
	if r.SortBy == "" {
		r.SortBy = "best_value"
	}
	if r.SortOrder == "" {
		r.SortOrder = "asc"
	}
	return nil
}

func (r SearchRequest) IsRoundTrip() bool {
	return r.ReturnDate != nil && *r.ReturnDate != ""
}

// EarliestDeparture returns the parsed departure date, if it parses.
func (r SearchRequest) EarliestDeparture() (time.Time, bool) {
	t, err := time.Parse(DateLayout, r.DepartureDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin        ValidationError = "origin is required"
	ErrMissingDestination   ValidationError = "destination is required"
	ErrMissingDepartureDate ValidationError = "departure_date is required"
	ErrInvalidDepartureDate ValidationError = "departure_date must be YYYY-MM-DD"
	ErrInvalidReturnDate    ValidationError = "return_date must be YYYY-MM-DD"
	ErrNoOptions            ValidationError = "options must not be empty"
)
