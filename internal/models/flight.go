package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Airline struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Location struct {
	Airport  string    `json:"airport"`
	City     string    `json:"city"`
	Terminal *string   `json:"terminal,omitempty"`
	Time     time.Time `json:"time"`
	Timezone string    `json:"timezone"`
}

type Duration struct {
	Hours        int `json:"hours"`
	Minutes      int `json:"minutes"`
	TotalMinutes int `json:"total_minutes"`
}

func NewDuration(totalMinutes int) Duration {
	return Duration{
		Hours:        totalMinutes / 60,
		Minutes:      totalMinutes % 60,
		TotalMinutes: totalMinutes,
	}
}

type Layover struct {
	Airport  string `json:"airport"`
	City     string `json:"city"`
	Duration int    `json:"duration_minutes"`
}

type Price struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Formatted string          `json:"formatted"`
}

type Baggage struct {
	CabinKg   float64 `json:"cabin_kg"`
	CheckedKg float64 `json:"checked_kg"`
}

// Flight is one normalized leg as returned by a provider.
//
// Segments holds free-text descriptors such as "CGK 06:00 → DPS (1h 50m)".
// They are the only per-segment timing information some providers give us.
type Flight struct {
	ID             string    `json:"id"`
	Provider       string    `json:"provider"`
	Airline        Airline   `json:"airline"`
	FlightNumber   string    `json:"flight_number"`
	Departure      Location  `json:"departure"`
	Arrival        Location  `json:"arrival"`
	Duration       Duration  `json:"duration"`
	Stops          int       `json:"stops"`
	Layovers       []Layover `json:"layovers,omitempty"`
	Segments       []string  `json:"segments,omitempty"`
	Price          Price     `json:"price"`
	AvailableSeats int       `json:"available_seats"`
	CabinClass     string    `json:"cabin_class"`
	Aircraft       *string   `json:"aircraft,omitempty"`
	Amenities      []string  `json:"amenities,omitempty"`
	Baggage        Baggage   `json:"baggage"`
	MLHint         *MLHint   `json:"ml_hint,omitempty"`
}

// MLHint is the pricing model's free-text guess for an offer ("likely_down",
// "rising", "stable", ...).
type MLHint struct {
	Trend      string   `json:"trend"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// TripOption is one candidate offer for a search: an outbound flight and,
// for round trips, the paired return flight.
type TripOption struct {
	ID             string          `json:"id"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Currency       string          `json:"currency"`
	Flight         *Flight         `json:"flight,omitempty"`
	ReturnFlight   *Flight         `json:"return_flight,omitempty"`
	MLHint         *MLHint         `json:"ml_hint,omitempty"`
	BestValueScore float64         `json:"best_value_score,omitempty"`
}

func (o TripOption) IsRoundTrip() bool {
	return o.ReturnFlight != nil
}

// ReturnStops reports the stop count of the return leg, if there is one.
func (o TripOption) ReturnStops() (int, bool) {
	if o.ReturnFlight == nil {
		return 0, false
	}
	return o.ReturnFlight.Stops, true
}

// NewTripOption builds a one-way option from a single flight.
func NewTripOption(f Flight) TripOption {
	return TripOption{
		ID:         f.ID,
		TotalPrice: f.Price.Amount,
		Currency:   f.Price.Currency,
		Flight:     &f,
		MLHint:     f.MLHint,
	}
}

// NewRoundTripOption pairs an outbound and a return flight. The ML hint of
// the outbound leg is kept since it is the one priced against the search date.
func NewRoundTripOption(outbound, inbound Flight) TripOption {
	return TripOption{
		ID:           outbound.ID + "+" + inbound.ID,
		TotalPrice:   outbound.Price.Amount.Add(inbound.Price.Amount),
		Currency:     outbound.Price.Currency,
		Flight:       &outbound,
		ReturnFlight: &inbound,
		MLHint:       outbound.MLHint,
	}
}
