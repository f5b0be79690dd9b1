package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/tripoptimizer/internal/models"
	"github.com/dharmasatrya/tripoptimizer/internal/providers/data"
	"github.com/dharmasatrya/tripoptimizer/internal/segment"
	"github.com/dharmasatrya/tripoptimizer/internal/timezone"
	"github.com/dharmasatrya/tripoptimizer/pkg/currency"
)

type garudaResponse struct {
	Flights []garudaFlight `json:"flights"`
}

type garudaFlight struct {
	FlightID     string          `json:"flight_id"`
	Airline      garudaAirline   `json:"airline"`
	FlightNumber string          `json:"flight_number"`
	Departure    garudaLocation  `json:"departure"`
	Arrival      garudaLocation  `json:"arrival"`
	Duration     int             `json:"duration_minutes"`
	Stops        int             `json:"stops"`
	Segments     []garudaSegment `json:"segments"`
	Price        garudaPrice     `json:"price"`
	Seats        int             `json:"available_seats"`
	CabinClass   string          `json:"cabin_class"`
	Aircraft     string          `json:"aircraft"`
	Amenities    []string        `json:"amenities"`
	Baggage      garudaBaggage   `json:"baggage"`
	FareTrend    *garudaTrend    `json:"fare_trend,omitempty"`
}

type garudaAirline struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type garudaLocation struct {
	Airport  string `json:"airport"`
	City     string `json:"city"`
	Terminal string `json:"terminal"`
	Time     string `json:"time"`
}

type garudaSegment struct {
	From      string `json:"from"`
	To        string `json:"to"`
	DepartsAt string `json:"departs_at"`
	Duration  int    `json:"duration_minutes"`
}

type garudaPrice struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type garudaBaggage struct {
	CarryOn int `json:"carry_on"`
	Checked int `json:"checked"`
}

type garudaTrend struct {
	Direction  string   `json:"direction"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// GarudaProvider serves structured segments; they are rendered into
// descriptors with every clock in the itinerary origin's zone so ground
// times between segments stay consistent.
type GarudaProvider struct {
	flights  []garudaFlight
	minDelay time.Duration
	jitter   time.Duration
}

func NewGarudaProvider() (*GarudaProvider, error) {
	var resp garudaResponse
	if err := json.Unmarshal(data.GarudaData, &resp); err != nil {
		return nil, fmt.Errorf("decode garuda fixture: %w", err)
	}
	return &GarudaProvider{flights: resp.Flights, minDelay: 50 * time.Millisecond, jitter: 50 * time.Millisecond}, nil
}

func (p *GarudaProvider) Name() string {
	return "garuda"
}

func (p *GarudaProvider) Search(ctx context.Context, req models.SearchRequest) ([]models.Flight, error) {
	if err := latency(ctx, p.minDelay+jitter(p.jitter)); err != nil {
		return nil, err
	}

	var results []models.Flight
	for _, f := range p.flights {
		if !strings.EqualFold(f.Departure.Airport, req.Origin) ||
			!strings.EqualFold(f.Arrival.Airport, req.Destination) ||
			!strings.EqualFold(f.CabinClass, req.CabinClass) {
			continue
		}

		flight, err := p.normalize(f)
		if err != nil {
			continue
		}
		if !timezone.SameLocalDay(flight.Departure.Time, f.Departure.Airport, req.DepartureDate) {
			continue
		}
		results = append(results, flight)
	}

	return results, nil
}

func (p *GarudaProvider) normalize(f garudaFlight) (models.Flight, error) {
	depTime, err := timezone.Parse(f.Departure.Time, "")
	if err != nil {
		return models.Flight{}, err
	}
	arrTime, err := timezone.Parse(f.Arrival.Time, "")
	if err != nil {
		return models.Flight{}, err
	}

	descriptors, layovers, err := garudaSegments(f)
	if err != nil {
		return models.Flight{}, err
	}

	var hint *models.MLHint
	if f.FareTrend != nil && f.FareTrend.Direction != "" {
		hint = &models.MLHint{Trend: f.FareTrend.Direction, Confidence: f.FareTrend.Confidence}
	}

	return models.Flight{
		ID:           f.FlightID,
		Provider:     p.Name(),
		Airline:      models.Airline{Code: f.Airline.Code, Name: f.Airline.Name},
		FlightNumber: f.FlightNumber,
		Departure: models.Location{
			Airport:  f.Departure.Airport,
			City:     f.Departure.City,
			Terminal: optional(f.Departure.Terminal),
			Time:     timezone.AtAirport(depTime, f.Departure.Airport),
			Timezone: timezone.NameByAirport(f.Departure.Airport),
		},
		Arrival: models.Location{
			Airport:  f.Arrival.Airport,
			City:     f.Arrival.City,
			Terminal: optional(f.Arrival.Terminal),
			Time:     timezone.AtAirport(arrTime, f.Arrival.Airport),
			Timezone: timezone.NameByAirport(f.Arrival.Airport),
		},
		Duration: models.NewDuration(f.Duration),
		Stops:    f.Stops,
		Layovers: layovers,
		Segments: descriptors,
		Price: models.Price{
			Amount:    f.Price.Amount,
			Currency:  f.Price.Currency,
			Formatted: currency.Format(f.Price.Amount, f.Price.Currency),
		},
		AvailableSeats: f.Seats,
		CabinClass:     f.CabinClass,
		Aircraft:       optional(f.Aircraft),
		Amenities:      f.Amenities,
		Baggage: models.Baggage{
			CabinKg:   float64(f.Baggage.CarryOn),
			CheckedKg: float64(f.Baggage.Checked),
		},
		MLHint: hint,
	}, nil
}

func garudaSegments(f garudaFlight) ([]string, []models.Layover, error) {
	origin := f.Departure.Airport
	descriptors := make([]string, 0, len(f.Segments))
	var layovers []models.Layover
	var prevArrival time.Time

	for i, s := range f.Segments {
		dep, err := timezone.Parse(s.DepartsAt, "")
		if err != nil {
			return nil, nil, fmt.Errorf("segment %d: %w", i, err)
		}
		clock := timezone.ClockAt(dep, origin)
		descriptors = append(descriptors, segment.Format(segment.Segment{
			Origin:          s.From,
			Destination:     s.To,
			DepartureTime:   &clock,
			DurationMinutes: s.Duration,
		}))

		if i > 0 {
			layovers = append(layovers, models.Layover{
				Airport:  s.From,
				Duration: int(dep.Sub(prevArrival).Minutes()),
			})
		}
		prevArrival = dep.Add(time.Duration(s.Duration) * time.Minute)
	}
	return descriptors, layovers, nil
}

func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}
