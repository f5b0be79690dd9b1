package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/tripoptimizer/internal/models"
	"github.com/dharmasatrya/tripoptimizer/internal/providers/data"
	"github.com/dharmasatrya/tripoptimizer/internal/timezone"
	"github.com/dharmasatrya/tripoptimizer/pkg/currency"
)

type lionResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Flights []lionFlight `json:"available_flights"`
	} `json:"data"`
}

type lionFlight struct {
	ID           string        `json:"id"`
	Carrier      lionCarrier   `json:"carrier"`
	FlightNumber string        `json:"flight_number"`
	Route        lionRoute     `json:"route"`
	Schedule     lionSchedule  `json:"schedule"`
	FlightTime   int           `json:"flight_time"`
	IsDirect     bool          `json:"is_direct"`
	StopCount    int           `json:"stop_count"`
	Legs         []string      `json:"legs"`
	Layovers     []lionLayover `json:"layovers,omitempty"`
	Pricing      lionPricing   `json:"pricing"`
	SeatsLeft    int           `json:"seats_left"`
	PlaneType    string        `json:"plane_type"`
	Services     lionServices  `json:"services"`
	FareOutlook  *lionOutlook  `json:"fare_outlook,omitempty"`
}

type lionCarrier struct {
	Name string `json:"name"`
	IATA string `json:"iata"`
}

type lionRoute struct {
	From lionAirport `json:"from"`
	To   lionAirport `json:"to"`
}

type lionAirport struct {
	Code string `json:"code"`
	Name string `json:"name"`
	City string `json:"city"`
}

type lionSchedule struct {
	Departure         string `json:"departure"`
	DepartureTimezone string `json:"departure_timezone"`
	Arrival           string `json:"arrival"`
	ArrivalTimezone   string `json:"arrival_timezone"`
}

type lionLayover struct {
	Airport  string `json:"airport"`
	City     string `json:"city"`
	Duration int    `json:"duration_minutes"`
}

type lionPricing struct {
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
	FareType string          `json:"fare_type"`
}

type lionServices struct {
	WifiAvailable    bool `json:"wifi_available"`
	MealsIncluded    bool `json:"meals_included"`
	BaggageAllowance struct {
		Cabin string `json:"cabin"`
		Hold  string `json:"hold"`
	} `json:"baggage_allowance"`
}

type lionOutlook struct {
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// LionAirProvider passes its legacy free-text legs through unchanged.
type LionAirProvider struct {
	flights  []lionFlight
	minDelay time.Duration
	jitter   time.Duration
}

func NewLionAirProvider() (*LionAirProvider, error) {
	var resp lionResponse
	if err := json.Unmarshal(data.LionAirData, &resp); err != nil {
		return nil, fmt.Errorf("decode lion air fixture: %w", err)
	}
	return &LionAirProvider{flights: resp.Data.Flights, minDelay: 100 * time.Millisecond, jitter: 100 * time.Millisecond}, nil
}

func (p *LionAirProvider) Name() string {
	return "lionair"
}

func (p *LionAirProvider) Search(ctx context.Context, req models.SearchRequest) ([]models.Flight, error) {
	if err := latency(ctx, p.minDelay+jitter(p.jitter)); err != nil {
		return nil, err
	}

	var results []models.Flight
	for _, f := range p.flights {
		if !strings.EqualFold(f.Route.From.Code, req.Origin) ||
			!strings.EqualFold(f.Route.To.Code, req.Destination) ||
			!strings.EqualFold(f.Pricing.FareType, req.CabinClass) {
			continue
		}

		flight, err := p.normalize(f)
		if err != nil {
			continue
		}
		if !timezone.SameLocalDay(flight.Departure.Time, f.Route.From.Code, req.DepartureDate) {
			continue
		}
		results = append(results, flight)
	}

	return results, nil
}

func (p *LionAirProvider) normalize(f lionFlight) (models.Flight, error) {
	depTime, err := timezone.Parse(f.Schedule.Departure, f.Schedule.DepartureTimezone)
	if err != nil {
		return models.Flight{}, err
	}
	arrTime, err := timezone.Parse(f.Schedule.Arrival, f.Schedule.ArrivalTimezone)
	if err != nil {
		return models.Flight{}, err
	}

	stops := f.StopCount
	if f.IsDirect {
		stops = 0
	}

	layovers := make([]models.Layover, len(f.Layovers))
	for i, l := range f.Layovers {
		layovers[i] = models.Layover{Airport: l.Airport, City: l.City, Duration: l.Duration}
	}

	var amenities []string
	if f.Services.WifiAvailable {
		amenities = append(amenities, "wifi")
	}
	if f.Services.MealsIncluded {
		amenities = append(amenities, "meal")
	}

	var hint *models.MLHint
	if f.FareOutlook != nil && f.FareOutlook.Label != "" {
		hint = &models.MLHint{Trend: f.FareOutlook.Label, Confidence: f.FareOutlook.Confidence}
	}

	return models.Flight{
		ID:           f.ID,
		Provider:     p.Name(),
		Airline:      models.Airline{Code: f.Carrier.IATA, Name: f.Carrier.Name},
		FlightNumber: f.FlightNumber,
		Departure: models.Location{
			Airport:  f.Route.From.Code,
			City:     f.Route.From.City,
			Time:     timezone.AtAirport(depTime, f.Route.From.Code),
			Timezone: timezone.NameByAirport(f.Route.From.Code),
		},
		Arrival: models.Location{
			Airport:  f.Route.To.Code,
			City:     f.Route.To.City,
			Time:     timezone.AtAirport(arrTime, f.Route.To.Code),
			Timezone: timezone.NameByAirport(f.Route.To.Code),
		},
		Duration: models.NewDuration(f.FlightTime),
		Stops:    stops,
		Layovers: layovers,
		Segments: f.Legs,
		Price: models.Price{
			Amount:    f.Pricing.Total,
			Currency:  f.Pricing.Currency,
			Formatted: currency.Format(f.Pricing.Total, f.Pricing.Currency),
		},
		AvailableSeats: f.SeatsLeft,
		CabinClass:     strings.ToLower(f.Pricing.FareType),
		Aircraft:       optional(f.PlaneType),
		Amenities:      amenities,
		Baggage: models.Baggage{
			CabinKg:   parseBaggageWeight(f.Services.BaggageAllowance.Cabin),
			CheckedKg: parseBaggageWeight(f.Services.BaggageAllowance.Hold),
		},
		MLHint: hint,
	}, nil
}

var baggagePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*kg`)

func parseBaggageWeight(s string) float64 {
	m := baggagePattern.FindStringSubmatch(strings.ToLower(s))
	if len(m) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}
