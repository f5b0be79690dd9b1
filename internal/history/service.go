package history

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/tripoptimizer/internal/buywait"
	"github.com/dharmasatrya/tripoptimizer/internal/logging"
	"github.com/dharmasatrya/tripoptimizer/internal/models"
)

type Config struct {
	Path            string  `koanf:"path"`
	LookbackDays    int     `koanf:"lookback_days"`
	MinObservations int     `koanf:"min_observations"`
	DateWindowDays  int     `koanf:"date_window_days"`
	ThresholdPct    float64 `koanf:"threshold_pct"`
}

func DefaultConfig() Config {
	return Config{
		Path:            "tripoptimizer.db",
		LookbackDays:    14,
		MinObservations: 4,
		DateWindowDays:  3,
		ThresholdPct:    2.0,
	}
}

// TrendResult is a route trend plus the averages it was derived from.
// The averages are nil when there were too few observations.
type TrendResult struct {
	Trend            buywait.Trend `json:"trend"`
	Reason           string        `json:"reason"`
	ObservationCount int           `json:"observation_count"`
	AvgRecent        *float64      `json:"avg_recent,omitempty"`
	AvgOlder         *float64      `json:"avg_older,omitempty"`
}

// External converts the result into the buy/wait policy's input.
func (r TrendResult) External() *buywait.ExternalTrend {
	return &buywait.ExternalTrend{
		Trend:            r.Trend,
		Reason:           r.Reason,
		ObservationCount: r.ObservationCount,
	}
}

type Service struct {
	repo Repository
	cfg  Config
	now  func() time.Time
}

func NewService(repo Repository, cfg Config) *Service {
	return &Service{repo: repo, cfg: cfg, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ComputeTrend derives the trend for a route and departure date from the
// observations of the lookback window. When the exact date has too few
// observations the date is widened by DateWindowDays on each side.
func (s *Service) ComputeTrend(ctx context.Context, origin, destination string, departure time.Time) (TrendResult, error) {
	if s.repo == nil {
		return TrendResult{Trend: buywait.TrendUnknown, Reason: "Price history service not available."}, nil
	}

	origin, destination = models.AirportCode(origin), models.AirportCode(destination)
	since := s.now().AddDate(0, 0, -s.cfg.LookbackDays)

	obs, err := s.repo.FindRecentByRoute(ctx, origin, destination, departure, since)
	if err != nil {
		return TrendResult{}, err
	}
	if len(obs) < s.cfg.MinObservations {
		from := departure.AddDate(0, 0, -s.cfg.DateWindowDays)
		to := departure.AddDate(0, 0, s.cfg.DateWindowDays)
		obs, err = s.repo.FindRecentByRouteAndDateRange(ctx, origin, destination, from, to, since)
		if err != nil {
			return TrendResult{}, err
		}
	}

	result := s.TrendFromObservations(obs)
	logging.Ctx(ctx).Debug().
		Str("origin", origin).
		Str("destination", destination).
		Str("trend", string(result.Trend)).
		Int("observations", result.ObservationCount).
		Msg("computed route trend")
	return result, nil
}

// TrendFromObservations compares the average of the newer half of obs with
// the older half. obs must be ordered newest first.
func (s *Service) TrendFromObservations(obs []Observation) TrendResult {
	count := len(obs)
	if count < s.cfg.MinObservations || count < 2 {
		reason := "No price history yet for this route."
		if count > 0 {
			reason = fmt.Sprintf("Not enough price history yet (%d observations, need %d).", count, s.cfg.MinObservations)
		}
		return TrendResult{Trend: buywait.TrendUnknown, Reason: reason, ObservationCount: count}
	}

	mid := count / 2
	avgRecent := average(obs[:mid])
	avgOlder := average(obs[mid:])

	change := 0.0
	if avgOlder != 0 {
		change = (avgRecent - avgOlder) / avgOlder * 100
	}

	r := TrendResult{ObservationCount: count, AvgRecent: &avgRecent, AvgOlder: &avgOlder}
	switch {
	case change >= s.cfg.ThresholdPct:
		r.Trend = buywait.TrendRising
		r.Reason = fmt.Sprintf("Prices increased %.1f%% recently (avg $%.0f → $%.0f over %d observations).",
			change, avgOlder, avgRecent, count)
	case change <= -s.cfg.ThresholdPct:
		r.Trend = buywait.TrendFalling
		r.Reason = fmt.Sprintf("Prices decreased %.1f%% recently (avg $%.0f → $%.0f over %d observations).",
			math.Abs(change), avgOlder, avgRecent, count)
	default:
		r.Trend = buywait.TrendStable
		r.Reason = fmt.Sprintf("Prices stable (%.1f%% change, avg ~$%.0f over %d observations).",
			change, avgRecent, count)
	}
	return r
}

// RecordObservation stores one observed price for a route.
func (s *Service) RecordObservation(ctx context.Context, origin, destination string, departure time.Time, price decimal.Decimal) error {
	if s.repo == nil {
		return nil
	}
	obs := &Observation{
		Origin:        models.AirportCode(origin),
		Destination:   models.AirportCode(destination),
		DepartureDate: departure.Format(dateLayout),
		Price:         price,
		CreatedAt:     s.now(),
	}
	if err := s.repo.Save(ctx, obs); err != nil {
		return err
	}
	logging.Ctx(ctx).Debug().
		Str("origin", obs.Origin).
		Str("destination", obs.Destination).
		Str("departure_date", obs.DepartureDate).
		Str("price", price.String()).
		Msg("recorded price observation")
	return nil
}

// RecentCount is the number of observations for a route in the lookback
// window, regardless of departure date.
func (s *Service) RecentCount(ctx context.Context, origin, destination string) (int64, error) {
	if s.repo == nil {
		return 0, nil
	}
	return s.repo.CountByRouteSince(ctx, models.AirportCode(origin), models.AirportCode(destination), s.now().AddDate(0, 0, -s.cfg.LookbackDays))
}

func average(obs []Observation) float64 {
	sum := decimal.Zero
	for _, o := range obs {
		sum = sum.Add(o.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(obs)))).InexactFloat64()
}
