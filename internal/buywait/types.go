package buywait

import (
	"strings"
	"time"

	"github.com/dharmasatrya/tripoptimizer/internal/models"
)

type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionWait Decision = "WAIT"
	DecisionHold Decision = "HOLD"
)

type Trend string

const (
	TrendRising  Trend = "RISING"
	TrendFalling Trend = "FALLING"
	TrendStable  Trend = "STABLE"
	TrendUnknown Trend = "UNKNOWN"
)

// ParseTrend accepts any casing; unrecognized values map to TrendUnknown.
func ParseTrend(s string) Trend {
	switch Trend(strings.ToUpper(strings.TrimSpace(s))) {
	case TrendRising:
		return TrendRising
	case TrendFalling:
		return TrendFalling
	case TrendStable:
		return TrendStable
	default:
		return TrendUnknown
	}
}

type DealRating string

const (
	DealGreat   DealRating = "GREAT"
	DealGood    DealRating = "GOOD"
	DealFair    DealRating = "FAIR"
	DealPoor    DealRating = "POOR"
	DealUnknown DealRating = "UNKNOWN"
)

// ExternalTrend is a route-level trend from the price-history service.
type ExternalTrend struct {
	Trend            Trend  `json:"trend"`
	Reason           string `json:"reason"`
	ObservationCount int    `json:"observation_count"`
}

type SearchParams struct {
	Origin            string
	Destination       string
	EarliestDeparture *time.Time
}

func ParamsFromRequest(req models.SearchRequest) SearchParams {
	p := SearchParams{Origin: models.AirportCode(req.Origin), Destination: models.AirportCode(req.Destination)}
	if d, ok := req.EarliestDeparture(); ok {
		p.EarliestDeparture = &d
	}
	return p
}

// Signals is the debug view of how a decision was reached.
type Signals struct {
	PercentileScore    float64  `json:"percentile_score"`
	UrgencyScore       float64  `json:"urgency_score"`
	TrendScore         float64  `json:"trend_score"`
	DecisionRule       string   `json:"decision_rule"`
	ConflictingSignals []string `json:"conflicting_signals,omitempty"`
	ConflictWeight     int      `json:"conflict_weight"`
}

type Result struct {
	Decision           Decision   `json:"decision"`
	Confidence         float64    `json:"confidence"`
	Trend              Trend      `json:"trend"`
	Reasons            []string   `json:"reasons"`
	DealRating         DealRating `json:"deal_rating"`
	OverrideApplied    bool       `json:"override_applied"`
	PricePercentile    float64    `json:"price_percentile"`
	DaysUntilDeparture int        `json:"days_until_departure"`
	TrendConfidence    float64    `json:"trend_confidence,omitempty"`
	Signals            Signals    `json:"signals"`
}

func insufficientData() Result {
	return Result{
		Decision:           DecisionHold,
		Confidence:         0,
		Trend:              TrendUnknown,
		Reasons:            []string{"Insufficient data"},
		DealRating:         DealUnknown,
		DaysUntilDeparture: -1,
		Signals:            Signals{DecisionRule: "INSUFFICIENT_DATA"},
	}
}

// Config holds every threshold the policy uses.
type Config struct {
	TimePressureDays      int     `koanf:"time_pressure_days"`
	ExtremeUrgencyDays    int     `koanf:"extreme_urgency_days"`
	GreatDealPercentile   float64 `koanf:"great_deal_percentile"`
	GoodDealPercentile    float64 `koanf:"good_deal_percentile"`
	PoorDealPercentile    float64 `koanf:"poor_deal_percentile"`
	FallingWaitPercentile float64 `koanf:"falling_wait_percentile"`
	StableBuyPercentile   float64 `koanf:"stable_buy_percentile"`
	UnknownBuyPercentile  float64 `koanf:"unknown_buy_percentile"`
	StrongTrendConfidence float64 `koanf:"strong_trend_confidence"`
	PriceSignalBuyCeiling float64 `koanf:"price_signal_buy_ceiling"`
	ExtremeHighPercentile float64 `koanf:"extreme_high_percentile"`
	ExtremeLowPercentile  float64 `koanf:"extreme_low_percentile"`
	ConflictWeightTrigger int     `koanf:"conflict_weight_trigger"`
	ConflictPenalty       float64 `koanf:"conflict_penalty"`
	MultiStopPenalty      float64 `koanf:"multi_stop_penalty"`
	MultiStopFloor        float64 `koanf:"multi_stop_floor"`
	UnknownTrendCap       float64 `koanf:"unknown_trend_cap"`
	StableTrendCap        float64 `koanf:"stable_trend_cap"`
	DirectionalTrendCap   float64 `koanf:"directional_trend_cap"`
	FullConfidenceSamples int     `koanf:"full_confidence_samples"`
	DefaultHintConfidence float64 `koanf:"default_hint_confidence"`
	MaxReasons            int     `koanf:"max_reasons"`
}

func DefaultConfig() Config {
	return Config{
		TimePressureDays:      14,
		ExtremeUrgencyDays:    3,
		GreatDealPercentile:   0.20,
		GoodDealPercentile:    0.40,
		PoorDealPercentile:    0.80,
		FallingWaitPercentile: 0.80,
		StableBuyPercentile:   0.60,
		UnknownBuyPercentile:  0.50,
		StrongTrendConfidence: 0.70,
		PriceSignalBuyCeiling: 0.60,
		ExtremeHighPercentile: 0.85,
		ExtremeLowPercentile:  0.15,
		ConflictWeightTrigger: 2,
		ConflictPenalty:       0.10,
		MultiStopPenalty:      0.15,
		MultiStopFloor:        0.05,
		UnknownTrendCap:       0.60,
		StableTrendCap:        0.75,
		DirectionalTrendCap:   0.90,
		FullConfidenceSamples: 10,
		DefaultHintConfidence: 0.5,
		MaxReasons:            6,
	}
}
