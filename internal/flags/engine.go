// Package flags explains trip options with short, deterministic flags
// ("Nonstop flight", "Tight connection", "Expensive", ...).
package flags

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/tripoptimizer/internal/logging"
	"github.com/dharmasatrya/tripoptimizer/internal/models"
	"github.com/dharmasatrya/tripoptimizer/internal/segment"
	"github.com/dharmasatrya/tripoptimizer/internal/stats"
)

type Engine struct {
	cfg    Config
	parser segment.Parser
}

// NewEngine builds an engine. A nil parser falls back to the heuristic
// free-text parser.
func NewEngine(cfg Config, parser segment.Parser) *Engine {
	if parser == nil {
		parser = segment.NewHeuristicParser()
	}
	return &Engine{cfg: cfg, parser: parser}
}

type evaluation struct {
	option *models.TripOption
	flight *models.Flight
	stats  stats.Statistics
	conns  []segment.Connection
}

type rule func(e *Engine, ev *evaluation, acc []Flag) []Flag

// Rules run in this order; the result is re-sorted by severity afterwards.
var rules = []rule{
	(*Engine).checkNonstop,
	(*Engine).checkManyStops,
	(*Engine).checkTightConnection,
	(*Engine).checkLongLayover,
	(*Engine).checkRedeye,
	(*Engine).checkLongTravelTime,
	(*Engine).checkGreatPrice,
	(*Engine).checkExpensive,
	(*Engine).checkReturnStops,
}

// Evaluate runs every rule against one option and returns the flags sorted
// by severity, BAD first. s must be the statistics of the option's page.
// Missing or unparseable data skips the affected rule; Evaluate never
// panics and never returns nil.
func (e *Engine) Evaluate(option *models.TripOption, s stats.Statistics) (result []Flag) {
	result = []Flag{}
	if option == nil || option.Flight == nil {
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Str("option_id", option.ID).Msg("flag evaluation aborted")
			result = []Flag{}
		}
	}()

	ev := &evaluation{option: option, flight: option.Flight, stats: s}
	if len(ev.flight.Segments) > 1 {
		ev.conns = segment.EstimateLayovers(e.parser, ev.flight.Segments, e.cfg.DefaultLayoverMinutes)
	}

	for _, r := range rules {
		result = r(e, ev, result)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Severity.Rank() < result[j].Severity.Rank()
	})
	return result
}

func (e *Engine) checkNonstop(ev *evaluation, acc []Flag) []Flag {
	if ev.flight.Stops != 0 {
		return acc
	}
	return append(acc, Flag{
		Code:     CodeNonstop,
		Severity: SeverityGood,
		Title:    "Nonstop flight",
		Details:  "Direct flight with no layovers.",
	})
}

func (e *Engine) checkManyStops(ev *evaluation, acc []Flag) []Flag {
	stops := ev.flight.Stops
	if stops < e.cfg.ManyStops {
		return acc
	}
	return append(acc, Flag{
		Code:     CodeManyStops,
		Severity: e.stopsSeverity(stops),
		Title:    fmt.Sprintf("%d stops", stops),
		Details:  "Multiple connections increase travel time and risk of delays.",
		Metrics:  map[string]any{"stops": stops},
	})
}

func (e *Engine) stopsSeverity(stops int) Severity {
	if stops >= e.cfg.SevereStops {
		return SeverityBad
	}
	return SeverityWarn
}

func (e *Engine) checkTightConnection(ev *evaluation, acc []Flag) []Flag {
	var tightest *segment.Connection
	for i := range ev.conns {
		c := &ev.conns[i]
		if c.Minutes <= 0 || c.Minutes >= e.cfg.TightConnectionMinutes {
			continue
		}
		if tightest == nil || c.Minutes < tightest.Minutes {
			tightest = c
		}
	}
	if tightest == nil {
		return acc
	}

	severity := SeverityWarn
	if tightest.Minutes < e.cfg.CriticalConnectionMinutes {
		severity = SeverityBad
	}

	metrics := map[string]any{"connectionMinutes": tightest.Minutes}
	if tightest.Airport != "" {
		metrics["airport"] = tightest.Airport
	}

	return append(acc, Flag{
		Code:     CodeTightConnection,
		Severity: severity,
		Title:    "Tight connection",
		Details:  fmt.Sprintf("Only %dm%s; high risk of missed connection.", tightest.Minutes, inAirport(tightest.Airport)),
		Metrics:  metrics,
	})
}

func (e *Engine) checkLongLayover(ev *evaluation, acc []Flag) []Flag {
	var longest *segment.Connection
	for i := range ev.conns {
		c := &ev.conns[i]
		if c.Minutes < e.cfg.LongLayoverMinutes {
			continue
		}
		if longest == nil || c.Minutes > longest.Minutes {
			longest = c
		}
	}
	if longest == nil {
		return acc
	}

	severity := SeverityInfo
	if longest.Minutes >= e.cfg.VeryLongLayoverMinutes {
		severity = SeverityWarn
	}

	metrics := map[string]any{"layoverMinutes": longest.Minutes}
	if longest.Airport != "" {
		metrics["airport"] = longest.Airport
	}

	return append(acc, Flag{
		Code:     CodeLongLayover,
		Severity: severity,
		Title:    "Long layover",
		Details:  fmt.Sprintf("%s layover%s.", formatMinutes(longest.Minutes), inAirport(longest.Airport)),
		Metrics:  metrics,
	})
}

func (e *Engine) checkRedeye(ev *evaluation, acc []Flag) []Flag {
	if len(ev.flight.Segments) == 0 {
		return acc
	}
	seg, ok := e.parser.Parse(ev.flight.Segments[0])
	if !ok || seg.DepartureTime == nil {
		return acc
	}

	hour := seg.DepartureTime.Hour
	if hour < e.cfg.RedeyeStartHour && hour >= e.cfg.RedeyeEndHour {
		return acc
	}

	return append(acc, Flag{
		Code:     CodeRedeye,
		Severity: SeverityWarn,
		Title:    "Red-eye flight",
		Details: fmt.Sprintf("Departure between %s and %s may affect sleep schedule.",
			segment.Clock{Hour: e.cfg.RedeyeStartHour}, segment.Clock{Hour: e.cfg.RedeyeEndHour}),
		Metrics: map[string]any{"departureHour": hour},
	})
}

func (e *Engine) checkLongTravelTime(ev *evaluation, acc []Flag) []Flag {
	median := ev.stats.MedianDurationMinutes
	duration := ev.flight.Duration.TotalMinutes
	if median <= 0 || duration <= 0 {
		return acc
	}

	threshold := int(float64(median) * e.cfg.LongTravelFactor)
	if duration <= threshold {
		return acc
	}

	extra := duration - median
	return append(acc, Flag{
		Code:     CodeLongTravelTime,
		Severity: SeverityWarn,
		Title:    "Long travel time",
		Details:  fmt.Sprintf("About %s longer than typical options.", formatMinutes(extra)),
		Metrics: map[string]any{
			"durationMinutes":       duration,
			"medianDurationMinutes": median,
			"extraMinutes":          extra,
			"percentAboveMedian":    int(math.Round(float64(extra) * 100 / float64(median))),
		},
	})
}

func (e *Engine) checkGreatPrice(ev *evaluation, acc []Flag) []Flag {
	s := ev.stats
	if s.OptionCount < e.cfg.MinOptionsForPriceRules {
		return acc
	}

	price := ev.option.TotalPrice
	if price.GreaterThan(s.P25Price) {
		return acc
	}

	below := int64(0)
	if mid := approxMedian(s); mid.IsPositive() {
		below = mid.Sub(price).Mul(decimal.NewFromInt(100)).Div(mid).Round(0).IntPart()
	}

	return append(acc, Flag{
		Code:     CodeGreatPrice,
		Severity: SeverityGood,
		Title:    "Great price",
		Details:  "In the lowest 25% of prices for this search.",
		Metrics: map[string]any{
			"price":              price,
			"p25Price":           s.P25Price,
			"percentBelowMedian": max(0, below),
		},
	})
}

func (e *Engine) checkExpensive(ev *evaluation, acc []Flag) []Flag {
	s := ev.stats
	if s.OptionCount < e.cfg.MinOptionsForPriceRules {
		return acc
	}

	price := ev.option.TotalPrice
	if price.LessThan(s.P75Price) {
		return acc
	}

	above := int64(0)
	if mid := approxMedian(s); mid.IsPositive() {
		above = price.Sub(mid).Mul(decimal.NewFromInt(100)).Div(mid).Round(0).IntPart()
	}

	return append(acc, Flag{
		Code:     CodeExpensive,
		Severity: SeverityBad,
		Title:    "Expensive",
		Details:  "In the highest 25% of prices for this search.",
		Metrics: map[string]any{
			"price":              price,
			"p75Price":           s.P75Price,
			"percentAboveMedian": max(0, above),
		},
	})
}

func (e *Engine) checkReturnStops(ev *evaluation, acc []Flag) []Flag {
	stops, ok := ev.option.ReturnStops()
	if !ok || stops < e.cfg.ManyStops {
		return acc
	}
	for _, f := range acc {
		if f.Code == CodeManyStops {
			return acc
		}
	}

	return append(acc, Flag{
		Code:     CodeManyStops,
		Severity: e.stopsSeverity(stops),
		Title:    fmt.Sprintf("%d stops (return)", stops),
		Details:  "Return flight has multiple connections.",
		Metrics:  map[string]any{"stops": stops, "leg": "return"},
	})
}

// approxMedian is the midpoint of the quartiles, rounded to cents.
func approxMedian(s stats.Statistics) decimal.Decimal {
	return s.P25Price.Add(s.P75Price).Div(decimal.NewFromInt(2)).Round(2)
}

func inAirport(code string) string {
	if code == "" {
		return ""
	}
	return " in " + code
}

func formatMinutes(total int) string {
	h, m := total/60, total%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
