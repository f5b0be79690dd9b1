// Package buywait decides whether a traveller should buy an offer now or
// wait for a better price.
//
// The decision is a pure function of the offer, the other offers of the
// same search, the search parameters and an optional route trend. All
// branching lives in an ordered rule table (see DefaultRules) so every
// decision can be traced to a named rule.
package buywait

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dharmasatrya/tripoptimizer/internal/logging"
	"github.com/dharmasatrya/tripoptimizer/internal/models"
)

type Policy struct {
	cfg   Config
	rules []Rule
	now   func() time.Time
}

func NewPolicy(cfg Config) *Policy {
	return &Policy{cfg: cfg, rules: DefaultRules(), now: time.Now}
}

// WithClock replaces the clock used to count days until departure.
func (p *Policy) WithClock(now func() time.Time) *Policy {
	p.now = now
	return p
}

// WithRules replaces the decision table. The table must end with a rule
// that always matches.
func (p *Policy) WithRules(rules []Rule) *Policy {
	p.rules = rules
	return p
}

// Compute returns the recommendation for option. all is the full result
// page the option belongs to and ext the route trend, which may be nil.
// Missing input yields a HOLD result; Compute never panics.
func (p *Policy) Compute(option *models.TripOption, all []models.TripOption, params SearchParams, ext *ExternalTrend) (result Result) {
	if option == nil || len(all) == 0 {
		return insufficientData()
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Str("option_id", option.ID).Msg("buy/wait computation aborted")
			result = insufficientData()
		}
	}()

	pct := percentile(option, all)
	days, hasDate := p.daysUntil(params)
	trend, trendReason, trendConf := p.resolveTrend(option, ext)

	f := Facts{
		Percentile:      pct,
		Days:            days,
		Trend:           trend,
		TrendConfidence: trendConf,
		DealRating:      p.dealRating(pct),
		TimePressure:    days >= 0 && days <= p.cfg.TimePressureDays,
	}

	rule := p.match(f)
	decision := rule.Decision

	conflicts, weight := p.conflicts(decision, f)
	confidence := p.confidence(f, weight)

	stops := itineraryStops(option)
	if stops > 1 {
		confidence = math.Max(p.cfg.MultiStopFloor, confidence-p.cfg.MultiStopPenalty)
	}
	confidence = clamp01(confidence)

	reasons := []string{
		priceSentence(pct, len(all)),
		daysSentence(days, hasDate),
		trendSentence(trend, trendReason),
	}
	if rule.Explain != nil {
		if s := rule.Explain(p.cfg, f); s != "" {
			reasons = append(reasons, s)
		}
	}
	if stops > 1 {
		reasons = append(reasons, "Multiple stops reduce confidence in this recommendation.")
	}
	if len(conflicts) > 0 {
		reasons = append(reasons, conflictSentence(conflictKey{
			decision:     decision,
			signals:      conflicts,
			trend:        trend,
			timePressure: f.TimePressure,
			band:         p.band(pct),
		}))
	}
	if limit := p.cfg.MaxReasons; limit > 0 && len(reasons) > limit {
		reasons = reasons[:limit]
	}

	return Result{
		Decision:           decision,
		Confidence:         confidence,
		Trend:              trend,
		Reasons:            reasons,
		DealRating:         f.DealRating,
		OverrideApplied:    rule.Override,
		PricePercentile:    pct,
		DaysUntilDeparture: days,
		TrendConfidence:    trendConf,
		Signals: Signals{
			PercentileScore:    1 - pct,
			UrgencyScore:       urgencyScore(days),
			TrendScore:         trendScore(trend),
			DecisionRule:       rule.Name,
			ConflictingSignals: conflicts,
			ConflictWeight:     weight,
		},
	}
}

func (p *Policy) match(f Facts) Rule {
	for _, r := range p.rules {
		if r.When(p.cfg, f) {
			return r
		}
	}
	panic(fmt.Sprintf("no buy/wait rule matched %+v", f))
}

// percentile is the share of options strictly cheaper than option, scaled
// to [0,1] over N-1 gaps. Ties share the rank of the first equal price.
func percentile(option *models.TripOption, all []models.TripOption) float64 {
	if len(all) <= 1 {
		return 0.5
	}
	lower := 0
	for _, o := range all {
		if o.TotalPrice.LessThan(option.TotalPrice) {
			lower++
		}
	}
	return math.Min(1, float64(lower)/float64(len(all)-1))
}

// daysUntil counts whole calendar days between today and the earliest
// departure date. It returns -1, false when no date was given.
func (p *Policy) daysUntil(params SearchParams) (int, bool) {
	if params.EarliestDeparture == nil {
		return -1, false
	}
	now := p.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dep := params.EarliestDeparture
	day := time.Date(dep.Year(), dep.Month(), dep.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(today).Hours() / 24), true
}

// resolveTrend prefers a known route trend over the offer's ML hint.
func (p *Policy) resolveTrend(option *models.TripOption, ext *ExternalTrend) (Trend, string, float64) {
	if ext != nil && ext.Trend != "" && ext.Trend != TrendUnknown {
		conf := 0.0
		if p.cfg.FullConfidenceSamples > 0 {
			conf = math.Min(1, float64(ext.ObservationCount)/float64(p.cfg.FullConfidenceSamples))
		}
		return ext.Trend, ext.Reason, conf
	}

	fallbackReason := ""
	if ext != nil {
		fallbackReason = ext.Reason
	}

	hint := option.MLHint
	if hint == nil && option.Flight != nil {
		hint = option.Flight.MLHint
	}
	if hint == nil {
		return TrendUnknown, fallbackReason, 0
	}

	trend := trendFromHint(hint.Trend)
	if trend == TrendUnknown {
		return TrendUnknown, fallbackReason, 0
	}
	conf := p.cfg.DefaultHintConfidence
	if hint.Confidence != nil {
		conf = clamp01(*hint.Confidence)
	}
	return trend, "", conf
}

func trendFromHint(text string) Trend {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "down"), strings.Contains(t, "fall"):
		return TrendFalling
	case strings.Contains(t, "up"), strings.Contains(t, "ris"):
		return TrendRising
	case strings.Contains(t, "stable"):
		return TrendStable
	default:
		return TrendUnknown
	}
}

func (p *Policy) dealRating(pct float64) DealRating {
	switch {
	case pct <= p.cfg.GreatDealPercentile:
		return DealGreat
	case pct <= p.cfg.GoodDealPercentile:
		return DealGood
	case pct < p.cfg.PoorDealPercentile:
		return DealFair
	default:
		return DealPoor
	}
}

func (p *Policy) confidence(f Facts, conflictWeight int) float64 {
	c := 0.5 + math.Abs(f.Percentile-0.5)*0.5

	switch f.Trend {
	case TrendRising, TrendFalling:
		c = math.Min(c, p.cfg.DirectionalTrendCap)
	case TrendStable:
		c = math.Min(c, p.cfg.StableTrendCap)
	default:
		c = math.Min(c, p.cfg.UnknownTrendCap)
	}

	if conflictWeight >= p.cfg.ConflictWeightTrigger {
		c = math.Max(0, c-p.cfg.ConflictPenalty)
	}
	return c
}

const (
	signalPrice        = "price"
	signalTrend        = "trend"
	signalTimePressure = "time_pressure"
)

// conflicts lists the signals that point away from decision and their
// total weight. An extreme price pointing the other way counts twice.
func (p *Policy) conflicts(decision Decision, f Facts) ([]string, int) {
	var names []string
	weight := 0

	priceSays := DecisionWait
	if f.Percentile <= p.cfg.PriceSignalBuyCeiling {
		priceSays = DecisionBuy
	}
	if priceSays != decision {
		names = append(names, signalPrice)
		if (decision == DecisionBuy && f.Percentile >= p.cfg.ExtremeHighPercentile) ||
			(decision == DecisionWait && f.Percentile <= p.cfg.ExtremeLowPercentile) {
			weight += 2
		} else {
			weight++
		}
	}

	var trendSays Decision
	switch f.Trend {
	case TrendRising:
		trendSays = DecisionBuy
	case TrendFalling:
		trendSays = DecisionWait
	}
	if trendSays != "" && trendSays != decision {
		names = append(names, signalTrend)
		weight++
	}

	if f.TimePressure && decision != DecisionBuy {
		names = append(names, signalTimePressure)
		weight++
	}

	return names, weight
}

func itineraryStops(o *models.TripOption) int {
	stops := 0
	if o.Flight != nil {
		stops = o.Flight.Stops
	}
	if rs, ok := o.ReturnStops(); ok && rs > stops {
		stops = rs
	}
	return stops
}

func urgencyScore(days int) float64 {
	if days < 0 {
		return 0
	}
	return math.Max(0, 1-float64(days)/30)
}

func trendScore(t Trend) float64 {
	switch t {
	case TrendRising:
		return 1
	case TrendFalling:
		return 0
	default:
		return 0.5
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func priceSentence(pct float64, n int) string {
	switch {
	case n <= 1:
		return "Only one option was found, so the price cannot be compared."
	case pct <= 1.0/3:
		return fmt.Sprintf("Price is in the cheapest third of %d options for this search.", n)
	case pct >= 2.0/3:
		return fmt.Sprintf("Price is in the most expensive third of %d options for this search.", n)
	default:
		return fmt.Sprintf("Price is mid-range among %d options for this search.", n)
	}
}

func daysSentence(days int, hasDate bool) string {
	switch {
	case !hasDate:
		return "Departure date not specified."
	case days < 0:
		return "Departure date is in the past."
	case days == 0:
		return "Departure is today."
	default:
		return fmt.Sprintf("Departure is in %s.", dayCount(days))
	}
}

func trendSentence(t Trend, reason string) string {
	if reason != "" {
		return reason
	}
	return fmt.Sprintf("Trend: %s.", t)
}
