package buywait

import "fmt"

// Facts are the derived inputs a rule decides on.
type Facts struct {
	Percentile      float64
	Days            int
	Trend           Trend
	TrendConfidence float64
	DealRating      DealRating
	TimePressure    bool
}

// Rule is one row of the decision table. The first rule whose When matches
// decides. Explain, when set, adds a sentence to the result's reasons.
type Rule struct {
	Name     string
	Decision Decision
	Override bool
	When     func(cfg Config, f Facts) bool
	Explain  func(cfg Config, f Facts) string
}

const (
	RuleExtremelyUrgent      = "OVERRIDE_EXTREMELY_URGENT"
	RuleStrongRising         = "OVERRIDE_STRONG_RISING"
	RulePoorDealWait         = "POOR_DEAL_DEFAULT_WAIT"
	RuleFallingExpensiveWait = "TIME_PRESSURE_FALLING_EXPENSIVE"
	RuleTimePressureBuy      = "TIME_PRESSURE_DEFAULT_BUY"
	RuleNoUrgencyFalling     = "NO_URGENCY_FALLING"
	RuleNoUrgencyRising      = "NO_URGENCY_RISING"
	RuleStableGoodPrice      = "STABLE_GOOD_PRICE"
	RuleStableHighPrice      = "STABLE_HIGH_PRICE"
	RuleUnknownGoodPrice     = "UNKNOWN_GOOD_PRICE"
	RuleUnknownHighPrice     = "UNKNOWN_HIGH_PRICE"
)

// DefaultRules returns the decision table in evaluation order. The last two
// rows are unconditional for an UNKNOWN trend, so the table always decides.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     RuleExtremelyUrgent,
			Decision: DecisionBuy,
			Override: true,
			When: func(cfg Config, f Facts) bool {
				return f.DealRating == DealPoor && f.Days >= 0 && f.Days <= cfg.ExtremeUrgencyDays
			},
			Explain: func(_ Config, f Facts) string {
				return fmt.Sprintf("Despite the high price, departure is only %s away and fares rarely drop this close to travel.", dayCount(f.Days))
			},
		},
		{
			Name:     RuleStrongRising,
			Decision: DecisionBuy,
			Override: true,
			When: func(cfg Config, f Facts) bool {
				return f.DealRating == DealPoor && f.Trend == TrendRising && f.TrendConfidence >= cfg.StrongTrendConfidence
			},
			Explain: func(_ Config, _ Facts) string {
				return "Despite the high price, prices are rising with high confidence; waiting is likely to cost more."
			},
		},
		{
			Name:     RulePoorDealWait,
			Decision: DecisionWait,
			When: func(_ Config, f Facts) bool {
				return f.DealRating == DealPoor
			},
		},
		{
			Name:     RuleFallingExpensiveWait,
			Decision: DecisionWait,
			When: func(cfg Config, f Facts) bool {
				return f.TimePressure && f.Trend == TrendFalling && f.Percentile >= cfg.FallingWaitPercentile
			},
		},
		{
			Name:     RuleTimePressureBuy,
			Decision: DecisionBuy,
			When: func(_ Config, f Facts) bool {
				return f.TimePressure
			},
			Explain: func(_ Config, f Facts) string {
				if f.Trend != TrendFalling {
					return ""
				}
				return "Prices are trending down, but with departure this close it is safer to buy now."
			},
		},
		{
			Name:     RuleNoUrgencyFalling,
			Decision: DecisionWait,
			When: func(_ Config, f Facts) bool {
				return f.Trend == TrendFalling
			},
		},
		{
			Name:     RuleNoUrgencyRising,
			Decision: DecisionBuy,
			When: func(_ Config, f Facts) bool {
				return f.Trend == TrendRising
			},
		},
		{
			Name:     RuleStableGoodPrice,
			Decision: DecisionBuy,
			When: func(cfg Config, f Facts) bool {
				return f.Trend == TrendStable && f.Percentile <= cfg.StableBuyPercentile
			},
		},
		{
			Name:     RuleStableHighPrice,
			Decision: DecisionWait,
			When: func(_ Config, f Facts) bool {
				return f.Trend == TrendStable
			},
		},
		{
			Name:     RuleUnknownGoodPrice,
			Decision: DecisionBuy,
			When: func(cfg Config, f Facts) bool {
				return f.Percentile <= cfg.UnknownBuyPercentile
			},
		},
		{
			Name:     RuleUnknownHighPrice,
			Decision: DecisionWait,
			When: func(_ Config, _ Facts) bool {
				return true
			},
		},
	}
}

func dayCount(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
