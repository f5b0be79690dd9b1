package buywait

import "slices"

type priceBand int

const (
	bandLow priceBand = iota
	bandMid
	bandHigh
)

func (p *Policy) band(pct float64) priceBand {
	switch {
	case pct <= p.cfg.GoodDealPercentile:
		return bandLow
	case pct >= p.cfg.PoorDealPercentile:
		return bandHigh
	default:
		return bandMid
	}
}

type conflictKey struct {
	decision     Decision
	signals      []string
	trend        Trend
	timePressure bool
	band         priceBand
}

func (k conflictKey) has(signal string) bool {
	return slices.Contains(k.signals, signal)
}

type conflictCase struct {
	match func(k conflictKey) bool
	text  string
}

// conflictCases is scanned in order; the last entry always matches.
var conflictCases = []conflictCase{
	{
		match: func(k conflictKey) bool {
			return k.decision == DecisionBuy && k.has(signalPrice) && k.timePressure
		},
		text: "The price is high for this search, but with departure this close waiting is the bigger risk.",
	},
	{
		match: func(k conflictKey) bool {
			return k.decision == DecisionBuy && k.has(signalPrice) && k.trend == TrendRising
		},
		text: "This is not the cheapest option, but rising prices make waiting risky.",
	},
	{
		match: func(k conflictKey) bool {
			return k.decision == DecisionBuy && k.has(signalTrend)
		},
		text: "The trend favours waiting while the departure date favours buying.",
	},
	{
		match: func(k conflictKey) bool {
			return k.decision == DecisionWait && k.has(signalPrice) && k.band == bandLow
		},
		text: "The price is already low for this search, but the trend suggests it may drop further.",
	},
	{
		match: func(k conflictKey) bool {
			return k.decision == DecisionWait && k.has(signalTimePressure) && k.band == bandHigh
		},
		text: "Departure is approaching, but this price is high enough that a cheaper option is worth finding first.",
	},
	{
		match: func(k conflictKey) bool {
			return k.decision == DecisionWait && k.has(signalTimePressure)
		},
		text: "Departure is approaching; keep a close eye on prices while waiting.",
	},
	{
		match: func(k conflictKey) bool {
			return k.decision == DecisionWait && k.has(signalTrend)
		},
		text: "Prices are rising, but this offer is expensive compared to the alternatives.",
	},
	{
		match: func(conflictKey) bool { return true },
		text:  "Some signals point the other way, so treat this recommendation with caution.",
	},
}

func conflictSentence(k conflictKey) string {
	for _, c := range conflictCases {
		if c.match(k) {
			return c.text
		}
	}
	return ""
}
