// Package advisor evaluates a page of trip options: flags and a buy/wait
// recommendation per option, all against one shared set of page statistics.
package advisor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/tripoptimizer/internal/buywait"
	"github.com/dharmasatrya/tripoptimizer/internal/flags"
	"github.com/dharmasatrya/tripoptimizer/internal/history"
	"github.com/dharmasatrya/tripoptimizer/internal/logging"
	"github.com/dharmasatrya/tripoptimizer/internal/metrics"
	"github.com/dharmasatrya/tripoptimizer/internal/models"
	"github.com/dharmasatrya/tripoptimizer/internal/stats"
	"github.com/dharmasatrya/tripoptimizer/internal/trend"
)

// Recorder stores observed prices. history.Service implements it.
type Recorder interface {
	RecordObservation(ctx context.Context, origin, destination string, departure time.Time, price decimal.Decimal) error
}

type Evaluation struct {
	Option  models.TripOption `json:"option"`
	Flags   []flags.Flag      `json:"flags"`
	BuyWait buywait.Result    `json:"buy_wait"`
}

type Page struct {
	Evaluations []Evaluation         `json:"evaluations"`
	Statistics  stats.Statistics     `json:"statistics"`
	Trend       *history.TrendResult `json:"trend,omitempty"`
}

type Advisor struct {
	flags    *flags.Engine
	policy   *buywait.Policy
	trends   trend.Lookup
	recorder Recorder
	workers  int
}

// New builds an advisor. trends and recorder may be nil; evaluation then
// relies on per-option hints and nothing is recorded.
func New(engine *flags.Engine, policy *buywait.Policy, trends trend.Lookup, recorder Recorder, workers int) *Advisor {
	if workers < 1 {
		workers = 1
	}
	return &Advisor{flags: engine, policy: policy, trends: trends, recorder: recorder, workers: workers}
}

// Evaluate returns one evaluation per option, in input order. s must be the
// statistics of options; every option is judged against it.
func (a *Advisor) Evaluate(ctx context.Context, options []models.TripOption, s stats.Statistics, params buywait.SearchParams) Page {
	start := time.Now()
	defer func() {
		metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}()

	page := Page{
		Evaluations: make([]Evaluation, len(options)),
		Statistics:  s,
	}

	var ext *buywait.ExternalTrend
	if tr, ok := a.lookupTrend(ctx, params); ok {
		page.Trend = &tr
		ext = tr.External()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(a.workers, len(options)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				page.Evaluations[i] = a.evaluateOne(&options[i], options, page.Statistics, params, ext)
			}
		}()
	}
	for i := range options {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return page
}

func (a *Advisor) evaluateOne(option *models.TripOption, all []models.TripOption, s stats.Statistics, params buywait.SearchParams, ext *buywait.ExternalTrend) Evaluation {
	ev := Evaluation{
		Option:  *option,
		Flags:   a.flags.Evaluate(option, s),
		BuyWait: a.policy.Compute(option, all, params, ext),
	}

	for _, f := range ev.Flags {
		metrics.FlagsTotal.WithLabelValues(string(f.Code), string(f.Severity)).Inc()
	}
	metrics.DecisionsTotal.WithLabelValues(string(ev.BuyWait.Decision), ev.BuyWait.Signals.DecisionRule).Inc()
	return ev
}

// lookupTrend fetches the route trend once per page. Any failure degrades
// to no external trend.
func (a *Advisor) lookupTrend(ctx context.Context, params buywait.SearchParams) (history.TrendResult, bool) {
	if a.trends == nil || params.EarliestDeparture == nil || params.Origin == "" || params.Destination == "" {
		return history.TrendResult{}, false
	}

	tr, err := a.trends.ComputeTrend(ctx, params.Origin, params.Destination, *params.EarliestDeparture)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("origin", params.Origin).
			Str("destination", params.Destination).
			Msg("trend lookup failed, continuing without history")
		return history.TrendResult{}, false
	}
	return tr, true
}

// RecordPrices stores one observation per distinct outbound flight and
// returns how many were written. Round trips record their outbound fare so
// the route history stays one-way.
func (a *Advisor) RecordPrices(ctx context.Context, params buywait.SearchParams, options []models.TripOption) int {
	if a.recorder == nil || params.EarliestDeparture == nil {
		return 0
	}

	seen := make(map[string]bool)
	recorded := 0
	for _, o := range options {
		price, key, ok := observedPrice(o)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true

		if err := a.recorder.RecordObservation(ctx, params.Origin, params.Destination, *params.EarliestDeparture, price); err != nil {
			metrics.ObservationsRecorded.WithLabelValues("error").Inc()
			logging.Ctx(ctx).Warn().Err(err).Str("option_id", o.ID).Msg("failed to record price observation")
			continue
		}
		metrics.ObservationsRecorded.WithLabelValues("ok").Inc()
		recorded++
	}
	return recorded
}

func observedPrice(o models.TripOption) (decimal.Decimal, string, bool) {
	switch {
	case o.Flight != nil:
		return o.Flight.Price.Amount, o.Flight.ID, o.Flight.Price.Amount.IsPositive()
	case o.ReturnFlight == nil:
		return o.TotalPrice, o.ID, o.TotalPrice.IsPositive()
	default:
		return decimal.Zero, "", false
	}
}

// SortByConfidence orders evaluations by buy/wait confidence, keeping input
// order for ties.
func SortByConfidence(evals []Evaluation, order string) {
	desc := order == "desc"
	sort.SliceStable(evals, func(i, j int) bool {
		a, b := evals[i].BuyWait.Confidence, evals[j].BuyWait.Confidence
		if desc {
			return a > b
		}
		return a < b
	})
}
