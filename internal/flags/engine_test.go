package flags

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/tripoptimizer/internal/models"
	"github.com/dharmasatrya/tripoptimizer/internal/segment"
	"github.com/dharmasatrya/tripoptimizer/internal/stats"
)

func newOption(price int64, stops, minutes int, segments ...string) models.TripOption {
	return models.TripOption{
		ID:         "opt",
		TotalPrice: decimal.NewFromInt(price),
		Currency:   "USD",
		Flight: &models.Flight{
			Stops:    stops,
			Duration: models.NewDuration(minutes),
			Segments: segments,
		},
	}
}

func pricedOptions(prices ...int64) []models.TripOption {
	out := make([]models.TripOption, len(prices))
	for i, p := range prices {
		out[i] = newOption(p, 0, 180)
	}
	return out
}

func findFlag(flags []Flag, code Code) (Flag, bool) {
	for _, f := range flags {
		if f.Code == code {
			return f, true
		}
	}
	return Flag{}, false
}

func evaluateAlone(t *testing.T, o models.TripOption) []Flag {
	t.Helper()
	e := NewEngine(DefaultConfig(), nil)
	return e.Evaluate(&o, stats.FromOptions([]models.TripOption{o}))
}

func TestNonstop(t *testing.T) {
	flags := evaluateAlone(t, newOption(300, 0, 180))
	f, ok := findFlag(flags, CodeNonstop)
	require.True(t, ok)
	assert.Equal(t, SeverityGood, f.Severity)
	assert.Equal(t, "Nonstop flight", f.Title)

	flags = evaluateAlone(t, newOption(300, 1, 300))
	_, ok = findFlag(flags, CodeNonstop)
	assert.False(t, ok)
}

func TestManyStops(t *testing.T) {
	tests := []struct {
		stops    int
		present  bool
		severity Severity
	}{
		{stops: 1, present: false},
		{stops: 2, present: true, severity: SeverityWarn},
		{stops: 3, present: true, severity: SeverityBad},
		{stops: 4, present: true, severity: SeverityBad},
	}

	for _, tt := range tests {
		flags := evaluateAlone(t, newOption(200, tt.stops, 600))
		f, ok := findFlag(flags, CodeManyStops)
		assert.Equal(t, tt.present, ok, "stops=%d", tt.stops)
		if tt.present {
			assert.Equal(t, tt.severity, f.Severity, "stops=%d", tt.stops)
			assert.Equal(t, tt.stops, f.Metrics["stops"])
		}
	}

	flags := evaluateAlone(t, newOption(150, 3, 720))
	f, _ := findFlag(flags, CodeManyStops)
	assert.Contains(t, f.Title, "3")
}

func TestTightConnection(t *testing.T) {
	o := newOption(300, 1, 270,
		"ORD 08:00 → DEN (2h 0m)",
		"DEN 10:40 → LAX (2h 30m)",
	)

	flags := evaluateAlone(t, o)

	f, ok := findFlag(flags, CodeTightConnection)
	require.True(t, ok)
	assert.Equal(t, SeverityBad, f.Severity)
	assert.Equal(t, "Only 40m in DEN; high risk of missed connection.", f.Details)
	assert.Equal(t, 40, f.Metrics["connectionMinutes"])
	assert.Equal(t, "DEN", f.Metrics["airport"])
}

func TestTightConnection_FlagsOnlyTightest(t *testing.T) {
	o := newOption(300, 2, 400,
		"ORD 08:00 → DEN (2h 0m)",
		"DEN 10:50 → PHX (1h 30m)",
		"PHX 12:35 → LAX (1h 15m)",
	)

	flags := evaluateAlone(t, o)

	var tight []Flag
	for _, f := range flags {
		if f.Code == CodeTightConnection {
			tight = append(tight, f)
		}
	}
	require.Len(t, tight, 1)
	assert.Equal(t, 15, tight[0].Metrics["connectionMinutes"])
	assert.Equal(t, "PHX", tight[0].Metrics["airport"])
}

func TestTightConnection_WarnBand(t *testing.T) {
	o := newOption(300, 1, 270, "ORD 08:00 → DEN (2h 0m)", "DEN 10:50 → LAX (2h 30m)")

	f, ok := findFlag(evaluateAlone(t, o), CodeTightConnection)
	require.True(t, ok)
	assert.Equal(t, SeverityWarn, f.Severity)
}

func TestLayoverDefault_NoTimingData(t *testing.T) {
	// without durations every connection is assumed to be 90 minutes,
	// which is neither tight nor long
	o := newOption(300, 1, 300, "ORD → DEN", "DEN → LAX")

	flags := evaluateAlone(t, o)

	_, tight := findFlag(flags, CodeTightConnection)
	_, long := findFlag(flags, CodeLongLayover)
	assert.False(t, tight)
	assert.False(t, long)
}

func TestLongLayover(t *testing.T) {
	tests := []struct {
		name     string
		nextDep  string
		minutes  int
		severity Severity
		details  string
	}{
		{name: "info band", nextDep: "13:30", minutes: 210, severity: SeverityInfo, details: "3h 30m layover in DEN."},
		{name: "warn band", nextDep: "15:00", minutes: 300, severity: SeverityWarn, details: "5h layover in DEN."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOption(300, 1, 600, "ORD 08:00 → DEN (2h 0m)", "DEN "+tt.nextDep+" → LAX (2h 30m)")

			f, ok := findFlag(evaluateAlone(t, o), CodeLongLayover)
			require.True(t, ok)
			assert.Equal(t, tt.severity, f.Severity)
			assert.Equal(t, tt.minutes, f.Metrics["layoverMinutes"])
			assert.Equal(t, tt.details, f.Details)
		})
	}
}

func TestRedeye(t *testing.T) {
	tests := []struct {
		segment string
		want    bool
	}{
		{"ORD → LAX (dep 23:00)", true},
		{"ORD → LAX (dep 22:00)", true},
		{"ORD 04:59 → LAX", true},
		{"ORD 05:00 → LAX", false},
		{"ORD → LAX (dep 10:00)", false},
		{"ORD → LAX", false},
	}

	for _, tt := range tests {
		f, ok := findFlag(evaluateAlone(t, newOption(300, 0, 300, tt.segment)), CodeRedeye)
		assert.Equal(t, tt.want, ok, tt.segment)
		if ok {
			assert.Equal(t, SeverityWarn, f.Severity)
		}
	}
}

func TestLongTravelTime(t *testing.T) {
	options := []models.TripOption{
		newOption(300, 0, 180),
		newOption(310, 0, 180),
		newOption(320, 1, 300),
	}
	s := stats.FromOptions(options)
	require.Equal(t, 180, s.MedianDurationMinutes)

	e := NewEngine(DefaultConfig(), nil)

	f, ok := findFlag(e.Evaluate(&options[2], s), CodeLongTravelTime)
	require.True(t, ok)
	assert.Equal(t, SeverityWarn, f.Severity)
	assert.Equal(t, "About 2h longer than typical options.", f.Details)
	assert.Equal(t, 120, f.Metrics["extraMinutes"])
	assert.Equal(t, 67, f.Metrics["percentAboveMedian"])

	_, ok = findFlag(e.Evaluate(&options[0], s), CodeLongTravelTime)
	assert.False(t, ok)
}

func TestLongTravelTime_SkippedWithoutMedian(t *testing.T) {
	o := newOption(300, 0, 900)
	flags := NewEngine(DefaultConfig(), nil).Evaluate(&o, stats.Statistics{OptionCount: 1})

	_, ok := findFlag(flags, CodeLongTravelTime)
	assert.False(t, ok)
}

func TestPriceFlags_FiveOptions(t *testing.T) {
	options := pricedOptions(100, 200, 300, 400, 500)
	s := stats.FromOptions(options)
	e := NewEngine(DefaultConfig(), nil)

	cheapest := e.Evaluate(&options[0], s)
	f, ok := findFlag(cheapest, CodeGreatPrice)
	require.True(t, ok)
	assert.Equal(t, SeverityGood, f.Severity)
	assert.Equal(t, int64(67), f.Metrics["percentBelowMedian"])
	_, ok = findFlag(cheapest, CodeExpensive)
	assert.False(t, ok)

	priciest := e.Evaluate(&options[4], s)
	f, ok = findFlag(priciest, CodeExpensive)
	require.True(t, ok)
	assert.Equal(t, SeverityBad, f.Severity)
	assert.Equal(t, int64(67), f.Metrics["percentAboveMedian"])

	middle := e.Evaluate(&options[2], s)
	_, great := findFlag(middle, CodeGreatPrice)
	_, expensive := findFlag(middle, CodeExpensive)
	assert.False(t, great)
	assert.False(t, expensive)
}

func TestPriceFlags_NeedThreeOptions(t *testing.T) {
	options := pricedOptions(100, 500)
	s := stats.FromOptions(options)
	e := NewEngine(DefaultConfig(), nil)

	for i := range options {
		flags := e.Evaluate(&options[i], s)
		_, great := findFlag(flags, CodeGreatPrice)
		_, expensive := findFlag(flags, CodeExpensive)
		assert.False(t, great)
		assert.False(t, expensive)
	}
}

func TestReturnLegManyStops(t *testing.T) {
	o := newOption(500, 1, 300)
	o.ReturnFlight = &models.Flight{Stops: 3}

	f, ok := findFlag(evaluateAlone(t, o), CodeManyStops)
	require.True(t, ok)
	assert.Equal(t, SeverityBad, f.Severity)
	assert.Equal(t, "3 stops (return)", f.Title)
	assert.Equal(t, "return", f.Metrics["leg"])
}

func TestReturnLegManyStops_NotDuplicated(t *testing.T) {
	o := newOption(500, 2, 500)
	o.ReturnFlight = &models.Flight{Stops: 2}

	count := 0
	for _, f := range evaluateAlone(t, o) {
		if f.Code == CodeManyStops {
			count++
			assert.Equal(t, "2 stops", f.Title)
		}
	}
	assert.Equal(t, 1, count)
}

func TestFlagsSortedBySeverity(t *testing.T) {
	options := []models.TripOption{
		newOption(100, 0, 120),
		newOption(200, 0, 120),
		newOption(300, 0, 120),
		newOption(900, 3, 600, "ORD 23:30 → DEN (2h 0m)", "DEN 01:50 → PHX (1h 0m)", "PHX 08:00 → LAX (1h 0m)", "LAX 09:30 → SFO (1h 0m)"),
	}
	s := stats.FromOptions(options)
	e := NewEngine(DefaultConfig(), nil)

	for i := range options {
		flags := e.Evaluate(&options[i], s)
		for j := 1; j < len(flags); j++ {
			assert.LessOrEqual(t, flags[j-1].Severity.Rank(), flags[j].Severity.Rank())
		}
	}

	worst := e.Evaluate(&options[3], s)
	require.NotEmpty(t, worst)
	assert.Equal(t, SeverityBad, worst[0].Severity)
}

func TestEvaluate_MissingData(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)

	assert.Empty(t, e.Evaluate(nil, stats.Statistics{}))
	assert.NotNil(t, e.Evaluate(nil, stats.Statistics{}))
	assert.Empty(t, e.Evaluate(&models.TripOption{TotalPrice: decimal.NewFromInt(10)}, stats.Statistics{}))

	o := newOption(300, 1, 0, "", "garbage", "→")
	assert.NotPanics(t, func() { e.Evaluate(&o, stats.Statistics{}) })
}

type stubParser struct {
	segs map[string]segment.Segment
}

func (p stubParser) Parse(text string) (segment.Segment, bool) {
	s, ok := p.segs[text]
	return s, ok
}

func TestEngine_UsesInjectedParser(t *testing.T) {
	p := stubParser{segs: map[string]segment.Segment{
		"leg-1": {Destination: "SIN", DepartureTime: &segment.Clock{Hour: 23}, DurationMinutes: 60},
		"leg-2": {DepartureTime: &segment.Clock{Hour: 0, Minute: 20}, DurationMinutes: 120},
	}}
	o := newOption(300, 1, 200, "leg-1", "leg-2")

	flags := NewEngine(DefaultConfig(), p).Evaluate(&o, stats.Statistics{})

	f, ok := findFlag(flags, CodeTightConnection)
	require.True(t, ok)
	assert.Equal(t, 20, f.Metrics["connectionMinutes"])
	assert.Equal(t, "SIN", f.Metrics["airport"])
	_, ok = findFlag(flags, CodeRedeye)
	assert.True(t, ok)
}

func TestEngine_CustomThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ManyStops = 1
	cfg.SevereStops = 1
	o := newOption(300, 1, 200)

	flags := NewEngine(cfg, nil).Evaluate(&o, stats.Statistics{})

	f, ok := findFlag(flags, CodeManyStops)
	require.True(t, ok)
	assert.Equal(t, SeverityBad, f.Severity)
}
