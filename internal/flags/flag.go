package flags

type Code string

const (
	CodeNonstop         Code = "NONSTOP"
	CodeGreatPrice      Code = "GREAT_PRICE"
	CodeTightConnection Code = "TIGHT_CONNECTION"
	CodeLongLayover     Code = "LONG_LAYOVER"
	CodeRedeye          Code = "REDEYE"
	CodeLongTravelTime  Code = "LONG_TRAVEL_TIME"
	CodeManyStops       Code = "MANY_STOPS"
	CodeExpensive       Code = "EXPENSIVE"
)

type Severity string

const (
	SeverityBad  Severity = "BAD"
	SeverityWarn Severity = "WARN"
	SeverityGood Severity = "GOOD"
	SeverityInfo Severity = "INFO"
)

// Rank orders severities for display, BAD first.
func (s Severity) Rank() int {
	switch s {
	case SeverityBad:
		return 1
	case SeverityWarn:
		return 2
	case SeverityGood:
		return 3
	case SeverityInfo:
		return 4
	default:
		return 5
	}
}

type Flag struct {
	Code     Code           `json:"code"`
	Severity Severity       `json:"severity"`
	Title    string         `json:"title"`
	Details  string         `json:"details"`
	Metrics  map[string]any `json:"metrics,omitempty"`
}

// Config holds the rule thresholds. Use DefaultConfig and override fields.
type Config struct {
	ManyStops                 int     `koanf:"many_stops"`
	SevereStops               int     `koanf:"severe_stops"`
	TightConnectionMinutes    int     `koanf:"tight_connection_minutes"`
	CriticalConnectionMinutes int     `koanf:"critical_connection_minutes"`
	LongLayoverMinutes        int     `koanf:"long_layover_minutes"`
	VeryLongLayoverMinutes    int     `koanf:"very_long_layover_minutes"`
	DefaultLayoverMinutes     int     `koanf:"default_layover_minutes"`
	RedeyeStartHour           int     `koanf:"redeye_start_hour"`
	RedeyeEndHour             int     `koanf:"redeye_end_hour"`
	LongTravelFactor          float64 `koanf:"long_travel_factor"`
	MinOptionsForPriceRules   int     `koanf:"min_options_for_price_rules"`
}

func DefaultConfig() Config {
	return Config{
		ManyStops:                 2,
		SevereStops:               3,
		TightConnectionMinutes:    60,
		CriticalConnectionMinutes: 45,
		LongLayoverMinutes:        180,
		VeryLongLayoverMinutes:    300,
		DefaultLayoverMinutes:     90,
		RedeyeStartHour:           22,
		RedeyeEndHour:             5,
		LongTravelFactor:          1.35,
		MinOptionsForPriceRules:   3,
	}
}
