// Package timezone resolves Indonesian airport zones and parses the
// timestamp formats providers send.
package timezone

import (
	"strings"
	"time"

	"github.com/dharmasatrya/tripoptimizer/internal/segment"
)

var (
	WIB  = time.FixedZone("WIB", 7*60*60)  // Jakarta, Surabaya
	WITA = time.FixedZone("WITA", 8*60*60) // Bali, Makassar
	WIT  = time.FixedZone("WIT", 9*60*60)  // Papua
)

var airportZones = map[string]*time.Location{
	"CGK": WIB, "HLP": WIB, "BDO": WIB, "SUB": WIB, "SRG": WIB,
	"JOG": WIB, "SOC": WIB, "PLM": WIB, "PNK": WIB, "BTH": WIB,
	"PKU": WIB, "PDG": WIB, "KNO": WIB, "BTJ": WIB, "TNJ": WIB,

	"DPS": WITA, "LOP": WITA, "UPG": WITA, "BPN": WITA,
	"MDC": WITA, "KDI": WITA, "PLW": WITA, "TRK": WITA,

	"DJJ": WIT, "TIM": WIT, "BIK": WIT, "MKQ": WIT, "SOQ": WIT, "AMQ": WIT,
}

var zoneAliases = map[string]*time.Location{
	"WIB": WIB, "UTC+7": WIB, "ASIA/JAKARTA": WIB, "ASIA/PONTIANAK": WIB,
	"WITA": WITA, "UTC+8": WITA, "ASIA/MAKASSAR": WITA,
	"WIT": WIT, "UTC+9": WIT, "ASIA/JAYAPURA": WIT,
}

// LocationByAirport defaults to WIB for unknown airports.
func LocationByAirport(code string) *time.Location {
	if loc, ok := airportZones[strings.ToUpper(code)]; ok {
		return loc
	}
	return WIB
}

func NameByAirport(code string) string {
	return LocationByAirport(code).String()
}

// LocationByName accepts zone abbreviations, UTC offsets and IANA names.
func LocationByName(name string) *time.Location {
	if loc, ok := zoneAliases[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return loc
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return WIB
}

var offsetLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05Z",
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Parse reads a provider timestamp. Timestamps without an offset are
// interpreted in zone, which may be empty for UTC.
func Parse(value, zone string) (time.Time, error) {
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	loc := time.UTC
	if zone != "" {
		loc = LocationByName(zone)
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &time.ParseError{Value: value, Message: ": unrecognized timestamp"}
}

// AtAirport converts t to the airport's local time.
func AtAirport(t time.Time, airport string) time.Time {
	return t.In(LocationByAirport(airport))
}

// ClockAt is the wall clock of t at airport.
func ClockAt(t time.Time, airport string) segment.Clock {
	local := AtAirport(t, airport)
	return segment.Clock{Hour: local.Hour(), Minute: local.Minute()}
}

// SameLocalDay reports whether t falls on date (YYYY-MM-DD) at airport.
func SameLocalDay(t time.Time, airport, date string) bool {
	return AtAirport(t, airport).Format("2006-01-02") == date
}
