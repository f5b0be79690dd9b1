// Package segment turns flight segment descriptors into structured records.
//
// Providers describe each segment with loosely formatted text such as
// "CGK 06:00 → DPS (1h 50m)". Rules never look at that text directly; they go
// through a Parser so the heuristics can be replaced by a structured source.
package segment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Segment is what a parser could recover from one descriptor. Zero values
// mean "not found": empty airports, nil DepartureTime, DurationMinutes 0.
type Segment struct {
	Origin          string
	Destination     string
	DepartureTime   *Clock
	DurationMinutes int
}

func (s Segment) HasDuration() bool {
	return s.DurationMinutes > 0
}

type Parser interface {
	// Parse reports false when nothing at all could be recognized.
	Parse(text string) (Segment, bool)
}

var (
	durationPattern   = regexp.MustCompile(`\((\d+)h\s*(\d*)m?\)`)
	clockPattern      = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	arrowDestPattern  = regexp.MustCompile(`→\s*([A-Z]{3})`)
	hyphenDestPattern = regexp.MustCompile(`-\s*([A-Z]{3})`)
	originPattern     = regexp.MustCompile(`^\s*([A-Z]{3})\b`)
)

// HeuristicParser reads the legacy free-text format with regular
// expressions. It never fails hard: unmatched parts are left zero.
type HeuristicParser struct{}

func NewHeuristicParser() HeuristicParser {
	return HeuristicParser{}
}

func (HeuristicParser) Parse(text string) (Segment, bool) {
	var seg Segment
	found := false

	if m := durationPattern.FindStringSubmatch(text); m != nil {
		hours, _ := strconv.Atoi(m[1])
		mins := 0
		if m[2] != "" {
			mins, _ = strconv.Atoi(m[2])
		}
		seg.DurationMinutes = hours*60 + mins
		found = true
	}

	if m := clockPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 24 && minute < 60 {
			seg.DepartureTime = &Clock{Hour: hour, Minute: minute}
			found = true
		}
	}

	if m := arrowDestPattern.FindStringSubmatch(text); m != nil {
		seg.Destination = m[1]
		found = true
	} else if m := hyphenDestPattern.FindStringSubmatch(text); m != nil {
		seg.Destination = m[1]
		found = true
	}

	if m := originPattern.FindStringSubmatch(text); m != nil {
		seg.Origin = m[1]
		found = true
	}

	return seg, found
}

// Format renders a segment in the descriptor format HeuristicParser reads.
func Format(s Segment) string {
	var b strings.Builder
	b.WriteString(s.Origin)
	if s.DepartureTime != nil {
		b.WriteString(" " + s.DepartureTime.String())
	}
	b.WriteString(" → " + s.Destination)
	if s.DurationMinutes > 0 {
		fmt.Fprintf(&b, " (%dh %dm)", s.DurationMinutes/60, s.DurationMinutes%60)
	}
	return b.String()
}
