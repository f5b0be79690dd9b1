package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicParser_Parse(t *testing.T) {
	p := NewHeuristicParser()

	tests := []struct {
		name     string
		text     string
		ok       bool
		origin   string
		dest     string
		clock    *Clock
		duration int
	}{
		{
			name:     "full descriptor",
			text:     "CGK 06:00 → DPS (1h 50m)",
			ok:       true,
			origin:   "CGK",
			dest:     "DPS",
			clock:    &Clock{Hour: 6},
			duration: 110,
		},
		{
			name:     "hours only",
			text:     "ORD → DEN (2h)",
			ok:       true,
			origin:   "ORD",
			dest:     "DEN",
			duration: 120,
		},
		{
			name:   "hyphen separator",
			text:   "ORD-DEN",
			ok:     true,
			origin: "ORD",
			dest:   "DEN",
		},
		{
			name:   "departure marker",
			text:   "ORD → LAX (dep 23:00)",
			ok:     true,
			origin: "ORD",
			dest:   "LAX",
			clock:  &Clock{Hour: 23},
		},
		{
			name: "invalid clock is ignored",
			text: "somewhere 27:15",
			ok:   false,
		},
		{
			name: "garbage",
			text: "no useful data here",
			ok:   false,
		},
		{
			name: "empty",
			text: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, ok := p.Parse(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.origin, seg.Origin)
			assert.Equal(t, tt.dest, seg.Destination)
			assert.Equal(t, tt.clock, seg.DepartureTime)
			assert.Equal(t, tt.duration, seg.DurationMinutes)
		})
	}
}

func TestFormat_IsReadableByHeuristicParser(t *testing.T) {
	in := Segment{Origin: "SUB", Destination: "UPG", DepartureTime: &Clock{Hour: 21, Minute: 5}, DurationMinutes: 95}

	text := Format(in)
	assert.Equal(t, "SUB 21:05 → UPG (1h 35m)", text)

	out, ok := NewHeuristicParser().Parse(text)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestEstimateLayovers_DefaultWhenNoDurations(t *testing.T) {
	conns := EstimateLayovers(NewHeuristicParser(), []string{"ORD → DEN", "DEN → LAX", "LAX → SFO"}, 90)

	require.Len(t, conns, 2)
	for _, c := range conns {
		assert.Equal(t, 90, c.Minutes)
	}
	assert.Equal(t, "DEN", conns[0].Airport)
	assert.Equal(t, "LAX", conns[1].Airport)
}

func TestEstimateLayovers_MeasuresGroundTime(t *testing.T) {
	texts := []string{
		"ORD 08:00 → DEN (2h 0m)",
		"DEN 10:40 → PHX (1h 30m)",
		"PHX 17:10 → LAX (1h 15m)",
	}

	conns := EstimateLayovers(NewHeuristicParser(), texts, 90)

	require.Len(t, conns, 2)
	assert.Equal(t, 40, conns[0].Minutes)
	assert.Equal(t, "DEN", conns[0].Airport)
	assert.Equal(t, 300, conns[1].Minutes)
	assert.Equal(t, "PHX", conns[1].Airport)
}

func TestEstimateLayovers_WrapsMidnight(t *testing.T) {
	texts := []string{"CGK 22:00 → SIN (1h 45m)", "SIN 00:30 → NRT (6h 40m)"}

	conns := EstimateLayovers(NewHeuristicParser(), texts, 90)

	require.Len(t, conns, 1)
	assert.Equal(t, 45, conns[0].Minutes)
}

func TestEstimateLayovers_UnknownWhenPartial(t *testing.T) {
	texts := []string{"ORD → DEN (2h 0m)", "DEN → LAX (2h 30m)"}

	conns := EstimateLayovers(NewHeuristicParser(), texts, 90)

	require.Len(t, conns, 1)
	assert.False(t, conns[0].Known())
}

func TestEstimateLayovers_SingleSegment(t *testing.T) {
	assert.Empty(t, EstimateLayovers(NewHeuristicParser(), []string{"ORD → LAX (4h)"}, 90))
	assert.Empty(t, EstimateLayovers(NewHeuristicParser(), nil, 90))
}
