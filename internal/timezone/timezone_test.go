package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/tripoptimizer/internal/segment"
)

func TestLocationByAirport(t *testing.T) {
	tests := map[string]string{
		"CGK": "WIB",
		"dps": "WITA",
		"DJJ": "WIT",
		"XXX": "WIB",
	}
	for code, want := range tests {
		assert.Equal(t, want, NameByAirport(code), code)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		value string
		zone  string
		want  time.Time
	}{
		{"rfc3339", "2026-12-15T06:00:00+07:00", "", time.Date(2026, 12, 14, 23, 0, 0, 0, time.UTC)},
		{"offset without colon", "2026-12-15T06:00:00+0800", "", time.Date(2026, 12, 14, 22, 0, 0, 0, time.UTC)},
		{"local in iana zone", "2026-12-15T09:20:00", "Asia/Makassar", time.Date(2026, 12, 15, 1, 20, 0, 0, time.UTC)},
		{"local in abbreviation", "2026-12-15 06:30", "WIB", time.Date(2026, 12, 14, 23, 30, 0, 0, time.UTC)},
		{"local without zone is utc", "2026-12-15T06:30:00", "", time.Date(2026, 12, 15, 6, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.value, tt.zone)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := Parse("tomorrow morning", "WIB")
	assert.Error(t, err)
}

func TestClockAt(t *testing.T) {
	dep, err := Parse("2026-12-15T13:30:00+08:00", "")
	require.NoError(t, err)

	assert.Equal(t, segment.Clock{Hour: 12, Minute: 30}, ClockAt(dep, "CGK"))
	assert.Equal(t, segment.Clock{Hour: 13, Minute: 30}, ClockAt(dep, "UPG"))
}

func TestSameLocalDay(t *testing.T) {
	dep, err := Parse("2026-12-15T23:30:00+07:00", "")
	require.NoError(t, err)

	assert.True(t, SameLocalDay(dep, "CGK", "2026-12-15"))
	assert.False(t, SameLocalDay(dep, "DPS", "2026-12-15"))
}
