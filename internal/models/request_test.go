package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSearchRequest_ValidateDefaults(t *testing.T) {
	req := SearchRequest{Origin: "CGK", Destination: "DPS", DepartureDate: "2025-12-15"}

	require.NoError(t, req.Validate())
	assert.Equal(t, 1, req.Passengers)
	assert.Equal(t, "economy", req.CabinClass)
	assert.Equal(t, "best_value", req.SortBy)
	assert.Equal(t, "asc", req.SortOrder)
}

func TestSearchRequest_ValidateNormalizesAirports(t *testing.T) {
	req := SearchRequest{Origin: " cgk", Destination: "Dps ", DepartureDate: "2025-12-15"}

	require.NoError(t, req.Validate())
	assert.Equal(t, "CGK", req.Origin)
	assert.Equal(t, "DPS", req.Destination)

	blank := SearchRequest{Origin: "  ", Destination: "DPS", DepartureDate: "2025-12-15"}
	assert.ErrorIs(t, blank.Validate(), ErrMissingOrigin)
}

func TestSearchRequest_ValidateKeepsExplicitValues(t *testing.T) {
	req := SearchRequest{
		Origin:        "CGK",
		Destination:   "DPS",
		DepartureDate: "2025-12-15",
		Passengers:    3,
		CabinClass:    "business",
		SortBy:        "price",
		SortOrder:     "desc",
	}

	require.NoError(t, req.Validate())
	assert.Equal(t, 3, req.Passengers)
	assert.Equal(t, "business", req.CabinClass)
	assert.Equal(t, "price", req.SortBy)
	assert.Equal(t, "desc", req.SortOrder)
}

func TestSearchRequest_ValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		req  SearchRequest
		want error
	}{
		{"missing origin", SearchRequest{Destination: "DPS", DepartureDate: "2025-12-15"}, ErrMissingOrigin},
		{"missing destination", SearchRequest{Origin: "CGK", DepartureDate: "2025-12-15"}, ErrMissingDestination},
		{"missing date", SearchRequest{Origin: "CGK", Destination: "DPS"}, ErrMissingDepartureDate},
		{"bad date", SearchRequest{Origin: "CGK", Destination: "DPS", DepartureDate: "15/12/2025"}, ErrInvalidDepartureDate},
		{"bad return date", SearchRequest{Origin: "CGK", Destination: "DPS", DepartureDate: "2025-12-15", ReturnDate: strPtr("soon")}, ErrInvalidReturnDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSearchRequest_IsRoundTrip(t *testing.T) {
	assert.False(t, SearchRequest{}.IsRoundTrip())
	assert.False(t, SearchRequest{ReturnDate: strPtr("")}.IsRoundTrip())
	assert.True(t, SearchRequest{ReturnDate: strPtr("2025-12-20")}.IsRoundTrip())
}

func TestSearchRequest_EarliestDeparture(t *testing.T) {
	got, ok := SearchRequest{DepartureDate: "2025-12-15"}.EarliestDeparture()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), got)

	_, ok = SearchRequest{DepartureDate: "tomorrow"}.EarliestDeparture()
	assert.False(t, ok)
}
