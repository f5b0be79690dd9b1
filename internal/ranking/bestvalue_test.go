package ranking

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/tripoptimizer/internal/models"
	"github.com/dharmasatrya/tripoptimizer/internal/stats"
)

func option(id string, price int64, minutes, stops int) models.TripOption {
	return models.NewTripOption(models.Flight{
		ID:       id,
		Price:    models.Price{Amount: decimal.NewFromInt(price), Currency: "IDR"},
		Duration: models.NewDuration(minutes),
		Stops:    stops,
	})
}

func TestCalculateScores(t *testing.T) {
	options := []models.TripOption{
		option("cheap-slow", 500, 300, 1),
		option("pricey-fast", 1000, 100, 0),
	}

	scored := CalculateScores(options, stats.FromOptions(options))

	require.Len(t, scored, 2)
	// 50*0.5 + 100*0.3 + 15*0.2
	assert.Equal(t, 58.0, scored[0].BestValueScore)
	// 100*0.5 + 33.33*0.3
	assert.Equal(t, 60.0, scored[1].BestValueScore)
	assert.Zero(t, options[0].BestValueScore, "input is not modified")
}

func TestCalculateScores_Empty(t *testing.T) {
	assert.Empty(t, CalculateScores(nil, stats.Statistics{}))
}

func TestCalculateBestValue_ZeroMaxima(t *testing.T) {
	assert.Equal(t, 3.0, CalculateBestValue(option("x", 0, 0, 1), 0, 0))
}

func TestTotals_RoundTrip(t *testing.T) {
	out := models.Flight{ID: "O", Duration: models.NewDuration(120), Stops: 1, Price: models.Price{Amount: decimal.NewFromInt(100)}}
	in := models.Flight{ID: "R", Duration: models.NewDuration(90), Stops: 2, Price: models.Price{Amount: decimal.NewFromInt(100)}}
	rt := models.NewRoundTripOption(out, in)

	assert.Equal(t, 210, TotalMinutes(rt))
	assert.Equal(t, 3, TotalStops(rt))
	assert.Zero(t, TotalStops(models.TripOption{}))
}
