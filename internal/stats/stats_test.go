package stats

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dharmasatrya/tripoptimizer/internal/models"
)

func decimals(vals ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func TestCompute_ExactQuartiles(t *testing.T) {
	s := Compute(decimals(300, 100, 500, 200, 400), []int{180, 120, 240})

	assert.Equal(t, 5, s.OptionCount)
	assert.True(t, s.MinPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, s.MaxPrice.Equal(decimal.NewFromInt(500)))
	assert.True(t, s.P25Price.Equal(decimal.NewFromInt(200)), "p25 = %s", s.P25Price)
	assert.True(t, s.P75Price.Equal(decimal.NewFromInt(400)), "p75 = %s", s.P75Price)
	assert.Equal(t, 180, s.MedianDurationMinutes)
}

func TestCompute_Interpolates(t *testing.T) {
	// index for p25 over 4 values is 0.75: 100 + 0.75*(200-100)
	s := Compute(decimals(100, 200, 300, 400), nil)

	assert.True(t, s.P25Price.Equal(decimal.NewFromInt(175)), "p25 = %s", s.P25Price)
	assert.True(t, s.P75Price.Equal(decimal.NewFromInt(325)), "p75 = %s", s.P75Price)
	assert.Equal(t, 0, s.MedianDurationMinutes)
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, nil)

	assert.Equal(t, 0, s.OptionCount)
	assert.True(t, s.MinPrice.IsZero())
	assert.True(t, s.MaxPrice.IsZero())
	assert.True(t, s.P25Price.IsZero())
	assert.True(t, s.P75Price.IsZero())
	assert.Equal(t, 0, s.MedianDurationMinutes)
}

func TestCompute_SingleValue(t *testing.T) {
	s := Compute(decimals(250), []int{90})

	assert.Equal(t, 1, s.OptionCount)
	assert.True(t, s.P25Price.Equal(decimal.NewFromInt(250)))
	assert.True(t, s.P75Price.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, 90, s.MedianDurationMinutes)
}

func TestCompute_QuartileOrdering(t *testing.T) {
	inputs := [][]int64{
		{5},
		{9, 1},
		{7, 7, 7},
		{10, 3, 99, 42, 8, 8, 15},
		{1000, 999, 1, 2, 500, 501, 250, 750},
	}
	for _, in := range inputs {
		s := Compute(decimals(in...), nil)
		assert.True(t, s.MinPrice.LessThanOrEqual(s.P25Price), "%v", in)
		assert.True(t, s.P25Price.LessThanOrEqual(s.P75Price), "%v", in)
		assert.True(t, s.P75Price.LessThanOrEqual(s.MaxPrice), "%v", in)
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	prices := decimals(3, 1, 2)
	durations := []int{30, 10, 20}

	Compute(prices, durations)

	assert.True(t, prices[0].Equal(decimal.NewFromInt(3)))
	assert.Equal(t, []int{30, 10, 20}, durations)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0, Median(nil))
	assert.Equal(t, 150, Median([]int{200, 100}))
	assert.Equal(t, 151, Median([]int{100, 203}))
	assert.Equal(t, 200, Median([]int{300, 100, 200}))
}

func TestFromOptions(t *testing.T) {
	options := []models.TripOption{
		{TotalPrice: decimal.NewFromInt(100), Flight: &models.Flight{Duration: models.NewDuration(120)}},
		{TotalPrice: decimal.NewFromInt(300), Flight: &models.Flight{Duration: models.NewDuration(0)}},
		{TotalPrice: decimal.NewFromInt(200)},
	}

	s := FromOptions(options)

	assert.Equal(t, 3, s.OptionCount)
	assert.True(t, s.MinPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, s.MaxPrice.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 120, s.MedianDurationMinutes)
}
