package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(day int, close float64) PricePoint {
	return PricePoint{
		Time:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		Open:   close,
		High:   close + 1,
		Low:    close - 1,
		Close:  close,
		Volume: 100,
	}
}

func TestNewPriceSeries_Valid(t *testing.T) {
	s, err := NewPriceSeries("AAPL", []PricePoint{bar(0, 10), bar(1, 11), bar(3, 12)})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", s.Symbol())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{10, 11, 12}, s.Closes())
	assert.Equal(t, []float64{11, 12, 13}, s.Highs())
	assert.Equal(t, []float64{9, 10, 11}, s.Lows())
	assert.Equal(t, []int64{100, 100, 100}, s.Volumes())

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 12.0, last.Close)
}

func TestNewPriceSeries_Rejects(t *testing.T) {
	dup := bar(1, 11)
	dup.Time = bar(0, 10).Time

	negVol := bar(1, 11)
	negVol.Volume = -1

	nanClose := bar(1, 11)
	nanClose.Close = math.NaN()

	zeroLow := bar(1, 11)
	zeroLow.Low = 0

	tests := []struct {
		name   string
		points []PricePoint
	}{
		{"duplicate timestamp", []PricePoint{bar(0, 10), dup}},
		{"out of order", []PricePoint{bar(2, 10), bar(1, 11)}},
		{"negative volume", []PricePoint{bar(0, 10), negVol}},
		{"nan close", []PricePoint{bar(0, 10), nanClose}},
		{"zero low", []PricePoint{bar(0, 10), zeroLow}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPriceSeries("X", tt.points)
			assert.ErrorIs(t, err, ErrInvalidSeries)
		})
	}
}

func TestPriceSeries_IsFrozen(t *testing.T) {
	points := []PricePoint{bar(0, 10), bar(1, 11)}
	s, err := NewPriceSeries("X", points)
	require.NoError(t, err)

	points[0].Close = 999
	assert.Equal(t, 10.0, s.At(0).Close, "input slice must be copied")

	out := s.Points()
	out[1].Close = 999
	closes := s.Closes()
	closes[0] = -1
	assert.Equal(t, []float64{10, 11}, s.Closes(), "accessors must return copies")
}

func TestPriceSeries_EmptyLast(t *testing.T) {
	s, err := NewPriceSeries("X", nil)
	require.NoError(t, err)
	_, ok := s.Last()
	assert.False(t, ok)
}

func TestIndicatorSeries_Helpers(t *testing.T) {
	nan := math.NaN()
	s := IndicatorSeries{Name: "SMA_3", Values: []float64{nan, nan, nan, nan}}
	assert.Equal(t, 0, s.DefinedCount())
	assert.Equal(t, -1, s.FirstDefined())
	_, ok := s.Last()
	assert.False(t, ok)

	s.Values[2] = 5
	s.Values[3] = 6
	assert.Equal(t, 2, s.DefinedCount())
	assert.Equal(t, 2, s.FirstDefined())
	v, ok := s.At(3)
	assert.True(t, ok)
	assert.Equal(t, 6.0, v)
	assert.False(t, s.Defined(-1))
	assert.False(t, s.Defined(4))
}
