package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidSeries is returned when price points violate ordering or value constraints.
var ErrInvalidSeries = errors.New("invalid price series")

// PricePoint represents a single OHLCV bar.
type PricePoint struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// PriceSeries is a frozen, chronologically ordered sequence of price points.
// All accessors return copies; a series never changes after construction.
type PriceSeries struct {
	symbol string
	points []PricePoint
}

// NewPriceSeries copies and validates points. Timestamps must be strictly
// increasing, prices positive and finite, volume non-negative.
func NewPriceSeries(symbol string, points []PricePoint) (*PriceSeries, error) {
	cp := make([]PricePoint, len(points))
	copy(cp, points)
	for i, p := range cp {
		if err := validatePoint(p); err != nil {
			return nil, fmt.Errorf("%w: point %d: %v", ErrInvalidSeries, i, err)
		}
		if i > 0 && !p.Time.After(cp[i-1].Time) {
			return nil, fmt.Errorf("%w: point %d: timestamp %s not after %s",
				ErrInvalidSeries, i, p.Time.Format(time.RFC3339), cp[i-1].Time.Format(time.RFC3339))
		}
	}
	return &PriceSeries{symbol: symbol, points: cp}, nil
}

func validatePoint(p PricePoint) error {
	for _, v := range [...]struct {
		name string
		val  float64
	}{{"open", p.Open}, {"high", p.High}, {"low", p.Low}, {"close", p.Close}} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) || v.val <= 0 {
			return fmt.Errorf("%s must be positive and finite, got %v", v.name, v.val)
		}
	}
	if p.Volume < 0 {
		return fmt.Errorf("volume must be non-negative, got %d", p.Volume)
	}
	return nil
}

func (s *PriceSeries) Symbol() string { return s.symbol }
func (s *PriceSeries) Len() int       { return len(s.points) }

// At returns the point at index i. It panics when i is out of range, like a slice.
func (s *PriceSeries) At(i int) PricePoint { return s.points[i] }

// Last returns the most recent point; ok is false for an empty series.
func (s *PriceSeries) Last() (PricePoint, bool) {
	if len(s.points) == 0 {
		return PricePoint{}, false
	}
	return s.points[len(s.points)-1], true
}

// Points returns a copy of all points.
func (s *PriceSeries) Points() []PricePoint {
	cp := make([]PricePoint, len(s.points))
	copy(cp, s.points)
	return cp
}

func (s *PriceSeries) Closes() []float64 {
	return s.extract(func(p PricePoint) float64 { return p.Close })
}

func (s *PriceSeries) Highs() []float64 {
	return s.extract(func(p PricePoint) float64 { return p.High })
}

func (s *PriceSeries) Lows() []float64 {
	return s.extract(func(p PricePoint) float64 { return p.Low })
}

func (s *PriceSeries) Volumes() []int64 {
	out := make([]int64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Volume
	}
	return out
}

func (s *PriceSeries) extract(field func(PricePoint) float64) []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = field(p)
	}
	return out
}
