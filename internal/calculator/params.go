// Package calculator computes technical indicators and signal classifications
// over a frozen model.PriceSeries.
//
// Every function is pure: it reads the series, allocates fresh output and
// never retains a reference to its input. Windowed series that cannot be
// computed yet hold NaN; scalar summaries report ErrInsufficientData instead.
package calculator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWindow is returned for a non-positive window, span or period.
	ErrInvalidWindow = errors.New("window must be positive")
	// ErrInvalidMultiplier is returned for a negative Bollinger width.
	ErrInvalidMultiplier = errors.New("band multiplier must be non-negative")
	// ErrInsufficientData is returned when a scalar summary needs more points.
	ErrInsufficientData = errors.New("insufficient data")
)

// Params carries every window and threshold used by the engine.
type Params struct {
	RSIWindow     int
	RSIOverbought float64
	RSIOversold   float64

	MACDFast   int
	MACDSlow   int
	MACDSignal int

	BollingerWindow int
	BollingerStdDev float64
	BandUpper       float64 // position percent above which the close is near the upper band
	BandLower       float64

	LevelsWindow int

	// Moving-average overlays; the first three also drive trend flags
	// as short, mid and long windows.
	MAWindows []int
}

// DefaultParams mirrors the classic dashboard settings.
func DefaultParams() Params {
	return Params{
		RSIWindow:       14,
		RSIOverbought:   70,
		RSIOversold:     30,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerWindow: 20,
		BollingerStdDev: 2,
		BandUpper:       80,
		BandLower:       20,
		LevelsWindow:    20,
		MAWindows:       []int{20, 50, 200},
	}
}

// Validate checks windows and thresholds before any computation runs.
func (p Params) Validate() error {
	windows := map[string]int{
		"rsi window":       p.RSIWindow,
		"macd fast":        p.MACDFast,
		"macd slow":        p.MACDSlow,
		"macd signal":      p.MACDSignal,
		"bollinger window": p.BollingerWindow,
		"levels window":    p.LevelsWindow,
	}
	for name, w := range windows {
		if w <= 0 {
			return fmt.Errorf("%s %d: %w", name, w, ErrInvalidWindow)
		}
	}
	for _, w := range p.MAWindows {
		if w <= 0 {
			return fmt.Errorf("ma window %d: %w", w, ErrInvalidWindow)
		}
	}
	if p.BollingerStdDev < 0 {
		return fmt.Errorf("bollinger std dev %v: %w", p.BollingerStdDev, ErrInvalidMultiplier)
	}
	if p.RSIOversold >= p.RSIOverbought {
		return fmt.Errorf("rsi oversold %v must be below overbought %v", p.RSIOversold, p.RSIOverbought)
	}
	if p.BandLower >= p.BandUpper {
		return fmt.Errorf("band lower %v must be below band upper %v", p.BandLower, p.BandUpper)
	}
	return nil
}

func seriesName(base string, window int) string {
	return fmt.Sprintf("%s_%d", base, window)
}
