package calculator

import (
	"fmt"
	"math"

	"TrendLens/internal/model"
)

// SupportResistance scans the trailing window of bars at the latest index and
// returns the lowest low as support and the highest high as resistance.
func SupportResistance(series *model.PriceSeries, window int) (model.Levels, error) {
	if window <= 0 {
		return model.Levels{}, fmt.Errorf("levels window %d: %w", window, ErrInvalidWindow)
	}
	n := series.Len()
	if n < window {
		return model.Levels{}, fmt.Errorf("support/resistance needs %d bars, have %d: %w", window, n, ErrInsufficientData)
	}
	support := math.Inf(1)
	resistance := math.Inf(-1)
	for i := n - window; i < n; i++ {
		bar := series.At(i)
		if bar.Low < support {
			support = bar.Low
		}
		if bar.High > resistance {
			resistance = bar.High
		}
	}
	return model.Levels{Window: window, Support: support, Resistance: resistance}, nil
}

// Risk expresses the levels as a stop-loss distance below and a target
// distance above the given close, both in percent of the close.
func Risk(close float64, levels model.Levels) (model.RiskGuide, error) {
	if close <= 0 {
		return model.RiskGuide{}, fmt.Errorf("close must be positive, got %v", close)
	}
	return model.RiskGuide{
		StopLoss:    levels.Support,
		StopLossPct: (close - levels.Support) / close * 100,
		Target:      levels.Resistance,
		TargetPct:   (levels.Resistance - close) / close * 100,
	}, nil
}
