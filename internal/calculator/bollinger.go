package calculator

import (
	"fmt"
	"math"

	"TrendLens/internal/model"
)

// BollingerBands computes the SMA middle band and an envelope of numStd
// sample standard deviations on either side. Entries before window-1 are
// undefined. A window of 1 has no spread, so all three bands coincide.
func BollingerBands(series *model.PriceSeries, window int, numStd float64) (model.BollingerSeries, error) {
	if window <= 0 {
		return model.BollingerSeries{}, fmt.Errorf("bollinger window %d: %w", window, ErrInvalidWindow)
	}
	if numStd < 0 || math.IsNaN(numStd) {
		return model.BollingerSeries{}, fmt.Errorf("bollinger std dev %v: %w", numStd, ErrInvalidMultiplier)
	}

	closes := series.Closes()
	middle := smaValues(closes, window)
	upper := make([]float64, len(closes))
	lower := make([]float64, len(closes))
	for i := range closes {
		if i < window-1 {
			upper[i] = math.NaN()
			lower[i] = math.NaN()
			continue
		}
		width := numStd * sampleStdDev(closes[i-window+1:i+1], middle[i])
		upper[i] = middle[i] + width
		lower[i] = middle[i] - width
	}

	return model.BollingerSeries{
		Upper:  model.IndicatorSeries{Name: seriesName(model.IndicatorBBUpper, window), Values: upper},
		Middle: model.IndicatorSeries{Name: seriesName(model.IndicatorBBMiddle, window), Values: middle},
		Lower:  model.IndicatorSeries{Name: seriesName(model.IndicatorBBLower, window), Values: lower},
	}, nil
}

// sampleStdDev measures spread around mean, which must be the window's SMA.
func sampleStdDev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// BandPosition returns where price sits inside [lower, upper] as a percentage.
// A collapsed band reports 50.
func BandPosition(price, upper, lower float64) float64 {
	if upper == lower {
		return 50
	}
	return (price - lower) / (upper - lower) * 100
}
