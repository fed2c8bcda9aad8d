package calculator

import (
	"fmt"
	"math"

	"TrendLens/internal/model"
)

// SMA computes the simple moving average of closes over the given window.
// Entries before index window-1 are undefined.
func SMA(series *model.PriceSeries, window int) (model.IndicatorSeries, error) {
	if window <= 0 {
		return model.IndicatorSeries{}, fmt.Errorf("sma window %d: %w", window, ErrInvalidWindow)
	}
	return model.IndicatorSeries{
		Name:   seriesName(model.IndicatorSMA, window),
		Values: smaValues(series.Closes(), window),
	}, nil
}

// EMA computes the exponential moving average with alpha = 2/(span+1),
// seeded with the first close. Every entry is defined.
func EMA(series *model.PriceSeries, span int) (model.IndicatorSeries, error) {
	if span <= 0 {
		return model.IndicatorSeries{}, fmt.Errorf("ema span %d: %w", span, ErrInvalidWindow)
	}
	return model.IndicatorSeries{
		Name:   seriesName(model.IndicatorEMA, span),
		Values: emaValues(series.Closes(), span),
	}, nil
}

func smaValues(prices []float64, window int) []float64 {
	out := make([]float64, len(prices))
	for i := range prices {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = windowMean(prices[i-window+1 : i+1])
	}
	return out
}

// windowMean sums deviations from the first value so a constant window
// returns that value exactly.
func windowMean(values []float64) float64 {
	base := values[0]
	dev := 0.0
	for _, v := range values {
		dev += v - base
	}
	return base + dev/float64(len(values))
}

func emaValues(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}
