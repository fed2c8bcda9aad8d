package calculator

import (
	"fmt"
	"math"

	"TrendLens/internal/model"
)

// RSI computes the relative strength index using plain means of gains and
// losses over the trailing window of price changes. The first window
// entries are undefined. A window without losses yields exactly 100.
func RSI(series *model.PriceSeries, window int) (model.IndicatorSeries, error) {
	if window <= 0 {
		return model.IndicatorSeries{}, fmt.Errorf("rsi window %d: %w", window, ErrInvalidWindow)
	}
	closes := series.Closes()
	out := make([]float64, len(closes))
	for i := range out {
		if i < window {
			out[i] = math.NaN()
			continue
		}
		// Sums are taken fresh per window so an all-gain window has losses of exactly 0.
		var gains, losses float64
		for j := i - window + 1; j <= i; j++ {
			change := closes[j] - closes[j-1]
			if change > 0 {
				gains += change
			} else {
				losses -= change
			}
		}
		out[i] = rsiValue(gains/float64(window), losses/float64(window))
	}
	return model.IndicatorSeries{Name: seriesName(model.IndicatorRSI, window), Values: out}, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
