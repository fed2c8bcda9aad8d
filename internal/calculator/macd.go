package calculator

import (
	"fmt"

	"TrendLens/internal/model"
)

// MACD returns the fast-minus-slow EMA line, its EMA signal line and the
// histogram between them. Both EMAs seed at index 0, so no entry is undefined.
func MACD(series *model.PriceSeries, fast, slow, signal int) (model.MACDSeries, error) {
	for _, p := range [...]struct {
		name string
		val  int
	}{{"fast", fast}, {"slow", slow}, {"signal", signal}} {
		if p.val <= 0 {
			return model.MACDSeries{}, fmt.Errorf("macd %s period %d: %w", p.name, p.val, ErrInvalidWindow)
		}
	}

	closes := series.Closes()
	fastEMA := emaValues(closes, fast)
	slowEMA := emaValues(closes, slow)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig := emaValues(line, signal)

	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}

	return model.MACDSeries{
		Line:      model.IndicatorSeries{Name: model.IndicatorMACD, Values: line},
		Signal:    model.IndicatorSeries{Name: model.IndicatorMACDSignal, Values: sig},
		Histogram: model.IndicatorSeries{Name: model.IndicatorMACDHist, Values: hist},
	}, nil
}
