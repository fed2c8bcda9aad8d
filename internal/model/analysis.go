package model

import "time"

// Analysis holds everything computed for one symbol in one run.
type Analysis struct {
	Symbol     string
	Source     string
	Series     *PriceSeries
	ComputedAt time.Time

	MovingAverages []IndicatorSeries // one SMA overlay per configured window
	RSI            IndicatorSeries
	MACD           MACDSeries
	Bollinger      BollingerSeries

	Signal SignalState
	Trend  TrendFlags

	// Levels and Risk are nil when the series is shorter than the
	// support/resistance window; LevelsNote then says why.
	Levels     *Levels
	Risk       *RiskGuide
	LevelsNote string
}

// MovingAverage returns the overlay with the given name, e.g. "SMA_50".
func (a *Analysis) MovingAverage(name string) (IndicatorSeries, bool) {
	for _, ma := range a.MovingAverages {
		if ma.Name == name {
			return ma, true
		}
	}
	return IndicatorSeries{}, false
}
