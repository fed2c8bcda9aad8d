package calculator

import (
	"errors"
	"fmt"
	"time"

	"TrendLens/internal/model"
)

// Analyze runs every indicator over the series and assembles an Analysis.
// A series too short for support/resistance still yields an analysis; the
// levels are left nil and LevelsNote explains why.
func Analyze(series *model.PriceSeries, p Params) (*model.Analysis, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("analyze %q: empty series: %w", series.Symbol(), ErrInsufficientData)
	}

	a := &model.Analysis{
		Symbol:     series.Symbol(),
		Series:     series,
		ComputedAt: time.Now(),
	}

	for _, w := range p.MAWindows {
		ma, err := SMA(series, w)
		if err != nil {
			return nil, err
		}
		a.MovingAverages = append(a.MovingAverages, ma)
	}

	var err error
	if a.RSI, err = RSI(series, p.RSIWindow); err != nil {
		return nil, err
	}
	if a.MACD, err = MACD(series, p.MACDFast, p.MACDSlow, p.MACDSignal); err != nil {
		return nil, err
	}
	if a.Bollinger, err = BollingerBands(series, p.BollingerWindow, p.BollingerStdDev); err != nil {
		return nil, err
	}
	a.Signal = classify(series, a.RSI, a.MACD, a.Bollinger, p)

	if len(a.MovingAverages) >= 3 {
		a.Trend = trendFlags(series, a.MovingAverages[0], a.MovingAverages[1], a.MovingAverages[2])
	}

	levels, err := SupportResistance(series, p.LevelsWindow)
	switch {
	case errors.Is(err, ErrInsufficientData):
		a.LevelsNote = err.Error()
	case err != nil:
		return nil, err
	default:
		risk, err := Risk(a.Signal.Close, levels)
		if err != nil {
			return nil, err
		}
		a.Levels = &levels
		a.Risk = &risk
	}
	return a, nil
}
