package calculator

import (
	"fmt"
	"math"

	"TrendLens/internal/model"
)

// ClassifyLatest classifies momentum, MACD trend and band position at the
// most recent index using DefaultParams.
func ClassifyLatest(series *model.PriceSeries) (model.SignalState, error) {
	return ClassifyLatestWith(series, DefaultParams())
}

// ClassifyLatestWith is ClassifyLatest with explicit windows and thresholds.
func ClassifyLatestWith(series *model.PriceSeries, p Params) (model.SignalState, error) {
	if series.Len() == 0 {
		return model.SignalState{}, fmt.Errorf("classify %q: empty series: %w", series.Symbol(), ErrInsufficientData)
	}
	rsi, err := RSI(series, p.RSIWindow)
	if err != nil {
		return model.SignalState{}, err
	}
	macd, err := MACD(series, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return model.SignalState{}, err
	}
	bb, err := BollingerBands(series, p.BollingerWindow, p.BollingerStdDev)
	if err != nil {
		return model.SignalState{}, err
	}
	return classify(series, rsi, macd, bb, p), nil
}

// classify expects a non-empty series and indicators aligned with it.
func classify(series *model.PriceSeries, rsi model.IndicatorSeries, macd model.MACDSeries, bb model.BollingerSeries, p Params) model.SignalState {
	last, _ := series.Last()
	state := model.SignalState{
		Time:         last.Time,
		Close:        last.Close,
		Momentum:     model.RSIUndetermined,
		RSI:          math.NaN(),
		Trend:        model.MACDUndetermined,
		MACD:         math.NaN(),
		Signal:       math.NaN(),
		Band:         model.BandUndetermined,
		BandPosition: math.NaN(),
	}

	if v, ok := rsi.Last(); ok {
		state.RSI = v
		state.Momentum = classifyRSI(v, p)
	}

	line, lok := macd.Line.Last()
	sig, sok := macd.Signal.Last()
	if lok && sok {
		state.MACD, state.Signal = line, sig
		state.Trend = model.BearishCross
		if line > sig {
			state.Trend = model.BullishCross
		}
	}

	upper, uok := bb.Upper.Last()
	lower, lwok := bb.Lower.Last()
	if uok && lwok {
		state.BandPosition = BandPosition(last.Close, upper, lower)
		state.Band = classifyBand(state.BandPosition, p)
	}
	return state
}

func classifyRSI(v float64, p Params) model.RSIState {
	switch {
	case v > p.RSIOverbought:
		return model.Overbought
	case v < p.RSIOversold:
		return model.Oversold
	default:
		return model.NeutralMomentum
	}
}

func classifyBand(position float64, p Params) model.BandState {
	switch {
	case position > p.BandUpper:
		return model.NearUpperBand
	case position < p.BandLower:
		return model.NearLowerBand
	default:
		return model.MidRange
	}
}

// Trend compares the latest close and moving averages for the short, mid
// and long windows. A flag stays false while either side is undefined.
func Trend(series *model.PriceSeries, short, mid, long int) (model.TrendFlags, error) {
	s, err := SMA(series, short)
	if err != nil {
		return model.TrendFlags{}, err
	}
	m, err := SMA(series, mid)
	if err != nil {
		return model.TrendFlags{}, err
	}
	l, err := SMA(series, long)
	if err != nil {
		return model.TrendFlags{}, err
	}
	return trendFlags(series, s, m, l), nil
}

func trendFlags(series *model.PriceSeries, short, mid, long model.IndicatorSeries) model.TrendFlags {
	var flags model.TrendFlags
	last, ok := series.Last()
	if !ok {
		return flags
	}
	sv, sok := short.Last()
	mv, mok := mid.Last()
	lv, lok := long.Last()
	flags.AboveMA50 = mok && last.Close > mv
	flags.MA20AboveMA50 = sok && mok && sv > mv
	flags.MA50AboveMA200 = mok && lok && mv > lv
	return flags
}
