package model

import "math"

// Indicator series names.
const (
	IndicatorSMA        = "SMA"
	IndicatorEMA        = "EMA"
	IndicatorRSI        = "RSI"
	IndicatorMACD       = "MACD"
	IndicatorMACDSignal = "MACD_SIGNAL"
	IndicatorMACDHist   = "MACD_HIST"
	IndicatorBBUpper    = "BB_UPPER"
	IndicatorBBMiddle   = "BB_MIDDLE"
	IndicatorBBLower    = "BB_LOWER"
)

// IndicatorSeries is a derived series aligned index-for-index with its source
// PriceSeries. Entries that cannot be computed yet hold NaN.
type IndicatorSeries struct {
	Name   string
	Values []float64
}

func (s IndicatorSeries) Len() int { return len(s.Values) }

// Defined reports whether index i holds a computed value.
func (s IndicatorSeries) Defined(i int) bool {
	return i >= 0 && i < len(s.Values) && !math.IsNaN(s.Values[i])
}

// At returns the value at i and whether it is defined.
func (s IndicatorSeries) At(i int) (float64, bool) {
	if !s.Defined(i) {
		return 0, false
	}
	return s.Values[i], true
}

// Last returns the value at the most recent index.
func (s IndicatorSeries) Last() (float64, bool) {
	return s.At(len(s.Values) - 1)
}

func (s IndicatorSeries) DefinedCount() int {
	n := 0
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// FirstDefined returns the index of the first defined entry, or -1.
func (s IndicatorSeries) FirstDefined() int {
	for i, v := range s.Values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}

// MACDSeries groups the MACD line, its signal line and their difference.
type MACDSeries struct {
	Line      IndicatorSeries
	Signal    IndicatorSeries
	Histogram IndicatorSeries
}

// BollingerSeries holds the volatility envelope around the middle SMA.
type BollingerSeries struct {
	Upper  IndicatorSeries
	Middle IndicatorSeries
	Lower  IndicatorSeries
}

// Levels are trailing support and resistance prices at the latest index.
type Levels struct {
	Window     int
	Support    float64
	Resistance float64
}

// TrendFlags summarize moving-average alignment at the latest index.
// Each flag is false when either side is undefined.
type TrendFlags struct {
	AboveMA50      bool
	MA20AboveMA50  bool
	MA50AboveMA200 bool
}

// RiskGuide expresses support and resistance as distances from the close.
type RiskGuide struct {
	StopLoss    float64
	StopLossPct float64
	Target      float64
	TargetPct   float64
}
