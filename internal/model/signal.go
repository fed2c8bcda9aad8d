package model

import "time"

// RSIState classifies momentum from the latest RSI value.
type RSIState string

const (
	Overbought      RSIState = "OVERBOUGHT"
	Oversold        RSIState = "OVERSOLD"
	NeutralMomentum RSIState = "NEUTRAL"
	RSIUndetermined RSIState = "UNDETERMINED"
)

// MACDState classifies the MACD line against its signal line.
type MACDState string

const (
	BullishCross     MACDState = "BULLISH_CROSS"
	BearishCross     MACDState = "BEARISH_CROSS"
	MACDUndetermined MACDState = "UNDETERMINED"
)

// BandState classifies the close within the Bollinger envelope.
type BandState string

const (
	NearUpperBand    BandState = "NEAR_UPPER_BAND"
	NearLowerBand    BandState = "NEAR_LOWER_BAND"
	MidRange         BandState = "MID_RANGE"
	BandUndetermined BandState = "UNDETERMINED"
)

// SignalState is the point-in-time classification at the most recent index.
// The three sub-states are independent and never collapsed into one verdict.
type SignalState struct {
	Time  time.Time
	Close float64

	Momentum RSIState
	RSI      float64

	Trend  MACDState
	MACD   float64
	Signal float64

	Band         BandState
	BandPosition float64 // percent of the band width above the lower band
}
