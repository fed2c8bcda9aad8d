package recorder

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"TrendLens/internal/model"
)

// Snapshot is the persisted summary of one analysis at its latest bar.
// Undefined indicator values are NaN.
type Snapshot struct {
	ID         string
	Symbol     string
	Source     string
	BarTime    time.Time
	ComputedAt time.Time

	Close        float64
	RSI          float64
	RSIState     model.RSIState
	MACD         float64
	MACDSignal   float64
	MACDState    model.MACDState
	BandPosition float64
	BandState    model.BandState

	Support    float64
	Resistance float64

	AboveMA50      bool
	MA20AboveMA50  bool
	MA50AboveMA200 bool
}

// NewSnapshot flattens an analysis into a Snapshot with a fresh ID.
func NewSnapshot(a *model.Analysis) Snapshot {
	s := Snapshot{
		ID:             uuid.NewString(),
		Symbol:         a.Symbol,
		Source:         a.Source,
		BarTime:        a.Signal.Time,
		ComputedAt:     a.ComputedAt,
		Close:          a.Signal.Close,
		RSI:            a.Signal.RSI,
		RSIState:       a.Signal.Momentum,
		MACD:           a.Signal.MACD,
		MACDSignal:     a.Signal.Signal,
		MACDState:      a.Signal.Trend,
		BandPosition:   a.Signal.BandPosition,
		BandState:      a.Signal.Band,
		Support:        math.NaN(),
		Resistance:     math.NaN(),
		AboveMA50:      a.Trend.AboveMA50,
		MA20AboveMA50:  a.Trend.MA20AboveMA50,
		MA50AboveMA200: a.Trend.MA50AboveMA200,
	}
	if a.Levels != nil {
		s.Support = a.Levels.Support
		s.Resistance = a.Levels.Resistance
	}
	return s
}

// Recorder persists analysis history.
type Recorder interface {
	RecordSnapshot(ctx context.Context, a *model.Analysis) error
	// Recent returns up to limit snapshots for symbol, newest first.
	Recent(ctx context.Context, symbol string, limit int) ([]Snapshot, error)
	Close() error
}
