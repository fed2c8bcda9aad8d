package alert

import (
	"fmt"
	"sync"
	"time"

	"TrendLens/internal/model"
)

// Change is one sub-state transition worth telling the user about.
type Change struct {
	Symbol string
	Kind   string // "momentum", "macd" or "band"
	From   string
	To     string
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s: %s → %s", c.Symbol, c.Kind, c.From, c.To)
}

// Tracker remembers the last classification per symbol and reports
// transitions into actionable states. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewTracker loads the tracker state from filePath. An empty path keeps
// the state in memory only.
func NewTracker(filePath string) (*Tracker, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load alert state: %w", err)
	}
	return &Tracker{state: state, filePath: filePath}, nil
}

// Get returns the stored state of symbol.
func (t *Tracker) Get(symbol string) (SymbolState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.state.Symbols[symbol]
	return s, ok
}

// Observe records the latest classification of a and returns the actionable
// transitions since the previous observation. The first observation of a
// symbol only seeds the state.
func (t *Tracker) Observe(a *model.Analysis) ([]Change, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := SymbolState{
		Momentum:  a.Signal.Momentum,
		Trend:     a.Signal.Trend,
		Band:      a.Signal.Band,
		BarTime:   a.Signal.Time,
		UpdatedAt: time.Now(),
	}
	prev, seen := t.state.Symbols[a.Symbol]
	t.state.Symbols[a.Symbol] = next

	var changes []Change
	if seen {
		changes = diff(a.Symbol, prev, next)
	}
	return changes, t.save()
}

func diff(symbol string, prev, next SymbolState) []Change {
	var out []Change
	if prev.Momentum != next.Momentum && (next.Momentum == model.Oversold || next.Momentum == model.Overbought) {
		out = append(out, Change{Symbol: symbol, Kind: "momentum", From: string(prev.Momentum), To: string(next.Momentum)})
	}
	// A cross only counts when the previous side was known.
	if prev.Trend != next.Trend && prev.Trend != model.MACDUndetermined && next.Trend != model.MACDUndetermined {
		out = append(out, Change{Symbol: symbol, Kind: "macd", From: string(prev.Trend), To: string(next.Trend)})
	}
	if prev.Band != next.Band && (next.Band == model.NearLowerBand || next.Band == model.NearUpperBand) {
		out = append(out, Change{Symbol: symbol, Kind: "band", From: string(prev.Band), To: string(next.Band)})
	}
	return out
}

func (t *Tracker) save() error {
	if t.filePath == "" {
		return nil
	}
	if err := SaveState(t.filePath, t.state); err != nil {
		return fmt.Errorf("save alert state: %w", err)
	}
	return nil
}
