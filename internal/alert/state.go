package alert

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"TrendLens/internal/model"
)

// SymbolState is the last observed signal classification of one symbol.
type SymbolState struct {
	Momentum  model.RSIState  `json:"momentum"`
	Trend     model.MACDState `json:"trend"`
	Band      model.BandState `json:"band"`
	BarTime   time.Time       `json:"bar_time"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// State maps symbols to their last observed classification.
type State struct {
	Symbols   map[string]SymbolState `json:"symbols"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// LoadState reads the alert state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	state := &State{Symbols: map[string]SymbolState{}}
	if filePath == "" {
		return state, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if state.Symbols == nil {
		state.Symbols = map[string]SymbolState{}
	}
	return state, nil
}

// SaveState writes the alert state to a JSON file.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0o644)
}
