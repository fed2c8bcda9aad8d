package collector

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"TrendLens/internal/calculator"
	"TrendLens/internal/metrics"
	"TrendLens/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.PricePoint // returned as-is when set
	End   time.Time          // timestamp of the newest generated bar
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(ctx context.Context, _ string, interval string, count int) ([]model.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		out := make([]model.PricePoint, len(m.Bars))
		copy(out, m.Bars)
		return out, nil
	}
	step := 24 * time.Hour
	if interval == IntervalWeekly {
		step = 7 * 24 * time.Hour
	}
	end := m.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return generateMockBars(m.Price, count, end, step), nil
}

// generateMockBars produces a slow uptrend with a superimposed swing so every
// indicator has something to react to.
func generateMockBars(basePrice float64, count int, end time.Time, step time.Duration) []model.PricePoint {
	if basePrice <= 0 {
		basePrice = 100
	}
	bars := make([]model.PricePoint, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.0005*float64(i) + 0.05*math.Sin(float64(i)/8))
		bars[i] = model.PricePoint{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher  Fetcher
	Params   calculator.Params
	History  int
	Interval string
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

// NewCollector creates a new Collector. m may be nil.
func NewCollector(fetcher Fetcher, params calculator.Params, history int, interval string, m *metrics.Metrics, logger *zap.Logger) *Collector {
	if interval == "" {
		interval = IntervalDaily
	}
	return &Collector{
		Fetcher:  fetcher,
		Params:   params,
		History:  history,
		Interval: interval,
		Metrics:  m,
		Log:      logger,
	}
}

// Analyze fetches price history for symbol and computes every indicator.
func (c *Collector) Analyze(ctx context.Context, symbol string) (*model.Analysis, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("analyze: empty symbol")
	}
	start := time.Now()

	a, err := c.analyze(ctx, symbol)

	rsi, rsiOK := 0.0, false
	if a != nil {
		rsi, rsiOK = a.RSI.Last()
	}
	c.Metrics.ObserveAnalysis(symbol, time.Since(start), rsi, rsiOK, err)
	if err != nil {
		c.Log.Warn("analysis failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, err
	}

	c.Log.Info("analysis complete",
		zap.String("symbol", symbol),
		zap.String("source", a.Source),
		zap.Int("bars", a.Series.Len()),
		zap.String("momentum", string(a.Signal.Momentum)),
		zap.String("macd", string(a.Signal.Trend)),
		zap.String("band", string(a.Signal.Band)),
		zap.Duration("took", time.Since(start)),
	)
	if a.LevelsNote != "" {
		c.Log.Warn("support/resistance unavailable", zap.String("symbol", symbol), zap.String("reason", a.LevelsNote))
	}
	return a, nil
}

func (c *Collector) analyze(ctx context.Context, symbol string) (*model.Analysis, error) {
	bars, err := c.Fetcher.FetchBars(ctx, symbol, c.Interval, c.History)
	if err != nil {
		c.Metrics.FetchFailed(c.Fetcher.Name())
		return nil, fmt.Errorf("fetch %s bars for %s: %w", c.Interval, symbol, err)
	}
	series, err := model.NewPriceSeries(symbol, bars)
	if err != nil {
		return nil, fmt.Errorf("build series for %s: %w", symbol, err)
	}
	a, err := calculator.Analyze(series, c.Params)
	if err != nil {
		return nil, err
	}
	a.Source = c.Fetcher.Name()
	return a, nil
}
