package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"TrendLens/internal/alert"
	"TrendLens/internal/calculator"
	"TrendLens/internal/collector"
	"TrendLens/internal/model"
	"TrendLens/internal/recorder"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return f.err
}

func (f *fakeNotifier) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// flakyFetcher fails for symbols listed in bad and otherwise serves mock bars.
type flakyFetcher struct {
	collector.MockFetcher
	bad map[string]bool
}

func (f *flakyFetcher) FetchBars(ctx context.Context, symbol, interval string, count int) ([]model.PricePoint, error) {
	if f.bad[symbol] {
		return nil, errors.New("no such <symbol>")
	}
	return f.MockFetcher.FetchBars(ctx, symbol, interval, count)
}

func newTestScheduler(t *testing.T, watchlist []string, bad ...string) (*Scheduler, *fakeNotifier, recorder.Recorder) {
	t.Helper()
	f := &flakyFetcher{
		MockFetcher: collector.MockFetcher{Price: 120, End: time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)},
		bad:         map[string]bool{},
	}
	for _, b := range bad {
		f.bad[b] = true
	}
	col := collector.NewCollector(f, calculator.DefaultParams(), 260, collector.IntervalDaily, nil, zap.NewNop())

	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })

	tracker, err := alert.NewTracker("")
	require.NoError(t, err)

	n := &fakeNotifier{}
	s := NewScheduler(context.Background(), col, n, rec, tracker, watchlist, 2, zap.NewNop())
	return s, n, rec
}

func TestRunWatchlist_KeepsOrderAndCollectsFailures(t *testing.T) {
	s, _, rec := newTestScheduler(t, []string{"MSFT", "BAD", "AAPL", "NVDA"}, "BAD")

	analyses, failed := s.RunWatchlist(context.Background())
	require.Len(t, analyses, 3)
	assert.Equal(t, "MSFT", analyses[0].Symbol)
	assert.Equal(t, "AAPL", analyses[1].Symbol)
	assert.Equal(t, "NVDA", analyses[2].Symbol)
	assert.Equal(t, []string{"BAD"}, failed)

	snaps, err := rec.Recent(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestRunNow_SendsDigest(t *testing.T) {
	s, n, _ := newTestScheduler(t, []string{"AAPL", "BAD"}, "BAD")
	s.RunNow()

	msgs := n.messages()
	require.Len(t, msgs, 1, "first run only seeds alert state")
	assert.Contains(t, msgs[0], "1 analyzed, 1 failed")
	assert.Contains(t, msgs[0], "<b>AAPL</b>")

	// same data again: state unchanged, still no alert message
	s.RunNow()
	assert.Len(t, n.messages(), 2)

	st, ok := s.Alerts.Get("AAPL")
	require.True(t, ok)
	assert.NotEmpty(t, st.Momentum)
}

func TestRunNow_NotifierFailureIsLogged(t *testing.T) {
	s, n, _ := newTestScheduler(t, []string{"AAPL"})
	n.err = errors.New("telegram down")
	assert.NotPanics(t, s.RunNow)
}

func TestRegister(t *testing.T) {
	s, _, _ := newTestScheduler(t, []string{"AAPL"})
	assert.Error(t, s.Register("not a cron"))
	require.NoError(t, s.Register("0 30 22 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)

	s.Start()
	s.Stop()
}

func TestHandleCommand(t *testing.T) {
	s, _, _ := newTestScheduler(t, []string{"AAPL", "MSFT"}, "BAD")
	ctx := context.Background()

	t.Run("analyze", func(t *testing.T) {
		reply := s.HandleCommand(ctx, "/analyze aapl")
		assert.Contains(t, reply, "<b>AAPL</b> technical report")
		assert.Contains(t, reply, "Short-term")
	})
	t.Run("analyze with bot suffix", func(t *testing.T) {
		reply := s.HandleCommand(ctx, "/analyze@TrendLensBot MSFT")
		assert.Contains(t, reply, "<b>MSFT</b> technical report")
	})
	t.Run("analyze failure is escaped", func(t *testing.T) {
		reply := s.HandleCommand(ctx, "/analyze BAD")
		assert.True(t, strings.HasPrefix(reply, "❌ analysis of BAD failed"))
		assert.Contains(t, reply, "&lt;symbol&gt;")
	})
	t.Run("analyze usage", func(t *testing.T) {
		assert.Equal(t, "Usage: /analyze SYMBOL", s.HandleCommand(ctx, "/analyze"))
	})
	t.Run("watchlist", func(t *testing.T) {
		reply := s.HandleCommand(ctx, "/watchlist")
		assert.Contains(t, reply, "2 analyzed")
	})
	t.Run("history", func(t *testing.T) {
		reply := s.HandleCommand(ctx, "/history aapl")
		assert.Contains(t, reply, "<b>AAPL</b> history")
		assert.NotContains(t, reply, "No snapshots")
	})
	t.Run("history empty", func(t *testing.T) {
		assert.Contains(t, s.HandleCommand(ctx, "/history TSLA"), "No snapshots recorded yet.")
	})
	t.Run("help", func(t *testing.T) {
		assert.Contains(t, s.HandleCommand(ctx, "hello"), "/analyze SYMBOL")
		assert.Contains(t, s.HandleCommand(ctx, "   "), "Watching: AAPL, MSFT")
	})
}
