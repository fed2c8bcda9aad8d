package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"TrendLens/internal/alert"
	"TrendLens/internal/calculator"
	"TrendLens/internal/model"
	"TrendLens/internal/recorder"
	"TrendLens/internal/strategy"
)

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "", zap.NewNop())
	n.APIBase = url
	n.RetryBase = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "<b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).SendWithRetry(context.Background(), "x", 3))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).SendWithRetry(context.Background(), "x", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 attempts exhausted")
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendWithRetry_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	n.RetryBase = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, n.SendWithRetry(ctx, "x", 5), context.DeadlineExceeded)
}

func TestStartPolling(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if r.URL.Query().Get("offset") == "0" {
				fmt.Fprint(w, `{"ok":true,"result":[
					{"update_id":7,"message":{"text":" /help ","chat":{"id":42}}},
					{"update_id":8,"message":{"text":"/analyze AAPL","chat":{"id":99}}},
					{"update_id":9}
				]}`)
				return
			}
			assert.Equal(t, "10", r.URL.Query().Get("offset"))
			time.Sleep(10 * time.Millisecond)
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var p map[string]string
			_ = json.NewDecoder(r.Body).Decode(&p)
			mu.Lock()
			sent = append(sent, p["text"])
			mu.Unlock()
			fmt.Fprint(w, `{"ok":true}`)
		}
	}))
	defer srv.Close()

	var commands []string
	handler := func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		return "reply to " + cmd
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newTestNotifier(srv.URL).StartPolling(ctx, handler)
		close(done)
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sent) == 1
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []string{"/help"}, commands, "message from foreign chat must be ignored")
	assert.Equal(t, []string{"reply to /help"}, sent)
}

func fixture(t *testing.T, n int, step float64) *model.Analysis {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]model.PricePoint, n)
	for i := range points {
		p := 100 + step*float64(i) + 3*math.Sin(float64(i)/3)
		points[i] = model.PricePoint{
			Time: start.AddDate(0, 0, i), Open: p, High: p + 1, Low: p - 1, Close: p, Volume: 1234567,
		}
	}
	series, err := model.NewPriceSeries("AAPL", points)
	require.NoError(t, err)
	a, err := calculator.Analyze(series, calculator.DefaultParams())
	require.NoError(t, err)
	a.Source = "mock"
	return a
}

func TestFormatAnalysisReport(t *testing.T) {
	a := fixture(t, 250, 0.2)
	msg := FormatAnalysisReport(a, strategy.Advise(a))

	assert.Contains(t, msg, "<b>AAPL</b> technical report | 2024-09-06")
	assert.Contains(t, msg, "source: mock, 250 bars")
	assert.Contains(t, msg, "Volume: 1,234,567")
	assert.Contains(t, msg, "SMA_200: ")
	assert.Contains(t, msg, "RSI_14: ")
	assert.Contains(t, msg, "Stop loss: ")
	assert.Contains(t, msg, "Short-term (1-4 weeks)")
	assert.NotContains(t, msg, "n/a")
}

func TestFormatAnalysisReport_ShortSeries(t *testing.T) {
	a := fixture(t, 10, 0.5)
	msg := FormatAnalysisReport(a, strategy.Advise(a))

	assert.Contains(t, msg, "SMA_50: n/a (n/a)")
	assert.Contains(t, msg, "RSI_14: n/a UNDETERMINED")
	assert.Contains(t, msg, "support/resistance needs 20 bars, have 10")
	assert.Contains(t, msg, "position n/a UNDETERMINED")
	assert.Contains(t, msg, "• MACD above signal line: upward momentum")
	assert.NotContains(t, msg, "Stop loss")
}

func analysisFromCloses(t *testing.T, closes ...float64) *model.Analysis {
	t.Helper()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	points := make([]model.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = model.PricePoint{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 500}
	}
	series, err := model.NewPriceSeries("MSFT", points)
	require.NoError(t, err)
	a, err := calculator.Analyze(series, calculator.DefaultParams())
	require.NoError(t, err)
	return a
}

func TestFormatAnalysisReport_DailyChange(t *testing.T) {
	up := analysisFromCloses(t, 90, 100, 102.5)
	assert.Contains(t, FormatAnalysisReport(up, strategy.Advise(up)), "Close: 102.50 (+2.5%) | Volume: 500")

	down := analysisFromCloses(t, 200, 198)
	assert.Contains(t, FormatAnalysisReport(down, strategy.Advise(down)), "Close: 198.00 (-1.0%) | Volume: 500")

	single := analysisFromCloses(t, 50)
	assert.Contains(t, FormatAnalysisReport(single, strategy.Advise(single)), "Close: 50.00 | Volume: 500")
}

func TestFormatAnalysisReport_Warning(t *testing.T) {
	a := fixture(t, 60, 0)
	adv := strategy.Advice{ShortTerm: []string{"a"}, MidTerm: []string{"b"}, Warning: "take profit"}
	assert.True(t, strings.HasSuffix(FormatAnalysisReport(a, adv), "\ntake profit\n"))
}

func TestPriceFormatting(t *testing.T) {
	assert.Equal(t, "1,234.57", price(1234.567))
	assert.Equal(t, "0.50", price(0.5))
	assert.Equal(t, "n/a", price(math.NaN()))
	assert.Equal(t, "+2.5%", signedPct(2.46))
	assert.Equal(t, "-1.0%", signedPct(-1.04))
	assert.Equal(t, "n/a", signedPct(math.NaN()))
}

func TestFormatDigest(t *testing.T) {
	a := fixture(t, 60, 0.1)
	msg := FormatDigest([]*model.Analysis{a}, []string{"BAD<1>"})

	assert.Contains(t, msg, "1 analyzed, 1 failed")
	assert.Contains(t, msg, "<b>AAPL</b>")
	assert.Contains(t, msg, "BAD&lt;1&gt;")
}

func TestFormatHelp(t *testing.T) {
	msg := FormatHelp([]string{"AAPL", "MSFT"})
	assert.Contains(t, msg, "/analyze SYMBOL")
	assert.Contains(t, msg, "Watching: AAPL, MSFT")
}

func TestFormatAlerts(t *testing.T) {
	msg := FormatAlerts([]alert.Change{{Symbol: "AAPL", Kind: "momentum", From: "NEUTRAL", To: "OVERSOLD"}})
	assert.Contains(t, msg, "AAPL momentum: NEUTRAL → OVERSOLD")
}

func TestFormatHistory(t *testing.T) {
	assert.Contains(t, FormatHistory("AAPL", nil), "No snapshots recorded yet.")

	msg := FormatHistory("AAPL", []recorder.Snapshot{{
		BarTime:    time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
		ComputedAt: time.Now().Add(-3 * time.Hour),
		Close:      101.5,
		RSI:        math.NaN(),
		RSIState:   model.RSIUndetermined,
		MACDState:  model.BullishCross,
		BandState:  model.MidRange,
	}})
	assert.Contains(t, msg, "2024-06-28 (3 hours ago) 101.50 | RSI n/a UNDETERMINED | BULLISH_CROSS | MID_RANGE")
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "AAPL <1> report", StripHTML("<b>AAPL</b> &lt;1&gt; <i>report</i>"))
}
