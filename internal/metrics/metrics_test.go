package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestObserveAnalysis(t *testing.T) {
	m := New()
	m.ObserveAnalysis("AAPL", 120*time.Millisecond, 61.5, true, nil)
	m.ObserveAnalysis("MSFT", 80*time.Millisecond, 0, false, nil)
	m.ObserveAnalysis("TSLA", 10*time.Millisecond, 0, false, errors.New("boom"))
	m.FetchFailed("yahoo")

	body := scrape(t, m)
	assert.Contains(t, body, `trendlens_analyses_total{result="ok"} 2`)
	assert.Contains(t, body, `trendlens_analyses_total{result="error"} 1`)
	assert.Contains(t, body, `trendlens_fetch_errors_total{source="yahoo"} 1`)
	assert.Contains(t, body, `trendlens_last_rsi{symbol="AAPL"} 61.5`)
	assert.NotContains(t, body, `trendlens_last_rsi{symbol="MSFT"}`)
	assert.Contains(t, body, "trendlens_analysis_duration_seconds_count 3")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAnalysis("AAPL", time.Second, 50, true, nil)
		m.FetchFailed("mock")
	})
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
