package collector

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"time"

	"TrendLens/internal/model"
)

// Bar intervals understood by every Fetcher.
const (
	IntervalDaily  = "1d"
	IntervalWeekly = "1wk"
)

// Fetcher defines the interface for fetching price history.
type Fetcher interface {
	// FetchBars returns up to count bars for symbol, oldest first.
	FetchBars(ctx context.Context, symbol, interval string, count int) ([]model.PricePoint, error)
	Name() string
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// normalizeBars sorts bars chronologically, keeps the last bar for a
// repeated timestamp and trims the result to the newest count bars.
func normalizeBars(bars []model.PricePoint, count int) []model.PricePoint {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	if count > 0 && len(out) > count {
		out = out[len(out)-count:]
	}
	return out
}

// aggregateDailyToWeekly converts daily bars into weekly bars keyed by ISO week.
// Each weekly bar is stamped with the time of its first trading day.
func aggregateDailyToWeekly(daily []model.PricePoint) []model.PricePoint {
	if len(daily) == 0 {
		return nil
	}
	var weekly []model.PricePoint
	week := daily[0]
	wy, ww := week.Time.ISOWeek()

	for _, d := range daily[1:] {
		y, w := d.Time.ISOWeek()
		if y != wy || w != ww {
			weekly = append(weekly, week)
			week = d
			wy, ww = y, w
			continue
		}
		if d.High > week.High {
			week.High = d.High
		}
		if d.Low < week.Low {
			week.Low = d.Low
		}
		week.Close = d.Close
		week.Volume += d.Volume
	}
	return append(weekly, week)
}
