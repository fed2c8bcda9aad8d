package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"TrendLens/internal/model"
)

// RESTFetcher implements Fetcher against a bars REST API authenticated
// with a bearer key.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// FetchBars fetches daily bars directly. Weekly bars come from the weekly
// endpoint, or are aggregated from daily bars when that endpoint fails.
func (f *RESTFetcher) FetchBars(ctx context.Context, symbol, interval string, count int) ([]model.PricePoint, error) {
	switch interval {
	case IntervalDaily:
		return f.fetchBars(ctx, "daily", symbol, count)
	case IntervalWeekly:
		bars, err := f.fetchBars(ctx, "weekly", symbol, count)
		if err == nil {
			return bars, nil
		}
		daily, dailyErr := f.fetchBars(ctx, "daily", symbol, count*5+5)
		if dailyErr != nil {
			return nil, fmt.Errorf("weekly fetch failed: %w; daily fallback also failed: %w", err, dailyErr)
		}
		return normalizeBars(aggregateDailyToWeekly(daily), count), nil
	default:
		return nil, fmt.Errorf("rest: unsupported interval %q", interval)
	}
}

func (f *RESTFetcher) fetchBars(ctx context.Context, period, symbol string, limit int) ([]model.PricePoint, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/%s?symbol=%s&limit=%d",
		f.BaseURL, period, url.QueryEscape(symbol), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var raw []restBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.PricePoint, 0, len(raw))
	for _, rb := range raw {
		if rb.Open <= 0 || rb.High <= 0 || rb.Low <= 0 || rb.Close <= 0 {
			continue
		}
		bars = append(bars, model.PricePoint{
			Time:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: int64(rb.Volume),
		})
	}
	return normalizeBars(bars, limit), nil
}
