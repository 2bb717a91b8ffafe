package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"EtfPulse/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance public chart API.
type YahooFetcher struct {
	Client *http.Client
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// rangeForWindow maps a trailing window in calendar days onto a Yahoo range token.
func rangeForWindow(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}

// FetchCloses returns daily closing prices for the symbol over the trailing
// window, oldest first. Sessions with no close (market holidays) are skipped.
func (f *YahooFetcher) FetchCloses(symbol string, windowDays int) (model.PriceSeries, error) {
	u := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=%s",
		url.PathEscape(symbol), rangeForWindow(windowDays))

	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return model.PriceSeries{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PriceSeries{}, fmt.Errorf("yahoo %s: status %d, body: %s", symbol, resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return model.PriceSeries{}, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return model.PriceSeries{}, fmt.Errorf("yahoo api error for %s: %s", symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: yahoo returned no data for %s", ErrDataUnavailable, symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: yahoo returned no quote data for %s", ErrDataUnavailable, symbol)
	}
	quote := result.Indicators.Quote[0]

	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		c := toFloat(quote.Close[i])
		if c == 0 {
			continue // null bars on holidays
		}
		points = append(points, model.PricePoint{Date: time.Unix(ts, 0).UTC(), Close: c})
	}
	if len(points) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: yahoo returned only null bars for %s", ErrDataUnavailable, symbol)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	points = trimTrailing(points, windowDays)
	return model.PriceSeries{Symbol: symbol, Points: points, FetchedAt: time.Now().UTC()}, nil
}

// trimTrailing keeps at most n of the most recent points. Yahoo ranges are
// coarser than the requested window, so the response can run longer than
// windowDays sessions.
func trimTrailing(points []model.PricePoint, n int) []model.PricePoint {
	if n > 0 && len(points) > n {
		return points[len(points)-n:]
	}
	return points
}
