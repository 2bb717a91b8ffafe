package collector

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"EtfPulse/internal/model"

	"github.com/rs/zerolog/log"
)

// ErrDataUnavailable marks a fetch that came back empty or partial.
var ErrDataUnavailable = errors.New("price data unavailable")

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Series map[string]model.PriceSeries
	Err    error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCloses(symbol string, windowDays int) (model.PriceSeries, error) {
	if m.Err != nil {
		return model.PriceSeries{}, m.Err
	}
	if s, ok := m.Series[symbol]; ok {
		return s, nil
	}
	return generateMockSeries(symbol, windowDays), nil
}

func generateMockSeries(symbol string, days int) model.PriceSeries {
	points := make([]model.PricePoint, days)
	for i := 0; i < days; i++ {
		points[i] = model.PricePoint{
			Date:  time.Now().UTC().AddDate(0, 0, -(days - i)),
			Close: 100 * (1 + float64(i-days/2)*0.001),
		}
	}
	return model.PriceSeries{Symbol: symbol, Points: points, FetchedAt: time.Now().UTC()}
}

// MarketSnapshot is everything one report run needs from the price source.
type MarketSnapshot struct {
	// Series holds the fetched series for each tracked symbol; symbols whose
	// fetch failed are absent.
	Series map[string]model.PriceSeries
	// Failed maps symbols to their fetch errors for the degraded sections.
	Failed map[string]error
	Fx     model.FxRate
	// ChartSeries is the longer window used for the rendered chart. It is
	// empty when the chart fetch failed; ChartErr carries that error so the
	// text digest still goes out and only the image leg fails.
	ChartSeries model.PriceSeries
	ChartErr    error
}

// Collector gathers the tracked ETF series, the FX rate and the chart window
// from a Fetcher.
type Collector struct {
	Fetcher     Fetcher
	Symbols     []string
	FxSymbol    string
	WindowDays  int
	ChartSymbol string
	ChartDays   int
}

// NewCollector creates a Collector over the configured symbol set.
func NewCollector(fetcher Fetcher, symbols []string, fxSymbol, chartSymbol string, windowDays, chartDays int) *Collector {
	return &Collector{
		Fetcher:     fetcher,
		Symbols:     symbols,
		FxSymbol:    fxSymbol,
		WindowDays:  windowDays,
		ChartSymbol: chartSymbol,
		ChartDays:   chartDays,
	}
}

// Collect fetches all configured series sequentially. A failed symbol fetch
// does not abort the run; it is recorded in Failed so the report can mark the
// symbol unavailable. Collect itself fails only when every symbol failed.
func (c *Collector) Collect() (*MarketSnapshot, error) {
	snap := &MarketSnapshot{
		Series: make(map[string]model.PriceSeries, len(c.Symbols)),
		Failed: make(map[string]error),
	}

	for _, sym := range c.Symbols {
		series, err := c.Fetcher.FetchCloses(sym, c.WindowDays)
		if err != nil {
			log.Warn().Str("symbol", sym).Err(err).Msg("symbol fetch failed, will report as unavailable")
			snap.Failed[sym] = err
			continue
		}
		snap.Series[sym] = series
	}
	if len(snap.Series) == 0 {
		failed := make([]string, 0, len(snap.Failed))
		for sym := range snap.Failed {
			failed = append(failed, sym)
		}
		sort.Strings(failed)
		return nil, fmt.Errorf("%w: all symbols failed: %s", ErrDataUnavailable, strings.Join(failed, ", "))
	}

	if fx, err := c.Fetcher.FetchCloses(c.FxSymbol, 5); err != nil {
		log.Warn().Str("symbol", c.FxSymbol).Err(err).Msg("fx fetch failed, will report as unavailable")
	} else if last, ok := fx.Last(); ok {
		snap.Fx = model.FxRate{Rate: last.Close, Valid: true}
	}

	if chartSeries, err := c.Fetcher.FetchCloses(c.ChartSymbol, c.ChartDays); err != nil {
		log.Warn().Str("symbol", c.ChartSymbol).Err(err).Msg("chart window fetch failed, digest will go out without an image")
		snap.ChartErr = fmt.Errorf("fetch chart series %s: %w", c.ChartSymbol, err)
	} else {
		snap.ChartSeries = chartSeries
	}

	return snap, nil
}
