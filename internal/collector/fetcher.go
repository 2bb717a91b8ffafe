package collector

import "EtfPulse/internal/model"

// Fetcher supplies closing prices for a symbol over a trailing window of
// calendar days. Implementations return an error with no partial data.
type Fetcher interface {
	FetchCloses(symbol string, windowDays int) (model.PriceSeries, error)
	Name() string
}
