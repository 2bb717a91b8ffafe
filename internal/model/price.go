package model

import "time"

// PricePoint is a single session's closing price.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceSeries holds closing prices for one symbol, ordered chronologically.
// The series may have gaps: market holidays produce no session, so callers
// must work from "most recent available" points rather than calendar offsets.
type PriceSeries struct {
	Symbol    string
	Points    []PricePoint
	FetchedAt time.Time
}

// Last returns the most recent point. ok is false for an empty series.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Price is an optional price value. Missing history is modeled explicitly
// instead of leaking zeros into percentage math.
type Price struct {
	Value float64
	Valid bool
}

// PriceSnapshot is the derived view of a series used for change computation:
// the current close, the prior session's close, and the close from about
// five trading sessions earlier.
type PriceSnapshot struct {
	Symbol   string
	Current  float64
	Previous Price
	WeekAgo  Price
}

// Change is an optional percentage figure, already rounded to one decimal.
type Change struct {
	Pct   float64
	Valid bool
}

// ChangeResult holds the computed day-over-day and week-over-week changes
// for one symbol.
type ChangeResult struct {
	Symbol       string
	CurrentPrice float64
	Daily        Change
	Weekly       Change
}

// FxRate is the USD/JPY rate observed at report time.
type FxRate struct {
	Rate  float64
	Valid bool
}

// ReportPayload is the final notification content. ImageURL is empty when
// no chart accompanies the text.
type ReportPayload struct {
	Text     string
	ImageURL string
}
