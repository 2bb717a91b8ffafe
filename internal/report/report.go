package report

import (
	"fmt"
	"math"

	"EtfPulse/internal/model"
)

// weekAgoOffset is how many sessions back the "week-over-week" base sits.
// US ETFs trade five sessions a week, so five sessions before the current
// one approximates the same weekday last week.
const weekAgoOffset = 5

// ValidationError reports a series that cannot support change computation.
type ValidationError struct {
	Symbol string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid series for %s: %s", e.Symbol, e.Reason)
}

// Snapshot derives the current/previous/week-ago view from a series.
// The series must be sorted ascending by date. An empty series is a
// ValidationError; missing history leaves the optional fields invalid.
func Snapshot(series model.PriceSeries) (model.PriceSnapshot, error) {
	n := len(series.Points)
	if n == 0 {
		return model.PriceSnapshot{}, &ValidationError{Symbol: series.Symbol, Reason: "empty series"}
	}

	snap := model.PriceSnapshot{
		Symbol:  series.Symbol,
		Current: series.Points[n-1].Close,
	}
	if n >= 2 {
		snap.Previous = model.Price{Value: series.Points[n-2].Close, Valid: true}
	}

	// Week-ago base: five sessions before the current one when the window
	// is deep enough, otherwise the oldest session that is still strictly
	// older than the current one (holiday-shortened windows).
	switch {
	case n >= weekAgoOffset+1:
		snap.WeekAgo = model.Price{Value: series.Points[n-1-weekAgoOffset].Close, Valid: true}
	case n >= 2:
		snap.WeekAgo = model.Price{Value: series.Points[0].Close, Valid: true}
	}

	return snap, nil
}

// ComputeChange computes the day-over-day and week-over-week percentage
// changes for a series. A zero or missing base price yields an invalid
// Change rather than Inf or NaN. Deterministic, no side effects.
func ComputeChange(series model.PriceSeries) (model.ChangeResult, error) {
	snap, err := Snapshot(series)
	if err != nil {
		return model.ChangeResult{}, err
	}
	return model.ChangeResult{
		Symbol:       snap.Symbol,
		CurrentPrice: snap.Current,
		Daily:        pctChange(snap.Current, snap.Previous),
		Weekly:       pctChange(snap.Current, snap.WeekAgo),
	}, nil
}

func pctChange(current float64, base model.Price) model.Change {
	if !base.Valid || base.Value == 0 {
		return model.Change{}
	}
	pct := math.Round((current-base.Value)/base.Value*1000) / 10
	if pct == 0 {
		pct = 0 // normalize negative zero so formatting stays stable
	}
	return model.Change{Pct: pct, Valid: true}
}
