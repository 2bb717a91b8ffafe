package report

import (
	"fmt"
	"strings"
	"time"

	"EtfPulse/internal/model"
)

const unavailable = "n/a"

// FormatReport renders the daily digest text. Symbol sections follow the
// priority list order regardless of the order results are supplied; symbols
// with no result are rendered as unavailable instead of being dropped.
// Output is byte-identical for identical inputs.
func FormatReport(priority []string, results []model.ChangeResult, fx model.FxRate, date time.Time) string {
	bySymbol := make(map[string]model.ChangeResult, len(results))
	for _, r := range results {
		bySymbol[r.Symbol] = r
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 ETF Price Tracker %s\n", date.Format("2006-01-02")))

	for _, sym := range priority {
		b.WriteString(fmt.Sprintf("\n【%s】\n", sym))
		r, ok := bySymbol[sym]
		if !ok {
			b.WriteString(fmt.Sprintf("Price: %s\nDay: %s\nWeek: %s\n", unavailable, unavailable, unavailable))
			continue
		}
		b.WriteString(fmt.Sprintf("Price: $%.2f\n", r.CurrentPrice))
		b.WriteString(fmt.Sprintf("Day: %s\n", formatChange(r.Daily)))
		b.WriteString(fmt.Sprintf("Week: %s\n", formatChange(r.Weekly)))
	}

	b.WriteString("\n【FX】\n")
	if fx.Valid {
		b.WriteString(fmt.Sprintf("USD/JPY: %.2f", fx.Rate))
	} else {
		b.WriteString(fmt.Sprintf("USD/JPY: %s", unavailable))
	}

	return b.String()
}

func formatChange(c model.Change) string {
	if !c.Valid {
		return unavailable
	}
	return fmt.Sprintf("%+.1f%%", c.Pct)
}
