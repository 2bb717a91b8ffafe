package chart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"EtfPulse/internal/model"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrRenderFailure marks a chart that could not be generated.
var ErrRenderFailure = errors.New("chart render failure")

// lineColor matches the digest's ETF-orange line.
var lineColor = drawing.ColorFromHex("ff9900")

// Renderer rasterizes a price series into a PNG line chart.
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer creates a Renderer with the default 1200x600 canvas.
func NewRenderer() *Renderer {
	return &Renderer{Width: 1200, Height: 600}
}

// Render writes a PNG line chart of the series to w. At least two points are
// required for a meaningful line.
func (r *Renderer) Render(series model.PriceSeries, w io.Writer) error {
	if len(series.Points) < 2 {
		return fmt.Errorf("%w: need at least 2 points for %s, got %d",
			ErrRenderFailure, series.Symbol, len(series.Points))
	}

	xs := make([]time.Time, len(series.Points))
	ys := make([]float64, len(series.Points))
	for i, p := range series.Points {
		xs[i] = p.Date
		ys[i] = p.Close
	}

	graph := gochart.Chart{
		Title:  fmt.Sprintf("%s - Last 3 Months", series.Symbol),
		Width:  r.Width,
		Height: r.Height,
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatterWithFormat("01-02"),
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    series.Symbol,
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2,
				},
			},
		},
	}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}
	return nil
}

// RenderToTemp renders the chart into a fresh temporary PNG file and returns
// its path. The caller owns the file and must remove it after use.
func (r *Renderer) RenderToTemp(series model.PriceSeries) (string, error) {
	f, err := os.CreateTemp("", "etfpulse-chart-*.png")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", ErrRenderFailure, err)
	}
	if err := r.Render(series, f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: close temp file: %v", ErrRenderFailure, err)
	}
	return f.Name(), nil
}
