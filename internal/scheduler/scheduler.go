package scheduler

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"EtfPulse/internal/collector"
	"EtfPulse/internal/model"
	"EtfPulse/internal/report"
	"EtfPulse/internal/storage"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// MarketSource supplies one run's worth of price data.
type MarketSource interface {
	Collect() (*collector.MarketSnapshot, error)
}

// ChartRenderer rasterizes a series into a temporary PNG file.
type ChartRenderer interface {
	RenderToTemp(series model.PriceSeries) (string, error)
}

// ObjectStore persists the chart image and issues a shareable URL.
type ObjectStore interface {
	Upload(ctx context.Context, localPath, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Pusher delivers text and image messages to the fixed recipient.
type Pusher interface {
	PushText(ctx context.Context, text string) error
	PushImage(ctx context.Context, url string) error
}

// Scheduler owns the cron trigger and the daily digest run.
type Scheduler struct {
	Cron     *cron.Cron
	Source   MarketSource
	Renderer ChartRenderer
	Store    ObjectStore
	Pusher   Pusher

	Priority    []string
	ChartSymbol string
	URLTTL      time.Duration
	Ctx         context.Context

	// Now is the clock used for the market-closed check and the S3 key layout.
	Now func() time.Time
}

// NewScheduler wires the daily digest pipeline.
func NewScheduler(ctx context.Context, src MarketSource, rend ChartRenderer, store ObjectStore, push Pusher, priority []string, chartSymbol string, urlTTL time.Duration) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Source:      src,
		Renderer:    rend,
		Store:       store,
		Pusher:      push,
		Priority:    priority,
		ChartSymbol: chartSymbol,
		URLTTL:      urlTTL,
		Ctx:         ctx,
		Now:         time.Now,
	}
}

// RegisterDaily registers the digest task on the given cron spec.
func (s *Scheduler) RegisterDaily(cronSpec string) error {
	if _, err := s.Cron.AddFunc(cronSpec, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the daily task immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	log.Info().Msg("running daily digest")
	if err := s.RunDaily(); err != nil {
		log.Error().Err(err).Msg("daily digest failed")
	}
}

// RunDaily performs one full digest run: fetch, compute, push text, render
// and upload the chart, push the image. Sequential, no internal retries; the
// first hard failure aborts the remainder of the run.
func (s *Scheduler) RunDaily() error {
	snap, err := s.Source.Collect()
	if err != nil {
		return fmt.Errorf("collect market data: %w", err)
	}

	latest, ok := s.latestSession(snap)
	if !ok {
		return fmt.Errorf("%w: no series for any priority symbol", collector.ErrDataUnavailable)
	}
	if marketClosed(latest, s.Now()) {
		log.Info().Time("latest_session", latest).Msg("market was closed, skipping digest")
		return nil
	}

	results := make([]model.ChangeResult, 0, len(s.Priority))
	for _, sym := range s.Priority {
		series, ok := snap.Series[sym]
		if !ok {
			continue // rendered as unavailable by the formatter
		}
		res, err := report.ComputeChange(series)
		if err != nil {
			log.Warn().Str("symbol", sym).Err(err).Msg("change computation failed, reporting as unavailable")
			continue
		}
		results = append(results, res)
	}

	text := report.FormatReport(s.Priority, results, snap.Fx, latest)
	if err := s.Pusher.PushText(s.Ctx, text); err != nil {
		return fmt.Errorf("push digest text: %w", err)
	}
	log.Info().
		Int("symbols", len(results)).
		Strs("failed_symbols", failedSymbols(snap)).
		Msg("digest text pushed")

	// The text is out; chart-window trouble only fails the image leg.
	if snap.ChartErr != nil {
		return fmt.Errorf("chart image skipped: %w", snap.ChartErr)
	}
	return s.pushChart(snap.ChartSeries)
}

// pushChart renders the chart window, uploads it and pushes the presigned
// URL. The temp file is removed whatever the outcome.
func (s *Scheduler) pushChart(series model.PriceSeries) error {
	path, err := s.Renderer.RenderToTemp(series)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	defer os.Remove(path)

	key := storage.BuildKey(fmt.Sprintf("%s_chart.png", strings.ToLower(s.ChartSymbol)), s.Now())
	if err := s.Store.Upload(s.Ctx, path, key); err != nil {
		return fmt.Errorf("upload chart: %w", err)
	}
	url, err := s.Store.PresignGet(s.Ctx, key, s.URLTTL)
	if err != nil {
		return fmt.Errorf("presign chart url: %w", err)
	}
	if err := s.Pusher.PushImage(s.Ctx, url); err != nil {
		return fmt.Errorf("push chart image: %w", err)
	}
	log.Info().Str("key", key).Msg("chart image pushed")
	return nil
}

// failedSymbols lists the symbols whose fetch failed, for the run summary.
func failedSymbols(snap *collector.MarketSnapshot) []string {
	syms := make([]string, 0, len(snap.Failed))
	for sym := range snap.Failed {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// latestSession returns the date of the most recent session among the
// priority symbols that fetched successfully.
func (s *Scheduler) latestSession(snap *collector.MarketSnapshot) (time.Time, bool) {
	for _, sym := range s.Priority {
		if series, ok := snap.Series[sym]; ok {
			if last, ok := series.Last(); ok {
				return last.Date, true
			}
		}
	}
	return time.Time{}, false
}

// marketClosed reports whether the latest available session is stale: the
// digest goes out the morning after a trading day, so the latest session
// must carry yesterday's date.
func marketClosed(latestSession, now time.Time) bool {
	y, m, d := now.UTC().AddDate(0, 0, -1).Date()
	ly, lm, ld := latestSession.UTC().Date()
	return y != ly || m != lm || d != ld
}
