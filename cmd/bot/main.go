package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"EtfPulse/internal/chart"
	"EtfPulse/internal/collector"
	"EtfPulse/internal/config"
	"EtfPulse/internal/notifier"
	"EtfPulse/internal/scheduler"
	"EtfPulse/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Info().Msg("EtfPulse starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init price source
	fetcher := collector.NewYahooFetcher(cfg.Proxy)
	log.Info().Str("source", fetcher.Name()).Msg("price source ready")
	col := collector.NewCollector(fetcher, cfg.Market.Symbols, cfg.Market.FxSymbol,
		cfg.Chart.Symbol, cfg.Market.WindowDays, cfg.Chart.WindowDays)

	// Init chart renderer
	renderer := chart.NewRenderer()

	// Init object store
	store, err := storage.NewS3Store(ctx, cfg.Storage.Bucket, cfg.Storage.Region)
	if err != nil {
		log.Fatal().Err(err).Msg("init object store")
	}

	// Init LINE notifier
	pusher := notifier.NewLineNotifier(cfg.Line.ChannelAccessToken, cfg.Line.UserID)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, renderer, store, pusher,
		cfg.Market.Symbols, cfg.Chart.Symbol,
		time.Duration(cfg.Storage.URLTTLSeconds)*time.Second)
	if err := sched.RegisterDaily(cfg.Schedule.DailyCron); err != nil {
		log.Fatal().Err(err).Msg("register cron task")
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing daily digest now")
		go sched.RunNow()
	}

	log.Info().Str("cron", cfg.Schedule.DailyCron).Msg("EtfPulse is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
	log.Info().Msg("EtfPulse stopped")
}
