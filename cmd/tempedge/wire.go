package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lox/tempedge/internal/config"
	"github.com/lox/tempedge/internal/httputil"
	"github.com/lox/tempedge/internal/ingest"
	"github.com/lox/tempedge/internal/logging"
	"github.com/lox/tempedge/internal/market"
	"github.com/lox/tempedge/internal/models"
	"github.com/lox/tempedge/internal/notify"
	"github.com/lox/tempedge/internal/polymarket"
	"github.com/lox/tempedge/internal/scan"
	"github.com/lox/tempedge/internal/store"
)

const (
	telegramRetries    = 3
	telegramRetryDelay = 2 * time.Second
)

// app is the fully wired process.
type app struct {
	cfg      *config.Config
	targets  []models.Target
	events   *polymarket.Client
	sched    *scan.Scheduler
	notifier *notify.Multi
	store    *store.Store
}

// loadConfig reads and validates configuration and sets up logging.
func loadConfig(g *Globals) (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logging.Init(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func newFetcher(cfg *config.Config) *httputil.Fetcher {
	return httputil.NewFetcher(httputil.Options{
		Timeout:       cfg.Scan.RequestTimeout,
		RatePerSecond: cfg.HTTP.RatePerSecond,
		Burst:         cfg.HTTP.Burst,
		MaxRetries:    cfg.HTTP.MaxRetries,
	})
}

func newApp(g *Globals) (*app, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	targets, err := cfg.ResolveTargets()
	if err != nil {
		return nil, err
	}

	fetcher := newFetcher(cfg)
	aviation := ingest.NewAviationClient(cfg.Weather.AviationURL, fetcher)
	events := polymarket.NewClient(cfg.Polymarket.GammaAPIURL, fetcher)

	if cfg.Weather.APIKey == "" {
		log.Warn().Msg("config: weather.api_key is empty, hourly forecasts will fail and targets stay calibrating")
	}

	src := scan.Sources{
		Observations: aviation,
		TAF:          ingest.NewTAFClient(aviation, cfg.Weather.TAFFTPHost, cfg.Scan.RequestTimeout),
		Forecast:     ingest.NewForecastClient(cfg.Weather.ForecastURL, cfg.Weather.APIKey, fetcher),
		Models:       ingest.NewOpenMeteoClient(cfg.Weather.OpenMeteoURL, fetcher),
		Market:       market.NewQuoter(events, cfg.Polymarket.CacheTTL),
	}

	a := &app{cfg: cfg, targets: targets, events: events}

	notifiers := []notify.Notifier{notify.Log{}}
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, telegramRetries, telegramRetryDelay)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		notifiers = append(notifiers, tg)
		log.Info().Msg("notify: telegram enabled")
	}
	if cfg.Storage.DBPath != "" {
		st, err := store.Open(cfg.Storage.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.store = st
		notifiers = append(notifiers, notify.NewEventLog(st))
		log.Info().Str("path", cfg.Storage.DBPath).Msg("store: alert event log enabled")
	}
	a.notifier = notify.NewMulti(notifiers...)

	opts := scan.Options{
		CycleInterval: cfg.Scan.CycleInterval,
		Pacing:        cfg.Scan.Pacing,
		Refresh: scan.Intervals{
			Forecast:  cfg.Refresh.Forecast,
			TAF:       cfg.Refresh.TAF,
			DailyHigh: cfg.Refresh.DailyHigh,
			Consensus: cfg.Refresh.Consensus,
		},
		Bankroll:       cfg.Trading.Bankroll,
		KellyFraction:  cfg.Trading.KellyFraction,
		BlendConsensus: cfg.Trading.BlendConsensus,
	}
	a.sched = scan.NewScheduler(targets, src, opts, a.notifier)
	if a.store != nil {
		a.sched.SetCycleRecorder(a.store)
	}
	return a, nil
}

// Close waits for in-flight notifications and closes the store.
func (a *app) Close() {
	a.notifier.Wait()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("store: close")
		}
	}
}
