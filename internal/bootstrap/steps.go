package bootstrap

import (
	"context"
	"strings"

	domainauth "trustlens-server-go/internal/domain/auth"
	"trustlens-server-go/internal/domain/authenticity"
	"trustlens-server-go/internal/domain/eventbus"
	"trustlens-server-go/internal/domain/history"
	domainimage "trustlens-server-go/internal/domain/image"
	"trustlens-server-go/internal/domain/jobfraud"
	"trustlens-server-go/internal/domain/media"
	platformconfig "trustlens-server-go/internal/platform/config"
	platformerrors "trustlens-server-go/internal/platform/errors"
	platformlogging "trustlens-server-go/internal/platform/logging"
	platformobservability "trustlens-server-go/internal/platform/observability"
	platformstorage "trustlens-server-go/internal/platform/storage"
	"trustlens-server-go/internal/utils"
)

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().WithPath(state.options.ConfigPath).Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "logging:init-provider", "config not loaded")
	}

	logCfg := state.config.Log
	provider, err := platformlogging.New(platformlogging.Config{
		Level:    logCfg.Level,
		Dir:      logCfg.Dir,
		Filename: logCfg.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logProvider = provider
	state.logger = provider.Legacy()
	state.slogger = provider.Slog()
	utils.DefaultLogger = state.logger

	state.logger.InfoTag("Bootstrap", "logging ready [%s] config=%s", logCfg.Level, state.configPath)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	if state.logger == nil || state.config == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "observability:setup-hooks", "config/logger not initialised")
	}

	shutdown, err := platformobservability.Setup(ctx, platformobservability.Config{
		Enabled:     state.config.Metrics.Enabled,
		MetricsPath: state.config.Metrics.Path,
	}, state.slogger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.observabilityShutdown = shutdown
	return nil
}

func historyConfig(cfg platformconfig.HistoryConfig) history.Config {
	return history.Config{
		Driver: cfg.Driver,
		TTL:    cfg.TTL,
		Memory: &history.MemoryConfig{GCInterval: cfg.Cleanup},
		SQLite: &history.SQLiteConfig{Path: cfg.SQLite.Path},
		Redis: &history.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		},
	}
}

func initHistoryStep(_ context.Context, state *appState) error {
	cfg := state.config.History
	if !cfg.Enabled {
		state.logger.InfoTag("History", "history disabled")
		return nil
	}

	// the sqlite handle is owned here so migrations run once and close() can release it
	var deps history.Dependencies
	if strings.EqualFold(cfg.Driver, history.DriverSQLite) {
		db, err := platformstorage.Open(cfg.SQLite.Path)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-history", "failed to open history database", err)
		}
		state.db = db
		deps.SQLiteDB = db
	}

	store, err := history.New(historyConfig(cfg), deps)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-history", "failed to create history store", err)
	}
	state.history = store
	state.logger.InfoTag("History", "history store ready driver=%s ttl=%s", cfg.Driver, cfg.TTL)
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	bus := eventbus.NewAsyncEventBus(eventWorkers, state.logger)
	if state.history != nil {
		if err := eventbus.NewHistoryRecorder(state.history, state.logger).Register(bus); err != nil {
			return platformerrors.Wrap(platformerrors.KindBootstrap, "events:init-bus", "failed to subscribe history recorder", err)
		}
	}
	bus.Start()
	state.bus = bus
	return nil
}

func initAuthStep(_ context.Context, state *appState) error {
	auth := state.config.Server.Auth
	if !auth.Enabled {
		return nil
	}
	state.tokens = domainauth.NewAuthToken(state.config.Server.Token).WithTTL(auth.TokenTTL)
	state.logger.InfoTag("Auth", "bearer token auth enabled for /api")
	return nil
}

func initScorersStep(_ context.Context, state *appState) error {
	cfg := state.config

	pipeline, err := domainimage.NewPipeline(domainimage.Options{Security: &cfg.Security, Logger: state.logger})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindAnalysis, "analysis:init-scorers", "failed to create image pipeline", err)
	}

	job := cfg.Scoring.Job
	rules, err := jobfraud.NewRules(job.FraudKeywords, job.UrgencyWords, job.LegitimatePatterns, job.SalaryPatterns)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "analysis:init-scorers", "invalid job fraud rules", err)
	}

	tunables := cfg.Scoring.Authenticity
	state.mediaScorer = authenticity.NewScorer(authenticity.Params{
		BlurNormalization:     tunables.BlurNormalization,
		VarianceMidpoint:      tunables.VarianceMidpoint,
		ColorStdNormalization: tunables.ColorStdNormalization,
		CannyLow:              tunables.CannyLow,
		CannyHigh:             tunables.CannyHigh,
		TextureKernel:         tunables.TextureKernel,
		SuspiciousFrame:       tunables.SuspiciousFrame,
		Workers:               cfg.Media.Workers,
	})
	state.jobScorer = jobfraud.NewScorer(rules)
	state.pipeline = pipeline
	state.sampler = media.NewFFmpegSampler(cfg.Media.FFmpegPath, cfg.Media.FFprobePath, cfg.Media.AnalysisTimeout, state.logger)
	return nil
}
