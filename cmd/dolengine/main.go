package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	httpadapter "github.com/couchcryptid/storm-dol-engine/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-dol-engine/internal/adapter/kafka"
	"github.com/couchcryptid/storm-dol-engine/internal/config"
	"github.com/couchcryptid/storm-dol-engine/internal/feed"
	"github.com/couchcryptid/storm-dol-engine/internal/observability"
	"github.com/couchcryptid/storm-dol-engine/internal/pipeline"
	"github.com/couchcryptid/storm-dol-engine/internal/scheduler"
	"github.com/couchcryptid/storm-dol-engine/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	db, err := store.Open(cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}

	retry := feed.RetryPolicy{MaxRetries: cfg.FeedMaxRetries, BaseDelay: cfg.FeedRetryDelay}
	limiter := rate.NewLimiter(rate.Limit(cfg.FeedRatePerSec), 1)
	sources := []feed.Source{
		feed.NewCachedSource(
			feed.NewAlertsClient(cfg.AlertFeedURL, cfg.FeedTimeout, retry, limiter, logger),
			cfg.FeedCacheEntries),
		feed.NewCachedSource(
			feed.NewReportsClient(cfg.ReportFeedURL, cfg.FeedTimeout, retry, limiter, logger),
			cfg.FeedCacheEntries),
	}

	pipe := pipeline.New(sources, scoringConfig(cfg), cfg.BBoxRadiusDeg, logger, metrics)

	// The intel publisher is optional: without brokers the stored result is
	// the only output and downstream consumers poll the store.
	var publisher scheduler.IntelPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("intel publishing enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("intel publishing disabled")
	}

	sched := scheduler.New(db, pipe, publisher, scheduler.Config{
		Interval:        cfg.BatchInterval,
		BatchTimeout:    cfg.BatchTimeout,
		WorkerCount:     cfg.WorkerCount,
		LookbackDays:    cfg.LookbackDays,
		OnDemandTimeout: cfg.OnDemandTimeout,
	}, clockwork.NewRealClock(), logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, sched, sched, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start batch scheduler.
	go func() {
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func scoringConfig(cfg *config.Config) pipeline.ScoringConfig {
	return pipeline.ScoringConfig{
		HailRadiusMiles:     cfg.HailRadiusMiles,
		WindRadiusMiles:     cfg.WindRadiusMiles,
		StormRadiusMiles:    cfg.StormRadiusMiles,
		HailMagnitudeCapIn:  cfg.HailMagnitudeCapIn,
		WindMagnitudeCapMph: cfg.WindMagnitudeCap,
		NominalAlertScore:   cfg.NominalAlertScore,
		SingleSourceFactor:  cfg.SingleSourceFactor,
		DualSourceFactor:    cfg.DualSourceFactor,
		MultiSourceFactor:   cfg.MultiSourceFactor,
		HighConfidenceMin:   cfg.HighConfidenceMin,
		MediumConfidenceMin: cfg.MediumConfidenceMin,
	}
}
