// Command intel runs one on-demand correlation pass for a single coordinate
// pair and prints the resulting WeatherIntel as JSON. It talks to the live
// feeds using the same configuration the service uses.
//
// Usage:
//
//	go run ./cmd/intel -lat 34.541 -lng -112.469 -days 120
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/storm-dol-engine/internal/config"
	"github.com/couchcryptid/storm-dol-engine/internal/feed"
	"github.com/couchcryptid/storm-dol-engine/internal/observability"
	"github.com/couchcryptid/storm-dol-engine/internal/pipeline"
	"github.com/couchcryptid/storm-dol-engine/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	lat := flag.Float64("lat", 0, "property latitude")
	lng := flag.Float64("lng", 0, "property longitude")
	days := flag.Int("days", 0, "lookback window in days (default from LOOKBACK_DAYS)")
	flag.Parse()

	if *lat == 0 && *lng == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *days > 0 {
		cfg.LookbackDays = *days
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetricsForTesting()

	retry := feed.RetryPolicy{MaxRetries: cfg.FeedMaxRetries, BaseDelay: cfg.FeedRetryDelay}
	limiter := rate.NewLimiter(rate.Limit(cfg.FeedRatePerSec), 1)
	sources := []feed.Source{
		feed.NewAlertsClient(cfg.AlertFeedURL, cfg.FeedTimeout, retry, limiter, logger),
		feed.NewReportsClient(cfg.ReportFeedURL, cfg.FeedTimeout, retry, limiter, logger),
	}

	pipe := pipeline.New(sources, pipeline.ScoringConfig{
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
	}, cfg.BBoxRadiusDeg, logger, metrics)

	sched := scheduler.New(nil, pipe, nil, scheduler.Config{
		LookbackDays:    cfg.LookbackDays,
		OnDemandTimeout: cfg.OnDemandTimeout,
	}, clockwork.NewRealClock(), logger, metrics)

	intel, err := sched.RunOnDemand(context.Background(), *lat, *lng)
	if err != nil {
		return fmt.Errorf("run on-demand: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(intel)
}
