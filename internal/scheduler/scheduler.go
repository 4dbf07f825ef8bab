// Package scheduler drives the correlation pipeline across the tracked
// property portfolio on a recurring cadence, and exposes the on-demand
// single-property entry point.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
	"github.com/couchcryptid/storm-dol-engine/internal/observability"
	"github.com/couchcryptid/storm-dol-engine/internal/pipeline"
)

// PropertyStore is the persistence contract the scheduler depends on.
type PropertyStore interface {
	GetTrackedProperties(ctx context.Context) ([]domain.TrackedProperty, error)
	UpsertRunResult(ctx context.Context, propertyID string, runDate time.Time, intel domain.WeatherIntel) error
	TouchLastIngested(ctx context.Context, propertyID string, t time.Time) error
}

// IntelPublisher pushes a finished result to downstream consumers. Optional.
type IntelPublisher interface {
	PublishIntel(ctx context.Context, propertyID string, intel domain.WeatherIntel) error
}

// Runner is the per-property pipeline contract.
type Runner interface {
	Run(ctx context.Context, property domain.TrackedProperty, window pipeline.Window) (domain.WeatherIntel, error)
}

// Config holds the scheduler's cadence and bounds.
type Config struct {
	Interval        time.Duration
	BatchTimeout    time.Duration
	WorkerCount     int
	LookbackDays    int
	OnDemandTimeout time.Duration
}

// Summary reports the outcome of one batch pass. Deferred counts properties
// that were not started before the batch deadline; idempotent persistence
// means they simply wait for the next scheduled run.
type Summary struct {
	RunID     string    `json:"run_id"`
	Count     int       `json:"count"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Deferred  int       `json:"deferred"`
	Updated   []string  `json:"updated"`
	StartedAt time.Time `json:"started_at"`
}

// Scheduler runs the batch loop.
type Scheduler struct {
	store     PropertyStore
	pipe      Runner
	publisher IntelPublisher
	cfg       Config
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	mu   sync.Mutex
	last *Summary
}

// New creates a Scheduler. publisher may be nil when no sink is configured.
func New(store PropertyStore, pipe Runner, publisher IntelPublisher, cfg Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		store:     store,
		pipe:      pipe,
		publisher: publisher,
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once at least one batch pass has completed.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no ingestion batch has completed yet")
	}
	return nil
}

// LastSummary returns the most recent batch summary, if any batch has run.
func (s *Scheduler) LastSummary() (Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Summary{}, false
	}
	return *s.last, true
}

// Run executes one batch immediately, then one per interval until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"interval", s.cfg.Interval, "workers", s.cfg.WorkerCount, "lookback_days", s.cfg.LookbackDays)

	ticker := s.clock.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.RunBatch(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// RunBatch processes the whole portfolio once with bounded parallelism.
// Per-property failures are contained: they are logged, counted, and never
// halt the other properties.
func (s *Scheduler) RunBatch(ctx context.Context) Summary {
	start := s.clock.Now().UTC()
	summary := Summary{RunID: uuid.NewString(), StartedAt: start}

	s.metrics.BatchRunning.Set(1)
	defer s.metrics.BatchRunning.Set(0)
	defer func() {
		s.metrics.BatchDuration.Observe(s.clock.Now().Sub(start).Seconds())
	}()

	properties, err := s.store.GetTrackedProperties(ctx)
	if err != nil {
		s.logger.Error("load tracked properties failed", "run_id", summary.RunID, "error", err)
		return summary
	}
	summary.Count = len(properties)

	batchCtx := ctx
	if s.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, s.cfg.BatchTimeout)
		defer cancel()
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.cfg.WorkerCount)

	for _, property := range properties {
		if batchCtx.Err() != nil {
			// Deadline hit: unstarted properties wait for the next run.
			mu.Lock()
			summary.Deferred++
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			ok := s.processProperty(batchCtx, summary.RunID, property)
			mu.Lock()
			if ok {
				summary.Succeeded++
				summary.Updated = append(summary.Updated, property.ID)
			} else {
				summary.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors; outcomes are in summary

	s.ready.Store(true)
	s.mu.Lock()
	s.last = &summary
	s.mu.Unlock()
	s.logger.Info("batch complete",
		"run_id", summary.RunID,
		"count", summary.Count,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"deferred", summary.Deferred,
	)
	return summary
}

// processProperty runs the pipeline for one property and persists the result.
func (s *Scheduler) processProperty(ctx context.Context, runID string, property domain.TrackedProperty) bool {
	window := pipeline.NewWindow(s.clock.Now(), s.cfg.LookbackDays)

	intel, err := s.pipe.Run(ctx, property, window)
	if err != nil {
		s.logger.Warn("property run failed",
			"run_id", runID, "property_id", property.ID, "error", err)
		s.metrics.PropertyFailures.Inc()
		return false
	}

	if err := s.store.UpsertRunResult(ctx, property.ID, window.End, intel); err != nil {
		s.logger.Error("persist run result failed",
			"run_id", runID, "property_id", property.ID, "error", err)
		s.metrics.PropertyFailures.Inc()
		return false
	}

	if err := s.store.TouchLastIngested(ctx, property.ID, s.clock.Now()); err != nil {
		s.logger.Warn("update last ingested failed",
			"run_id", runID, "property_id", property.ID, "error", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishIntel(ctx, property.ID, intel); err != nil {
			// Publishing is a courtesy to downstream consumers; the stored
			// result is authoritative, so a publish failure is not a run failure.
			s.logger.Warn("publish intel failed",
				"run_id", runID, "property_id", property.ID, "error", err)
		} else {
			s.metrics.IntelPublished.Inc()
		}
	}

	return true
}

// RunOnDemand executes one interactive pass for a single coordinate pair
// under a hard deadline. If sources do not respond in time the degraded
// partial result is returned rather than an error; only invalid coordinates
// fail the caller.
func (s *Scheduler) RunOnDemand(ctx context.Context, lat, lng float64) (domain.WeatherIntel, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OnDemandTimeout)
	defer cancel()

	property := domain.TrackedProperty{ID: "on-demand", Lat: lat, Lng: lng}
	window := pipeline.NewWindow(s.clock.Now(), s.cfg.LookbackDays)

	intel, err := s.pipe.Run(ctx, property, window)
	if err != nil && errors.Is(err, domain.ErrSourceUnavailable) {
		return intel, nil
	}
	return intel, err
}
