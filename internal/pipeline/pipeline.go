// Package pipeline implements the correlation engine: normalization,
// proximity scoring, temporal aggregation, DOL selection, and report
// assembly, plus the per-property orchestrator that runs the stages in order.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
	"github.com/couchcryptid/storm-dol-engine/internal/feed"
	"github.com/couchcryptid/storm-dol-engine/internal/observability"
)

// Window is the lookback period a run searches.
type Window struct {
	Start time.Time
	End   time.Time
	Days  int
}

// NewWindow builds a window of the given number of days ending at end.
func NewWindow(end time.Time, days int) Window {
	end = end.UTC()
	return Window{
		Start: end.AddDate(0, 0, -days),
		End:   end,
		Days:  days,
	}
}

// Pipeline runs one property through adapters, normalization, scoring,
// aggregation, selection, and assembly, strictly in that order. It holds no
// mutable state between runs, so any number of pipelines may execute in
// parallel workers.
type Pipeline struct {
	sources   []feed.Source
	scorer    *Scorer
	assembler *Assembler
	cfg       ScoringConfig
	bboxDeg   float64
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline over the given source adapters.
func New(sources []feed.Source, cfg ScoringConfig, bboxRadiusDeg float64, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		sources:   sources,
		scorer:    NewScorer(cfg),
		assembler: NewAssembler(cfg),
		cfg:       cfg,
		bboxDeg:   bboxRadiusDeg,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes one full pass for a property. Adapter failures degrade the
// result rather than aborting it; an empty window is a valid result with a
// nil recommendation. When every source fails, Run still returns the
// assembled degraded result alongside a domain.ErrSourceUnavailable so the
// caller chooses: the batch scheduler counts the property failed and retries
// next run, the on-demand path hands the degraded result to its caller.
// Invalid coordinates are the only hard error.
func (p *Pipeline) Run(ctx context.Context, property domain.TrackedProperty, window Window) (domain.WeatherIntel, error) {
	if !domain.ValidCoordinates(property.Lat, property.Lng) {
		return domain.WeatherIntel{}, fmt.Errorf("%w: property %s (%.4f, %.4f)",
			domain.ErrInvalidLocation, property.ID, property.Lat, property.Lng)
	}

	bbox := domain.BBoxAround(property.Lat, property.Lng, p.bboxDeg)
	listsBySource, sourcesUsed, failedSources := p.fetchAll(ctx, bbox, window)

	events, rejected := Normalize(listsBySource)
	p.metrics.EventsNormalized.Add(float64(len(events)))
	p.metrics.EventsRejected.Add(float64(rejected))
	if rejected > 0 {
		p.logger.Warn("events rejected during normalization",
			"property_id", property.ID, "rejected", rejected)
	}

	scored := p.scorer.ScoreAll(domain.Geo{Lat: property.Lat, Lng: property.Lng}, events)
	aggregates := Aggregate(scored, window.Start, window.End)
	rec := SelectDOL(aggregates, p.cfg)

	intel := p.assembler.Assemble(property, aggregates, rec, sourcesUsed, failedSources, window)
	p.metrics.PropertiesProcessed.Inc()

	if len(sourcesUsed) == 0 && len(p.sources) > 0 {
		return intel, fmt.Errorf("%w: all sources failed for property %s", domain.ErrSourceUnavailable, property.ID)
	}
	return intel, nil
}

// fetchAll queries every source concurrently. A failed source lands in
// failedSources and its events are simply absent; the pipeline never aborts
// because one feed is down.
func (p *Pipeline) fetchAll(ctx context.Context, bbox domain.BoundingBox, window Window) (map[domain.Source][]domain.WeatherEvent, []string, []string) {
	type result struct {
		events []domain.WeatherEvent
		err    error
	}
	results := make([]result, len(p.sources))

	var g errgroup.Group
	for i, source := range p.sources {
		g.Go(func() error {
			start := time.Now()
			events, err := source.Fetch(ctx, bbox, window.Start, window.End)
			p.metrics.SourceFetchSeconds.WithLabelValues(source.Name()).Observe(time.Since(start).Seconds())
			results[i] = result{events: events, err: err}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // closures always return nil; failures are in results

	listsBySource := make(map[domain.Source][]domain.WeatherEvent, len(p.sources))
	var sourcesUsed, failedSources []string
	for i, source := range p.sources {
		if results[i].err != nil {
			p.logger.Warn("source unavailable", "source", source.Name(), "error", results[i].err)
			p.metrics.SourceFetches.WithLabelValues(source.Name(), "unavailable").Inc()
			failedSources = append(failedSources, source.Name())
			continue
		}
		p.metrics.SourceFetches.WithLabelValues(source.Name(), "success").Inc()
		sourcesUsed = append(sourcesUsed, source.Name())
		listsBySource[domain.Source(source.Name())] = results[i].events
	}
	return listsBySource, sourcesUsed, failedSources
}
