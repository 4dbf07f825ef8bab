package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
	"github.com/couchcryptid/storm-dol-engine/internal/feed"
	"github.com/couchcryptid/storm-dol-engine/internal/observability"
	"github.com/couchcryptid/storm-dol-engine/internal/pipeline"
)

type stubSource struct {
	name   string
	events []domain.WeatherEvent
	err    error
	calls  int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context, _ domain.BoundingBox, _, _ time.Time) ([]domain.WeatherEvent, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func newPipeline(t *testing.T, sources ...feed.Source) *pipeline.Pipeline {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return pipeline.New(sources, pipeline.DefaultScoringConfig(), 0.5, logger, observability.NewMetricsForTesting())
}

func mag(v float64) *float64 { return &v }

func TestPipeline_Run(t *testing.T) {
	property := domain.TrackedProperty{ID: "prop-1", Address: "123 Main St", Lat: 34.541, Lng: -112.469}
	window := pipeline.NewWindow(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), 120)

	reportEvents := []domain.WeatherEvent{
		{
			Type: domain.EventHail, NativeID: "lsr-1", Label: "Hail report",
			OccurredAt: time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC),
			Geo:        domain.Geo{Lat: 34.558, Lng: -112.469},
			Magnitude:  mag(1.75),
		},
		{
			Type: domain.EventWind, NativeID: "lsr-2", Label: "Wind report",
			OccurredAt: time.Date(2024, 6, 1, 20, 30, 0, 0, time.UTC),
			Geo:        domain.Geo{Lat: 34.50, Lng: -112.469},
			Magnitude:  mag(62),
		},
		{
			Type: domain.EventHail, NativeID: "lsr-3", Label: "Hail report",
			OccurredAt: time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC),
			Geo:        domain.Geo{Lat: 34.60, Lng: -112.469},
			Magnitude:  mag(0.75),
		},
	}

	t.Run("correlates events from healthy sources", func(t *testing.T) {
		alerts := &stubSource{name: "alert-feed"}
		reports := &stubSource{name: "ground-reports", events: reportEvents}
		pipe := newPipeline(t, alerts, reports)

		intel, err := pipe.Run(context.Background(), property, window)

		require.NoError(t, err)
		assert.Equal(t, 1, alerts.calls)
		assert.Equal(t, 1, reports.calls)
		assert.Equal(t, 3, intel.EventCount)
		assert.ElementsMatch(t, []string{"alert-feed", "ground-reports"}, intel.Sources)
		assert.False(t, intel.Degraded)

		require.NotNil(t, intel.RecommendedDOL)
		assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), *intel.RecommendedDOL)
		assert.Equal(t, 1.75, intel.Hail.MaxSizeInches)
		assert.Equal(t, 62.0, intel.Wind.MaxGustMph)
	})

	t.Run("degrades when one source fails", func(t *testing.T) {
		alerts := &stubSource{name: "alert-feed", err: domain.ErrSourceUnavailable}
		reports := &stubSource{name: "ground-reports", events: reportEvents}
		pipe := newPipeline(t, alerts, reports)

		intel, err := pipe.Run(context.Background(), property, window)

		require.NoError(t, err)
		assert.True(t, intel.Degraded)
		assert.Equal(t, []string{"alert-feed"}, intel.FailedSources)
		assert.Equal(t, []string{"ground-reports"}, intel.Sources)
		assert.Equal(t, 3, intel.EventCount)
	})

	t.Run("returns degraded result and error when all sources fail", func(t *testing.T) {
		alerts := &stubSource{name: "alert-feed", err: domain.ErrSourceUnavailable}
		reports := &stubSource{name: "ground-reports", err: context.DeadlineExceeded}
		pipe := newPipeline(t, alerts, reports)

		intel, err := pipe.Run(context.Background(), property, window)

		require.ErrorIs(t, err, domain.ErrSourceUnavailable)
		assert.True(t, intel.Degraded)
		assert.ElementsMatch(t, []string{"alert-feed", "ground-reports"}, intel.FailedSources)
		assert.Empty(t, intel.Sources)
		assert.Zero(t, intel.EventCount)
	})

	t.Run("rejects invalid coordinates", func(t *testing.T) {
		reports := &stubSource{name: "ground-reports", events: reportEvents}
		pipe := newPipeline(t, reports)

		_, err := pipe.Run(context.Background(), domain.TrackedProperty{ID: "prop-bad", Lat: 0, Lng: 0}, window)

		require.ErrorIs(t, err, domain.ErrInvalidLocation)
		assert.Zero(t, reports.calls, "no fetch on invalid location")
	})

	t.Run("empty window is a valid result", func(t *testing.T) {
		alerts := &stubSource{name: "alert-feed"}
		reports := &stubSource{name: "ground-reports"}
		pipe := newPipeline(t, alerts, reports)

		intel, err := pipe.Run(context.Background(), property, window)

		require.NoError(t, err)
		assert.Zero(t, intel.EventCount)
		assert.Nil(t, intel.RecommendedDOL)
		assert.Nil(t, intel.DOLConfidence)
		assert.False(t, intel.Degraded)
	})
}
