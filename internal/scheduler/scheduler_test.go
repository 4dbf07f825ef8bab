package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
	"github.com/couchcryptid/storm-dol-engine/internal/observability"
	"github.com/couchcryptid/storm-dol-engine/internal/pipeline"
	"github.com/couchcryptid/storm-dol-engine/internal/scheduler"
)

type fakeStore struct {
	mu         sync.Mutex
	properties []domain.TrackedProperty
	loadErr    error
	upsertErr  map[string]error
	results    map[string]domain.WeatherIntel
	touched    map[string]time.Time
}

func newFakeStore(properties ...domain.TrackedProperty) *fakeStore {
	return &fakeStore{
		properties: properties,
		upsertErr:  map[string]error{},
		results:    map[string]domain.WeatherIntel{},
		touched:    map[string]time.Time{},
	}
}

func (f *fakeStore) GetTrackedProperties(_ context.Context) ([]domain.TrackedProperty, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.properties, nil
}

func (f *fakeStore) UpsertRunResult(_ context.Context, propertyID string, runDate time.Time, intel domain.WeatherIntel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.upsertErr[propertyID]; err != nil {
		return err
	}
	f.results[propertyID+"|"+runDate.UTC().Format(time.DateOnly)] = intel
	return nil
}

func (f *fakeStore) TouchLastIngested(_ context.Context, propertyID string, t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[propertyID] = t
	return nil
}

type fakeRunner struct {
	mu    sync.Mutex
	errs  map[string]error
	calls []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{errs: map[string]error{}}
}

func (f *fakeRunner) Run(_ context.Context, property domain.TrackedProperty, window pipeline.Window) (domain.WeatherIntel, error) {
	f.mu.Lock()
	f.calls = append(f.calls, property.ID)
	f.mu.Unlock()
	if err := f.errs[property.ID]; err != nil {
		return domain.WeatherIntel{Degraded: true, FailedSources: []string{"alert-feed", "ground-reports"}}, err
	}
	return domain.WeatherIntel{
		Address:      property.Address,
		Lat:          property.Lat,
		Lng:          property.Lng,
		DaysSearched: window.Days,
	}, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	err       error
	published []string
}

func (f *fakePublisher) PublishIntel(_ context.Context, propertyID string, _ domain.WeatherIntel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, propertyID)
	return nil
}

func testConfig() scheduler.Config {
	return scheduler.Config{
		Interval:        24 * time.Hour,
		BatchTimeout:    time.Minute,
		WorkerCount:     2,
		LookbackDays:    120,
		OnDemandTimeout: time.Second,
	}
}

func newScheduler(store *fakeStore, runner *fakeRunner, publisher scheduler.IntelPublisher, cfg scheduler.Config) *scheduler.Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClockAt(time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC))
	return scheduler.New(store, runner, publisher, cfg, clock, logger, observability.NewMetricsForTesting())
}

func properties(n int) []domain.TrackedProperty {
	props := make([]domain.TrackedProperty, n)
	for i := range props {
		props[i] = domain.TrackedProperty{
			ID:      fmt.Sprintf("prop-%d", i+1),
			Address: fmt.Sprintf("%d Main St", i+1),
			Lat:     34.541,
			Lng:     -112.469,
		}
	}
	return props
}

func TestScheduler_RunBatch(t *testing.T) {
	t.Run("processes every property", func(t *testing.T) {
		store := newFakeStore(properties(3)...)
		runner := newFakeRunner()
		publisher := &fakePublisher{}
		s := newScheduler(store, runner, publisher, testConfig())

		summary := s.RunBatch(context.Background())

		assert.NotEmpty(t, summary.RunID)
		assert.Equal(t, 3, summary.Count)
		assert.Equal(t, 3, summary.Succeeded)
		assert.Zero(t, summary.Failed)
		assert.Zero(t, summary.Deferred)
		assert.ElementsMatch(t, []string{"prop-1", "prop-2", "prop-3"}, summary.Updated)
		assert.ElementsMatch(t, []string{"prop-1", "prop-2", "prop-3"}, runner.calls)
		assert.Len(t, store.results, 3)
		assert.Len(t, store.touched, 3)
		assert.ElementsMatch(t, []string{"prop-1", "prop-2", "prop-3"}, publisher.published)
	})

	t.Run("one failing property does not stop the rest", func(t *testing.T) {
		store := newFakeStore(properties(3)...)
		runner := newFakeRunner()
		runner.errs["prop-2"] = fmt.Errorf("%w: all sources failed", domain.ErrSourceUnavailable)
		s := newScheduler(store, runner, nil, testConfig())

		summary := s.RunBatch(context.Background())

		assert.Equal(t, 3, summary.Count)
		assert.Equal(t, 2, summary.Succeeded)
		assert.Equal(t, 1, summary.Failed)
		assert.ElementsMatch(t, []string{"prop-1", "prop-3"}, summary.Updated)
		assert.Len(t, store.results, 2)
		_, touched := store.touched["prop-2"]
		assert.False(t, touched, "failed property keeps its stale timestamp")
	})

	t.Run("persist failure counts as failed", func(t *testing.T) {
		store := newFakeStore(properties(2)...)
		store.upsertErr["prop-1"] = errors.New("disk full")
		s := newScheduler(store, newFakeRunner(), nil, testConfig())

		summary := s.RunBatch(context.Background())

		assert.Equal(t, 1, summary.Succeeded)
		assert.Equal(t, 1, summary.Failed)
		assert.Equal(t, []string{"prop-2"}, summary.Updated)
	})

	t.Run("publish failure is not a run failure", func(t *testing.T) {
		store := newFakeStore(properties(1)...)
		publisher := &fakePublisher{err: errors.New("broker down")}
		s := newScheduler(store, newFakeRunner(), publisher, testConfig())

		summary := s.RunBatch(context.Background())

		assert.Equal(t, 1, summary.Succeeded)
		assert.Zero(t, summary.Failed)
		assert.Len(t, store.results, 1, "result persisted despite publish failure")
	})

	t.Run("store load failure returns empty summary", func(t *testing.T) {
		store := newFakeStore()
		store.loadErr = errors.New("db locked")
		s := newScheduler(store, newFakeRunner(), nil, testConfig())

		summary := s.RunBatch(context.Background())

		assert.Zero(t, summary.Count)
		assert.Zero(t, summary.Succeeded)
	})

	t.Run("expired batch context defers unstarted properties", func(t *testing.T) {
		store := newFakeStore(properties(4)...)
		runner := newFakeRunner()
		s := newScheduler(store, runner, nil, testConfig())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		summary := s.RunBatch(ctx)

		assert.Equal(t, 4, summary.Count)
		assert.Equal(t, 4, summary.Deferred)
		assert.Zero(t, summary.Succeeded)
		assert.Empty(t, runner.calls)
	})
}

func TestScheduler_CheckReadiness(t *testing.T) {
	store := newFakeStore(properties(1)...)
	s := newScheduler(store, newFakeRunner(), nil, testConfig())

	require.Error(t, s.CheckReadiness(context.Background()), "not ready before first batch")
	_, ok := s.LastSummary()
	assert.False(t, ok)

	summary := s.RunBatch(context.Background())

	assert.NoError(t, s.CheckReadiness(context.Background()))
	last, ok := s.LastSummary()
	require.True(t, ok)
	assert.Equal(t, summary.RunID, last.RunID)
}

func TestScheduler_RunOnDemand(t *testing.T) {
	t.Run("returns a result", func(t *testing.T) {
		runner := newFakeRunner()
		s := newScheduler(newFakeStore(), runner, nil, testConfig())

		intel, err := s.RunOnDemand(context.Background(), 34.541, -112.469)

		require.NoError(t, err)
		assert.Equal(t, 34.541, intel.Lat)
		assert.Equal(t, 120, intel.DaysSearched)
		assert.Equal(t, []string{"on-demand"}, runner.calls)
	})

	t.Run("degraded result survives total source failure", func(t *testing.T) {
		runner := newFakeRunner()
		runner.errs["on-demand"] = fmt.Errorf("%w: all sources failed", domain.ErrSourceUnavailable)
		s := newScheduler(newFakeStore(), runner, nil, testConfig())

		intel, err := s.RunOnDemand(context.Background(), 34.541, -112.469)

		require.NoError(t, err)
		assert.True(t, intel.Degraded)
		assert.ElementsMatch(t, []string{"alert-feed", "ground-reports"}, intel.FailedSources)
	})

	t.Run("invalid coordinates still fail", func(t *testing.T) {
		runner := newFakeRunner()
		runner.errs["on-demand"] = fmt.Errorf("%w: (0.0000, 0.0000)", domain.ErrInvalidLocation)
		s := newScheduler(newFakeStore(), runner, nil, testConfig())

		_, err := s.RunOnDemand(context.Background(), 0, 0)

		require.ErrorIs(t, err, domain.ErrInvalidLocation)
	})
}
