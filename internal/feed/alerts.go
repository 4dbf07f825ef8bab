package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
)

// AlertsClient implements Source against an NWS-style severe-weather alert
// API returning GeoJSON features. Alerts carry no measured magnitude; they
// normalize to watch/warning/storm events.
type AlertsClient struct {
	httpClient *http.Client
	baseURL    string
	retry      RetryPolicy
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewAlertsClient creates an alert-feed adapter. The limiter is shared across
// parallel workers so the whole process honors the feed's rate limit.
func NewAlertsClient(baseURL string, timeout time.Duration, retry RetryPolicy, limiter *rate.Limiter, logger *slog.Logger) *AlertsClient {
	return &AlertsClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		retry:      retry,
		limiter:    limiter,
		logger:     logger,
	}
}

func (c *AlertsClient) Name() string { return string(domain.SourceAlertFeed) }

// Fetch returns alert events inside the bounding box between start and end.
func (c *AlertsClient) Fetch(ctx context.Context, bbox domain.BoundingBox, start, end time.Time) ([]domain.WeatherEvent, error) {
	if err := ValidateWindow(start, end); err != nil {
		return nil, err
	}

	params := url.Values{
		"bbox":  {fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", bbox.MinLng, bbox.MinLat, bbox.MaxLng, bbox.MaxLat)},
		"start": {start.UTC().Format(time.RFC3339)},
		"end":   {end.UTC().Format(time.RFC3339)},
	}
	fullURL := c.baseURL + "/alerts?" + params.Encode()

	var body alertsResponse
	err := c.retry.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return Permanent(err)
		}
		return c.doRequest(ctx, fullURL, &body)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, c.Name(), err)
	}

	events := make([]domain.WeatherEvent, 0, len(body.Features))
	for _, f := range body.Features {
		event, ok := c.mapFeature(f)
		if !ok {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (c *AlertsClient) doRequest(ctx context.Context, fullURL string, out *alertsResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("alert feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for keep-alive
		return classifyStatus(c.Name(), resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Permanent(fmt.Errorf("decode alert response: %w", err))
	}
	return nil
}

// mapFeature converts one GeoJSON alert into a canonical event. Alerts with
// no usable geometry or an unmappable phenomenon are skipped.
func (c *AlertsClient) mapFeature(f alertFeature) (domain.WeatherEvent, bool) {
	eventType := classifyAlert(f.Properties.Event)
	if eventType == "" {
		return domain.WeatherEvent{}, false
	}

	geo, ok := polygonCentroid(f.Geometry)
	if !ok {
		return domain.WeatherEvent{}, false
	}

	occurredAt := f.Properties.Onset
	if occurredAt.IsZero() {
		occurredAt = f.Properties.Effective
	}

	raw, _ := json.Marshal(f) //nolint:errcheck // marshal of decoded value

	return domain.WeatherEvent{
		ID:         domain.GenerateEventID(domain.SourceAlertFeed, eventType, f.Properties.ID),
		Type:       eventType,
		OccurredAt: occurredAt.UTC(),
		Geo:        geo,
		Source:     domain.SourceAlertFeed,
		NativeID:   f.Properties.ID,
		Label:      f.Properties.Event,
		Raw:        raw,
	}, true
}

// classifyAlert maps an alert phenomenon name onto the closed event type set.
// Non-convective products (floods, heat, fog) are out of scope and dropped.
func classifyAlert(event string) domain.EventType {
	lower := strings.ToLower(event)
	switch {
	case !strings.Contains(lower, "thunderstorm") && !strings.Contains(lower, "tornado") && !strings.Contains(lower, "hail") && !strings.Contains(lower, "wind"):
		return ""
	case strings.Contains(lower, "warning"):
		return domain.EventWarning
	case strings.Contains(lower, "watch"):
		return domain.EventWatch
	default:
		return domain.EventStorm
	}
}

// polygonCentroid returns the vertex-average centroid of the alert polygon.
// Good enough for proximity scoring at the county scale alerts are issued at.
func polygonCentroid(g alertGeometry) (domain.Geo, bool) {
	if len(g.Coordinates) == 0 || len(g.Coordinates[0]) == 0 {
		return domain.Geo{}, false
	}
	ring := g.Coordinates[0]
	var sumLat, sumLng float64
	n := 0
	for _, coord := range ring {
		if len(coord) != 2 {
			continue
		}
		// GeoJSON order is lng,lat.
		sumLng += coord[0]
		sumLat += coord[1]
		n++
	}
	if n == 0 {
		return domain.Geo{}, false
	}
	return domain.Geo{Lat: sumLat / float64(n), Lng: sumLng / float64(n)}, true
}

// Alert feed response types (GeoJSON).

type alertsResponse struct {
	Features []alertFeature `json:"features"`
}

type alertFeature struct {
	Properties alertProperties `json:"properties"`
	Geometry   alertGeometry   `json:"geometry"`
}

type alertProperties struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	Headline  string    `json:"headline"`
	Onset     time.Time `json:"onset"`
	Effective time.Time `json:"effective"`
}

type alertGeometry struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"` // polygon rings of [lng, lat]
}
