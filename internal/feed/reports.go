package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
)

// ReportsClient implements Source against an IEM-style local storm report
// (LSR) API. Reports are ground truth: measured hail sizes and wind gusts
// from stations and trained spotters, as opposed to forecast alerts.
type ReportsClient struct {
	httpClient *http.Client
	baseURL    string
	retry      RetryPolicy
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewReportsClient creates a ground-report adapter.
func NewReportsClient(baseURL string, timeout time.Duration, retry RetryPolicy, limiter *rate.Limiter, logger *slog.Logger) *ReportsClient {
	return &ReportsClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		retry:      retry,
		limiter:    limiter,
		logger:     logger,
	}
}

func (c *ReportsClient) Name() string { return string(domain.SourceGroundReports) }

// Fetch returns measured hail and wind reports inside the bounding box
// between start and end. Report types outside hail/wind (marine, flood,
// snow) are skipped.
func (c *ReportsClient) Fetch(ctx context.Context, bbox domain.BoundingBox, start, end time.Time) ([]domain.WeatherEvent, error) {
	if err := ValidateWindow(start, end); err != nil {
		return nil, err
	}

	params := url.Values{
		"west":  {strconv.FormatFloat(bbox.MinLng, 'f', 4, 64)},
		"east":  {strconv.FormatFloat(bbox.MaxLng, 'f', 4, 64)},
		"south": {strconv.FormatFloat(bbox.MinLat, 'f', 4, 64)},
		"north": {strconv.FormatFloat(bbox.MaxLat, 'f', 4, 64)},
		"sts":   {start.UTC().Format(time.RFC3339)},
		"ets":   {end.UTC().Format(time.RFC3339)},
	}
	fullURL := c.baseURL + "/lsr.geojson?" + params.Encode()

	var body reportsResponse
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

func (c *ReportsClient) doRequest(ctx context.Context, fullURL string, out *reportsResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storm report request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for keep-alive
		return classifyStatus(c.Name(), resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Permanent(fmt.Errorf("decode report response: %w", err))
	}
	return nil
}

// mapFeature converts one LSR into a canonical event.
func (c *ReportsClient) mapFeature(f reportFeature) (domain.WeatherEvent, bool) {
	eventType, ok := classifyReport(f.Properties.TypeText)
	if !ok {
		return domain.WeatherEvent{}, false
	}

	if len(f.Geometry.Coordinates) != 2 {
		return domain.WeatherEvent{}, false
	}
	// GeoJSON order is lng,lat.
	geo := domain.Geo{Lat: f.Geometry.Coordinates[1], Lng: f.Geometry.Coordinates[0]}

	occurredAt, err := parseReportTime(f.Properties.Valid)
	if err != nil {
		c.logger.Warn("skipping report with unparseable time",
			"native_id", f.Properties.ProductID, "valid", f.Properties.Valid)
		return domain.WeatherEvent{}, false
	}

	nativeID := f.Properties.ProductID
	if nativeID == "" {
		// Some LSR products lack a product id; compose a stable surrogate.
		nativeID = fmt.Sprintf("%s|%s|%.4f|%.4f", f.Properties.Valid, f.Properties.TypeText, geo.Lat, geo.Lng)
	}

	raw, _ := json.Marshal(f) //nolint:errcheck // marshal of decoded value

	event := domain.WeatherEvent{
		ID:         domain.GenerateEventID(domain.SourceGroundReports, eventType, nativeID),
		Type:       eventType,
		OccurredAt: occurredAt,
		Geo:        geo,
		Source:     domain.SourceGroundReports,
		NativeID:   nativeID,
		Label:      reportLabel(eventType, f.Properties),
		Raw:        raw,
	}

	if mag, ok := parseMagnitude(f.Properties.Magnitude); ok {
		event.Magnitude = &mag
	}
	return event, true
}

// classifyReport maps an LSR type text onto the event type set. Only measured
// hail and wind reports contribute; everything else is out of scope here.
func classifyReport(typeText string) (domain.EventType, bool) {
	switch strings.ToUpper(strings.TrimSpace(typeText)) {
	case "HAIL":
		return domain.EventHail, true
	case "TSTM WND GST", "NON-TSTM WND GST", "TSTM WND DMG":
		return domain.EventWind, true
	default:
		return "", false
	}
}

func reportLabel(eventType domain.EventType, p reportProperties) string {
	switch eventType {
	case domain.EventHail:
		return "Hail report"
	case domain.EventWind:
		return "Wind report"
	default:
		return p.TypeText
	}
}

// parseReportTime accepts the two timestamp layouts the LSR service emits.
func parseReportTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized report time %q", value)
}

// parseMagnitude tolerates the feed's mixed encoding: number, numeric string,
// or empty/absent for unmeasured reports.
func parseMagnitude(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Storm report response types (GeoJSON).

type reportsResponse struct {
	Features []reportFeature `json:"features"`
}

type reportFeature struct {
	Properties reportProperties `json:"properties"`
	Geometry   reportGeometry   `json:"geometry"`
}

type reportProperties struct {
	ProductID string          `json:"product_id"`
	Valid     string          `json:"valid"`
	TypeText  string          `json:"typetext"`
	Magnitude json.RawMessage `json:"magnitude"`
	City      string          `json:"city"`
	State     string          `json:"st"`
}

type reportGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lng, lat]
}
