package domain

import "time"

// ConfidenceBand buckets a DOL confidence percentage for downstream display.
type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "HIGH"
	ConfidenceMedium ConfidenceBand = "MEDIUM"
	ConfidenceLow    ConfidenceBand = "LOW"
)

// HailSummary rolls up the hail reports scored for a property.
type HailSummary struct {
	MaxSizeInches              float64    `json:"maxSizeInches"`
	NearbyReports              int        `json:"nearbyReports"`
	NearestReportDistanceMiles *float64   `json:"nearestReportDistanceMiles"`
	LastReportDate             *time.Time `json:"lastReportDate"`
}

// WindSummary rolls up the wind reports scored for a property.
type WindSummary struct {
	MaxGustMph         float64    `json:"maxGustMph"`
	GustEvents         int        `json:"gustEvents"`
	MaxDurationMinutes int        `json:"maxDurationMinutes"`
	LastEventDate      *time.Time `json:"lastEventDate"`
}

// TimelineEntry is one notable event in chronological order.
type TimelineEntry struct {
	Time          time.Time      `json:"time"`
	Label         string         `json:"label"`
	Severity      DamageSeverity `json:"severity,omitempty"`
	Type          EventType      `json:"type"`
	Magnitude     *float64       `json:"magnitude,omitempty"`
	DistanceMiles *float64       `json:"distanceMiles,omitempty"`
}

// WeatherIntel is the engine's output, consumed by the narrative summarizer,
// the report renderer, and the UI. It is derived state: the store keeps one
// per (property, run date) and overwriting with a re-run is always safe.
type WeatherIntel struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`

	StormWindowStart *time.Time `json:"stormWindowStart"`
	StormWindowEnd   *time.Time `json:"stormWindowEnd"`

	Hail     HailSummary     `json:"hail"`
	Wind     WindSummary     `json:"wind"`
	Timeline []TimelineEntry `json:"timeline"`

	// RadarImages is populated by an external imagery collaborator, never by
	// this engine. Kept in the shape so downstream consumers see one struct.
	RadarImages []string `json:"radarImages"`

	Disclaimers []string `json:"disclaimers"`
	Sources     []string `json:"sources"`

	// FailedSources lists feeds that were unavailable for this run; Degraded
	// is set when at least one feed failed or the interactive deadline fired.
	FailedSources []string `json:"failedSources,omitempty"`
	Degraded      bool     `json:"degraded"`

	GeneratedAt  time.Time `json:"generatedAt"`
	EventCount   int       `json:"eventCount"`
	DaysSearched int       `json:"daysSearched"`

	RecommendedDOL *time.Time      `json:"recommendedDOL"`
	DOLConfidence  *ConfidenceBand `json:"dolConfidence"`
}
