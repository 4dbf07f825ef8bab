package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EventType classifies a weather event. The set is closed: adapters map
// feed-native categories onto these five values or drop the record.
type EventType string

const (
	EventHail    EventType = "hail"
	EventWind    EventType = "wind"
	EventStorm   EventType = "storm"
	EventWatch   EventType = "watch"
	EventWarning EventType = "warning"
)

// Valid reports whether t is one of the five known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventHail, EventWind, EventStorm, EventWatch, EventWarning:
		return true
	}
	return false
}

// Source identifies the originating feed.
type Source string

const (
	SourceAlertFeed     Source = "alert-feed"
	SourceGroundReports Source = "ground-reports"
)

// WeatherEvent is the canonical event representation shared by all feeds.
// It is immutable once normalization has assigned its ID; scoring produces
// new ScoredEvent values rather than mutating the event.
type WeatherEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Geo        Geo       `json:"geo"`

	// Magnitude is type-dependent: inches of hail diameter, mph of wind gust.
	// Nil for watch/warning/storm events, which carry no measurement.
	Magnitude *float64 `json:"magnitude,omitempty"`

	Source   Source `json:"source"`
	NativeID string `json:"native_id"`
	Label    string `json:"label,omitempty"`

	// Raw is the original feed payload, retained for audit only. It is never
	// read by the scoring path.
	Raw []byte `json:"-"`
}

// ScoredEvent pairs an event with its distance and relevance for one property.
type ScoredEvent struct {
	WeatherEvent
	DistanceMiles float64 `json:"distance_miles"`
	Score         float64 `json:"score"`
}

// DailyAggregate reduces one UTC calendar date to a single severity signal.
// TopScore is the max of the day's event scores, deliberately not a sum, so
// multiple reports of the same physical storm cannot inflate the day.
type DailyAggregate struct {
	Date               time.Time     `json:"date"`
	TopScore           float64       `json:"top_score"`
	EventCount         int           `json:"event_count"`
	Events             []ScoredEvent `json:"events"`
	SourcesRepresented []Source      `json:"sources_represented"`
}

// DOLRecommendation is the selected date of loss. Nil (not a zero value) means
// no events existed in the window; the date always belongs to a real event.
type DOLRecommendation struct {
	Date                 time.Time   `json:"date"`
	ConfidencePercent    int         `json:"confidence_percent"`
	PrimaryEvent         ScoredEvent `json:"primary_event"`
	CorroboratingSources []Source    `json:"corroborating_sources"`
}

// TrackedProperty is a portfolio entry processed by the batch scheduler.
// The engine reads Lat/Lng and writes back LastIngestedAt; identity fields
// are owned by the store.
type TrackedProperty struct {
	ID             string    `json:"id"`
	Address        string    `json:"address"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	LastIngestedAt time.Time `json:"last_ingested_at"`
}

// GenerateEventID produces a deterministic ID from the event's source and
// feed-native identifier. Refetching the same window yields identical IDs,
// which is what lets the normalizer collapse exact duplicates and keeps
// persisted results replay safe.
func GenerateEventID(source Source, eventType EventType, nativeID string) string {
	hash := sha256.Sum256([]byte(string(source) + "|" + nativeID))
	short := hex.EncodeToString(hash[:8])
	if eventType == "" {
		return short
	}
	return string(eventType) + "-" + short
}
