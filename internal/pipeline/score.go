package pipeline

import (
	"math"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
)

// ScoringConfig carries every tunable of the scoring and selection path.
// Nothing here is hard-coded in the algorithms; the defaults encode the
// operational values and env config can override each one.
type ScoringConfig struct {
	// Relevance radii in miles. Hail damage is locally concentrated; wind
	// fields are broader; alert polygons (storm/watch/warning) broader still.
	HailRadiusMiles  float64
	WindRadiusMiles  float64
	StormRadiusMiles float64

	// Magnitude normalization caps.
	HailMagnitudeCapIn  float64
	WindMagnitudeCapMph float64

	// NominalAlertScore stands in for magnitude on watch/warning/storm events
	// and on reports that arrived without a measurement.
	NominalAlertScore float64

	// Corroboration factors by distinct-source count. Must be monotonic;
	// single source stays below 1.0 so one feed alone never yields full
	// confidence.
	SingleSourceFactor float64
	DualSourceFactor   float64
	MultiSourceFactor  float64

	// Confidence band thresholds (percent).
	HighConfidenceMin   int
	MediumConfidenceMin int
}

// DefaultScoringConfig returns the operational defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		HailRadiusMiles:     8,
		WindRadiusMiles:     15,
		StormRadiusMiles:    20,
		HailMagnitudeCapIn:  2.0,
		WindMagnitudeCapMph: 70,
		NominalAlertScore:   0.3,
		SingleSourceFactor:  0.8,
		DualSourceFactor:    0.95,
		MultiSourceFactor:   1.0,
		HighConfidenceMin:   70,
		MediumConfidenceMin: 40,
	}
}

// RadiusForType returns the relevance radius in miles for an event type.
func (c ScoringConfig) RadiusForType(t domain.EventType) float64 {
	switch t {
	case domain.EventHail:
		return c.HailRadiusMiles
	case domain.EventWind:
		return c.WindRadiusMiles
	default:
		return c.StormRadiusMiles
	}
}

// CorroborationFactor maps a distinct-source count to a confidence multiplier.
func (c ScoringConfig) CorroborationFactor(sourceCount int) float64 {
	switch {
	case sourceCount <= 1:
		return c.SingleSourceFactor
	case sourceCount == 2:
		return c.DualSourceFactor
	default:
		return c.MultiSourceFactor
	}
}

// Band buckets a confidence percentage.
func (c ScoringConfig) Band(confidencePercent int) domain.ConfidenceBand {
	switch {
	case confidencePercent >= c.HighConfidenceMin:
		return domain.ConfidenceHigh
	case confidencePercent >= c.MediumConfidenceMin:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// Scorer converts canonical events into property-relative scored events.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer creates a Scorer.
func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the great-circle distance from the property to the event and
// the combined relevance score: a linear proximity decay that reaches exactly
// zero at the type's relevance radius, multiplied by the normalized magnitude,
// clamped to [0,1]. The input event is never mutated.
func (s *Scorer) Score(property domain.Geo, event domain.WeatherEvent) domain.ScoredEvent {
	distance := domain.HaversineMiles(property, event.Geo)

	proximity := math.Max(0, 1-distance/s.cfg.RadiusForType(event.Type))
	score := clamp01(proximity * s.magnitudeScore(event))

	return domain.ScoredEvent{
		WeatherEvent:  event,
		DistanceMiles: distance,
		Score:         score,
	}
}

// ScoreAll scores every event against the property, preserving input order.
func (s *Scorer) ScoreAll(property domain.Geo, events []domain.WeatherEvent) []domain.ScoredEvent {
	scored := make([]domain.ScoredEvent, len(events))
	for i, event := range events {
		scored[i] = s.Score(property, event)
	}
	return scored
}

// magnitudeScore normalizes the event magnitude against its type cap.
// Watch/warning/storm events carry no measurement and use the nominal value,
// as do the occasional unmeasured ground reports.
func (s *Scorer) magnitudeScore(event domain.WeatherEvent) float64 {
	if event.Magnitude == nil {
		return s.cfg.NominalAlertScore
	}
	switch event.Type {
	case domain.EventHail:
		return math.Min(*event.Magnitude/s.cfg.HailMagnitudeCapIn, 1)
	case domain.EventWind:
		return math.Min(*event.Magnitude/s.cfg.WindMagnitudeCapMph, 1)
	default:
		return s.cfg.NominalAlertScore
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
