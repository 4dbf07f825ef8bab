package pipeline

import (
	"fmt"
	"sort"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
)

// Assembler packages scored events, the DOL recommendation, and summary
// statistics into the WeatherIntel structure consumed downstream. Pure
// function of its inputs apart from the GeneratedAt timestamp, which comes
// from the injected package clock.
type Assembler struct {
	cfg ScoringConfig
}

// NewAssembler creates an Assembler.
func NewAssembler(cfg ScoringConfig) *Assembler {
	return &Assembler{cfg: cfg}
}

// Assemble builds the final output for one property run. failedSources names
// feeds that were unavailable; a non-empty list marks the result degraded.
func (a *Assembler) Assemble(
	property domain.TrackedProperty,
	aggregates []domain.DailyAggregate,
	rec *domain.DOLRecommendation,
	sourcesUsed []string,
	failedSources []string,
	window Window,
) domain.WeatherIntel {
	intel := domain.WeatherIntel{
		Address:       property.Address,
		Lat:           property.Lat,
		Lng:           property.Lng,
		Timeline:      []domain.TimelineEntry{},
		RadarImages:   []string{},
		Disclaimers:   disclaimers(),
		Sources:       sourcesUsed,
		FailedSources: failedSources,
		Degraded:      len(failedSources) > 0,
		GeneratedAt:   clock.Now().UTC(),
		DaysSearched:  window.Days,
	}

	for _, agg := range aggregates {
		intel.EventCount += agg.EventCount
		for _, event := range agg.Events {
			a.fold(&intel, event)
		}
	}

	// Timeline entries come out chronological: aggregates are date-ordered,
	// but within a day events are score-ordered, so re-sort by time.
	sortTimeline(intel.Timeline)

	if rec != nil {
		date := rec.Date
		band := a.cfg.Band(rec.ConfidencePercent)
		intel.RecommendedDOL = &date
		intel.DOLConfidence = &band
	}

	return intel
}

// fold accumulates one scored event into the summaries, the timeline, and the
// storm window bounds. Zero-score events (outside their relevance radius or
// with no magnitude signal) are counted but not narrated.
func (a *Assembler) fold(intel *domain.WeatherIntel, event domain.ScoredEvent) {
	if event.Score <= 0 {
		return
	}

	occurred := event.OccurredAt
	if intel.StormWindowStart == nil || occurred.Before(*intel.StormWindowStart) {
		t := occurred
		intel.StormWindowStart = &t
	}
	if intel.StormWindowEnd == nil || occurred.After(*intel.StormWindowEnd) {
		t := occurred
		intel.StormWindowEnd = &t
	}

	entry := domain.TimelineEntry{
		Time:  occurred,
		Label: timelineLabel(event),
		Type:  event.Type,
	}
	if event.Magnitude != nil {
		m := *event.Magnitude
		entry.Magnitude = &m
	}
	d := event.DistanceMiles
	entry.DistanceMiles = &d

	switch event.Type {
	case domain.EventHail:
		intel.Hail.NearbyReports++
		if event.Magnitude != nil {
			size := *event.Magnitude
			if size > intel.Hail.MaxSizeInches {
				intel.Hail.MaxSizeInches = size
			}
			entry.Severity = domain.ClassifyHailDamage(size, event.DistanceMiles)
		}
		if intel.Hail.NearestReportDistanceMiles == nil || event.DistanceMiles < *intel.Hail.NearestReportDistanceMiles {
			dist := event.DistanceMiles
			intel.Hail.NearestReportDistanceMiles = &dist
		}
		if intel.Hail.LastReportDate == nil || occurred.After(*intel.Hail.LastReportDate) {
			t := occurred
			intel.Hail.LastReportDate = &t
		}

	case domain.EventWind:
		intel.Wind.GustEvents++
		if event.Magnitude != nil && *event.Magnitude > intel.Wind.MaxGustMph {
			intel.Wind.MaxGustMph = *event.Magnitude
		}
		if intel.Wind.LastEventDate == nil || occurred.After(*intel.Wind.LastEventDate) {
			t := occurred
			intel.Wind.LastEventDate = &t
		}
	}

	intel.Timeline = append(intel.Timeline, entry)
}

func timelineLabel(event domain.ScoredEvent) string {
	if event.Label != "" {
		if event.Magnitude != nil {
			switch event.Type {
			case domain.EventHail:
				return fmt.Sprintf("%s: %.2fin", event.Label, *event.Magnitude)
			case domain.EventWind:
				return fmt.Sprintf("%s: %.0fmph gust", event.Label, *event.Magnitude)
			}
		}
		return event.Label
	}
	return string(event.Type)
}

func sortTimeline(entries []domain.TimelineEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})
}

func disclaimers() []string {
	return []string{
		"Weather data reflects feed contents at generation time and may lag ground observations.",
		"Storm reports and alerts are observational signals; they do not establish damage or coverage.",
		"Distances are great-circle estimates from the property coordinates.",
	}
}
