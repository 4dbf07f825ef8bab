package pipeline

import (
	"math"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
)

// SelectDOL picks the most probable date of loss from the daily aggregates.
// Returns nil when no aggregates exist; the recommendation is never fabricated
// from aggregate math alone, its date and primary event always belong to a
// real event in the window.
//
// Candidates are every date whose TopScore equals the window maximum.
// Tie-break order: more distinct sources (stronger corroboration), then the
// most recent date. Confidence is monotonic in both TopScore and the
// corroboration count, with a single source capped below full confidence.
func SelectDOL(aggregates []domain.DailyAggregate, cfg ScoringConfig) *domain.DOLRecommendation {
	if len(aggregates) == 0 {
		return nil
	}

	maxScore := aggregates[0].TopScore
	for _, agg := range aggregates[1:] {
		if agg.TopScore > maxScore {
			maxScore = agg.TopScore
		}
	}

	var best domain.DailyAggregate
	found := false
	for _, agg := range aggregates {
		if agg.TopScore != maxScore {
			continue
		}
		if !found || betterCandidate(agg, best) {
			best = agg
			found = true
		}
	}

	// Aggregates always contain at least one event, ordered score-desc.
	primary := best.Events[0]

	factor := cfg.CorroborationFactor(len(best.SourcesRepresented))
	confidence := int(math.Round(100 * best.TopScore * factor))

	return &domain.DOLRecommendation{
		Date:                 best.Date,
		ConfidencePercent:    confidence,
		PrimaryEvent:         primary,
		CorroboratingSources: best.SourcesRepresented,
	}
}

// betterCandidate reports whether a beats b under the tie-break rules.
func betterCandidate(a, b domain.DailyAggregate) bool {
	if len(a.SourcesRepresented) != len(b.SourcesRepresented) {
		return len(a.SourcesRepresented) > len(b.SourcesRepresented)
	}
	return a.Date.After(b.Date)
}
