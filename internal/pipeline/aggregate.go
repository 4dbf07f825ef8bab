package pipeline

import (
	"sort"
	"time"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
)

// Aggregate groups scored events by UTC calendar date and reduces each date
// to a single severity signal. TopScore is the max of the day's scores, not a
// sum: ten reports of the same storm say nothing stronger than the best one.
// Events dated outside [start, end] are excluded. Output is sorted by date
// ascending, events within a day by score descending then ID.
func Aggregate(scored []domain.ScoredEvent, start, end time.Time) []domain.DailyAggregate {
	byDate := make(map[time.Time][]domain.ScoredEvent)
	for _, event := range scored {
		if event.OccurredAt.Before(start) || event.OccurredAt.After(end) {
			continue
		}
		date := dateOf(event.OccurredAt)
		byDate[date] = append(byDate[date], event)
	}

	aggregates := make([]domain.DailyAggregate, 0, len(byDate))
	for date, events := range byDate {
		sort.Slice(events, func(i, j int) bool {
			if events[i].Score != events[j].Score {
				return events[i].Score > events[j].Score
			}
			return events[i].ID < events[j].ID
		})

		sourceSet := make(map[domain.Source]struct{})
		topScore := 0.0
		for _, event := range events {
			sourceSet[event.Source] = struct{}{}
			if event.Score > topScore {
				topScore = event.Score
			}
		}

		aggregates = append(aggregates, domain.DailyAggregate{
			Date:               date,
			TopScore:           topScore,
			EventCount:         len(events),
			Events:             events,
			SourcesRepresented: sortedSources(sourceSet),
		})
	}

	sort.Slice(aggregates, func(i, j int) bool {
		return aggregates[i].Date.Before(aggregates[j].Date)
	})
	return aggregates
}

// dateOf truncates an instant to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func sortedSources(set map[domain.Source]struct{}) []domain.Source {
	sources := make([]domain.Source, 0, len(set))
	for s := range set {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}
