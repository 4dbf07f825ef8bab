package pipeline

import (
	"sort"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
)

// Normalize merges per-source adapter outputs into one ordered list of
// canonical events. Exact duplicates (same source + same feed-native id)
// collapse; cross-source overlap is deliberately preserved so the DOL
// selector can treat it as corroboration. Events with missing or invalid
// location or time are dropped and counted as rejected.
//
// Output order is by occurrence time then ID, so identical inputs always
// produce an identical list regardless of map iteration order.
func Normalize(listsBySource map[domain.Source][]domain.WeatherEvent) (events []domain.WeatherEvent, rejected int) {
	seen := make(map[string]struct{})

	for source, list := range listsBySource {
		for _, event := range list {
			if !event.Type.Valid() || event.OccurredAt.IsZero() ||
				!domain.ValidCoordinates(event.Geo.Lat, event.Geo.Lng) {
				rejected++
				continue
			}

			if event.ID == "" {
				event.ID = domain.GenerateEventID(source, event.Type, event.NativeID)
			}
			if _, dup := seen[event.ID]; dup {
				continue
			}
			seen[event.ID] = struct{}{}

			event.Source = source
			event.OccurredAt = event.OccurredAt.UTC()
			events = append(events, event)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].OccurredAt.Equal(events[j].OccurredAt) {
			return events[i].OccurredAt.Before(events[j].OccurredAt)
		}
		return events[i].ID < events[j].ID
	})

	return events, rejected
}
