// Package feed contains the source adapters that pull severe-weather events
// from external APIs and map them into canonical domain events.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
)

// Source is the adapter contract. Implementations perform network I/O only;
// they never persist anything. A failed source returns an error and the
// pipeline continues with the remaining feeds.
type Source interface {
	// Name identifies the feed in logs, metrics, and report metadata.
	Name() string

	// Fetch returns canonical events inside the bounding box between start and
	// end (UTC, start < end). Events the feed cannot map onto a known type are
	// skipped, not errored.
	Fetch(ctx context.Context, bbox domain.BoundingBox, start, end time.Time) ([]domain.WeatherEvent, error)
}

// ValidateWindow enforces the adapter precondition start < end.
func ValidateWindow(start, end time.Time) error {
	if !start.Before(end) {
		return fmt.Errorf("invalid window: start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}
