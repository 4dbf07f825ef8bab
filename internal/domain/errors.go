package domain

import "errors"

// Error taxonomy for the correlation engine. Absence of events is not in this
// list: an empty window is a valid result, never an error.
var (
	// ErrSourceUnavailable marks an adapter that failed after its retry budget.
	// The pipeline continues with the remaining sources.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrInvalidLocation marks a property whose coordinates are missing or out
	// of range. The pipeline aborts for that property only.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrRateLimited marks upstream throttling. Adapters back off and retry;
	// exhaustion degrades to ErrSourceUnavailable.
	ErrRateLimited = errors.New("rate limited")
)
