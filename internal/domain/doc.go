// Package domain models severe-weather events and the date-of-loss (DOL)
// artifacts derived from them.
//
// # Data Sources
//
// Events arrive from two independent feeds with different trust profiles:
//
//   - Alert feed: an official severe-weather advisory API (NWS-style GeoJSON).
//     Produces watch/warning/storm events for a region. Alerts describe forecast
//     or in-progress conditions and carry no measured magnitude.
//   - Ground reports: a local-storm-report network (IEM-style LSR API) of
//     stations and trained spotters. Produces hail and wind events with measured
//     magnitudes (hail diameter in inches, wind gust in mph).
//
// The two feeds are deliberately kept distinct through normalization: when both
// report the same physical storm, the overlap is treated as corroboration by the
// DOL selector rather than collapsed into one event.
//
// # Scoring Conventions
//
// Each event is scored against a property as
//
//	score = proximity x magnitude, clamped to [0,1]
//
// where proximity decays linearly to zero at a type-dependent relevance radius
// (hail damage is locally concentrated, wind fields are broader) and magnitude
// is normalized against a type-dependent cap. Watch/warning events carry no
// measured magnitude and use a fixed nominal value. All radii, caps, and the
// confidence curve are configuration, not constants.
//
// # Hail Damage Classification
//
// Hail damage severity is a function of both measured size and distance from
// the property, with inclusive boundaries:
//
//	severe:   >=1.75in within 2mi
//	moderate: >=1.00in within 5mi
//	minor:    >=0.50in within 8mi
//	trace:    everything else
//
// 1.75in is golf-ball hail, the size at which asphalt shingle damage becomes
// likely in impact testing.
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of source|native-id. This makes
// normalization idempotent: refetching the same window yields the same IDs, so
// exact duplicates collapse and persisted results are replay safe. See
// [GenerateEventID].
package domain
