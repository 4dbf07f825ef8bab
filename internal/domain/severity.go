package domain

// DamageSeverity labels the likely roof/siding damage from a hail report at a
// given distance. Used for report narration only; DOL selection ignores it.
type DamageSeverity string

const (
	SeveritySevere   DamageSeverity = "severe"
	SeverityModerate DamageSeverity = "moderate"
	SeverityMinor    DamageSeverity = "minor"
	SeverityTrace    DamageSeverity = "trace"
)

// ClassifyHailDamage maps hail size and distance from the property to a
// damage severity label. Boundaries are inclusive: 1.75in at exactly 2.0mi
// still classifies as severe.
func ClassifyHailDamage(magnitudeInches, distanceMiles float64) DamageSeverity {
	switch {
	case magnitudeInches >= 1.75 && distanceMiles <= 2:
		return SeveritySevere
	case magnitudeInches >= 1.0 && distanceMiles <= 5:
		return SeverityModerate
	case magnitudeInches >= 0.5 && distanceMiles <= 8:
		return SeverityMinor
	default:
		return SeverityTrace
	}
}
