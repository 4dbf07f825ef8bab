package domain

import "math"

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is a simple lat/lng rectangle used to scope feed queries.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// BBoxAround returns a square bounding box of radiusDeg degrees centered on
// the given point. Latitude bounds are clamped to the valid range.
func BBoxAround(lat, lng, radiusDeg float64) BoundingBox {
	return BoundingBox{
		MinLat: math.Max(lat-radiusDeg, -90),
		MaxLat: math.Min(lat+radiusDeg, 90),
		MinLng: lng - radiusDeg,
		MaxLng: lng + radiusDeg,
	}
}

// Contains reports whether the point lies inside the box (inclusive edges).
func (b BoundingBox) Contains(g Geo) bool {
	return g.Lat >= b.MinLat && g.Lat <= b.MaxLat &&
		g.Lng >= b.MinLng && g.Lng <= b.MaxLng
}

// earthRadiusMiles is the mean Earth radius.
const earthRadiusMiles = 3958.8

// HaversineMiles computes the great-circle distance between two points.
func HaversineMiles(a, b Geo) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}

// ValidCoordinates reports whether the pair is a plausible property location.
// (0,0) is rejected: it is the zero value of a missing geocode, not a place
// any tracked property occupies.
func ValidCoordinates(lat, lng float64) bool {
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
