// Package geo provides the geodesic primitives shared by the checkout
// calculators: coordinates, great-circle distance and city resolution.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Haversine returns the great-circle distance between two coordinates in
// kilometres. The result is symmetric and zero for identical points.
// Coordinates are not range-checked; out-of-range values propagate into the
// formula unchanged.
func Haversine(origin, dest Coordinate) float64 {
	dLat := toRad(dest.Lat - origin.Lat)
	dLng := toRad(dest.Lng - origin.Lng)

	lat1 := toRad(origin.Lat)
	lat2 := toRad(dest.Lat)

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Pow(math.Sin(dLng/2), 2)*math.Cos(lat1)*math.Cos(lat2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
