package geo

import (
	"github.com/golang/geo/s2"
)

// Earth's mean radius
const (
	EarthRadiusKm = 6371.0
)

// Haversine returns the great-circle distance between two coordinates in
// kilometers on a 6371 km sphere.
func Haversine(a, b Coordinate) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// Nearest returns the place in results closest to the origin, or the first
// result when origin is nil. Returns nil for an empty result set.
func Nearest(results []PlaceResult, origin *Coordinate) *PlaceResult {
	if len(results) == 0 {
		return nil
	}
	if origin == nil {
		return &results[0]
	}

	best := 0
	bestDist := Haversine(*origin, results[0].Location)
	for i := 1; i < len(results); i++ {
		d := Haversine(*origin, results[i].Location)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return &results[best]
}
