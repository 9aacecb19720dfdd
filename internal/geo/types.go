package geo

// Coordinate is a WGS84 point
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PlaceResult represents one result from a nearby or text search
type PlaceResult struct {
	Name     string     `json:"name"`
	Address  string     `json:"address,omitempty"`
	Location Coordinate `json:"location"`
	Types    []string   `json:"types,omitempty"`
	Rating   float64    `json:"rating,omitempty"`
}

// Address is a reverse-geocoded postal address
type Address struct {
	Street    string `json:"street,omitempty"`
	Ward      string `json:"ward,omitempty"`
	District  string `json:"district,omitempty"`
	City      string `json:"city,omitempty"`
	Formatted string `json:"formatted,omitempty"`
}

// RouteStep is one leg instruction of a route
type RouteStep struct {
	Instruction string  `json:"instruction"`
	DistanceKm  float64 `json:"distance_km"`
	DurationSec int     `json:"duration_sec"`
}

// RoutePlan is the computed route between two coordinates. It is ephemeral:
// recomputed per request, never persisted.
type RoutePlan struct {
	DistanceKm  float64     `json:"distance_km"`
	DurationSec int         `json:"duration_sec"`
	Polyline    string      `json:"polyline,omitempty"`
	Steps       []RouteStep `json:"steps,omitempty"`
}
