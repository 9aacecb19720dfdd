package geo

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the backend has no result for a query.
var ErrNotFound = errors.New("geo: no result")

// Client is the geospatial backend consumed by the pipeline. All calls are
// idempotent and side-effect-free; implementations must apply their own
// request timeouts so no call blocks indefinitely.
type Client interface {
	// NearbySearch returns up to maxResults points of interest within
	// radiusKm of center.
	NearbySearch(ctx context.Context, center Coordinate, radiusKm float64, maxResults int) ([]PlaceResult, error)

	// SearchText resolves a free-text place name to candidate places,
	// optionally biased toward a coordinate.
	SearchText(ctx context.Context, query string, bias *Coordinate, maxResults int) ([]PlaceResult, error)

	// ReverseGeocode resolves a coordinate to a postal address.
	ReverseGeocode(ctx context.Context, c Coordinate) (*Address, error)

	// Route computes a route between two coordinates.
	Route(ctx context.Context, origin, dest Coordinate) (*RoutePlan, error)
}
