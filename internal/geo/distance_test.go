package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine(t *testing.T) {
	// One degree of latitude is about 111.2 km on a 6371 km sphere
	d := Haversine(Coordinate{Latitude: 0, Longitude: 0}, Coordinate{Latitude: 1, Longitude: 0})
	assert.InDelta(t, 111.19, d, 0.1)

	same := Coordinate{Latitude: 10.78, Longitude: 106.70}
	assert.Equal(t, 0.0, Haversine(same, same))

	// Symmetric
	a := Coordinate{Latitude: 10.7725, Longitude: 106.6980}
	b := Coordinate{Latitude: 10.8700, Longitude: 106.8030}
	assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-9)

	// Ben Thanh market to central Thu Duc is roughly 15-16 km
	d = Haversine(a, b)
	assert.Greater(t, d, 14.0)
	assert.Less(t, d, 17.0)
}

func TestNearest(t *testing.T) {
	results := []PlaceResult{
		{Name: "far", Location: Coordinate{Latitude: 10.90, Longitude: 106.90}},
		{Name: "near", Location: Coordinate{Latitude: 10.78, Longitude: 106.70}},
		{Name: "mid", Location: Coordinate{Latitude: 10.82, Longitude: 106.75}},
	}
	origin := Coordinate{Latitude: 10.78, Longitude: 106.70}

	got := Nearest(results, &origin)
	require.NotNil(t, got)
	assert.Equal(t, "near", got.Name)

	// Without an origin the first result wins
	got = Nearest(results, nil)
	require.NotNil(t, got)
	assert.Equal(t, "far", got.Name)

	assert.Nil(t, Nearest(nil, &origin))
}
