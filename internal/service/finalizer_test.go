package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rentscout/internal/config"
	"rentscout/internal/geo"
	"rentscout/internal/model"
)

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		ShortlistSize: 20,
		ResultLimit:   10,
		DegradedSize:  3,
	}
}

func newTestFinalizer(g *fakeGeo) *Finalizer {
	commute := NewCommuteValidator(g, testCommuteConfig(), zap.NewNop())
	return NewFinalizer(commute, g, testSearchConfig(), zap.NewNop())
}

func scoredSet(n int) []model.ScoredCandidate {
	out := make([]model.ScoredCandidate, 0, n)
	for i := 1; i <= n; i++ {
		c := candidate(int64(i), 10.78, 106.70)
		c.RelevanceScore = i
		out = append(out, c)
	}
	return out
}

func TestSortByScore(t *testing.T) {
	a := candidate(5, 10.78, 106.70)
	a.RelevanceScore = 50
	b := candidate(2, 10.78, 106.70)
	b.RelevanceScore = 80
	c := candidate(1, 10.78, 106.70)
	c.RelevanceScore = 50

	set := []model.ScoredCandidate{a, b, c}
	SortByScore(set)

	assert.Equal(t, int64(2), set[0].ListingID)
	// Equal scores order by listing ID
	assert.Equal(t, int64(1), set[1].ListingID)
	assert.Equal(t, int64(5), set[2].ListingID)
}

func TestFinalize_SortsAndTruncates(t *testing.T) {
	f := newTestFinalizer(&fakeGeo{})
	req := &model.Requirement{}

	got, degraded := f.Finalize(context.Background(), scoredSet(15), req, nil, nil)

	assert.False(t, degraded)
	require.Len(t, got, 10)
	assert.Equal(t, 15, got[0].RelevanceScore)
	assert.Equal(t, 6, got[9].RelevanceScore)
}

func TestFinalize_CommuteRecheck(t *testing.T) {
	g := &fakeGeo{route: &geo.RoutePlan{DistanceKm: 6, DurationSec: 1200}}
	f := newTestFinalizer(g)
	req := &model.Requirement{}
	dest := &geo.Coordinate{Latitude: 10.77, Longitude: 106.69}
	budget := &Budget{MaxDistanceKm: 5, MaxTravelTimeSec: 1800}

	// Every candidate routes outside the budget; a non-empty input must
	// still yield results, marked degraded.
	got, degraded := f.Finalize(context.Background(), scoredSet(8), req, dest, budget)

	assert.True(t, degraded)
	require.Len(t, got, 3)
	assert.Equal(t, 8, got[0].RelevanceScore)
}

func TestFinalize_CityDriftDropped(t *testing.T) {
	g := &fakeGeo{address: &geo.Address{City: "Bình Dương"}}
	f := newTestFinalizer(g)
	city := "Hồ Chí Minh"
	req := &model.Requirement{Explicit: model.ExplicitFilters{City: &city}}

	got, degraded := f.Finalize(context.Background(), scoredSet(5), req, nil, nil)

	// All candidates geocode to the wrong city, so the degraded fallback kicks in
	assert.True(t, degraded)
	assert.Len(t, got, 3)
}

func TestFinalize_GeocoderFailureKeepsCandidates(t *testing.T) {
	g := &fakeGeo{addressErr: errors.New("geocoder down")}
	f := newTestFinalizer(g)
	city := "Hồ Chí Minh"
	req := &model.Requirement{Explicit: model.ExplicitFilters{City: &city}}

	got, degraded := f.Finalize(context.Background(), scoredSet(5), req, nil, nil)

	assert.False(t, degraded)
	assert.Len(t, got, 5)
}

func TestFinalize_MatchingCityKept(t *testing.T) {
	g := &fakeGeo{address: &geo.Address{City: "Sài Gòn"}}
	f := newTestFinalizer(g)
	city := "Hồ Chí Minh"
	req := &model.Requirement{Explicit: model.ExplicitFilters{City: &city}}

	got, degraded := f.Finalize(context.Background(), scoredSet(4), req, nil, nil)

	assert.False(t, degraded)
	assert.Len(t, got, 4)
}

func TestFinalize_EmptyInput(t *testing.T) {
	f := newTestFinalizer(&fakeGeo{})
	req := &model.Requirement{}

	got, degraded := f.Finalize(context.Background(), nil, req, nil, nil)

	assert.False(t, degraded)
	assert.Empty(t, got)
}
