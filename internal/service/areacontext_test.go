package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rentscout/internal/config"
	"rentscout/internal/geo"
	"rentscout/internal/model"
)

// fakeGeo serves canned geo responses for pipeline tests
type fakeGeo struct {
	places     []geo.PlaceResult
	placesErr  error
	textPlaces []geo.PlaceResult
	textErr    error
	address    *geo.Address
	addressErr error
	routes     map[int64]*geo.RoutePlan // keyed by rounded origin latitude microdegrees
	route      *geo.RoutePlan
	routeErr   error

	nearbyCalls int
	routeCalls  int
}

func (f *fakeGeo) NearbySearch(ctx context.Context, center geo.Coordinate, radiusKm float64, maxResults int) ([]geo.PlaceResult, error) {
	f.nearbyCalls++
	return f.places, f.placesErr
}

func (f *fakeGeo) SearchText(ctx context.Context, query string, bias *geo.Coordinate, maxResults int) ([]geo.PlaceResult, error) {
	return f.textPlaces, f.textErr
}

func (f *fakeGeo) ReverseGeocode(ctx context.Context, c geo.Coordinate) (*geo.Address, error) {
	return f.address, f.addressErr
}

func (f *fakeGeo) Route(ctx context.Context, origin, dest geo.Coordinate) (*geo.RoutePlan, error) {
	f.routeCalls++
	if f.routes != nil {
		if plan, ok := f.routes[int64(math.Round(origin.Latitude*1e6))]; ok {
			return plan, nil
		}
	}
	return f.route, f.routeErr
}

// fakeStore is an in-memory ListingStore
type fakeStore struct {
	listings   []model.Listing
	getAllErr  error
	patched    map[int64]*model.AreaContext
	patchErr   error
	similar    []model.Listing
	similarErr error
}

func newFakeStore(listings ...model.Listing) *fakeStore {
	return &fakeStore{listings: listings, patched: map[int64]*model.AreaContext{}}
}

func (f *fakeStore) GetAll(ctx context.Context) ([]model.Listing, error) {
	return f.listings, f.getAllErr
}

func (f *fakeStore) GetByID(ctx context.Context, listingID int64) (*model.Listing, error) {
	for i := range f.listings {
		if f.listings[i].ListingID == listingID {
			return &f.listings[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) PatchAreaContext(ctx context.Context, listingID int64, areaCtx *model.AreaContext) error {
	if f.patchErr != nil {
		return f.patchErr
	}
	f.patched[listingID] = areaCtx
	return nil
}

func (f *fakeStore) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]model.Listing, error) {
	return f.similar, f.similarErr
}

func (f *fakeStore) UpdateEmbedding(ctx context.Context, listingID int64, embedding []float32) error {
	return nil
}

func (f *fakeStore) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	return len(items), nil
}

func testAreaConfig() config.AreaContextConfig {
	return config.AreaContextConfig{
		RadiusKm:      10,
		MaxResults:    50,
		StalenessDays: 30,
		BatchDelay:    time.Millisecond,
		MaxConcurrent: 5,
	}
}

func locListing(id int64, lat, lng float64) model.Listing {
	return model.Listing{
		ID:        id,
		ListingID: id,
		Latitude:  &lat,
		Longitude: &lng,
	}
}

func place(name string, types ...string) geo.PlaceResult {
	return geo.PlaceResult{Name: name, Types: types}
}

func TestAreaContext_BuildScores(t *testing.T) {
	g := &fakeGeo{places: []geo.PlaceResult{
		place("Công an phường 5", "police"),
		place("Ngân hàng ACB", "bank"),
		place("Chợ Bà Chiểu", "market"),
		place("Bến xe buýt số 8", "bus_station"),
		place("Trạm xe buýt Lê Lợi", "bus_station"),
		place("Ga metro Bến Thành", "subway_station"),
		place("Quán ăn cô Ba", "restaurant"),
		place("Trường tiểu học Lê Văn Tám", "school"),
		place("Karaoke Vip 79", "karaoke"),
	}}
	svc := NewAreaContextService(g, newFakeStore(), testAreaConfig(), zap.NewNop())

	listing := locListing(1, 10.78, 106.70)
	got := svc.Ensure(context.Background(), &listing)
	require.NotNil(t, got)

	// one police, one bank, one market: 2*1 + 0.5 + 0.3 + presence bonus 5
	assert.InDelta(t, 7.8, got.SecurityScore, 0.01)
	// three transit stops: 1.5*3 + density bonus 3
	assert.InDelta(t, 7.5, got.TransportScore, 0.01)
	assert.Equal(t, 0.0, got.BusinessScore)

	assert.Equal(t, 1, got.RestaurantCount)
	assert.Equal(t, 1, got.SchoolCount)
	assert.Equal(t, 3, got.TransportCount)
	assert.Equal(t, 1, got.EntertainmentCount)
	// 10 - 1 entertainment - 3 transit
	assert.Equal(t, 6, got.NoiseLevel)
	assert.False(t, got.LastEnriched.IsZero())
}

func TestAreaContext_ScoresClamped(t *testing.T) {
	var dense []geo.PlaceResult
	for i := 0; i < 20; i++ {
		dense = append(dense,
			place("Công an", "police"),
			place("Karaoke", "karaoke"),
			place("Bến xe", "bus_station"))
	}
	g := &fakeGeo{places: dense}
	svc := NewAreaContextService(g, newFakeStore(), testAreaConfig(), zap.NewNop())

	listing := locListing(1, 10.78, 106.70)
	got := svc.Ensure(context.Background(), &listing)
	require.NotNil(t, got)

	assert.Equal(t, 10.0, got.SecurityScore)
	assert.Equal(t, 10.0, got.TransportScore)
	// Noise floors at 1 no matter how loud the area
	assert.Equal(t, 1, got.NoiseLevel)
}

func TestAreaContext_FreshEntryNotRefetched(t *testing.T) {
	g := &fakeGeo{places: []geo.PlaceResult{place("Quán ăn", "restaurant")}}
	svc := NewAreaContextService(g, newFakeStore(), testAreaConfig(), zap.NewNop())

	listing := locListing(1, 10.78, 106.70)
	listing.AreaContext = &model.AreaContext{
		RestaurantCount: 7,
		LastEnriched:    time.Now().Add(-24 * time.Hour),
	}

	got := svc.Ensure(context.Background(), &listing)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.RestaurantCount)
	assert.Equal(t, 0, g.nearbyCalls)
}

func TestAreaContext_StaleEntryRefetched(t *testing.T) {
	g := &fakeGeo{places: []geo.PlaceResult{place("Quán ăn", "restaurant")}}
	store := newFakeStore()
	svc := NewAreaContextService(g, store, testAreaConfig(), zap.NewNop())

	listing := locListing(1, 10.78, 106.70)
	listing.AreaContext = &model.AreaContext{
		RestaurantCount: 7,
		LastEnriched:    time.Now().Add(-31 * 24 * time.Hour),
	}

	got := svc.Ensure(context.Background(), &listing)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.RestaurantCount)
	assert.Equal(t, 1, g.nearbyCalls)
	// Refresh writes the new context back through the store
	assert.Contains(t, store.patched, int64(1))
}

func TestAreaContext_EnrichmentFailureReturnsNil(t *testing.T) {
	g := &fakeGeo{placesErr: errors.New("quota exceeded")}
	svc := NewAreaContextService(g, newFakeStore(), testAreaConfig(), zap.NewNop())

	listing := locListing(1, 10.78, 106.70)
	assert.Nil(t, svc.Ensure(context.Background(), &listing))
}

func TestAreaContext_NoCoordinates(t *testing.T) {
	g := &fakeGeo{places: []geo.PlaceResult{place("Quán ăn", "restaurant")}}
	svc := NewAreaContextService(g, newFakeStore(), testAreaConfig(), zap.NewNop())

	listing := model.Listing{ID: 1, ListingID: 1}
	assert.Nil(t, svc.Ensure(context.Background(), &listing))
	assert.Equal(t, 0, g.nearbyCalls)
}

func TestAreaContext_WriteBackFailureStillReturnsContext(t *testing.T) {
	g := &fakeGeo{places: []geo.PlaceResult{place("Quán ăn", "restaurant")}}
	store := newFakeStore()
	store.patchErr = errors.New("db down")
	svc := NewAreaContextService(g, store, testAreaConfig(), zap.NewNop())

	listing := locListing(1, 10.78, 106.70)
	got := svc.Ensure(context.Background(), &listing)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.RestaurantCount)
}

func TestAreaContext_RefreshAllSkipsFresh(t *testing.T) {
	fresh := locListing(1, 10.78, 106.70)
	fresh.AreaContext = &model.AreaContext{LastEnriched: time.Now().Add(-24 * time.Hour)}
	stale := locListing(2, 10.79, 106.71)
	stale.AreaContext = &model.AreaContext{LastEnriched: time.Now().Add(-60 * 24 * time.Hour)}
	noCoords := model.Listing{ID: 3, ListingID: 3}

	g := &fakeGeo{places: []geo.PlaceResult{place("Quán ăn", "restaurant")}}
	store := newFakeStore(fresh, stale, noCoords)
	svc := NewAreaContextService(g, store, testAreaConfig(), zap.NewNop())

	report, err := svc.RefreshAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.RefreshedCount)
	assert.Equal(t, 2, report.SkippedCount)
	assert.Contains(t, store.patched, int64(2))
	assert.NotContains(t, store.patched, int64(1))
}

func TestAreaContext_RefreshAllForce(t *testing.T) {
	fresh := locListing(1, 10.78, 106.70)
	fresh.AreaContext = &model.AreaContext{LastEnriched: time.Now().Add(-time.Hour)}

	g := &fakeGeo{places: []geo.PlaceResult{place("Quán ăn", "restaurant")}}
	store := newFakeStore(fresh)
	svc := NewAreaContextService(g, store, testAreaConfig(), zap.NewNop())

	report, err := svc.RefreshAll(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.RefreshedCount)
	assert.Equal(t, 0, report.SkippedCount)
}

func TestAreaContext_RefreshAllContinuesPastFailures(t *testing.T) {
	g := &fakeGeo{placesErr: errors.New("quota exceeded")}
	store := newFakeStore(locListing(1, 10.78, 106.70), locListing(2, 10.79, 106.71))
	svc := NewAreaContextService(g, store, testAreaConfig(), zap.NewNop())

	report, err := svc.RefreshAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.RefreshedCount)
	assert.Equal(t, 2, report.SkippedCount)
}

func TestAreaContext_EnsureAll(t *testing.T) {
	g := &fakeGeo{places: []geo.PlaceResult{place("Quán ăn", "restaurant")}}
	svc := NewAreaContextService(g, newFakeStore(), testAreaConfig(), zap.NewNop())

	listings := []model.Listing{
		locListing(1, 10.78, 106.70),
		locListing(2, 10.79, 106.71),
		{ID: 3, ListingID: 3},
	}
	svc.EnsureAll(context.Background(), listings)

	assert.NotNil(t, listings[0].AreaContext)
	assert.NotNil(t, listings[1].AreaContext)
	assert.Nil(t, listings[2].AreaContext)
}
