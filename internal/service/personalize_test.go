package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rentscout/internal/model"
)

// fakePrefs is an in-memory PreferenceStore
type fakePrefs struct {
	favorites    []int64
	favoritesErr error
	profile      *model.UserProfile
}

func (f *fakePrefs) FavoriteListingIDs(ctx context.Context, userID int64) ([]int64, error) {
	return f.favorites, f.favoritesErr
}

func (f *fakePrefs) Profile(ctx context.Context, userID int64) (*model.UserProfile, error) {
	return f.profile, nil
}

func TestBuildUserContext(t *testing.T) {
	store := newFakeStore(
		makeListing(1, 2_000_000, 20, "Hồ Chí Minh", "Quận 2", "wifi", "máy lạnh"),
		makeListing(2, 3_000_000, 22, "Hồ Chí Minh", "Thủ Đức", "wifi"),
		makeListing(3, 2_500_000, 18, "Hồ Chí Minh", "Bình Thạnh", "gác"),
	)
	prefs := &fakePrefs{
		favorites: []int64{1, 2, 3},
		profile:   &model.UserProfile{UserID: 7, Lifestyle: "student"},
	}

	got := BuildUserContext(context.Background(), store, prefs, 7, zap.NewNop())
	require.NotNil(t, got)

	assert.InDelta(t, 2_500_000, got.AveragePrice, 1)
	assert.Equal(t, "student", got.Lifestyle)

	// Quận 2 and Thủ Đức collapse to the merged district, making it the
	// most frequent
	require.NotEmpty(t, got.FavoriteDistricts)
	assert.Equal(t, "thu duc", got.FavoriteDistricts[0])

	// wifi appears twice, everything else once
	assert.Equal(t, []string{"wifi"}, got.FavoriteAmenities)
}

func TestBuildUserContext_StorageFailure(t *testing.T) {
	store := newFakeStore()
	prefs := &fakePrefs{favoritesErr: errors.New("db down")}

	assert.Nil(t, BuildUserContext(context.Background(), store, prefs, 7, zap.NewNop()))
}

func TestBuildUserContext_NoFavoritesNoProfile(t *testing.T) {
	store := newFakeStore()
	prefs := &fakePrefs{}

	assert.Nil(t, BuildUserContext(context.Background(), store, prefs, 7, zap.NewNop()))
}

func TestBuildUserContext_ProfileOnly(t *testing.T) {
	store := newFakeStore()
	prefs := &fakePrefs{profile: &model.UserProfile{UserID: 7, Lifestyle: "worker"}}

	got := BuildUserContext(context.Background(), store, prefs, 7, zap.NewNop())
	require.NotNil(t, got)
	assert.Equal(t, "worker", got.Lifestyle)
	assert.Zero(t, got.AveragePrice)
}
