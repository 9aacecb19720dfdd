package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"rentscout/internal/model"
	"rentscout/internal/repository"
	"rentscout/internal/textnorm"
)

// BuildUserContext derives the personalization hint from a user's saved
// listings and profile. Best effort: any storage failure yields nil and the
// search proceeds unpersonalized.
func BuildUserContext(ctx context.Context, store repository.ListingStore, prefs repository.PreferenceStore, userID int64, log *zap.Logger) *model.UserContext {
	favoriteIDs, err := prefs.FavoriteListingIDs(ctx, userID)
	if err != nil {
		log.Warn("failed to load favorites", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}

	userCtx := &model.UserContext{}

	if profile, err := prefs.Profile(ctx, userID); err == nil && profile != nil {
		userCtx.Lifestyle = profile.Lifestyle
	}

	if len(favoriteIDs) == 0 {
		if userCtx.Lifestyle == "" {
			return nil
		}
		return userCtx
	}

	var priceSum float64
	var priced int
	districtCounts := map[string]int{}
	amenityCounts := map[string]int{}

	for _, id := range favoriteIDs {
		listing, err := store.GetByID(ctx, id)
		if err != nil || listing == nil {
			continue
		}
		if listing.Price != nil {
			priceSum += *listing.Price
			priced++
		}
		if listing.Address.District != "" {
			districtCounts[textnorm.CanonicalDistrict(listing.Address.District)]++
		}
		for _, amenity := range listing.Amenities {
			amenityCounts[textnorm.Normalize(amenity)]++
		}
	}

	if priced > 0 {
		userCtx.AveragePrice = priceSum / float64(priced)
	}
	userCtx.FavoriteDistricts = topKeys(districtCounts, 3)

	// An amenity counts as a preference only when it recurs
	for amenity, count := range amenityCounts {
		if count >= 2 {
			userCtx.FavoriteAmenities = append(userCtx.FavoriteAmenities, amenity)
		}
	}
	sort.Strings(userCtx.FavoriteAmenities)

	return userCtx
}

// topKeys returns the n most frequent keys, ties broken alphabetically
func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
