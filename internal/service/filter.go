package service

import (
	"rentscout/internal/model"
	"rentscout/internal/textnorm"
)

// FilterCandidates narrows the corpus to listings matching every explicit
// filter. Pure and deterministic: no I/O, and filtering an already-filtered
// set with the same filters returns the same set.
func FilterCandidates(listings []model.Listing, f model.ExplicitFilters) []model.Listing {
	matched := make([]model.Listing, 0, len(listings))
	for _, listing := range listings {
		if matchesFilters(&listing, &f) {
			matched = append(matched, listing)
		}
	}
	return matched
}

func matchesFilters(l *model.Listing, f *model.ExplicitFilters) bool {
	if f.PriceMin != nil && (l.Price == nil || *l.Price < *f.PriceMin) {
		return false
	}
	if f.PriceMax != nil && (l.Price == nil || *l.Price > *f.PriceMax) {
		return false
	}
	if f.AreaMin != nil && (l.Area == nil || *l.Area < *f.AreaMin) {
		return false
	}
	if f.AreaMax != nil && (l.Area == nil || *l.Area > *f.AreaMax) {
		return false
	}
	if f.City != nil && !textnorm.SameCity(l.Address.City, *f.City) {
		return false
	}
	if f.District != nil && !textnorm.SameDistrict(l.Address.District, *f.District) {
		return false
	}

	// Every requested amenity must be a case-insensitive substring of some
	// listing amenity; a listing with no amenities fails any amenity filter.
	for _, want := range f.Amenities {
		if !hasAmenity(l.Amenities, want) {
			return false
		}
	}
	return true
}

func hasAmenity(amenities []string, want string) bool {
	for _, have := range amenities {
		if textnorm.ContainsFold(have, want) {
			return true
		}
	}
	return false
}
