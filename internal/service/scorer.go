package service

import (
	"math"

	"rentscout/internal/config"
	"rentscout/internal/model"
	"rentscout/internal/textnorm"
)

// Scorer computes a relevance score per candidate from weighted signals.
// Purely additive, unbounded below by penalties, no side effects.
type Scorer struct {
	w config.ScoringConfig
}

// NewScorer creates a new relevance scorer with the given weights
func NewScorer(weights config.ScoringConfig) *Scorer {
	return &Scorer{w: weights}
}

// Score computes the candidate's relevance, rounded to an integer for a
// stable, reproducible ordering.
func (s *Scorer) Score(c *model.ScoredCandidate, req *model.Requirement, userCtx *model.UserContext) int {
	total := 0.0

	total += s.personalization(c, userCtx)
	total += s.filterFit(c, &req.Explicit)
	total += s.commute(c)
	total += s.contextualNeeds(c, req.Needs)

	// A listing in the wrong city is effectively unusable no matter how
	// well everything else matches.
	if req.Explicit.City != nil && !textnorm.SameCity(c.Address.City, *req.Explicit.City) {
		total += float64(s.w.CityMismatchPenalty)
	}

	return int(math.Round(total))
}

func (s *Scorer) personalization(c *model.ScoredCandidate, userCtx *model.UserContext) float64 {
	if userCtx == nil {
		return 0
	}
	total := 0.0

	if userCtx.AveragePrice > 0 && c.Price != nil {
		deviation := math.Abs(*c.Price-userCtx.AveragePrice) / userCtx.AveragePrice
		switch {
		case deviation <= 0.10:
			total += float64(s.w.PriceSimilarityHigh)
		case deviation <= 0.20:
			total += float64(s.w.PriceSimilarityMid)
		case deviation <= 0.30:
			total += float64(s.w.PriceSimilarityLow)
		}
	}

	for _, fav := range userCtx.FavoriteDistricts {
		if textnorm.SameDistrict(c.Address.District, fav) {
			total += float64(s.w.FavoriteDistrict)
			break
		}
	}

	for _, fav := range userCtx.FavoriteAmenities {
		if hasAmenity(c.Amenities, fav) {
			total += float64(s.w.FavoriteAmenity)
		}
	}
	return total
}

func (s *Scorer) filterFit(c *model.ScoredCandidate, f *model.ExplicitFilters) float64 {
	total := 0.0

	if f.PriceMax != nil && c.Price != nil && *c.Price <= *f.PriceMax {
		if *c.Price <= 0.8**f.PriceMax {
			total += float64(s.w.PriceHeadroomWide)
		} else {
			total += float64(s.w.PriceHeadroomNarrow)
		}
	}

	for _, want := range f.Amenities {
		if hasAmenity(c.Amenities, want) {
			total += float64(s.w.AmenityMatch)
		}
	}
	return total
}

func (s *Scorer) commute(c *model.ScoredCandidate) float64 {
	total := 0.0

	if c.DistanceToWork != nil {
		switch {
		case *c.DistanceToWork <= 2:
			total += float64(s.w.DistanceBandNear)
		case *c.DistanceToWork <= 5:
			total += float64(s.w.DistanceBandMid)
		case *c.DistanceToWork <= 10:
			total += float64(s.w.DistanceBandFar)
		}
	}

	if c.DurationToWork != nil {
		minutes := float64(*c.DurationToWork) / 60
		switch {
		case minutes <= 15:
			total += float64(s.w.DurationBandNear)
		case minutes <= 25:
			total += float64(s.w.DurationBandMid)
		case minutes <= 35:
			total += float64(s.w.DurationBandFar)
		}
	}

	if c.DistanceFromUser != nil {
		switch {
		case *c.DistanceFromUser <= 1:
			total += float64(s.w.UserProximityNear)
		case *c.DistanceFromUser <= 3:
			total += float64(s.w.UserProximityMid)
		}
	}
	return total
}

// contextualNeeds maps each recognized need kind to the relevant area
// context signal using tiered thresholds. Dispatch is by kind; destination
// needs (school/office/landmark) are scored through the commute bands.
func (s *Scorer) contextualNeeds(c *model.ScoredCandidate, needs map[model.NeedKind]model.ContextualNeed) float64 {
	areaCtx := c.AreaContext
	if areaCtx == nil || len(needs) == 0 {
		return 0
	}

	weight := float64(s.w.NeedWeight)
	total := 0.0

	for kind := range needs {
		switch kind {
		case model.NeedSecurity:
			total += tiered(areaCtx.SecurityScore, 8, 6, 4, weight)
		case model.NeedTransport:
			total += tiered(areaCtx.TransportScore, 8, 6, 4, weight)
		case model.NeedBusiness:
			total += tiered(areaCtx.BusinessScore, 8, 6, 4, weight)
		case model.NeedQuiet:
			// noiseLevel is inverted: lower is quieter
			total += tiered(float64(11-areaCtx.NoiseLevel), 8, 6, 4, weight)
		case model.NeedDining:
			total += tiered(float64(areaCtx.RestaurantCount), 20, 10, 5, weight)
		case model.NeedEntertainment:
			total += tiered(float64(areaCtx.EntertainmentCount), 10, 5, 2, weight)
		case model.NeedSchool:
			total += tiered(float64(areaCtx.SchoolCount), 5, 3, 1, weight)
		case model.NeedOffice, model.NeedLandmark:
			// handled by the commute bands
		}
	}
	return total
}

// tiered returns the full weight, 60% or 30% of it at the three thresholds
func tiered(value, high, mid, low, weight float64) float64 {
	switch {
	case value >= high:
		return weight
	case value >= mid:
		return 0.6 * weight
	case value >= low:
		return 0.3 * weight
	}
	return 0
}
