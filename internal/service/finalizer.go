package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"rentscout/internal/config"
	"rentscout/internal/geo"
	"rentscout/internal/model"
	"rentscout/internal/textnorm"
)

// Finalizer re-validates the top candidates and applies final ordering and
// limits. Re-running the commute and address checks on the shortlist catches
// drift between stored records and reality before results go out.
type Finalizer struct {
	commute *CommuteValidator
	geo     geo.Client
	cfg     config.SearchConfig
	log     *zap.Logger
}

// NewFinalizer creates a new result finalizer
func NewFinalizer(commute *CommuteValidator, geoClient geo.Client, cfg config.SearchConfig, log *zap.Logger) *Finalizer {
	return &Finalizer{commute: commute, geo: geoClient, cfg: cfg, log: log}
}

// Finalize sorts by score, strictly re-validates the head of the list, and
// truncates to the public result size. When strict validation empties a
// non-empty set it falls back to the top unvalidated candidates — a
// documented degraded mode, not silent data loss.
func (f *Finalizer) Finalize(ctx context.Context, scored []model.ScoredCandidate, req *model.Requirement, dest *geo.Coordinate, budget *Budget) ([]model.ScoredCandidate, bool) {
	SortByScore(scored)

	shortlist := scored
	if len(shortlist) > f.cfg.ShortlistSize {
		shortlist = shortlist[:f.cfg.ShortlistSize]
	}

	validated := shortlist
	if dest != nil && budget != nil {
		validated = f.commute.Validate(ctx, validated, *dest, *budget)
	}
	if req.Explicit.City != nil {
		validated = f.recheckCity(ctx, validated, *req.Explicit.City)
	}

	if len(validated) == 0 && len(scored) > 0 {
		f.log.Warn("strict finalization emptied the result set, returning unvalidated fallback",
			zap.Int("candidates", len(scored)))
		degraded := scored
		if len(degraded) > f.cfg.DegradedSize {
			degraded = degraded[:f.cfg.DegradedSize]
		}
		return degraded, true
	}

	if len(validated) > f.cfg.ResultLimit {
		validated = validated[:f.cfg.ResultLimit]
	}
	return validated, false
}

// recheckCity reverse-geocodes each candidate and drops those whose
// normalized city no longer matches the requested one. A geocoder failure
// keeps the candidate: the stored address already passed the filter.
func (f *Finalizer) recheckCity(ctx context.Context, candidates []model.ScoredCandidate, city string) []model.ScoredCandidate {
	kept := make([]model.ScoredCandidate, 0, len(candidates))
	for i := range candidates {
		coords := candidates[i].Coordinates()
		if coords == nil {
			kept = append(kept, candidates[i])
			continue
		}

		addr, err := f.geo.ReverseGeocode(ctx, geo.Coordinate{
			Latitude:  coords.Latitude,
			Longitude: coords.Longitude,
		})
		if err != nil {
			f.log.Debug("address recheck failed, keeping candidate",
				zap.Int64("listing_id", candidates[i].ListingID), zap.Error(err))
			kept = append(kept, candidates[i])
			continue
		}

		if addr.City != "" && !textnorm.SameCity(addr.City, city) {
			f.log.Debug("address drift, dropping candidate",
				zap.Int64("listing_id", candidates[i].ListingID),
				zap.String("geocoded_city", addr.City))
			continue
		}
		kept = append(kept, candidates[i])
	}
	return kept
}

// SortByScore orders candidates by descending score, breaking ties by
// listing ID so ordering is reproducible.
func SortByScore(candidates []model.ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RelevanceScore != candidates[j].RelevanceScore {
			return candidates[i].RelevanceScore > candidates[j].RelevanceScore
		}
		return candidates[i].ListingID < candidates[j].ListingID
	})
}
