package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rentscout/internal/config"
	"rentscout/internal/geo"
	"rentscout/internal/model"
)

// Budget is the distance/time envelope a commute must fit
type Budget struct {
	MaxDistanceKm    float64
	MaxTravelTimeSec int
}

// CommuteValidator rejects candidates outside a distance/time budget from
// the inferred destination.
type CommuteValidator struct {
	geo geo.Client
	cfg config.CommuteConfig
	log *zap.Logger
}

// NewCommuteValidator creates a new commute validator
func NewCommuteValidator(geoClient geo.Client, cfg config.CommuteConfig, log *zap.Logger) *CommuteValidator {
	return &CommuteValidator{geo: geoClient, cfg: cfg, log: log}
}

// BudgetFor picks the defaults for the need that produced the destination:
// landmark-style needs get the stricter budget, work/office commutes the
// looser one. Explicit numeric overrides in the need replace the defaults.
func (v *CommuteValidator) BudgetFor(need *model.ContextualNeed) Budget {
	budget := Budget{
		MaxDistanceKm:    v.cfg.OfficeMaxDistanceKm,
		MaxTravelTimeSec: v.cfg.OfficeMaxTravelSec,
	}
	if need != nil && need.Kind == model.NeedLandmark {
		budget.MaxDistanceKm = v.cfg.LandmarkMaxDistanceKm
		budget.MaxTravelTimeSec = v.cfg.LandmarkMaxTravelSec
	}
	if need != nil {
		if need.MaxDistance != nil {
			budget.MaxDistanceKm = *need.MaxDistance
		}
		if need.MaxTravelTime != nil {
			budget.MaxTravelTimeSec = *need.MaxTravelTime
		}
	}
	return budget
}

// Validate routes each candidate to the destination concurrently and keeps
// those within budget, annotated with distance and duration. A per-candidate
// route failure excludes that candidate but never aborts the batch.
func (v *CommuteValidator) Validate(ctx context.Context, candidates []model.ScoredCandidate, dest geo.Coordinate, budget Budget) []model.ScoredCandidate {
	keep := make([]bool, len(candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.MaxConcurrent)

	for i := range candidates {
		idx := i
		g.Go(func() error {
			coords := candidates[idx].Coordinates()
			if coords == nil {
				return nil
			}

			plan, err := v.geo.Route(gctx, geo.Coordinate{
				Latitude:  coords.Latitude,
				Longitude: coords.Longitude,
			}, dest)
			if err != nil {
				v.log.Debug("route failed, excluding candidate",
					zap.Int64("listing_id", candidates[idx].ListingID), zap.Error(err))
				return nil
			}

			if plan.DistanceKm > budget.MaxDistanceKm || plan.DurationSec > budget.MaxTravelTimeSec {
				return nil
			}

			mu.Lock()
			distance := plan.DistanceKm
			duration := plan.DurationSec
			candidates[idx].DistanceToWork = &distance
			candidates[idx].DurationToWork = &duration
			keep[idx] = true
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	validated := make([]model.ScoredCandidate, 0, len(candidates))
	for i, ok := range keep {
		if ok {
			validated = append(validated, candidates[i])
		}
	}
	return validated
}
