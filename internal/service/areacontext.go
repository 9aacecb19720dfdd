package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"rentscout/internal/config"
	"rentscout/internal/geo"
	"rentscout/internal/model"
	"rentscout/internal/repository"
	"rentscout/internal/textnorm"
)

// AreaContextService maintains the per-listing neighborhood cache. The cache
// lives on the listing record and is refreshed when older than the staleness
// window; re-deriving it from the same inputs is idempotent, so a redundant
// duplicate enrichment is race-safe without locks.
type AreaContextService struct {
	geo   geo.Client
	store repository.ListingStore
	cfg   config.AreaContextConfig
	log   *zap.Logger
}

// NewAreaContextService creates a new area context service
func NewAreaContextService(geoClient geo.Client, store repository.ListingStore, cfg config.AreaContextConfig, log *zap.Logger) *AreaContextService {
	return &AreaContextService{geo: geoClient, store: store, cfg: cfg, log: log}
}

// poiBucket names one category of nearby points of interest
type poiBucket int

const (
	bucketDining poiBucket = iota
	bucketEducation
	bucketSecurity
	bucketFinancial
	bucketRetail
	bucketTransit
	bucketEntertainment
	bucketBusiness
	bucketCount
)

// bucketKeywords classifies a place by testing its category tags and name.
// The lists are heuristic; the shape (tiered thresholds, capped scores)
// matters more than the exact membership.
var bucketKeywords = map[poiBucket][]string{
	bucketDining:        {"restaurant", "cafe", "food", "bakery", "meal", "quan an", "nha hang", "com", "pho"},
	bucketEducation:     {"school", "university", "college", "education", "truong", "dai hoc", "hoc vien"},
	bucketSecurity:      {"police", "hospital", "clinic", "health", "cong an", "benh vien", "tram y te"},
	bucketFinancial:     {"bank", "atm", "finance", "ngan hang"},
	bucketRetail:        {"supermarket", "shopping_mall", "market", "store", "convenience", "cho", "sieu thi", "cua hang"},
	bucketTransit:       {"bus_station", "transit_station", "train_station", "subway_station", "ben xe", "nha ga", "tram xe"},
	bucketEntertainment: {"night_club", "bar", "karaoke", "movie_theater", "amusement", "rap phim", "quan bar"},
	bucketBusiness:      {"office", "company", "coworking", "corporate", "cong ty", "van phong", "toa nha"},
}

// Ensure returns the listing's area context, enriching on a cache miss or a
// stale entry. Enrichment failures return nil; the caller proceeds without
// context and scoring simply omits contextual bonuses.
func (s *AreaContextService) Ensure(ctx context.Context, listing *model.Listing) *model.AreaContext {
	if listing.AreaContext != nil && !listing.AreaContext.Stale(s.stalenessWindow()) {
		return listing.AreaContext
	}

	enriched, err := s.Refresh(ctx, listing, false)
	if err != nil {
		s.log.Warn("area context enrichment failed",
			zap.Int64("listing_id", listing.ListingID), zap.Error(err))
		return nil
	}
	return enriched
}

// Refresh re-derives the area context from a nearby search and patches it
// onto the listing record. With force=false a fresh entry is returned as-is.
func (s *AreaContextService) Refresh(ctx context.Context, listing *model.Listing, force bool) (*model.AreaContext, error) {
	if !force && listing.AreaContext != nil && !listing.AreaContext.Stale(s.stalenessWindow()) {
		return listing.AreaContext, nil
	}

	coords := listing.Coordinates()
	if coords == nil {
		return nil, fmt.Errorf("listing %d has no coordinates", listing.ListingID)
	}

	results, err := s.geo.NearbySearch(ctx, geo.Coordinate{
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
	}, s.cfg.RadiusKm, s.cfg.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("nearby search failed: %w", err)
	}

	areaCtx := s.buildContext(results)

	if err := s.store.PatchAreaContext(ctx, listing.ListingID, areaCtx); err != nil {
		// The derived context is still usable this request even if the
		// write-back failed.
		s.log.Warn("area context write-back failed",
			zap.Int64("listing_id", listing.ListingID), zap.Error(err))
	}

	listing.AreaContext = areaCtx
	return areaCtx, nil
}

// EnsureAll enriches every candidate concurrently with bounded fan-out.
// Per-listing failures leave that candidate without context.
func (s *AreaContextService) EnsureAll(ctx context.Context, listings []model.Listing) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)

	for i := range listings {
		idx := i
		g.Go(func() error {
			listings[idx].AreaContext = s.Ensure(gctx, &listings[idx])
			return nil
		})
	}
	_ = g.Wait()
}

// RefreshAll iterates the corpus and refreshes any missing or stale context.
// Calls are serialized behind a rate limiter to respect upstream quotas, and
// no per-item failure aborts the pass.
func (s *AreaContextService) RefreshAll(ctx context.Context, force bool) (*model.RefreshReport, error) {
	listings, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	limiter := rate.NewLimiter(rate.Every(s.cfg.BatchDelay), 1)
	report := &model.RefreshReport{Total: len(listings)}

	for i := range listings {
		listing := &listings[i]

		if listing.Coordinates() == nil {
			report.SkippedCount++
			continue
		}
		if !force && listing.AreaContext != nil && !listing.AreaContext.Stale(s.stalenessWindow()) {
			report.SkippedCount++
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return report, err
		}

		if _, err := s.Refresh(ctx, listing, true); err != nil {
			s.log.Warn("batch refresh item failed",
				zap.Int64("listing_id", listing.ListingID), zap.Error(err))
			report.SkippedCount++
			continue
		}
		report.RefreshedCount++
	}

	s.log.Info("area context refresh pass complete",
		zap.Int("refreshed", report.RefreshedCount),
		zap.Int("skipped", report.SkippedCount),
		zap.Int("total", report.Total))
	return report, nil
}

// buildContext buckets nearby places and derives the context scores
func (s *AreaContextService) buildContext(results []geo.PlaceResult) *model.AreaContext {
	var counts [bucketCount]int
	for _, place := range results {
		for bucket, keywords := range bucketKeywords {
			if matchesBucket(place, keywords) {
				counts[bucket]++
			}
		}
	}

	security := float64(counts[bucketSecurity])
	financial := float64(counts[bucketFinancial])
	crowd := float64(counts[bucketRetail])
	transit := float64(counts[bucketTransit])
	business := float64(counts[bucketBusiness])

	securityScore := 2*security + 0.5*financial + 0.3*crowd
	if security > 0 {
		securityScore += 5
	}
	transportScore := 1.5 * transit
	if transit > 2 {
		transportScore += 3
	}
	businessScore := 1.2 * business
	if business > 3 {
		businessScore += 4
	}

	noise := 10 - counts[bucketEntertainment] - counts[bucketTransit]
	if noise < 1 {
		noise = 1
	}

	return &model.AreaContext{
		RestaurantCount:    counts[bucketDining],
		SchoolCount:        counts[bucketEducation],
		TransportCount:     counts[bucketTransit],
		EntertainmentCount: counts[bucketEntertainment],
		BusinessCount:      counts[bucketBusiness],
		SecurityScore:      clampScore(securityScore),
		TransportScore:     clampScore(transportScore),
		BusinessScore:      clampScore(businessScore),
		NoiseLevel:         noise,
		LastEnriched:       time.Now(),
	}
}

func (s *AreaContextService) stalenessWindow() time.Duration {
	return time.Duration(s.cfg.StalenessDays) * 24 * time.Hour
}

func matchesBucket(place geo.PlaceResult, keywords []string) bool {
	for _, kw := range keywords {
		for _, tag := range place.Types {
			if textnorm.ContainsFold(tag, kw) {
				return true
			}
		}
		if textnorm.ContainsFold(place.Name, kw) {
			return true
		}
	}
	return false
}

func clampScore(v float64) float64 {
	return math.Min(10, math.Max(0, v))
}
