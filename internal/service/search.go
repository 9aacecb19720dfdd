package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rentscout/internal/config"
	"rentscout/internal/geo"
	"rentscout/internal/model"
	"rentscout/internal/repository"
)

// SearchService runs the search and recommendation pipeline: interpret,
// filter, enrich, validate commute, score, finalize. It is request-scoped
// and stateless between invocations except for the area context cache.
type SearchService struct {
	store       repository.ListingStore
	prefs       repository.PreferenceStore
	logs        repository.SearchLogStore
	interpreter *Interpreter
	areaCtx     *AreaContextService
	commute     *CommuteValidator
	scorer      *Scorer
	finalizer   *Finalizer
	geo         geo.Client
	ai          AIClient
	cfg         config.SearchConfig
	log         *zap.Logger
}

// NewSearchService creates a new search service
func NewSearchService(
	store repository.ListingStore,
	prefs repository.PreferenceStore,
	logs repository.SearchLogStore,
	interpreter *Interpreter,
	areaCtx *AreaContextService,
	commute *CommuteValidator,
	scorer *Scorer,
	finalizer *Finalizer,
	geoClient geo.Client,
	ai AIClient,
	cfg config.SearchConfig,
	log *zap.Logger,
) *SearchService {
	return &SearchService{
		store:       store,
		prefs:       prefs,
		logs:        logs,
		interpreter: interpreter,
		areaCtx:     areaCtx,
		commute:     commute,
		scorer:      scorer,
		finalizer:   finalizer,
		geo:         geoClient,
		ai:          ai,
		cfg:         cfg,
		log:         log,
	}
}

// Search runs the full pipeline for one query. The only error it returns is
// an unavailable listing store; every other failure degrades gracefully.
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	startTime := time.Now()

	var userCtx *model.UserContext
	if req.UserID != nil {
		userCtx = BuildUserContext(ctx, s.store, s.prefs, *req.UserID, s.log)
	}

	requirement := s.interpreter.Interpret(ctx, req.Query, userCtx)

	listings, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing store unavailable: %w", err)
	}

	candidates := FilterCandidates(listings, requirement.Explicit)
	totalFound := len(candidates)

	s.areaCtx.EnsureAll(ctx, candidates)

	scored := s.toCandidates(candidates, req.UserLocation)

	dest, destNeed := s.resolveDestination(ctx, requirement, req.UserLocation)

	degraded := false
	var budget *Budget
	if dest != nil {
		b := s.commute.BudgetFor(destNeed)
		budget = &b
		validated := s.commute.Validate(ctx, scored, *dest, b)
		if len(validated) == 0 && len(scored) > 0 {
			// Strict pass emptied the set; relax to the unfiltered
			// slice rather than returning nothing.
			s.log.Warn("commute validation emptied candidate set, relaxing",
				zap.String("query", req.Query))
			degraded = true
		} else {
			scored = validated
		}
	}

	for i := range scored {
		scored[i].RelevanceScore = s.scorer.Score(&scored[i], requirement, userCtx)
	}
	s.semanticBoost(ctx, req.Query, scored)

	var recommendations []model.ScoredCandidate
	if degraded {
		SortByScore(scored)
		recommendations = scored
		if len(recommendations) > s.cfg.ResultLimit {
			recommendations = recommendations[:s.cfg.ResultLimit]
		}
	} else {
		var finalDegraded bool
		recommendations, finalDegraded = s.finalizer.Finalize(ctx, scored, requirement, dest, budget)
		degraded = finalDegraded
	}

	took := time.Since(startTime).Milliseconds()
	searchID := uuid.NewString()

	// Log asynchronously; search logging must never slow a response
	go func() {
		ids := make([]int64, len(recommendations))
		for i, r := range recommendations {
			ids[i] = r.ListingID
		}
		logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.logs.LogSearch(logCtx, searchID, req.Query, requirement, totalFound, ids, int(took)); err != nil {
			s.log.Debug("search log failed", zap.Error(err))
		}
	}()

	return &model.SearchResponse{
		Explanation:     s.explain(requirement, degraded),
		Recommendations: recommendations,
		TotalFound:      totalFound,
		Degraded:        degraded,
		Requirement:     requirement,
		Took:            took,
	}, nil
}

// RefreshAreaContext runs a batch refresh pass over the corpus
func (s *SearchService) RefreshAreaContext(ctx context.Context, forceAll bool) (*model.RefreshReport, error) {
	return s.areaCtx.RefreshAll(ctx, forceAll)
}

// GetListing retrieves a single listing by ID
func (s *SearchService) GetListing(ctx context.Context, listingID int64) (*model.Listing, error) {
	return s.store.GetByID(ctx, listingID)
}

// UpdateEmbeddings updates embeddings for multiple listings
func (s *SearchService) UpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	return s.store.BatchUpdateEmbeddings(ctx, items)
}

// LogFeedback records user feedback against a previous search
func (s *SearchService) LogFeedback(ctx context.Context, searchID string, listingID int64, action string) error {
	return s.logs.LogFeedback(ctx, searchID, listingID, action)
}

// toCandidates wraps filtered listings with the per-search transient fields
func (s *SearchService) toCandidates(listings []model.Listing, userLoc *model.Location) []model.ScoredCandidate {
	scored := make([]model.ScoredCandidate, 0, len(listings))
	for _, listing := range listings {
		candidate := model.ScoredCandidate{Listing: listing}
		if userLoc != nil {
			if coords := listing.Coordinates(); coords != nil {
				d := geo.Haversine(
					geo.Coordinate{Latitude: userLoc.Latitude, Longitude: userLoc.Longitude},
					geo.Coordinate{Latitude: coords.Latitude, Longitude: coords.Longitude},
				)
				candidate.DistanceFromUser = &d
			}
		}
		scored = append(scored, candidate)
	}
	return scored
}

// resolveDestination resolves the first destination-style need (office,
// school, landmark) to a coordinate. With multiple place candidates and a
// known user location the nearest wins, otherwise the first result.
func (s *SearchService) resolveDestination(ctx context.Context, req *model.Requirement, userLoc *model.Location) (*geo.Coordinate, *model.ContextualNeed) {
	for _, kind := range []model.NeedKind{model.NeedOffice, model.NeedSchool, model.NeedLandmark} {
		need, ok := req.Needs[kind]
		if !ok || need.Place == "" {
			continue
		}

		var bias *geo.Coordinate
		if userLoc != nil {
			bias = &geo.Coordinate{Latitude: userLoc.Latitude, Longitude: userLoc.Longitude}
		}

		query := need.Place
		if req.Explicit.City != nil {
			query += ", " + *req.Explicit.City
		}

		places, err := s.geo.SearchText(ctx, query, bias, 5)
		if err != nil || len(places) == 0 {
			s.log.Warn("destination resolution failed",
				zap.String("place", need.Place), zap.Error(err))
			continue
		}

		chosen := geo.Nearest(places, bias)
		return &chosen.Location, &need
	}
	return nil, nil
}

// semanticBoost nudges candidates that rank high in embedding similarity to
// the query. Best effort: without an LLM backend or embeddings it is a no-op.
func (s *SearchService) semanticBoost(ctx context.Context, query string, scored []model.ScoredCandidate) {
	if s.ai == nil || !s.ai.IsEnabled() || len(scored) == 0 {
		return
	}

	embeddings, err := s.ai.CreateEmbeddings(ctx, []string{query})
	if err != nil || len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return
	}

	similar, err := s.store.SearchSimilar(ctx, embeddings[0], 50)
	if err != nil {
		s.log.Debug("similarity search failed", zap.Error(err))
		return
	}

	rank := make(map[int64]int, len(similar))
	for i, listing := range similar {
		rank[listing.ListingID] = i
	}

	for i := range scored {
		if pos, ok := rank[scored[i].ListingID]; ok {
			switch {
			case pos < 10:
				scored[i].RelevanceScore += 8
			case pos < 25:
				scored[i].RelevanceScore += 4
			default:
				scored[i].RelevanceScore += 2
			}
		}
	}
}

func (s *SearchService) explain(req *model.Requirement, degraded bool) string {
	explanation := req.AISummary
	if explanation == "" {
		explanation = "Kết quả phù hợp với yêu cầu của bạn"
	}
	if degraded {
		explanation += " (kết quả nới lỏng: không đủ phòng thỏa mọi điều kiện khoảng cách)"
	}
	return explanation
}
