package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"rentscout/internal/config"
	"rentscout/internal/geo"
	"rentscout/internal/handler"
	"rentscout/internal/logger"
	"rentscout/internal/repository"
	"rentscout/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	log.Info("starting rentscout",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	gin.SetMode(cfg.Server.GinMode)

	store, err := repository.NewPostgresStore(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer store.Close()
	log.Info("connected to PostgreSQL")

	// Geo backend, with an optional Redis cache in front
	var geoClient geo.Client = geo.NewGoogleClient(&cfg.Maps, log)
	if !cfg.Maps.Enabled {
		log.Warn("maps backend disabled, commute validation and area context will degrade")
	}
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unreachable, geo caching disabled", zap.Error(err))
			rdb = nil
		}
		cancel()
	}
	if rdb != nil {
		defer rdb.Close()
		geoClient = geo.NewCachedClient(geoClient, rdb, cfg.Redis.TTL, log)
		log.Info("geo result cache enabled", zap.String("redis", cfg.Redis.Address))
	}

	var aiClient service.AIClient
	if cfg.OpenAI.Enabled {
		aiClient = service.NewOpenAIClient(&cfg.OpenAI, log)
		log.Info("LLM backend initialized",
			zap.String("api_base", cfg.OpenAI.APIBase),
			zap.String("chat_model", cfg.OpenAI.ChatModel),
			zap.String("embedding_model", cfg.OpenAI.EmbeddingModel))
	} else {
		log.Warn("LLM backend disabled, falling back to rule-based query parsing")
	}

	interpreter := service.NewInterpreter(aiClient, service.NewRuleParser(), log)
	areaCtx := service.NewAreaContextService(geoClient, store, cfg.AreaContext, log)
	commute := service.NewCommuteValidator(geoClient, cfg.Commute, log)
	scorer := service.NewScorer(cfg.Scoring)
	finalizer := service.NewFinalizer(commute, geoClient, cfg.Search, log)

	searchService := service.NewSearchService(
		store, store, store,
		interpreter, areaCtx, commute, scorer, finalizer,
		geoClient, aiClient, cfg.Search, log,
	)
	log.Info("services initialized")

	// Nightly refresh keeps area context within the staleness window
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()
		report, err := searchService.RefreshAreaContext(ctx, false)
		if err != nil {
			log.Error("scheduled area context refresh failed", zap.Error(err))
			return
		}
		log.Info("scheduled area context refresh done",
			zap.Int("refreshed", report.RefreshedCount),
			zap.Int("skipped", report.SkippedCount),
			zap.Int("total", report.Total))
	}); err != nil {
		log.Fatal("failed to schedule area context refresh", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	searchHandler := handler.NewSearchHandler(searchService)
	embeddingHandler := handler.NewEmbeddingHandler(searchService)
	feedbackHandler := handler.NewFeedbackHandler(searchService)
	maintenanceHandler := handler.NewMaintenanceHandler(searchService)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "rentscout",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/search", searchHandler.Search)
		apiV1.GET("/listings/:id", searchHandler.GetListing)
		apiV1.POST("/embeddings/batch", embeddingHandler.BatchUpdate)
		apiV1.POST("/feedback", feedbackHandler.Submit)
		apiV1.POST("/area-context/refresh", maintenanceHandler.RefreshAreaContext)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
