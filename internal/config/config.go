package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL  PostgreSQLConfig
	Redis       RedisConfig
	Server      ServerConfig
	OpenAI      OpenAIConfig
	Maps        MapsConfig
	AreaContext AreaContextConfig
	Commute     CommuteConfig
	Scoring     ScoringConfig
	Search      SearchConfig
	Logging     LoggingConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// RedisConfig holds Redis configuration for the geo result cache
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
	Enabled  bool
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// OpenAIConfig holds configuration for the OpenAI-compatible LLM backend
type OpenAIConfig struct {
	APIKey              string
	APIBase             string
	ChatModel           string
	ChatTemperature     float64
	ChatMaxTokens       int
	EmbeddingModel      string
	EmbeddingDimensions int
	Timeout             int
	Enabled             bool
}

// MapsConfig holds configuration for the geospatial backend
type MapsConfig struct {
	APIKey   string
	APIBase  string
	Region   string
	Language string
	Timeout  int
	Enabled  bool
}

// AreaContextConfig controls the area context cache
type AreaContextConfig struct {
	RadiusKm      float64
	MaxResults    int
	StalenessDays int
	BatchDelay    time.Duration
	MaxConcurrent int
}

// CommuteConfig holds default commute validation budgets
type CommuteConfig struct {
	OfficeMaxDistanceKm   float64
	OfficeMaxTravelSec    int
	LandmarkMaxDistanceKm float64
	LandmarkMaxTravelSec  int
	MaxConcurrent         int
}

// ScoringConfig holds the relevance scorer weights. The constants are tuned
// empirically; treat them as configuration, not invariants.
type ScoringConfig struct {
	PriceSimilarityHigh int // deviation <= 10% of user's historical average
	PriceSimilarityMid  int // <= 20%
	PriceSimilarityLow  int // <= 30%
	FavoriteDistrict    int
	FavoriteAmenity     int
	PriceHeadroomWide   int // price <= 80% of requested max
	PriceHeadroomNarrow int // price <= max
	AmenityMatch        int
	DistanceBandNear    int // <= 2 km to destination
	DistanceBandMid     int // <= 5 km
	DistanceBandFar     int // <= 10 km
	DurationBandNear    int // <= 15 min
	DurationBandMid     int // <= 25 min
	DurationBandFar     int // <= 35 min
	UserProximityNear   int // <= 1 km from user
	UserProximityMid    int // <= 3 km
	NeedWeight          int
	CityMismatchPenalty int
}

// SearchConfig holds search-related configuration
type SearchConfig struct {
	ShortlistSize int // candidates re-validated by the finalizer
	ResultLimit   int // public result size
	DegradedSize  int // fallback slice when strict validation empties the set
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "rentscout"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvAsInt("REDIS_TTL_MINUTES", 60)) * time.Minute,
			Enabled:  getEnv("REDIS_ENABLED", "true") == "true",
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			APIBase:             getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:           getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature:     getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.2),
			ChatMaxTokens:       getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 2048),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 1536),
			Timeout:             getEnvAsInt("OPENAI_TIMEOUT", 20),
			Enabled:             getEnv("OPENAI_API_KEY", "") != "",
		},
		Maps: MapsConfig{
			APIKey:   getEnv("MAPS_API_KEY", ""),
			APIBase:  getEnv("MAPS_API_BASE", "https://maps.googleapis.com/maps/api"),
			Region:   getEnv("MAPS_REGION", "vn"),
			Language: getEnv("MAPS_LANGUAGE", "vi"),
			Timeout:  getEnvAsInt("MAPS_TIMEOUT", 10),
			Enabled:  getEnv("MAPS_API_KEY", "") != "",
		},
		AreaContext: AreaContextConfig{
			RadiusKm:      getEnvAsFloat("AREA_RADIUS_KM", 10),
			MaxResults:    getEnvAsInt("AREA_MAX_RESULTS", 50),
			StalenessDays: getEnvAsInt("AREA_STALENESS_DAYS", 30),
			BatchDelay:    time.Duration(getEnvAsInt("AREA_BATCH_DELAY_MS", 200)) * time.Millisecond,
			MaxConcurrent: getEnvAsInt("AREA_MAX_CONCURRENT", 5),
		},
		Commute: CommuteConfig{
			OfficeMaxDistanceKm:   getEnvAsFloat("COMMUTE_OFFICE_MAX_KM", 5),
			OfficeMaxTravelSec:    getEnvAsInt("COMMUTE_OFFICE_MAX_SEC", 1800),
			LandmarkMaxDistanceKm: getEnvAsFloat("COMMUTE_LANDMARK_MAX_KM", 3),
			LandmarkMaxTravelSec:  getEnvAsInt("COMMUTE_LANDMARK_MAX_SEC", 900),
			MaxConcurrent:         getEnvAsInt("COMMUTE_MAX_CONCURRENT", 5),
		},
		Scoring: DefaultScoring(),
		Search: SearchConfig{
			ShortlistSize: getEnvAsInt("SEARCH_SHORTLIST_SIZE", 20),
			ResultLimit:   getEnvAsInt("SEARCH_RESULT_LIMIT", 10),
			DegradedSize:  getEnvAsInt("SEARCH_DEGRADED_SIZE", 3),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// DefaultScoring returns the default relevance scorer weights
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		PriceSimilarityHigh: 15,
		PriceSimilarityMid:  10,
		PriceSimilarityLow:  5,
		FavoriteDistrict:    20,
		FavoriteAmenity:     3,
		PriceHeadroomWide:   20,
		PriceHeadroomNarrow: 10,
		AmenityMatch:        5,
		DistanceBandNear:    30,
		DistanceBandMid:     20,
		DistanceBandFar:     10,
		DurationBandNear:    40,
		DurationBandMid:     30,
		DurationBandFar:     15,
		UserProximityNear:   10,
		UserProximityMid:    5,
		NeedWeight:          10,
		CityMismatchPenalty: -100,
	}
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
