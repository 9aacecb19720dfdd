package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"rentscout/internal/model"
)

// ListingStore is the listing-storage collaborator consumed by the pipeline.
// The pipeline reads listings and, for enrichment, requests a patch write of
// the area context; all other mutation belongs elsewhere.
type ListingStore interface {
	GetAll(ctx context.Context) ([]model.Listing, error)
	GetByID(ctx context.Context, listingID int64) (*model.Listing, error)
	PatchAreaContext(ctx context.Context, listingID int64, areaCtx *model.AreaContext) error

	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]model.Listing, error)
	UpdateEmbedding(ctx context.Context, listingID int64, embedding []float32) error
	BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string)
}

// PreferenceStore is the user-preference source consumed for personalization
type PreferenceStore interface {
	FavoriteListingIDs(ctx context.Context, userID int64) ([]int64, error)
	Profile(ctx context.Context, userID int64) (*model.UserProfile, error)
}

// SearchLogStore records searches and feedback for later tuning
type SearchLogStore interface {
	LogSearch(ctx context.Context, searchID, query string, req *model.Requirement, resultCount int, listingIDs []int64, tookMs int) error
	LogFeedback(ctx context.Context, searchID string, listingID int64, action string) error
}

const listingColumns = `
	id, listing_id, title, price, area, address, latitude, longitude,
	amenities, area_context, created_at, updated_at`

// PostgresStore implements the storage interfaces on PostgreSQL
type PostgresStore struct {
	db *sqlx.DB
}

var (
	_ ListingStore    = (*PostgresStore)(nil)
	_ PreferenceStore = (*PostgresStore)(nil)
	_ SearchLogStore  = (*PostgresStore)(nil)
)

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(dsn string, maxConn, maxIdleConn int) (*PostgresStore, error) {
	// Disable prepared statement caching to avoid "unnamed prepared
	// statement does not exist" errors behind poolers
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// GetAll returns the full listing corpus
func (s *PostgresStore) GetAll(ctx context.Context) ([]model.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings ORDER BY updated_at DESC`, listingColumns)

	var listings []model.Listing
	if err := s.db.SelectContext(ctx, &listings, query); err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	return listings, nil
}

// GetByID retrieves a single listing, or nil when absent
func (s *PostgresStore) GetByID(ctx context.Context, listingID int64) (*model.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE listing_id = $1`, listingColumns)

	var listing model.Listing
	if err := s.db.GetContext(ctx, &listing, query, listingID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

// PatchAreaContext writes only the area context column, leaving the rest of
// the record to its owner.
func (s *PostgresStore) PatchAreaContext(ctx context.Context, listingID int64, areaCtx *model.AreaContext) error {
	query := `UPDATE listings SET area_context = $1, updated_at = NOW() WHERE listing_id = $2`
	if _, err := s.db.ExecContext(ctx, query, areaCtx, listingID); err != nil {
		return fmt.Errorf("failed to patch area context: %w", err)
	}
	return nil
}

// SearchSimilar orders listings by embedding cosine distance to the query
// embedding. Listings without embeddings are excluded.
func (s *PostgresStore) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]model.Listing, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM listings
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`, listingColumns)

	var listings []model.Listing
	if err := s.db.SelectContext(ctx, &listings, query, pgvector.NewVector(embedding), limit); err != nil {
		return nil, fmt.Errorf("failed to run similarity search: %w", err)
	}
	return listings, nil
}

// UpdateEmbedding updates the embedding vector for a listing
func (s *PostgresStore) UpdateEmbedding(ctx context.Context, listingID int64, embedding []float32) error {
	query := `UPDATE listings SET embedding = $1, updated_at = NOW() WHERE listing_id = $2`
	if _, err := s.db.ExecContext(ctx, query, pgvector.NewVector(embedding), listingID); err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	return nil
}

// BatchUpdateEmbeddings updates embeddings for multiple listings
func (s *PostgresStore) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	success := 0
	var errors []string

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		errors = append(errors, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errors
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE listings SET embedding = $1, updated_at = NOW() WHERE listing_id = $2`)
	if err != nil {
		errors = append(errors, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errors
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, pgvector.NewVector(item.Embedding), item.ListingID); err != nil {
			errors = append(errors, fmt.Sprintf("listing_id %d: %v", item.ListingID, err))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		errors = append(errors, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errors
	}

	return success, errors
}

// FavoriteListingIDs returns the listing IDs a user has saved
func (s *PostgresStore) FavoriteListingIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT listing_id FROM favorites WHERE user_id = $1 ORDER BY created_at DESC`

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to fetch favorites: %w", err)
	}
	return ids, nil
}

// Profile returns a user's stored profile, or nil when absent
func (s *PostgresStore) Profile(ctx context.Context, userID int64) (*model.UserProfile, error) {
	query := `SELECT user_id, lifestyle FROM user_profiles WHERE user_id = $1`

	var profile model.UserProfile
	if err := s.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// LogSearch logs a search invocation
func (s *PostgresStore) LogSearch(ctx context.Context, searchID, query string, req *model.Requirement, resultCount int, listingIDs []int64, tookMs int) error {
	insert := `
		INSERT INTO search_logs (search_id, query, requirement, result_count, returned_listing_ids, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, insert, searchID, query, jsonbArg{req}, resultCount, int64Array(listingIDs), tookMs); err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

// LogFeedback records user feedback against a logged search
func (s *PostgresStore) LogFeedback(ctx context.Context, searchID string, listingID int64, action string) error {
	update := `
		UPDATE search_logs
		SET clicked_listing_id = $2, action = $3
		WHERE search_id = $1
	`
	if _, err := s.db.ExecContext(ctx, update, searchID, listingID, action); err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	return nil
}
