package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
)

// Address is a listing's postal address
type Address struct {
	Street   string `json:"street,omitempty"`
	Ward     string `json:"ward,omitempty"`
	District string `json:"district,omitempty"`
	City     string `json:"city,omitempty"`
}

// Location is a listing's coordinate
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Listing represents a rental listing. Identity is immutable; price, area,
// address and amenities are owned by the listing store and only read here.
// The attached AreaContext is the one field the pipeline writes back, as a
// patch through the store.
type Listing struct {
	ID          int64           `json:"id" db:"id"`
	ListingID   int64           `json:"listing_id" db:"listing_id"`
	Title       *string         `json:"title,omitempty" db:"title"`
	Price       *float64        `json:"price,omitempty" db:"price"`
	Area        *float64        `json:"area,omitempty" db:"area"`
	Address     AddressField    `json:"address" db:"address"`
	Location    *Location       `json:"location,omitempty" db:"-"`
	Latitude    *float64        `json:"-" db:"latitude"`
	Longitude   *float64        `json:"-" db:"longitude"`
	Amenities   JSONArray       `json:"amenities,omitempty" db:"amenities"`
	AreaContext *AreaContext    `json:"area_context,omitempty" db:"area_context"`
	Embedding   pgvector.Vector `json:"-" db:"embedding"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Coordinates returns the listing location, resolving from the flat
// latitude/longitude columns when needed.
func (l *Listing) Coordinates() *Location {
	if l.Location != nil {
		return l.Location
	}
	if l.Latitude != nil && l.Longitude != nil {
		return &Location{Latitude: *l.Latitude, Longitude: *l.Longitude}
	}
	return nil
}

// AreaContext is the cached neighborhood summary for one listing, keyed by
// listing ID and regenerated when older than the staleness window.
type AreaContext struct {
	RestaurantCount    int       `json:"restaurant_count"`
	SchoolCount        int       `json:"school_count"`
	TransportCount     int       `json:"transport_count"`
	EntertainmentCount int       `json:"entertainment_count"`
	BusinessCount      int       `json:"business_count"`
	SecurityScore      float64   `json:"security_score"`  // 0-10
	TransportScore     float64   `json:"transport_score"` // 0-10
	BusinessScore      float64   `json:"business_score"`  // 0-10
	NoiseLevel         int       `json:"noise_level"`     // 1-10, lower is quieter
	LastEnriched       time.Time `json:"last_enriched"`
}

// Stale reports whether the context is older than the given window
func (a *AreaContext) Stale(window time.Duration) bool {
	return time.Since(a.LastEnriched) > window
}

// Value implements driver.Valuer so AreaContext persists as JSONB
func (a *AreaContext) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner
func (a *AreaContext) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("unsupported area_context type %T", value)
		}
		bytes = []byte(s)
	}
	return json.Unmarshal(bytes, a)
}

// ScoredCandidate is a Listing augmented with transient per-search fields.
// It exists only within one search invocation.
type ScoredCandidate struct {
	Listing
	DistanceToWork   *float64 `json:"distance_to_work,omitempty"`   // km
	DurationToWork   *int     `json:"duration_to_work,omitempty"`   // seconds
	DistanceFromUser *float64 `json:"distance_from_user,omitempty"` // km
	RelevanceScore   int      `json:"relevance_score"`
}

// UserProfile is the stored per-user preference record
type UserProfile struct {
	UserID    int64  `json:"user_id" db:"user_id"`
	Lifestyle string `json:"lifestyle,omitempty" db:"lifestyle"`
}

// UserContext is the personalization hint derived from a user's saved
// listings, consumed by the interpreter and scorer.
type UserContext struct {
	AveragePrice      float64  `json:"average_price,omitempty"`
	FavoriteDistricts []string `json:"favorite_districts,omitempty"`
	FavoriteAmenities []string `json:"favorite_amenities,omitempty"`
	Lifestyle         string   `json:"lifestyle,omitempty"`
}

// JSONArray represents a JSON array field
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}

// AddressField is an Address persisted as JSONB
type AddressField struct {
	Address
}

// Value implements driver.Valuer interface
func (f AddressField) Value() (driver.Value, error) {
	return json.Marshal(f.Address)
}

// Scan implements sql.Scanner interface
func (f *AddressField) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), &f.Address)
	}
	return json.Unmarshal(bytes, &f.Address)
}
