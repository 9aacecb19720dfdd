package model

// SearchRequest represents a search query request
type SearchRequest struct {
	Query        string    `json:"query" binding:"required"`
	UserLocation *Location `json:"user_location,omitempty"`
	UserID       *int64    `json:"user_id,omitempty"`
}

// SearchResponse represents a search result response
type SearchResponse struct {
	Explanation     string            `json:"explanation"`
	Recommendations []ScoredCandidate `json:"recommendations"`
	TotalFound      int               `json:"total_found"`

	// Degraded marks a relaxed, unfiltered fallback result set returned
	// when strict validation would otherwise have yielded zero candidates.
	Degraded bool `json:"degraded,omitempty"`

	Requirement *Requirement `json:"requirement,omitempty"`
	Took        int64        `json:"took_ms"`
}

// RefreshRequest triggers an area context refresh pass
type RefreshRequest struct {
	ForceAll bool `json:"force_all"`
}

// RefreshReport summarizes one batch refresh pass over the corpus
type RefreshReport struct {
	RefreshedCount int `json:"refreshed_count"`
	SkippedCount   int `json:"skipped_count"`
	Total          int `json:"total"`
}

// EmbeddingBatchRequest represents a batch embedding update request
type EmbeddingBatchRequest struct {
	Embeddings []EmbeddingItem `json:"embeddings" binding:"required"`
}

// EmbeddingItem represents a single embedding with listing info
type EmbeddingItem struct {
	ListingID int64     `json:"listing_id" binding:"required"`
	Embedding []float32 `json:"embedding" binding:"required"`
}

// EmbeddingBatchResponse represents the response for batch embedding update
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// FeedbackRequest represents user feedback on a returned recommendation
type FeedbackRequest struct {
	SearchID  string `json:"search_id" binding:"required"`
	ListingID int64  `json:"listing_id" binding:"required"`
	Action    string `json:"action" binding:"required"` // click, contact, view_details
}

// FeedbackResponse represents feedback response
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
