package service

import (
	"context"
)

// AIClient is the language-understanding backend. Best effort: it may fail
// or return malformed content, and every caller must be prepared for both.
type AIClient interface {
	// Complete sends a system + user prompt pair and returns the raw
	// completion text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// CreateEmbeddings generates embeddings for texts
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// IsEnabled returns whether the client is configured and ready
	IsEnabled() bool
}

// modelRequirement is the JSON schema the model is prompted to produce.
// Every field is optional on the wire; validation happens after mapping.
type modelRequirement struct {
	PriceMin   *float64    `json:"price_min,omitempty"`
	PriceMax   *float64    `json:"price_max,omitempty"`
	AreaMin    *float64    `json:"area_min,omitempty"`
	AreaMax    *float64    `json:"area_max,omitempty"`
	City       *string     `json:"city,omitempty"`
	District   *string     `json:"district,omitempty"`
	Amenities  []string    `json:"amenities,omitempty"`
	Priorities []string    `json:"priorities,omitempty"`
	Lifestyle  string      `json:"lifestyle,omitempty"`
	Needs      []modelNeed `json:"needs,omitempty"`
	Summary    string      `json:"summary,omitempty"`
}

// modelNeed is one contextual need as emitted by the model
type modelNeed struct {
	Kind          string   `json:"kind"`
	Required      bool     `json:"required,omitempty"`
	Level         string   `json:"level,omitempty"`
	Place         string   `json:"place,omitempty"`
	MaxTravelTime *int     `json:"max_travel_time,omitempty"`
	MaxDistance   *float64 `json:"max_distance,omitempty"`
}

// Ensure OpenAIClient implements AIClient
var _ AIClient = (*OpenAIClient)(nil)
