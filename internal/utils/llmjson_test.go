package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	PriceMax  float64  `json:"price_max"`
	Amenities []string `json:"amenities"`
}

func TestParseModelJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMax float64
		wantErr bool
	}{
		{
			name:    "pure JSON",
			input:   `{"price_max": 3000000, "amenities": ["wifi"]}`,
			wantMax: 3000000,
		},
		{
			name:    "json fence",
			input:   "```json\n{\"price_max\": 3000000}\n```",
			wantMax: 3000000,
		},
		{
			name:    "bare fence",
			input:   "```\n{\"price_max\": 3000000}\n```",
			wantMax: 3000000,
		},
		{
			name:    "surrounding prose",
			input:   `Sure! Here is the parsed query: {"price_max": 3000000} Hope that helps.`,
			wantMax: 3000000,
		},
		{
			name:    "trailing comma repaired",
			input:   `{"price_max": 3000000, "amenities": ["wifi",],}`,
			wantMax: 3000000,
		},
		{
			name:    "bare keys repaired",
			input:   `{price_max: 3000000}`,
			wantMax: 3000000,
		},
		{
			name:    "braces inside strings ignored",
			input:   `{"price_max": 3000000, "amenities": ["a } b"]}`,
			wantMax: 3000000,
		},
		{
			name:    "no JSON at all",
			input:   "sorry, I cannot help with that",
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "unbalanced braces",
			input:   `{"price_max": 3000000`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := ParseModelJSON(tt.input, &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMax, p.PriceMax)
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, ExtractJSONObject(`text {"a": 1} more`))
	assert.Equal(t, `{"a": {"b": 2}}`, ExtractJSONObject(`{"a": {"b": 2}} trailing`))
	assert.Equal(t, "", ExtractJSONObject("no braces here"))
	assert.Equal(t, "", ExtractJSONObject(`{"open": 1`))
}
