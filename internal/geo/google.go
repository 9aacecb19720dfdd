package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"rentscout/internal/config"
)

// GoogleClient talks to the Google Maps Web Service APIs
type GoogleClient struct {
	cfg        *config.MapsConfig
	httpClient *http.Client
	log        *zap.Logger
}

// NewGoogleClient creates a new Google Maps client
func NewGoogleClient(cfg *config.MapsConfig, log *zap.Logger) *GoogleClient {
	return &GoogleClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		log: log,
	}
}

var _ Client = (*GoogleClient)(nil)

// NearbySearch implements Client
func (c *GoogleClient) NearbySearch(ctx context.Context, center Coordinate, radiusKm float64, maxResults int) ([]PlaceResult, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", center.Latitude, center.Longitude))
	params.Set("radius", fmt.Sprintf("%d", int(radiusKm*1000)))

	var resp placesResponse
	if err := c.get(ctx, "/place/nearbysearch/json", params, &resp); err != nil {
		return nil, err
	}
	return c.toPlaces(resp, maxResults)
}

// SearchText implements Client
func (c *GoogleClient) SearchText(ctx context.Context, query string, bias *Coordinate, maxResults int) ([]PlaceResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("region", c.cfg.Region)
	if bias != nil {
		params.Set("location", fmt.Sprintf("%f,%f", bias.Latitude, bias.Longitude))
		params.Set("radius", "50000")
	}

	var resp placesResponse
	if err := c.get(ctx, "/place/textsearch/json", params, &resp); err != nil {
		return nil, err
	}
	return c.toPlaces(resp, maxResults)
}

// ReverseGeocode implements Client
func (c *GoogleClient) ReverseGeocode(ctx context.Context, coord Coordinate) (*Address, error) {
	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", coord.Latitude, coord.Longitude))

	var resp geocodeResponse
	if err := c.get(ctx, "/geocode/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return nil, ErrNotFound
	}

	addr := &Address{Formatted: resp.Results[0].FormattedAddress}
	for _, comp := range resp.Results[0].AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "route":
				addr.Street = comp.LongName
			case "sublocality_level_1", "sublocality":
				addr.Ward = comp.LongName
			case "administrative_area_level_2":
				addr.District = comp.LongName
			case "administrative_area_level_1", "locality":
				addr.City = comp.LongName
			}
		}
	}
	return addr, nil
}

// Route implements Client
func (c *GoogleClient) Route(ctx context.Context, origin, dest Coordinate) (*RoutePlan, error) {
	params := url.Values{}
	params.Set("origin", fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude))
	params.Set("destination", fmt.Sprintf("%f,%f", dest.Latitude, dest.Longitude))
	params.Set("mode", "driving")

	var resp directionsResponse
	if err := c.get(ctx, "/directions/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" || len(resp.Routes) == 0 || len(resp.Routes[0].Legs) == 0 {
		return nil, ErrNotFound
	}

	route := resp.Routes[0]
	plan := &RoutePlan{Polyline: route.OverviewPolyline.Points}
	for _, leg := range route.Legs {
		plan.DistanceKm += float64(leg.Distance.Value) / 1000
		plan.DurationSec += leg.Duration.Value
		for _, step := range leg.Steps {
			plan.Steps = append(plan.Steps, RouteStep{
				Instruction: stripHTML(step.HTMLInstructions),
				DistanceKm:  float64(step.Distance.Value) / 1000,
				DurationSec: step.Duration.Value,
			})
		}
	}
	return plan, nil
}

func (c *GoogleClient) get(ctx context.Context, path string, params url.Values, target interface{}) error {
	params.Set("key", c.cfg.APIKey)
	params.Set("language", c.cfg.Language)

	reqURL := fmt.Sprintf("%s%s?%s", c.cfg.APIBase, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("maps API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *GoogleClient) toPlaces(resp placesResponse, maxResults int) ([]PlaceResult, error) {
	if resp.Status == "ZERO_RESULTS" {
		return nil, nil
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("maps API status %s: %s", resp.Status, resp.ErrorMessage)
	}

	places := make([]PlaceResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		if maxResults > 0 && len(places) >= maxResults {
			break
		}
		places = append(places, PlaceResult{
			Name: r.Name,
			Address: func() string {
				if r.FormattedAddress != "" {
					return r.FormattedAddress
				}
				return r.Vicinity
			}(),
			Location: Coordinate{
				Latitude:  r.Geometry.Location.Lat,
				Longitude: r.Geometry.Location.Lng,
			},
			Types:  r.Types,
			Rating: r.Rating,
		})
	}
	return places, nil
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Google wire formats

type placesResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Results      []struct {
		Name             string   `json:"name"`
		FormattedAddress string   `json:"formatted_address,omitempty"`
		Vicinity         string   `json:"vicinity,omitempty"`
		Types            []string `json:"types,omitempty"`
		Rating           float64  `json:"rating,omitempty"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
			Steps []struct {
				HTMLInstructions string `json:"html_instructions"`
				Distance         struct {
					Value int `json:"value"`
				} `json:"distance"`
				Duration struct {
					Value int `json:"value"`
				} `json:"duration"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}
