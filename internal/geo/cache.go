package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedClient wraps a Client with a Redis cache for the idempotent calls
// that hit upstream quotas hardest: routes and reverse geocodes. Cache
// failures fall through to the backend; they never fail a request.
type CachedClient struct {
	inner Client
	rdb   *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedClient creates a caching wrapper around inner
func NewCachedClient(inner Client, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedClient {
	return &CachedClient{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

var _ Client = (*CachedClient)(nil)

// NearbySearch passes through; nearby results feed the area context cache,
// which has its own staleness window on the listing record.
func (c *CachedClient) NearbySearch(ctx context.Context, center Coordinate, radiusKm float64, maxResults int) ([]PlaceResult, error) {
	return c.inner.NearbySearch(ctx, center, radiusKm, maxResults)
}

// SearchText passes through
func (c *CachedClient) SearchText(ctx context.Context, query string, bias *Coordinate, maxResults int) ([]PlaceResult, error) {
	return c.inner.SearchText(ctx, query, bias, maxResults)
}

// ReverseGeocode implements Client with caching
func (c *CachedClient) ReverseGeocode(ctx context.Context, coord Coordinate) (*Address, error) {
	key := fmt.Sprintf("geo:rev:%s", coordKey(coord))

	var addr Address
	if c.lookup(ctx, key, &addr) {
		return &addr, nil
	}

	result, err := c.inner.ReverseGeocode(ctx, coord)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, result)
	return result, nil
}

// Route implements Client with caching
func (c *CachedClient) Route(ctx context.Context, origin, dest Coordinate) (*RoutePlan, error) {
	key := fmt.Sprintf("geo:route:%s:%s", coordKey(origin), coordKey(dest))

	var plan RoutePlan
	if c.lookup(ctx, key, &plan) {
		return &plan, nil
	}

	result, err := c.inner.Route(ctx, origin, dest)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, result)
	return result, nil
}

func (c *CachedClient) lookup(ctx context.Context, key string, target interface{}) bool {
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("geo cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		c.log.Warn("geo cache entry corrupt, discarding", zap.String("key", key), zap.Error(err))
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *CachedClient) store(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Debug("geo cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// coordKey buckets coordinates to ~11 m so nearby lookups share an entry
func coordKey(c Coordinate) string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}
