package routing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/homeride/backend/pkg/cache"
	"github.com/homeride/backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// CachedProvider memoizes successful provider answers in Redis. Failures are
// never cached so a recovered provider is picked up on the next call.
type CachedProvider struct {
	next   Provider
	redis  *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedProvider wraps next with a Redis cache.
func NewCachedProvider(next Provider, redisClient *redis.Client, ttl time.Duration, log *logger.Logger) *CachedProvider {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedProvider{next: next, redis: redisClient, ttl: ttl, logger: log}
}

func (c *CachedProvider) Route(ctx context.Context, origin, destination string, waypoints []string) (TravelInfo, error) {
	key := cacheKey("route", append([]string{origin, destination}, waypoints...)...)

	var info TravelInfo
	if err := cache.GetJSON(ctx, c.redis, key, &info); err == nil {
		return info, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("Travel info cache read failed", logger.Err(err))
	}

	info, err := c.next.Route(ctx, origin, destination, waypoints)
	if err != nil {
		return TravelInfo{}, err
	}

	if err := cache.SetJSON(ctx, c.redis, key, info, c.ttl); err != nil {
		c.logger.Warn("Travel info cache write failed", logger.Err(err))
	}
	return info, nil
}

func (c *CachedProvider) DirectDistance(ctx context.Context, origin, destination string) (float64, error) {
	key := cacheKey("direct", origin, destination)

	var km float64
	if err := cache.GetJSON(ctx, c.redis, key, &km); err == nil {
		return km, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("Direct distance cache read failed", logger.Err(err))
	}

	km, err := c.next.DirectDistance(ctx, origin, destination)
	if err != nil {
		return 0, err
	}

	if err := cache.SetJSON(ctx, c.redis, key, km, c.ttl); err != nil {
		c.logger.Warn("Direct distance cache write failed", logger.Err(err))
	}
	return km, nil
}

// cacheKey hashes the normalized inputs so keys stay short and
// case/whitespace variants of the same address share an entry.
func cacheKey(kind string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strings.Join(strings.Fields(strings.ToLower(p)), " ")))
		h.Write([]byte{0})
	}
	return cache.Key("travel", kind, hex.EncodeToString(h.Sum(nil)))
}
