// Package cache provides a Redis read-through cache for serving player
// series without re-reading the store on every request.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/statline/internal/store"
)

const (
	seriesKeyFormat = "statline:series:%s"
	oddsKeyFormat   = "statline:odds:%s"
)

// RedisCache handles caching of per-player series for the read API.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache connection.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
	}, nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// GetSeries returns a cached player series, or redis.Nil via found=false
// when the key is absent.
func (rc *RedisCache) GetSeries(ctx context.Context, player string) (store.PlayerSeries, bool, error) {
	raw, err := rc.client.Get(ctx, fmt.Sprintf(seriesKeyFormat, player)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var s store.PlayerSeries
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, false, fmt.Errorf("decoding cached series for %q: %w", player, err)
	}
	return s, true, nil
}

// SetSeries caches a player series with the configured TTL.
func (rc *RedisCache) SetSeries(ctx context.Context, player string, s store.PlayerSeries) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding series for %q: %w", player, err)
	}
	return rc.client.Set(ctx, fmt.Sprintf(seriesKeyFormat, player), raw, rc.ttl).Err()
}

// GetOdds returns cached reconciled odds rows for a player.
func (rc *RedisCache) GetOdds(ctx context.Context, player string) ([]store.OddsRow, bool, error) {
	raw, err := rc.client.Get(ctx, fmt.Sprintf(oddsKeyFormat, player)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rows []store.OddsRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, false, fmt.Errorf("decoding cached odds for %q: %w", player, err)
	}
	return rows, true, nil
}

// SetOdds caches reconciled odds rows with the configured TTL.
func (rc *RedisCache) SetOdds(ctx context.Context, player string, rows []store.OddsRow) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding odds for %q: %w", player, err)
	}
	return rc.client.Set(ctx, fmt.Sprintf(oddsKeyFormat, player), raw, rc.ttl).Err()
}

// InvalidatePlayer drops both cached partitions for a player. Called
// after a batch run rewrites the stores.
func (rc *RedisCache) InvalidatePlayer(ctx context.Context, player string) error {
	return rc.client.Del(ctx,
		fmt.Sprintf(seriesKeyFormat, player),
		fmt.Sprintf(oddsKeyFormat, player),
	).Err()
}
