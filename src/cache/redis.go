package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crypto-indices/src/helpers"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares computed payloads between replicas. Expiry is delegated
// to Redis key TTLs.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewRedisCache(cfg models.MCacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, helpers.NewDatabaseError(fmt.Sprintf("failed to connect to Redis at %s", cfg.RedisAddr), err)
	}

	return newRedisCache(client, cfg), nil
}

// -----------------------------------------------------------------------------

func newRedisCache(client *redis.Client, cfg models.MCacheConfig) *RedisCache {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		prefix: cfg.KeyPrefix,
		logger: logger.NewLogger(nil, "RedisCache"),
	}
}

// -----------------------------------------------------------------------------

func (r *RedisCache) key(period models.MTimePeriod) string {
	return r.prefix + "payload:" + string(period)
}

// -----------------------------------------------------------------------------

// Get treats every read or decode failure as a miss.
func (r *RedisCache) Get(ctx context.Context, period models.MTimePeriod) (*models.MIndicesPayload, bool) {
	raw, err := r.client.Get(ctx, r.key(period)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warning("Redis get %s failed: %v", period, err)
		}
		return nil, false
	}

	var payload models.MIndicesPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		r.logger.Warning("Redis payload for %s undecodable: %v", period, err)
		return nil, false
	}
	return &payload, true
}

// -----------------------------------------------------------------------------

func (r *RedisCache) Set(ctx context.Context, period models.MTimePeriod, payload *models.MIndicesPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := r.client.Set(ctx, r.key(period), raw, r.ttl).Err(); err != nil {
		return helpers.NewDatabaseError("redis set", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *RedisCache) Invalidate(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"payload:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return helpers.NewDatabaseError("redis scan", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return helpers.NewDatabaseError("redis del", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *RedisCache) Close() error {
	return r.client.Close()
}
