package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"delay-prediction-api/config"
	"delay-prediction-api/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis pub/sub channels.
const (
	SnapshotChannel = "delayrisk:snapshots"
	EventChannel    = "delayrisk:events"
)

const connectRetryDelay = 2 * time.Second

// CacheService wraps Redis for cache-aside reads and pub/sub. A service
// without a client is a no-op: reads miss and writes succeed silently.
type CacheService struct {
	client *redis.Client
}

// NewCacheService connects and pings up to cfg.ConnectAttempts times. On
// failure it still returns a usable no-op service alongside the error.
func NewCacheService(ctx context.Context, cfg config.RedisConfig) (*CacheService, error) {
	opts, err := cfg.Options()
	if err != nil {
		return &CacheService{}, err
	}
	client := redis.NewClient(opts)

	var lastErr error
	for attempt := 1; attempt <= cfg.ConnectAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		lastErr = client.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("redis connected")
			return &CacheService{client: client}, nil
		}
		log.Warn().Err(lastErr).Int("attempt", attempt).Msg("redis ping failed")

		select {
		case <-ctx.Done():
			_ = client.Close()
			return &CacheService{}, ctx.Err()
		case <-time.After(connectRetryDelay):
		}
	}

	_ = client.Close()
	return &CacheService{}, fmt.Errorf("redis ping failed after %d attempts: %w", cfg.ConnectAttempts, lastErr)
}

// NewCacheServiceFromClient wraps an existing client; nil yields a no-op cache.
func NewCacheServiceFromClient(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

func (s *CacheService) Available() bool {
	return s.client != nil
}

// Get decodes the cached JSON value into dest. A miss returns redis.Nil.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if s.client == nil {
		return redis.Nil
	}
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dest)
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Publish(ctx context.Context, channel string, message interface{}) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channel, data).Err()
}

// Subscribe returns nil when Redis is not configured.
func (s *CacheService) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	if s.client == nil {
		return nil
	}
	return s.client.Subscribe(ctx, channels...)
}

func (s *CacheService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Cached serves key from Redis, or calls load and stores the result for ttl.
// Redis failures are logged and never fail the read.
func Cached[T any](ctx context.Context, c *CacheService, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var v T
	err := c.Get(ctx, key, &v)
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return v, nil
	case errors.Is(err, redis.Nil):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	v, err = load(ctx)
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return v, nil
}
