package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"urlsentry/internal/config"
	"urlsentry/pkg/logger"
)

// RedisCache wraps the Redis client with typed operations
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *logger.Logger
}

// NewRedis creates a new Redis client
func NewRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisCache, error) {
	log = log.WithComponent("redis")
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info().Msg("connected to Redis successfully")

	return &RedisCache{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		logger:    log,
	}, nil
}

// Client returns the underlying Redis client
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	c.logger.Info().Msg("closing Redis connection")
	return c.client.Close()
}

// key prepends the namespace prefix to a key
func (c *RedisCache) key(k string) string {
	return c.keyPrefix + k
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, c.key(key)).Result()
}

// GetJSON retrieves and unmarshals a JSON value from cache
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// Set stores a value in cache with optional TTL
func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

// SetJSON marshals and stores a value in cache
func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.Set(ctx, key, string(data), ttl)
}

// Delete removes a key from cache
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	prefixedKeys := make([]string, len(keys))
	for i, k := range keys {
		prefixedKeys[i] = c.key(k)
	}
	return c.client.Del(ctx, prefixedKeys...).Err()
}

// Exists checks if a key exists
func (c *RedisCache) Exists(ctx context.Context, keys ...string) (int64, error) {
	prefixedKeys := make([]string, len(keys))
	for i, k := range keys {
		prefixedKeys[i] = c.key(k)
	}
	return c.client.Exists(ctx, prefixedKeys...).Result()
}

// Incr increments an integer value
func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, c.key(key)).Result()
}

// SetNX sets a value only if the key does not exist (for distributed locks)
func (c *RedisCache) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, c.key(key), value, ttl).Result()
}

// LPush pushes values onto the head of a list
func (c *RedisCache) LPush(ctx context.Context, key string, values ...any) error {
	return c.client.LPush(ctx, c.key(key), values...).Err()
}

// LIndex reads the list element at index without removing it
func (c *RedisCache) LIndex(ctx context.Context, key string, index int64) (string, error) {
	return c.client.LIndex(ctx, c.key(key), index).Result()
}

// RPop removes and returns the tail element of a list
func (c *RedisCache) RPop(ctx context.Context, key string) (string, error) {
	return c.client.RPop(ctx, c.key(key)).Result()
}

// LLen returns the length of a list
func (c *RedisCache) LLen(ctx context.Context, key string) (int64, error) {
	return c.client.LLen(ctx, c.key(key)).Result()
}

// Pipeline returns a Redis pipeline for batch operations
func (c *RedisCache) Pipeline() redis.Pipeliner {
	return c.client.Pipeline()
}

// Cache key constants
const (
	// Per-URL analysis cache
	KeyURLAnalysisPrefix = "cache:url:"
	// Latest feedback per URL
	KeyFeedbackPrefix = "feedback:"
	// Pending feedback awaiting the drainer
	KeyLearningQueue = "learning:queue"

	// Rate limiting keys
	KeyRateLimitPrefix = "rate_limit:"

	// Lock keys
	KeyLockPrefix = "lock:"
	LockDrain     = "feedback-drain"
)

// Cache TTLs
const (
	URLAnalysisTTL = 7 * 24 * time.Hour
	FeedbackTTL    = 30 * 24 * time.Hour
)

// CacheAnalysis stores an analysis result keyed by normalized URL
func (c *RedisCache) CacheAnalysis(ctx context.Context, url string, data any) error {
	return c.SetJSON(ctx, KeyURLAnalysisPrefix+url, data, URLAnalysisTTL)
}

// GetCachedAnalysis retrieves a cached analysis result
func (c *RedisCache) GetCachedAnalysis(ctx context.Context, url string, dest any) error {
	return c.GetJSON(ctx, KeyURLAnalysisPrefix+url, dest)
}

// CacheFeedback stores the latest feedback for a URL
func (c *RedisCache) CacheFeedback(ctx context.Context, url string, data any) error {
	return c.SetJSON(ctx, KeyFeedbackPrefix+url, data, FeedbackTTL)
}

// EnqueueFeedback pushes a serialized queue entry onto the learning queue
func (c *RedisCache) EnqueueFeedback(ctx context.Context, entry any) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal queue entry: %w", err)
	}
	return c.LPush(ctx, KeyLearningQueue, data)
}

// PeekFeedback reads a queue entry at the given depth from the tail
// without removing it. The drainer confirms consumption with
// ConfirmFeedback only after the entry is durably processed.
func (c *RedisCache) PeekFeedback(ctx context.Context, index int64) (string, error) {
	return c.LIndex(ctx, KeyLearningQueue, -1-index)
}

// RequeueFeedback moves the tail entry to the head of the queue so the
// rest of a batch can drain past it. The copy is pushed before the
// original is popped; entry processing is guarded by a row-level claim,
// so a crash between the two at worst leaves a duplicate that later
// drains as a no-op.
func (c *RedisCache) RequeueFeedback(ctx context.Context, raw string) error {
	if err := c.LPush(ctx, KeyLearningQueue, raw); err != nil {
		return fmt.Errorf("failed to requeue entry: %w", err)
	}
	return c.client.RPop(ctx, c.key(KeyLearningQueue)).Err()
}

// ConfirmFeedback removes one consumed entry from the tail of the queue
func (c *RedisCache) ConfirmFeedback(ctx context.Context) error {
	return c.client.RPop(ctx, c.key(KeyLearningQueue)).Err()
}

// QueueDepth returns the number of pending learning-queue entries
func (c *RedisCache) QueueDepth(ctx context.Context) (int64, error) {
	n, err := c.LLen(ctx, KeyLearningQueue)
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// AcquireLock attempts to acquire a distributed lock
func (c *RedisCache) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.SetNX(ctx, KeyLockPrefix+lockKey, "locked", ttl)
}

// ReleaseLock releases a distributed lock
func (c *RedisCache) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.Delete(ctx, KeyLockPrefix+lockKey)
}

// CheckRateLimit checks and increments the rate limit counter
// Returns (allowed, remaining, resetTime, error)
func (c *RedisCache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error) {
	now := time.Now()
	windowKey := fmt.Sprintf("%s%s:%d", KeyRateLimitPrefix, key, now.Unix()/int64(window.Seconds()))

	pipe := c.Pipeline()
	incr := pipe.Incr(ctx, c.key(windowKey))
	pipe.Expire(ctx, c.key(windowKey), window)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, time.Time{}, err
	}

	count := incr.Val()
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetTime := now.Add(window)

	return count <= limit, remaining, resetTime, nil
}
