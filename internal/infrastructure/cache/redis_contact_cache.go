package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisContactCache implements ContactCache using Redis
// This is suitable for distributed deployments where multiple instances
// need to share resolved contact ids
type RedisContactCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisContactCache creates a new Redis-based contact cache
func NewRedisContactCache(cfg RedisConfig) (*RedisContactCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisContactCache{
		client:    client,
		keyPrefix: "sync:contact:",
	}, nil
}

// NewRedisContactCacheWithClient creates a cache with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisContactCacheWithClient(client *redis.Client, keyPrefix string) *RedisContactCache {
	if keyPrefix == "" {
		keyPrefix = "sync:contact:"
	}
	return &RedisContactCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (c *RedisContactCache) key(companySlug, externalID string) string {
	return c.keyPrefix + companySlug + ":" + externalID
}

// Get returns the cached contact id for the given company and external
// customer id. A missing key is not an error.
func (c *RedisContactCache) Get(ctx context.Context, companySlug, externalID string) (int64, bool, error) {
	val, err := c.client.Get(ctx, c.key(companySlug, externalID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read contact cache: %w", err)
	}

	contactID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// Corrupt value, treat as a miss so the remote is consulted.
		return 0, false, nil
	}
	return contactID, true, nil
}

// Set records a contact id with a TTL
func (c *RedisContactCache) Set(ctx context.Context, companySlug, externalID string, contactID int64, ttl time.Duration) error {
	err := c.client.Set(ctx, c.key(companySlug, externalID), strconv.FormatInt(contactID, 10), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to write contact cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisContactCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisContactCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisContactCache implements ContactCache
var _ ContactCache = (*RedisContactCache)(nil)
