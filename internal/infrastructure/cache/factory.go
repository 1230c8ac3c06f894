package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/infrastructure/config"
)

// ContactCacheFactory creates contact caches based on configuration
type ContactCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ContactCacheFactoryOption is a functional option for configuring the factory
type ContactCacheFactoryOption func(*ContactCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ContactCacheFactoryOption {
	return func(f *ContactCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) ContactCacheFactoryOption {
	return func(f *ContactCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewContactCacheFactory creates a new factory
func NewContactCacheFactory(cfg config.RedisConfig, opts ...ContactCacheFactoryOption) *ContactCacheFactory {
	f := &ContactCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-based contact cache
func (f *ContactCacheFactory) CreateRedisCache() (ContactCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	cache, err := NewRedisContactCache(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis contact cache: %w", err)
	}

	return cache, nil
}

// CreateInMemoryCache creates an in-memory contact cache
// This is suitable for single-instance deployments and testing
// WARNING: In-memory caches do not share state across process instances,
// so each instance performs its own remote contact lookups
func (f *ContactCacheFactory) CreateInMemoryCache() ContactCache {
	return NewInMemoryContactCache()
}

// CreateCache creates a contact cache based on whether Redis is available
// It tries to create a Redis cache first, and falls back to in-memory if
// Redis is not available and AllowInMemoryFallback is true
func (f *ContactCacheFactory) CreateCache() (ContactCache, error) {
	store, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis contact cache")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for contact cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory contact cache. "+
		"Each instance will perform its own remote contact lookups.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
