package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"linkos_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "promotions:version"

// Cache wraps Redis based caching with versioning controls.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	return ver, err
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", strings.Join(parts, ":"), ver), nil
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached entry by moving to the next version.
func (c *Cache) Bump(ctx context.Context) error {
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

// CachedRepository serves promotion lookups from Redis and invalidates the
// cache on every write. Redis failures fall back to the database.
type CachedRepository struct {
	Repository
	cache *Cache
	log   *logger.Logger
}

var _ Repository = (*CachedRepository)(nil)

// NewCachedRepository decorates repo with a read cache.
func NewCachedRepository(repo Repository, cache *Cache, log *logger.Logger) *CachedRepository {
	return &CachedRepository{Repository: repo, cache: cache, log: log}
}

// GetByID retrieves a promotion by ID through the cache.
func (r *CachedRepository) GetByID(ctx context.Context, id uuid.UUID) (Promotion, error) {
	return r.fetch(ctx, []string{"promotions", "id", id.String()}, func(ctx context.Context) (Promotion, error) {
		return r.Repository.GetByID(ctx, id)
	})
}

// GetByCode retrieves a promotion by code through the cache.
func (r *CachedRepository) GetByCode(ctx context.Context, code string) (Promotion, error) {
	return r.fetch(ctx, []string{"promotions", "code", code}, func(ctx context.Context) (Promotion, error) {
		return r.Repository.GetByCode(ctx, code)
	})
}

// Create inserts a promotion and invalidates the cache.
func (r *CachedRepository) Create(ctx context.Context, params CreatePromotionParams) (Promotion, error) {
	p, err := r.Repository.Create(ctx, params)
	if err != nil {
		return Promotion{}, err
	}
	r.invalidate(ctx)
	return p, nil
}

// Update patches a promotion and invalidates the cache.
func (r *CachedRepository) Update(ctx context.Context, params UpdatePromotionParams) (Promotion, error) {
	p, err := r.Repository.Update(ctx, params)
	if err != nil {
		return Promotion{}, err
	}
	r.invalidate(ctx)
	return p, nil
}

func (r *CachedRepository) fetch(ctx context.Context, parts []string, load func(context.Context) (Promotion, error)) (Promotion, error) {
	key, err := r.cache.BuildKey(ctx, parts...)
	if err != nil {
		r.log.WithContext(ctx).Warn("promotion cache unavailable", "error", err)
		return load(ctx)
	}

	var (
		p         Promotion
		loaderErr error
	)
	err = r.cache.FetchJSON(ctx, key, &p, func(ctx context.Context) (interface{}, error) {
		value, err := load(ctx)
		loaderErr = err
		return value, err
	})
	if loaderErr != nil {
		return Promotion{}, loaderErr
	}
	if err != nil {
		r.log.WithContext(ctx).Warn("promotion cache read failed", "key", key, "error", err)
		return load(ctx)
	}
	return p, nil
}

func (r *CachedRepository) invalidate(ctx context.Context) {
	if err := r.cache.Bump(ctx); err != nil {
		r.log.WithContext(ctx).Warn("promotion cache invalidation failed", "error", err)
	}
}
