package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/rentdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/rentdesk/pkg/cache"
)

const houseKeyPrefix = "house:"

func houseKey(id string) string {
	return houseKeyPrefix + id
}

// HouseCache is a read-through cache for single-house lookups.
// Implementations never fail a caller: errors degrade to misses.
type HouseCache interface {
	Get(ctx context.Context, id string) (*domain.House, bool)
	Set(ctx context.Context, house *domain.House)
	Invalidate(ctx context.Context, ids ...string)
}

// kvStore is the subset of the redis client the cache needs
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisHouseCache stores houses as JSON in Redis
type RedisHouseCache struct {
	kv     kvStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisHouseCache creates a Redis-backed house cache
func NewRedisHouseCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisHouseCache {
	return newRedisHouseCache(client, ttl, logger)
}

func newRedisHouseCache(kv kvStore, ttl time.Duration, logger *slog.Logger) *RedisHouseCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisHouseCache{kv: kv, ttl: ttl, logger: logger}
}

// Get returns the cached house. Redis errors and undecodable entries count as misses.
func (c *RedisHouseCache) Get(ctx context.Context, id string) (*domain.House, bool) {
	raw, err := c.kv.Get(ctx, houseKey(id))
	if err != nil {
		if !errors.Is(err, redis.ErrMiss) {
			metrics.ObserveHouseCache("error")
			c.logger.Warn("house cache read failed",
				slog.String("house_id", id),
				slog.String("error", err.Error()),
			)
		} else {
			metrics.ObserveHouseCache("miss")
		}
		return nil, false
	}

	var house domain.House
	if err := json.Unmarshal(raw, &house); err != nil {
		metrics.ObserveHouseCache("error")
		c.logger.Warn("discarding corrupt house cache entry",
			slog.String("house_id", id),
			slog.String("error", err.Error()),
		)
		c.Invalidate(ctx, id)
		return nil, false
	}
	metrics.ObserveHouseCache("hit")
	return &house, true
}

// Set stores house for the configured TTL; failures are logged and dropped
func (c *RedisHouseCache) Set(ctx context.Context, house *domain.House) {
	raw, err := json.Marshal(house)
	if err != nil {
		return
	}
	if err := c.kv.Set(ctx, houseKey(house.ID), raw, c.ttl); err != nil {
		c.logger.Warn("house cache write failed",
			slog.String("house_id", house.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate evicts ids from redis
func (c *RedisHouseCache) Invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = houseKey(id)
	}
	if err := c.kv.Delete(ctx, keys...); err != nil {
		c.logger.Warn("house cache invalidation failed",
			slog.Any("house_ids", ids),
			slog.String("error", err.Error()),
		)
	}
}

// LocalHouseCache keeps houses in process memory. Used when Redis is not configured.
type LocalHouseCache struct {
	items *cache.Cache[domain.House]
	ttl   time.Duration
}

// NewLocalHouseCache creates an in-process house cache
func NewLocalHouseCache(ttl time.Duration) *LocalHouseCache {
	return &LocalHouseCache{items: cache.New[domain.House](), ttl: ttl}
}

// Get returns a copy so callers cannot mutate the cached entry
func (c *LocalHouseCache) Get(_ context.Context, id string) (*domain.House, bool) {
	house, ok := c.items.Get(houseKey(id))
	if !ok {
		metrics.ObserveHouseCache("miss")
		return nil, false
	}
	metrics.ObserveHouseCache("hit")
	return &house, true
}

func (c *LocalHouseCache) Set(_ context.Context, house *domain.House) {
	c.items.Set(houseKey(house.ID), *house, c.ttl)
}

func (c *LocalHouseCache) Invalidate(_ context.Context, ids ...string) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = houseKey(id)
	}
	c.items.Delete(keys...)
}

// CachedHouseRepository decorates a HouseRepository with a read-through
// cache on GetByID. Every write evicts the affected house.
type CachedHouseRepository struct {
	inner  domain.HouseRepository
	cache  HouseCache
	logger *slog.Logger
}

// NewCachedHouseRepository wraps inner with cache
func NewCachedHouseRepository(inner domain.HouseRepository, cache HouseCache, logger *slog.Logger) *CachedHouseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedHouseRepository{inner: inner, cache: cache, logger: logger}
}

func (r *CachedHouseRepository) Create(ctx context.Context, house *domain.House) error {
	return r.inner.Create(ctx, house)
}

// GetByID serves from the cache and fills it on a miss
func (r *CachedHouseRepository) GetByID(ctx context.Context, id string) (*domain.House, error) {
	if house, ok := r.cache.Get(ctx, id); ok {
		return house, nil
	}
	house, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, house)
	return house, nil
}

// GetCurrent reads through without filling the cache. A read racing a
// committed occupancy change could otherwise cache the old tenant.
func (r *CachedHouseRepository) GetCurrent(ctx context.Context, id string) (*domain.House, error) {
	return r.inner.GetCurrent(ctx, id)
}

// GetForUpdate always reads through so the row lock is taken
func (r *CachedHouseRepository) GetForUpdate(ctx context.Context, id string) (*domain.House, error) {
	return r.inner.GetForUpdate(ctx, id)
}

// List is never cached
func (r *CachedHouseRepository) List(ctx context.Context, filter domain.HouseFilter, page domain.Page) ([]*domain.House, int, error) {
	return r.inner.List(ctx, filter, page)
}

// Update writes through and evicts the house
func (r *CachedHouseRepository) Update(ctx context.Context, house *domain.House) error {
	err := r.inner.Update(ctx, house)
	r.cache.Invalidate(ctx, house.ID)
	return err
}

// UpdateStatusAndTenant writes through and evicts the house
func (r *CachedHouseRepository) UpdateStatusAndTenant(ctx context.Context, id string, status domain.HouseStatus, tenantID *string) error {
	err := r.inner.UpdateStatusAndTenant(ctx, id, status, tenantID)
	r.cache.Invalidate(ctx, id)
	return err
}

func (r *CachedHouseRepository) Delete(ctx context.Context, id string) error {
	err := r.inner.Delete(ctx, id)
	r.cache.Invalidate(ctx, id)
	return err
}
