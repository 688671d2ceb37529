package properties

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	redisclient "github.com/jordanmarch/upkeep-backend/pkg/redis"
)

const recordCacheTTL = 5 * time.Minute

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	PropertyCacheKey(propertyID string) string
}

// RecordCache is a read-through cache for property records. Mutations call
// Invalidate so the store remains the only authority; a cache miss or a
// redis failure simply falls back to the repository.
type RecordCache struct {
	store cacheStore
}

// NewRecordCache wraps the redis client for property caching.
func NewRecordCache(client *redisclient.Client) *RecordCache {
	if client == nil {
		return nil
	}
	return &RecordCache{store: client}
}

// Get returns the cached record, or nil on miss or decode failure.
func (c *RecordCache) Get(ctx context.Context, id uuid.UUID) *models.Property {
	if c == nil || c.store == nil {
		return nil
	}
	raw, err := c.store.Get(ctx, c.store.PropertyCacheKey(id.String()))
	if err != nil {
		return nil
	}
	var property models.Property
	if err := json.Unmarshal([]byte(raw), &property); err != nil {
		return nil
	}
	return &property
}

// Put stores the record with the cache TTL. Failures are swallowed: the
// cache is best-effort.
func (c *RecordCache) Put(ctx context.Context, property *models.Property) {
	if c == nil || c.store == nil || property == nil {
		return
	}
	raw, err := json.Marshal(property)
	if err != nil {
		return
	}
	_ = c.store.Set(ctx, c.store.PropertyCacheKey(property.ID.String()), string(raw), recordCacheTTL)
}

// Invalidate drops the cached record after a mutation.
func (c *RecordCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if c == nil || c.store == nil {
		return nil
	}
	err := c.store.Del(ctx, c.store.PropertyCacheKey(id.String()))
	if err != nil && !errors.Is(err, redislib.Nil) {
		return err
	}
	return nil
}
