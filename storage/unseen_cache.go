package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"corkboard-api/domain"
)

const unseenKeyPrefix = "corkboard:unseen:"

// UnseenCache wraps a Storage with a Redis-backed cache for the per-user
// unseen-notifications flag, which clients poll aggressively. Writes that
// change the flag invalidate the cached value; cache failures fall through
// to SQLite so the flag is never wrong, only slower.
type UnseenCache struct {
	*Storage
	redis *redis.Client
	ttl   time.Duration
}

// NewUnseenCache creates the caching wrapper.
func NewUnseenCache(base *Storage, client *redis.Client, ttl time.Duration) *UnseenCache {
	if base == nil {
		panic("storage.NewUnseenCache: base storage is nil")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &UnseenCache{Storage: base, redis: client, ttl: ttl}
}

// HasUnseen consults the cache before the database.
func (c *UnseenCache) HasUnseen(ctx context.Context, userID string) (bool, error) {
	if val, err := c.redis.Get(ctx, unseenKeyPrefix+userID).Result(); err == nil {
		return val == "1", nil
	}
	unseen, err := c.Storage.HasUnseen(ctx, userID)
	if err != nil {
		return false, err
	}
	val := "0"
	if unseen {
		val = "1"
	}
	c.redis.Set(ctx, unseenKeyPrefix+userID, val, c.ttl)
	return unseen, nil
}

// CreateNotification writes through and drops the cached flag.
func (c *UnseenCache) CreateNotification(ctx context.Context, userID, message string) (domain.Notification, error) {
	n, err := c.Storage.CreateNotification(ctx, userID, message)
	if err == nil {
		c.invalidate(ctx, userID)
	}
	return n, err
}

// MarkSeen writes through and drops the cached flag.
func (c *UnseenCache) MarkSeen(ctx context.Context, id, userID string) error {
	if err := c.Storage.MarkSeen(ctx, id, userID); err != nil {
		return err
	}
	c.invalidate(ctx, userID)
	return nil
}

// MarkAllSeen writes through and drops the cached flag.
func (c *UnseenCache) MarkAllSeen(ctx context.Context, userID string) error {
	if err := c.Storage.MarkAllSeen(ctx, userID); err != nil {
		return err
	}
	c.invalidate(ctx, userID)
	return nil
}

// DeleteNotification writes through and drops the cached flag.
func (c *UnseenCache) DeleteNotification(ctx context.Context, id, userID string) error {
	if err := c.Storage.DeleteNotification(ctx, id, userID); err != nil {
		return err
	}
	c.invalidate(ctx, userID)
	return nil
}

func (c *UnseenCache) invalidate(ctx context.Context, userID string) {
	c.redis.Del(ctx, unseenKeyPrefix+userID)
}
