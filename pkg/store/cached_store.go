package store

import (
	"context"
	"time"

	"smelty/pkg/cache"

	"go.uber.org/zap"
)

// jsonCache is the subset of cache.Cache used for preference records.
type jsonCache interface {
	Key(parts ...string) string
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var _ jsonCache = (*cache.Cache)(nil)

// CachedStore caches preference reads in redis. Streak calls pass through
// untouched so the read-modify-write in the streak engine always sees the
// durable row.
type CachedStore struct {
	Store
	cache  jsonCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedStore(store Store, c jsonCache, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{Store: store, cache: c, ttl: ttl, logger: logger}
}

func (c *CachedStore) GetPreferences(ctx context.Context, userID string) (*PreferenceRecord, error) {
	key := c.cache.Key("prefs", userID)

	var cached PreferenceRecord
	if err := c.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	rec, err := c.Store.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		if err := c.cache.SetJSON(ctx, key, rec, c.ttl); err != nil {
			c.logger.Debug("preference cache fill failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return rec, nil
}

func (c *CachedStore) UpsertPreferences(ctx context.Context, rec *PreferenceRecord) error {
	if err := c.Store.UpsertPreferences(ctx, rec); err != nil {
		return err
	}

	key := c.cache.Key("prefs", rec.UserID)
	if err := c.cache.SetJSON(ctx, key, rec, c.ttl); err != nil {
		// A stale entry would outlive the write; drop it instead.
		_ = c.cache.Delete(ctx, key)
		c.logger.Debug("preference cache write failed", zap.String("user_id", rec.UserID), zap.Error(err))
	}
	return nil
}

func (c *CachedStore) Close() error {
	cacheErr := c.cache.Close()
	if err := c.Store.Close(); err != nil {
		return err
	}
	return cacheErr
}
