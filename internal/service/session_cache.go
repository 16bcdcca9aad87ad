package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/Payphone-Digital/account-service/internal/constants"
	"github.com/Payphone-Digital/account-service/internal/dto"
	"github.com/Payphone-Digital/account-service/pkg/cache"
	"github.com/Payphone-Digital/account-service/pkg/logger"
	"github.com/Payphone-Digital/account-service/pkg/redis"
)

// SessionCache remembers identities of validated tokens until their session
// expires. A miss only costs a store lookup.
type SessionCache interface {
	Get(ctx context.Context, token string) (*dto.Identity, bool)
	Set(ctx context.Context, token string, identity *dto.Identity, ttl time.Duration)
	Delete(ctx context.Context, token string)
}

func sessionCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return constants.CacheKeySession + hex.EncodeToString(sum[:])
}

// ByteStore is the subset of the redis client the cache needs.
type ByteStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type redisSessionCache struct {
	store ByteStore
}

func NewRedisSessionCache(store ByteStore) SessionCache {
	return &redisSessionCache{store: store}
}

func (c *redisSessionCache) Get(ctx context.Context, token string) (*dto.Identity, bool) {
	data, err := c.store.Get(ctx, sessionCacheKey(token))
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			logger.WarnWithContext(ctx, "Session cache read failed").Err(err).Log()
		}
		return nil, false
	}

	var identity dto.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		logger.WarnWithContext(ctx, "Session cache entry unreadable").Err(err).Log()
		return nil, false
	}
	return &identity, true
}

func (c *redisSessionCache) Set(ctx context.Context, token string, identity *dto.Identity, ttl time.Duration) {
	data, err := json.Marshal(identity)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, sessionCacheKey(token), data, ttl); err != nil {
		logger.WarnWithContext(ctx, "Session cache write failed").Err(err).Log()
	}
}

func (c *redisSessionCache) Delete(ctx context.Context, token string) {
	if err := c.store.Delete(ctx, sessionCacheKey(token)); err != nil {
		logger.WarnWithContext(ctx, "Session cache eviction failed").Err(err).Log()
	}
}

type localSessionCache struct {
	cache *cache.Cache
}

// NewLocalSessionCache keeps identities in process memory.
func NewLocalSessionCache(c *cache.Cache) SessionCache {
	return &localSessionCache{cache: c}
}

func (c *localSessionCache) Get(_ context.Context, token string) (*dto.Identity, bool) {
	v, ok := c.cache.Get(sessionCacheKey(token))
	if !ok {
		return nil, false
	}
	identity, ok := v.(dto.Identity)
	if !ok {
		return nil, false
	}
	return &identity, true
}

func (c *localSessionCache) Set(_ context.Context, token string, identity *dto.Identity, ttl time.Duration) {
	c.cache.Set(sessionCacheKey(token), *identity, ttl)
}

func (c *localSessionCache) Delete(_ context.Context, token string) {
	c.cache.Delete(sessionCacheKey(token))
}
