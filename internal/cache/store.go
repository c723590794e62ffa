// Package cache stores rendered course pages keyed by URL fingerprint.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"course-matcher/internal/common/errors"
	"course-matcher/internal/redis"
)

// DefaultTTL is how long a rendered page stays cached
const DefaultTTL = time.Hour

// Store defines the operations the fetch pipeline needs from a page cache.
// Implementations must treat an expired entry exactly like an absent one.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, content []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
}

// Expirer is implemented by stores that can report how long an entry has
// left. A missing entry reports zero.
type Expirer interface {
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// RedisStore keeps pages in Redis with native key expiry
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates a Redis backed store. keyPrefix is prepended to every
// key and is normally empty.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	content, found, err := r.client.Get(ctx, r.keyPrefix+key)
	if err != nil {
		return nil, false, errors.CacheError("get", err).WithContext("key", key)
	}
	return content, found, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, content []byte, ttl time.Duration) error {
	if err := r.client.SetEx(ctx, r.keyPrefix+key, content, ttl); err != nil {
		return errors.CacheError("put", err).WithContext("key", key)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := r.client.Delete(ctx, r.keyPrefix+key)
	if err != nil {
		return false, errors.CacheError("delete", err).WithContext("key", key)
	}
	return removed, nil
}

func (r *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, r.keyPrefix+key)
	if err != nil {
		return 0, errors.CacheError("ttl", err).WithContext("key", key)
	}
	// Redis reports -2 for a missing key and -1 for one without expiry
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Health pings the underlying Redis connection
func (r *RedisStore) Health(ctx context.Context) error {
	return r.client.Health(ctx)
}

// MemoryStore wraps patrickmn/go-cache for single-process deployments and
// one-shot CLI runs.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an in-memory store that sweeps expired entries every
// cleanupInterval.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(DefaultTTL, cleanupInterval),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, found := m.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	content, ok := value.([]byte)
	if !ok {
		return nil, false, errors.CacheError("get", nil).WithContext("key", key)
	}
	return content, true, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, content []byte, ttl time.Duration) error {
	stored := make([]byte, len(content))
	copy(stored, content)
	m.cache.Set(key, stored, ttl)
	return nil
}

// Delete removes key. go-cache has no delete count, so presence is checked
// first; an entry past its expiry counts as absent.
func (m *MemoryStore) Delete(ctx context.Context, key string) (bool, error) {
	_, found := m.cache.Get(key)
	m.cache.Delete(key)
	return found, nil
}

func (m *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	_, expiration, found := m.cache.GetWithExpiration(key)
	if !found || expiration.IsZero() {
		return 0, nil
	}
	return time.Until(expiration), nil
}

// Health always succeeds for the in-memory store
func (m *MemoryStore) Health(ctx context.Context) error {
	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept
func (m *MemoryStore) Len() int {
	return m.cache.ItemCount()
}
