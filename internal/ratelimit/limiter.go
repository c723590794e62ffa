// Package ratelimit gates endpoints with a sliding-window log per caller.
package ratelimit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"course-matcher/internal/common/errors"
	"course-matcher/internal/redis"
)

// Limiter decides whether identity may make another attempt within the
// trailing window. Rejected attempts are not recorded.
type Limiter interface {
	Allow(ctx context.Context, identity string, limit int, window time.Duration) (bool, error)
}

// Policy names a limit and the window it applies to
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

var (
	// ComparePolicy gates the comparison endpoint
	ComparePolicy = Policy{Name: "compare", Limit: 10, Window: time.Minute}
	// InvalidatePolicy gates the cache invalidation endpoint
	InvalidatePolicy = Policy{Name: "invalidate", Limit: 5, Window: time.Minute}
)

// Allow checks identity against the policy using limiter. The identity is
// namespaced by policy name so one caller has independent budgets per policy.
func (p Policy) Allow(ctx context.Context, limiter Limiter, identity string) (bool, error) {
	return limiter.Allow(ctx, fmt.Sprintf("%s:%s", p.Name, identity), p.Limit, p.Window)
}

// RedisLimiter keeps the window log in a Redis sorted set so limits are shared
// across instances.
type RedisLimiter struct {
	redis  *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(redisClient *redis.Client) *RedisLimiter {
	return &RedisLimiter{
		redis:  redisClient,
		prefix: "ratelimit",
		now:    time.Now,
	}
}

// WithClock replaces the time source, used by tests to move through windows
func (l *RedisLimiter) WithClock(now func() time.Time) *RedisLimiter {
	l.now = now
	return l
}

func (l *RedisLimiter) Allow(ctx context.Context, identity string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}

	key := fmt.Sprintf("%s:%s", l.prefix, identity)
	allowed, _, err := l.redis.AllowInWindow(ctx, key, l.now(), window, limit, uuid.NewString())
	if err != nil {
		return false, errors.InternalError("failed to check rate limit", err).WithContext("identity", identity)
	}
	return allowed, nil
}

// LocalLimiter keeps the window log in process memory. It is used when Redis
// is not configured.
type LocalLimiter struct {
	mu          sync.Mutex
	attempts    map[string][]time.Time
	now         func() time.Time
	maxKeys     int
	lastCleanup time.Time
}

func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		attempts:    make(map[string][]time.Time),
		now:         time.Now,
		maxKeys:     10000,
		lastCleanup: time.Now(),
	}
}

// WithClock replaces the time source
func (l *LocalLimiter) WithClock(now func() time.Time) *LocalLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	l.lastCleanup = now()
	return l
}

func (l *LocalLimiter) Allow(ctx context.Context, identity string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-window)

	if now.Sub(l.lastCleanup) > window || len(l.attempts) > l.maxKeys {
		l.cleanup(cutoff)
		l.lastCleanup = now
	}

	// Entries are appended in time order, so everything after the first
	// in-window attempt is also in the window.
	log := l.attempts[identity]
	start := sort.Search(len(log), func(i int) bool { return log[i].After(cutoff) })
	log = log[start:]

	if len(log) >= limit {
		l.attempts[identity] = log
		return false, nil
	}

	l.attempts[identity] = append(log, now)
	return true, nil
}

// cleanup drops identities whose newest attempt has left the window
func (l *LocalLimiter) cleanup(cutoff time.Time) {
	for identity, log := range l.attempts {
		if len(log) == 0 || !log[len(log)-1].After(cutoff) {
			delete(l.attempts, identity)
		}
	}
}
