package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"portfolio/internal/metrics"
)

// RateLimitStore counts hits per key inside a window
type RateLimitStore interface {
	// Hit records one request for key and reports whether it is within
	// limit, plus how long until the next request would be allowed.
	Hit(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// MemoryRateLimitStore keeps request timestamps in process memory
type MemoryRateLimitStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
}

// NewMemoryRateLimitStore creates an in-memory store
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{requests: make(map[string][]time.Time), now: time.Now}
}

func (s *MemoryRateLimitStore) Hit(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	// Drop requests that left the window
	valid := s.requests[key][:0]
	for _, t := range s.requests[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= limit {
		s.requests[key] = valid
		return false, valid[0].Add(window).Sub(now), nil
	}

	s.requests[key] = append(valid, now)
	return true, 0, nil
}

// Sweep forgets keys with no request inside window
func (s *MemoryRateLimitStore) Sweep(window time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-window)
	for key, times := range s.requests {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(s.requests, key)
		}
	}
}

// RedisRateLimitStore shares counters between instances through Redis using
// a fixed window per key.
type RedisRateLimitStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisClient connects to the Redis server named by a redis:// URL
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRedisRateLimitStore creates a Redis backed store
func NewRedisRateLimitStore(rdb *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{rdb: rdb, prefix: "ratelimit:"}
}

func (s *RedisRateLimitStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	k := s.prefix + key

	pipe := s.rdb.TxPipeline()
	// SETNX starts the window with its TTL; INCR keeps the TTL
	pipe.SetNX(ctx, k, 0, window)
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, fmt.Errorf("redis rate limit: %w", err)
	}

	if incr.Val() > int64(limit) {
		retry := ttl.Val()
		if retry < 0 {
			retry = window
		}
		return false, retry, nil
	}
	return true, 0, nil
}

// RateLimiter applies per-address limits to named scopes
type RateLimiter struct {
	store   RateLimitStore
	enabled bool
	log     *zap.Logger
}

// NewRateLimiter creates a rate limiter. A disabled limiter allows everything.
func NewRateLimiter(store RateLimitStore, enabled bool, log *zap.Logger) *RateLimiter {
	return &RateLimiter{store: store, enabled: enabled, log: log.Named("ratelimit")}
}

// Allow records a request from addr against scope's per-minute limit. Store
// errors fail open: an unreachable Redis never blocks visitors.
func (l *RateLimiter) Allow(ctx context.Context, scope, addr string, perMinute int) (bool, time.Duration) {
	if !l.enabled {
		return true, 0
	}
	ok, retry, err := l.store.Hit(ctx, scope+":"+addr, perMinute, time.Minute)
	if err != nil {
		l.log.Warn("rate limit store unavailable", zap.String("scope", scope), zap.Error(err))
		return true, 0
	}
	if !ok {
		l.log.Info("rate limit exceeded", zap.String("scope", scope), zap.String("ip", addr))
		metrics.RecordRateLimited(scope)
	}
	return ok, retry
}
