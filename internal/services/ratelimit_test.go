package services

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMemoryStoreRejectsOverLimitPerAddress(t *testing.T) {
	store := NewMemoryRateLimitStore()
	limiter := NewRateLimiter(store, true, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, _ := limiter.Allow(ctx, "contact", "198.51.100.1", 5)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, retry := limiter.Allow(ctx, "contact", "198.51.100.1", 5)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	// Other addresses and scopes keep their own budget
	ok, _ = limiter.Allow(ctx, "contact", "198.51.100.2", 5)
	assert.True(t, ok)
	ok, _ = limiter.Allow(ctx, "api_contact", "198.51.100.1", 3)
	assert.True(t, ok)
}

func TestMemoryStoreWindowSlides(t *testing.T) {
	store := NewMemoryRateLimitStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := store.Hit(ctx, "k", 3, time.Minute)
		assert.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _, _ := store.Hit(ctx, "k", 3, time.Minute)
	assert.False(t, ok)

	now = now.Add(61 * time.Second)
	ok, _, _ = store.Hit(ctx, "k", 3, time.Minute)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	store.Sweep(time.Minute)
	assert.Empty(t, store.requests)
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	limiter := NewRateLimiter(NewMemoryRateLimitStore(), false, zap.NewNop())
	for i := 0; i < 20; i++ {
		ok, _ := limiter.Allow(context.Background(), "contact", "198.51.100.1", 1)
		assert.True(t, ok)
	}
}

func TestRedisStoreFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	limiter := NewRateLimiter(NewRedisRateLimitStore(rdb), true, zap.NewNop())
	ok, _ := limiter.Allow(context.Background(), "contact", "198.51.100.1", 1)
	assert.True(t, ok)
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient("http://not-redis")
	assert.Error(t, err)
}
