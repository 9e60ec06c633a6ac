package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio/internal/config"
)

func TestNewRateLimiterRejectsBadRedisURL(t *testing.T) {
	cfg := &config.Config{RateLimit: config.RateLimitConfig{Enabled: true, RedisURL: "notredis://cache:6379"}}

	_, err := newRateLimiter(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), "invalid REDIS_URL"))
}

func TestNewRateLimiterFallsBackToMemory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter, err := newRateLimiter(ctx, &config.Config{RateLimit: config.RateLimitConfig{Enabled: true}}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, limiter)

	ok, _ := limiter.Allow(ctx, "contact", "192.0.2.1", 1)
	assert.True(t, ok)
	ok, _ = limiter.Allow(ctx, "contact", "192.0.2.1", 1)
	assert.False(t, ok)
}
