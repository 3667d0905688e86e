package kv

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	return url
}

func TestRedisStore(t *testing.T) {
	url := startRedis(t)

	s, err := OpenRedis(context.Background(), url)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestRedisStore_KeyLayout(t *testing.T) {
	url := startRedis(t)
	ctx := context.Background()

	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	s := NewRedisStore(client)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "simple_trial", "trial_start", 7))
	raw, err := client.Get(ctx, "trialguard:simple_trial:trial_start").Result()
	require.NoError(t, err)
	assert.Equal(t, "7", raw)

	t.Run("non-numeric value is an error", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "trialguard:simple_trial:corrupt", "abc", 0).Err())
		_, ok, err := s.Get(ctx, "simple_trial", "corrupt")
		assert.Error(t, err)
		assert.False(t, ok)
	})
}
