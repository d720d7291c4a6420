//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"listsnap/internal/platform/config"
	"listsnap/internal/platform/redis"
)

// RedisContainer is a throwaway Redis reached through the same client the
// server builds from REDIS_URL.
type RedisContainer struct {
	container *tcredis.RedisContainer
	URL       string
	Client    *redis.Client
}

func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine", tcredis.WithLogLevel(tcredis.LogLevelVerbose))
	require.NoError(t, err, "start redis container")

	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		require.NoError(t, err, "redis connection string")
	}

	client, err := redis.New(ctx, config.RedisConfig{URL: url, PoolSize: 10})
	if err != nil {
		_ = container.Terminate(ctx)
		require.NoError(t, err, "connect to redis")
	}
	return &RedisContainer{container: container, URL: url, Client: client}
}

// FlushAll drops every key; suites call it between tests.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
