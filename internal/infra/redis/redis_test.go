package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sunr3d/explorer/models"
)

// setupTestRedis returns a client for REDIS_ADDR or skips the test when Redis
// is not reachable.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("redis недоступен: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStat_AddAndList(t *testing.T) {
	client := setupTestRedis(t)
	namespace := "test-" + uuid.NewString()
	stat := New(zaptest.NewLogger(t), client, namespace)
	ctx := context.Background()

	t.Cleanup(func() { client.Del(context.Background(), "stat:"+namespace+":alice") })

	require.NoError(t, stat.Add(ctx, "alice", models.StatEvent{Message: "1 kB written in /tmp/out.zip", Path: "/tmp", Name: "out"}))
	require.NoError(t, stat.Add(ctx, "alice", models.StatEvent{Error: "boom"}))

	events, err := stat.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "/tmp", events[0].Path)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, "boom", events[1].Error)

	events, err = stat.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRedisStat_Validation(t *testing.T) {
	stat := New(zaptest.NewLogger(t), redis.NewClient(&redis.Options{Addr: "localhost:0"}), "archive")
	ctx := context.Background()

	assert.ErrorIs(t, stat.Add(ctx, "", models.StatEvent{Message: "x"}), ErrUsernameEmpty)
	assert.ErrorIs(t, stat.Add(ctx, "alice", models.StatEvent{}), ErrEventEmpty)

	_, err := stat.List(ctx, "")
	assert.ErrorIs(t, err, ErrUsernameEmpty)
}
