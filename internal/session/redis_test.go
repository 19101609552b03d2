package session

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"weather_agent_poc/internal/core"
	"weather_agent_poc/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedisStore skips unless a Redis instance is reachable via
// REDIS_URL, so the contract tests run in environments that have one.
func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping Redis store tests")
	}

	store, err := NewRedisStore(context.Background(), pkg.RedisConfig{URL: url, TTLSeconds: 60})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func uniqueSessionID() string {
	return fmt.Sprintf("redis_test_%d", time.Now().UnixNano())
}

func TestRedisStoreContract(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	id := uniqueSessionID()

	created, err := store.Create(ctx, "app", "user", id, map[string]any{"unit": "Celsius"})
	require.NoError(t, err)
	assert.Equal(t, "Celsius", created.State["unit"])

	_, err = store.Create(ctx, "app", "user", id, nil)
	assert.ErrorIs(t, err, core.ErrSessionExists)

	// Same merge semantics as the memory store.
	require.NoError(t, store.ApplyStateWrite(ctx, created, map[string]any{
		"unit": "Fahrenheit",
		"city": "london",
	}))

	got, err := store.Get(ctx, "app", "user", id)
	require.NoError(t, err)
	assert.Equal(t, "Fahrenheit", got.State["unit"])
	assert.Equal(t, "london", got.State["city"])
}

func TestRedisStoreGetMissing(t *testing.T) {
	store := newTestRedisStore(t)

	_, err := store.Get(context.Background(), "app", "user", uniqueSessionID())
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}
