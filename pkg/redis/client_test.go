package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := NewClient("redis://"+mr.Addr(), "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "Invalid URL", url: "invalid://url"},
		{name: "Empty URL", url: ""},
		{name: "Unreachable server", url: "redis://127.0.0.1:1/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", nil)
			assert.Error(t, err)
			assert.Nil(t, client)
		})
	}
}

func TestClient_GetSet(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value string
		ttl   time.Duration
	}{
		{name: "Set with TTL", key: "test:key1", value: "value1", ttl: time.Minute},
		{name: "Set with no expiration", key: "test:key2", value: "permanent", ttl: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, client.Set(ctx, tt.key, tt.value, tt.ttl))

			got, err := client.Get(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)

			if tt.ttl > 0 {
				assert.Greater(t, mr.TTL(tt.key), time.Duration(0))
			} else {
				assert.Equal(t, time.Duration(0), mr.TTL(tt.key))
			}
		})
	}

	t.Run("Get missing key", func(t *testing.T) {
		_, err := client.Get(ctx, "test:missing")
		assert.True(t, errors.Is(err, ErrMiss))
	})
}

func TestClient_Delete(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	mr.Set("test:key1", "value1")
	mr.Set("test:key2", "value2")

	require.NoError(t, client.Delete(ctx, "test:key1", "test:key2", "test:never"))
	assert.False(t, mr.Exists("test:key1"))
	assert.False(t, mr.Exists("test:key2"))
}

func TestClient_Health(t *testing.T) {
	mr, client := setupTestRedis(t)

	assert.NoError(t, client.Health(context.Background()))

	mr.Close()
	assert.Error(t, client.Health(context.Background()))
}

func TestPrefixForLog(t *testing.T) {
	assert.Equal(t, "short", prefixForLog("short"))
	assert.Equal(t, "pathlight:prod:dashboard…", prefixForLog("pathlight:prod:dashboard:0123456789abcdef"))
}
