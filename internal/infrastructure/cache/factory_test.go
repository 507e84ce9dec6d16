package cache

import (
	"context"
	"testing"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// unreachable points at a port nothing listens on
var unreachable = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

func TestNewBackend_DisabledUsesMemory(t *testing.T) {
	b, err := NewBackend(context.Background(), config.RedisConfig{}, false, nil)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "memory", b.Kind)
	assert.IsType(t, &InMemoryStore{}, b.Locker)
	assert.Same(t, b.Locker, b.Cache)
}

func TestNewBackend_FallsBackWhenAllowed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	b, err := NewBackend(context.Background(), unreachable, true, zap.New(core))
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "memory", b.Kind)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "falling back to in-memory")
}

func TestNewBackend_FailsWhenRedisRequired(t *testing.T) {
	b, err := NewBackend(context.Background(), unreachable, false, zap.NewNop())

	assert.Nil(t, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis required but unavailable")
}

func TestBackend_CloseWithoutResources(t *testing.T) {
	assert.NoError(t, (&Backend{}).Close())
}
