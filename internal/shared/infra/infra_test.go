package infra

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olapp/internal/shared/cache"
	"olapp/internal/shared/eventbus"
)

func TestNew_FallsBackWithoutRedis(t *testing.T) {
	i := New(nil, "")
	defer i.Close()

	assert.False(t, i.UsingRedis())
	assert.IsType(t, &cache.MemoryCache{}, i.Cache)
	assert.IsType(t, &eventbus.MemoryBus{}, i.EventBus)
}

func TestNew_BadRedisURLFallsBack(t *testing.T) {
	i := New(nil, "not-a-redis-url")
	defer i.Close()

	assert.False(t, i.UsingRedis())
	require.NoError(t, i.EventBus.PublishBusinessEvent(context.Background(),
		eventbus.NewBusinessEvent(eventbus.EventBusinessConfirmed, "biz", nil)))
}

func TestNoOpInfrastructure(t *testing.T) {
	i := NewNoOpInfrastructure()
	assert.NoError(t, i.Close())
}
