// Package infra 基础设施聚合层
//
// 提供统一的基础设施初始化和依赖注入，包括：
//   - Storage：持久化存储（PostgreSQL / SQLite）
//   - Cache：目录缓存（Redis 或进程内）
//   - EventBus：商家事件总线（Redis Streams 或进程内）
package infra

import (
	"log"

	"olapp/internal/shared/cache"
	"olapp/internal/shared/eventbus"
	"olapp/internal/shared/storage"
)

// Infrastructure 基础设施聚合结构
type Infrastructure struct {
	// Storage 持久化存储
	Storage storage.PersistentStore

	// Cache 目录缓存
	Cache cache.Cache

	// EventBus 商家事件总线
	EventBus eventbus.EventBus

	redis *RedisInfra
}

// New 组装基础设施
//
// redisURL 为空或连接失败时退化为进程内缓存和事件总线，服务仍可启动。
func New(store storage.PersistentStore, redisURL string) *Infrastructure {
	i := &Infrastructure{Storage: store}
	if redisURL != "" {
		r, err := NewRedisInfra(redisURL)
		if err == nil {
			i.redis = r
			i.Cache = r.Cache()
			i.EventBus = r.EventBus()
			return i
		}
		log.Printf("[infra] Redis unavailable, falling back to in-process cache/event bus: %v", err)
	}
	i.Cache = cache.NewMemoryCache()
	i.EventBus = eventbus.NewMemoryBus()
	return i
}

// UsingRedis 是否使用 Redis
func (i *Infrastructure) UsingRedis() bool {
	return i.redis != nil
}

// Close 关闭所有基础设施连接
func (i *Infrastructure) Close() error {
	var lastErr error

	if i.Storage != nil {
		if err := i.Storage.Close(); err != nil {
			lastErr = err
		}
	}

	// Redis 模式下 Cache 与 EventBus 共享同一个客户端，只关闭一次
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			lastErr = err
		}
		return lastErr
	}

	if i.Cache != nil {
		if err := i.Cache.Close(); err != nil {
			lastErr = err
		}
	}

	if i.EventBus != nil {
		if err := i.EventBus.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// NewNoOpInfrastructure 创建空操作的基础设施（用于测试）
func NewNoOpInfrastructure() *Infrastructure {
	return &Infrastructure{
		Cache:    cache.NewNoOpCache(),
		EventBus: eventbus.NewNoOpEventBus(),
	}
}
