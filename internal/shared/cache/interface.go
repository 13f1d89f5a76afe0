// Package cache 缓存层抽象接口
//
// 提供带 TTL 的临时数据存取能力，当前用于缓存外部目录服务的分类列表。
// 配置了 Redis 时由 Redis 实现，否则使用进程内 MemoryCache。
package cache

import (
	"context"
	"time"
)

// ============================================================================
// 缓存接口定义
// ============================================================================

// CatalogCache 目录数据缓存接口
//
// 值为调用方序列化好的字节，缓存层不关心具体类型。
// 未命中时 Get 返回 ErrMiss。
type CatalogCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// ============================================================================
// 组合接口
// ============================================================================

// Cache 缓存组合接口
type Cache interface {
	CatalogCache
	Close() error
}
