// Package cache 缓存层类型定义
package cache

import (
	"errors"
	"time"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// ============================================================================
// Key 前缀和 TTL 常量
// ============================================================================

const (
	// KeyCatalog 目录缓存 key 前缀
	KeyCatalog = "catalog:"

	// KeyCatalogCategories 分类列表缓存 key 前缀
	KeyCatalogCategories = KeyCatalog + "categories:"

	// TTLCatalog 目录缓存默认 TTL
	TTLCatalog = 5 * time.Minute
)
