// Package redis 基于 Redis Streams 的事件总线实现
package redis

import (
	"github.com/redis/go-redis/v9"

	"olapp/internal/shared/eventbus"
)

// Store Redis 事件总线
type Store struct {
	client *redis.Client
	stream string
}

// NewStoreFromClient 从现有 Redis 客户端创建事件总线
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client, stream: eventbus.KeyBusinessEvents}
}

// WithStream 使用自定义 Stream key（测试隔离用）
func (s *Store) WithStream(key string) *Store {
	return &Store{client: s.client, stream: key}
}

// Close 关闭 Redis 连接
func (s *Store) Close() error {
	return s.client.Close()
}

var _ eventbus.EventBus = (*Store)(nil)
