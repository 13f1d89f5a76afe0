// Package redis 目录缓存操作
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"olapp/internal/shared/cache"
)

// Get 读取缓存，未命中返回 cache.ErrMiss
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, cache.ErrMiss
	}
	return val, err
}

// Set 写入缓存，ttl <= 0 表示不过期
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

// DeletePrefix 通过 SCAN 删除指定前缀的所有 key
func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
