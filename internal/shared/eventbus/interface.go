// Package eventbus 事件总线抽象接口
//
// 提供商家事件的发布/订阅能力。配置了 Redis 时由 Redis Streams 实现，
// 否则使用进程内的 MemoryBus。
package eventbus

import (
	"context"
)

// ============================================================================
// 事件总线接口定义
// ============================================================================

// Publisher 只负责发布事件（核验引擎只依赖这一部分）
type Publisher interface {
	PublishBusinessEvent(ctx context.Context, event *BusinessEvent) error
}

// BusinessEventBus 商家事件总线接口
type BusinessEventBus interface {
	Publisher
	GetBusinessEvents(ctx context.Context, fromID string, count int64) ([]*BusinessEvent, error)
	GetBusinessEventCount(ctx context.Context) (int64, error)
	SubscribeBusinessEvents(ctx context.Context) (<-chan *BusinessEvent, error)
}

// ============================================================================
// 组合接口
// ============================================================================

// EventBus 事件总线组合接口
type EventBus interface {
	BusinessEventBus
	Close() error
}
