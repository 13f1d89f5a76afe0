// Package eventbus 事件总线 mock 实现
package eventbus

import (
	"context"
)

// ============================================================================
// NoOpEventBus - 空操作的 EventBus 实现（用于测试）
// ============================================================================

// NoOpEventBus 是一个不做任何操作的 EventBus 实现
type NoOpEventBus struct{}

// NewNoOpEventBus 创建 NoOpEventBus 实例
func NewNoOpEventBus() *NoOpEventBus {
	return &NoOpEventBus{}
}

// Close 关闭事件总线
func (e *NoOpEventBus) Close() error {
	return nil
}

func (e *NoOpEventBus) PublishBusinessEvent(ctx context.Context, event *BusinessEvent) error {
	return nil
}
func (e *NoOpEventBus) GetBusinessEvents(ctx context.Context, fromID string, count int64) ([]*BusinessEvent, error) {
	return []*BusinessEvent{}, nil
}
func (e *NoOpEventBus) GetBusinessEventCount(ctx context.Context) (int64, error) {
	return 0, nil
}
func (e *NoOpEventBus) SubscribeBusinessEvents(ctx context.Context) (<-chan *BusinessEvent, error) {
	ch := make(chan *BusinessEvent)
	close(ch)
	return ch, nil
}

// 确保 NoOpEventBus 实现了 EventBus 接口
var _ EventBus = (*NoOpEventBus)(nil)
