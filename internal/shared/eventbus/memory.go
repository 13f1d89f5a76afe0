package eventbus

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBus 进程内事件总线
//
// 未配置 Redis 时使用。保留最近 MaxStreamLength 条事件，
// 订阅者各自持有带缓冲的 channel，缓冲满时丢弃该订阅者的新事件。
type MemoryBus struct {
	mu     sync.RWMutex
	seq    int64
	events []*BusinessEvent
	subs   map[chan *BusinessEvent]struct{}
	closed bool
}

// NewMemoryBus 创建进程内事件总线
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[chan *BusinessEvent]struct{})}
}

// PublishBusinessEvent 记录事件并广播给所有订阅者
func (b *MemoryBus) PublishBusinessEvent(ctx context.Context, event *BusinessEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("event bus closed")
	}

	b.seq++
	event.ID = fmt.Sprintf("%d-0", b.seq)
	b.events = append(b.events, event)
	if len(b.events) > MaxStreamLength {
		b.events = b.events[len(b.events)-MaxStreamLength:]
	}

	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// GetBusinessEvents 返回 ID 不小于 fromID 的事件
func (b *MemoryBus) GetBusinessEvents(ctx context.Context, fromID string, count int64) ([]*BusinessEvent, error) {
	var from int64
	if fromID != "" {
		fmt.Sscanf(fromID, "%d", &from)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	events := []*BusinessEvent{}
	for _, e := range b.events {
		var seq int64
		fmt.Sscanf(e.ID, "%d", &seq)
		if seq < from {
			continue
		}
		events = append(events, e)
		if count > 0 && int64(len(events)) >= count {
			break
		}
	}
	return events, nil
}

// GetBusinessEventCount 当前保留的事件数
func (b *MemoryBus) GetBusinessEventCount(ctx context.Context) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int64(len(b.events)), nil
}

// SubscribeBusinessEvents 订阅新事件，ctx 结束时 channel 关闭
func (b *MemoryBus) SubscribeBusinessEvents(ctx context.Context) (<-chan *BusinessEvent, error) {
	ch := make(chan *BusinessEvent, 100)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, nil
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}()
	return ch, nil
}

// Close 关闭所有订阅
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	return nil
}

var _ EventBus = (*MemoryBus)(nil)
