// Package redis BusinessEvents 事件总线操作
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"olapp/internal/shared/eventbus"
)

// PublishBusinessEvent 发布商家事件
func (s *Store) PublishBusinessEvent(ctx context.Context, event *eventbus.BusinessEvent) error {
	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: eventbus.MaxStreamLength,
		Approx: true,
		Values: map[string]interface{}{
			"type":        event.Type,
			"business_id": event.BusinessID,
			"timestamp":   event.Timestamp.Format(time.RFC3339Nano),
			"data":        string(dataJSON),
		},
	}

	id, err := s.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	event.ID = id

	log.Printf("[Redis/EventBus] Published event: business=%s id=%s type=%s", event.BusinessID, id, event.Type)
	return nil
}

// GetBusinessEvents 获取商家事件列表
func (s *Store) GetBusinessEvents(ctx context.Context, fromID string, count int64) ([]*eventbus.BusinessEvent, error) {
	if fromID == "" {
		fromID = "-"
	}

	msgs, err := s.client.XRange(ctx, s.stream, fromID, "+").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	events := []*eventbus.BusinessEvent{}
	for _, msg := range msgs {
		events = append(events, decodeMessage(msg))
		if count > 0 && int64(len(events)) >= count {
			break
		}
	}
	return events, nil
}

// GetBusinessEventCount 获取事件数量
func (s *Store) GetBusinessEventCount(ctx context.Context) (int64, error) {
	return s.client.XLen(ctx, s.stream).Result()
}

// SubscribeBusinessEvents 订阅商家事件（仅新事件）
func (s *Store) SubscribeBusinessEvents(ctx context.Context) (<-chan *eventbus.BusinessEvent, error) {
	ch := make(chan *eventbus.BusinessEvent, 100)

	go func() {
		defer close(ch)
		lastID := "$"

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			streams, err := s.client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{s.stream, lastID},
				Count:   10,
				Block:   5 * time.Second,
			}).Result()

			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() == nil {
					log.Printf("[Redis/EventBus] Event subscription error: %v", err)
				}
				return
			}

			for _, stream := range streams {
				for _, msg := range stream.Messages {
					select {
					case ch <- decodeMessage(msg):
						lastID = msg.ID
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return ch, nil
}

func decodeMessage(msg redis.XMessage) *eventbus.BusinessEvent {
	event := &eventbus.BusinessEvent{ID: msg.ID}
	event.Type, _ = msg.Values["type"].(string)
	event.BusinessID, _ = msg.Values["business_id"].(string)

	if ts, ok := msg.Values["timestamp"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			event.Timestamp = t
		}
	}

	if dataStr, ok := msg.Values["data"].(string); ok {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(dataStr), &data); err == nil {
			event.Data = data
		}
	}
	return event
}
