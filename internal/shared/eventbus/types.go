// Package eventbus 事件总线类型定义
package eventbus

import (
	"time"
)

// ============================================================================
// 事件类型
// ============================================================================

// 商家事件类型
const (
	EventBusinessVerified  = "business.verified"
	EventBusinessRejected  = "business.rejected"
	EventBusinessConfirmed = "business.confirmed"
)

// BusinessEvent 商家状态事件
type BusinessEvent struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	BusinessID string                 `json:"business_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Data       map[string]interface{} `json:"data"`
}

// NewBusinessEvent 创建事件，时间戳取当前时间
func NewBusinessEvent(eventType, businessID string, data map[string]interface{}) *BusinessEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return &BusinessEvent{
		Type:       eventType,
		BusinessID: businessID,
		Timestamp:  time.Now(),
		Data:       data,
	}
}

// ============================================================================
// Key 前缀和常量
// ============================================================================

const (
	// KeyBusinessEvents 商家事件 Stream
	KeyBusinessEvents = "business_events"

	// Stream 最大长度
	MaxStreamLength = 1000
)
