// Package verification 商家核验状态机
//
// 商家从 PENDING 进入 VERIFIED 或 REJECTED 有两条路径：
//   - 超级用户直接审批/驳回（Decide），任何状态下均可执行，后写者生效；
//   - 社区用户确认投票（Confirm），票数达到 requiredConfirmations 时自动 VERIFIED，
//     只在 PENDING 状态下触发状态转换。
//
// 同一商家的投票在存储层事务内串行执行，见 storage.VerificationStore.RecordConfirmation。
package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"olapp/internal/shared/eventbus"
	"olapp/internal/shared/model"
	"olapp/internal/shared/storage"
	"olapp/pkg/logging"
)

// Store 引擎依赖的存储操作
type Store interface {
	GetBusiness(ctx context.Context, id string) (*model.Business, error)
	HasVerification(ctx context.Context, businessID, userID string) (bool, error)
	RecordConfirmation(ctx context.Context, v *model.BusinessVerification) (*storage.ConfirmationResult, error)
	UpdateBusinessStatus(ctx context.Context, id string, status model.BusinessStatus) error
}

// Decision 管理员决定
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision 大小写不敏感
func ParseDecision(s string) Decision {
	return Decision(strings.ToLower(strings.TrimSpace(s)))
}

func (d Decision) label() string {
	if _, ok := d.Status(); ok {
		return string(d)
	}
	return "invalid"
}

// Status 决定对应的目标状态
func (d Decision) Status() (model.BusinessStatus, bool) {
	switch d {
	case DecisionApprove:
		return model.BusinessStatusVerified, true
	case DecisionReject:
		return model.BusinessStatusRejected, true
	}
	return "", false
}

// SkipReason 投票未被记录的原因
type SkipReason string

const (
	SkipUnauthenticated SkipReason = "unauthenticated"
	SkipOwner           SkipReason = "owner"
	SkipDuplicate       SkipReason = "duplicate"
)

// Outcome 一次确认投票的结果
//
// 未记录的投票不是错误，Reason 说明原因。
type Outcome struct {
	Recorded              bool                 `json:"recorded"`
	Reason                SkipReason           `json:"reason,omitempty"`
	Confirmations         int                  `json:"confirmations"`
	RequiredConfirmations int                  `json:"required_confirmations"`
	Status                model.BusinessStatus `json:"status"`
	Transitioned          bool                 `json:"transitioned"`
}

// Engine 核验引擎
type Engine struct {
	store     Store
	publisher eventbus.Publisher
	metrics   *Metrics
	logger    *logging.Logger
}

// Option 引擎可选项
type Option func(*Engine)

// WithPublisher 状态变化时发布事件
func WithPublisher(p eventbus.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics 记录 Prometheus 指标
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger 指定日志器
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine 创建核验引擎
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store}
	for _, opt := range opts {
		opt(e)
	}
	if e.publisher == nil {
		e.publisher = eventbus.NewNoOpEventBus()
	}
	if e.logger == nil {
		e.logger = logging.Default("verification")
	}
	return e
}

// Decide 管理员审批或驳回
//
// 检查顺序：权限 → 商家存在 → 决定合法。
func (e *Engine) Decide(ctx context.Context, businessID string, actor *Actor, decision Decision) (model.BusinessStatus, error) {
	if !CanDecide(actor) {
		e.metrics.decision(decision.label(), "unauthorized")
		return "", ErrUnauthorized
	}

	b, err := e.store.GetBusiness(ctx, businessID)
	if err != nil {
		return "", fmt.Errorf("get business %s: %w", businessID, err)
	}
	if b == nil {
		e.metrics.decision(decision.label(), "not_found")
		return "", ErrNotFound
	}

	status, ok := decision.Status()
	if !ok {
		e.metrics.decision(decision.label(), "invalid")
		return "", fmt.Errorf("%w: decision %q", ErrInvalidArgument, decision)
	}

	if err := e.store.UpdateBusinessStatus(ctx, businessID, status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrNotFound
		}
		e.metrics.decision(decision.label(), "error")
		return "", fmt.Errorf("update business status: %w", err)
	}

	e.metrics.decision(decision.label(), "ok")
	if b.Status != status {
		e.metrics.transition("admin", string(status))
	}
	e.logger.WithContext(ctx).VerificationLog("decide", businessID, actor.ID,
		slog.String("decision", string(decision)),
		slog.String("previous_status", string(b.Status)),
		slog.String("status", string(status)),
	)

	eventType := eventbus.EventBusinessVerified
	if status == model.BusinessStatusRejected {
		eventType = eventbus.EventBusinessRejected
	}
	e.publish(ctx, eventbus.NewBusinessEvent(eventType, businessID, map[string]interface{}{
		"source":          "admin",
		"actor_id":        actor.ID,
		"previous_status": string(b.Status),
		"status":          string(status),
	}))

	return status, nil
}

// Confirm 社区确认投票
//
// 未登录、商家本人、重复投票都是静默 no-op，返回 Recorded=false 而不是错误。
// 商家不存在返回 ErrNotFound。终态商家仍记录投票，但不再计数或改变状态。
func (e *Engine) Confirm(ctx context.Context, businessID string, actor *Actor) (*Outcome, error) {
	if !actor.Authenticated() {
		e.metrics.vote(string(SkipUnauthenticated))
		return &Outcome{Reason: SkipUnauthenticated}, nil
	}

	b, err := e.store.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("get business %s: %w", businessID, err)
	}
	if b == nil {
		e.metrics.vote("not_found")
		return nil, ErrNotFound
	}

	if !CanConfirm(actor, b) {
		e.metrics.vote(string(SkipOwner))
		return skipped(b, SkipOwner), nil
	}

	voted, err := e.store.HasVerification(ctx, businessID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("check verification: %w", err)
	}
	if voted {
		e.metrics.vote(string(SkipDuplicate))
		return skipped(b, SkipDuplicate), nil
	}

	res, err := e.store.RecordConfirmation(ctx, &model.BusinessVerification{
		ID:         "ver-" + uuid.NewString(),
		BusinessID: businessID,
		UserID:     actor.ID,
	})
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, storage.ErrDuplicate):
		// 唯一索引兜底：并发的同一用户请求
		res = &storage.ConfirmationResult{}
	case err != nil:
		e.metrics.vote("error")
		return nil, fmt.Errorf("record confirmation: %w", err)
	}

	if !res.Inserted {
		e.metrics.vote(string(SkipDuplicate))
		if fresh, err := e.store.GetBusiness(ctx, businessID); err == nil && fresh != nil {
			b = fresh
		}
		return skipped(b, SkipDuplicate), nil
	}

	out := &Outcome{
		Recorded:              true,
		Confirmations:         b.ConfirmationsCount,
		RequiredConfirmations: res.Required,
		Status:                res.Status,
		Transitioned:          res.Transitioned(),
	}
	if res.PreviousStatus == model.BusinessStatusPending {
		out.Confirmations = res.Count
	}

	e.metrics.vote("recorded")
	e.logger.WithContext(ctx).VerificationLog("confirm", businessID, actor.ID,
		slog.Int("confirmations", out.Confirmations),
		slog.Int("required", out.RequiredConfirmations),
		slog.String("status", string(out.Status)),
	)

	e.publish(ctx, eventbus.NewBusinessEvent(eventbus.EventBusinessConfirmed, businessID, map[string]interface{}{
		"confirmations":          out.Confirmations,
		"required_confirmations": out.RequiredConfirmations,
		"status":                 string(out.Status),
	}))

	if out.Transitioned {
		e.metrics.transition("community", string(model.BusinessStatusVerified))
		e.publish(ctx, eventbus.NewBusinessEvent(eventbus.EventBusinessVerified, businessID, map[string]interface{}{
			"source":          "community",
			"previous_status": string(res.PreviousStatus),
			"status":          string(out.Status),
			"confirmations":   out.Confirmations,
		}))
	}

	return out, nil
}

func (e *Engine) publish(ctx context.Context, ev *eventbus.BusinessEvent) {
	if err := e.publisher.PublishBusinessEvent(ctx, ev); err != nil {
		e.logger.WithContext(ctx).WithError(err).Warn("publish business event failed",
			slog.String("type", ev.Type),
			slog.String("business_id", ev.BusinessID),
		)
	}
}

func skipped(b *model.Business, reason SkipReason) *Outcome {
	return &Outcome{
		Reason:                reason,
		Confirmations:         b.ConfirmationsCount,
		RequiredConfirmations: b.RequiredConfirmations,
		Status:                b.Status,
	}
}
