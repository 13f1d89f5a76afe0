// Package storagetypes 定义存储层共享数据类型
//
// 独立包，避免循环导入：repository 与 storage 都依赖本包。
package storagetypes

import (
	"errors"

	"olapp/internal/shared/model"
)

var (
	// ErrNotFound 实体不存在
	// 替代 sql.ErrNoRows
	ErrNotFound = errors.New("entity not found")

	// ErrConflict 并发冲突
	ErrConflict = errors.New("conflict: concurrent modification detected")

	// ErrDuplicate 唯一键冲突（重复 slug、重复邮箱、重复确认票）
	ErrDuplicate = errors.New("duplicate: entity already exists")
)

// ConfirmationResult 一次确认投票在存储层的执行结果
type ConfirmationResult struct {
	// Inserted 是否写入了新的确认票（false 表示该用户已投过票）
	Inserted bool

	// Count 写入后该商家的确认票总数
	Count int

	// PreviousStatus 投票前的商家状态
	PreviousStatus model.BusinessStatus

	// Status 投票后的商家状态
	Status model.BusinessStatus

	// Required 商家需要的确认数
	Required int
}

// Transitioned 是否由本次投票触发了 PENDING → VERIFIED
func (r *ConfirmationResult) Transitioned() bool {
	return r.PreviousStatus == model.BusinessStatusPending && r.Status == model.BusinessStatusVerified
}
