// Package storage 定义存储层领域错误
//
// 这些错误用于隔离业务层与底层存储引擎的错误类型，
// 各驱动实现负责将底层错误（sql.ErrNoRows、pgconn 23505、SQLite UNIQUE）转换为这些领域错误。
package storage

import "olapp/internal/shared/storagetypes"

var (
	// ErrNotFound 实体不存在
	ErrNotFound = storagetypes.ErrNotFound

	// ErrConflict 并发冲突
	ErrConflict = storagetypes.ErrConflict

	// ErrDuplicate 唯一键冲突
	ErrDuplicate = storagetypes.ErrDuplicate
)
