// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在 repository/，方言在 driver/
//   - 初始化时通过依赖注入传入实现
//
// 缓存、事件总线在独立包中：
//   - cache/：缓存接口
//   - eventbus/：事件总线接口
package storage

import (
	"context"

	"olapp/internal/shared/model"
	"olapp/internal/shared/storagetypes"
)

// ConfirmationResult 从 storagetypes 包重导出
type ConfirmationResult = storagetypes.ConfirmationResult

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id, name, avatar string) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	PromoteSuperUser(ctx context.Context, id string) error
}

// BusinessStore 商家存储接口
type BusinessStore interface {
	CreateBusiness(ctx context.Context, b *model.Business) error
	GetBusiness(ctx context.Context, id string) (*model.Business, error)
	GetBusinessBySlug(ctx context.Context, slug string) (*model.Business, error)
	ListBusinesses(ctx context.Context, filter model.BusinessFilter) ([]*model.Business, error)
	CountBusinessesByOwner(ctx context.Context, ownerID string) (int, error)
	UpdateBusiness(ctx context.Context, b *model.Business) error
	UpdateBusinessStatus(ctx context.Context, id string, status model.BusinessStatus) error
	SetBusinessWooCategory(ctx context.Context, id string, categoryID int64) error
}

// VerificationStore 社区确认票存储接口
type VerificationStore interface {
	HasVerification(ctx context.Context, businessID, userID string) (bool, error)
	CountVerifications(ctx context.Context, businessID string) (int, error)
	ListVerifications(ctx context.Context, businessID string) ([]*model.BusinessVerification, error)

	// RecordConfirmation 在单个事务内完成：锁定商家 → 写入确认票 → 重新计数 →
	// 仍为 PENDING 时更新计数并在达到阈值时置为 VERIFIED。
	// 商家不存在返回 ErrNotFound；重复投票返回 Inserted=false 且不修改任何数据。
	RecordConfirmation(ctx context.Context, v *model.BusinessVerification) (*ConfirmationResult, error)
}

// HomeContentStore 首页内容存储接口
type HomeContentStore interface {
	GetActiveHomeContent(ctx context.Context) (*model.HomePageContent, error)
	SaveHomeContent(ctx context.Context, content *model.HomePageContent) error
	SetHomeLogo(ctx context.Context, logoURL string) (*model.HomePageContent, error)
}

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	BusinessStore
	VerificationStore
	HomeContentStore
	Close() error
}
