// Package model 定义核心数据模型
//
// business.go 包含商家目录相关的数据模型定义：
//   - Business：商家（状态机 PENDING → VERIFIED | REJECTED）
//   - BusinessVerification：社区确认票（每个用户对每个商家最多一票）
package model

import "time"

// BusinessStatus 商家认证状态
type BusinessStatus string

const (
	BusinessStatusPending  BusinessStatus = "PENDING"
	BusinessStatusVerified BusinessStatus = "VERIFIED"
	BusinessStatusRejected BusinessStatus = "REJECTED"
)

// IsTerminal 是否为终态
//
// 终态不会被社区确认改变，只有管理员决定可以再次改变。
func (s BusinessStatus) IsTerminal() bool {
	return s == BusinessStatusVerified || s == BusinessStatusRejected
}

// DefaultRequiredConfirmations 新商家默认需要的确认数
const DefaultRequiredConfirmations = 3

// Business 商家
//
// 不变量：
//   - Status == VERIFIED 时，要么 ConfirmationsCount >= RequiredConfirmations，要么来自管理员批准
//   - ConfirmationsCount 只在 PENDING 状态下单调递增
//   - Slug 全局唯一
type Business struct {
	ID      string `json:"id" db:"id"`
	OwnerID string `json:"owner_id" db:"owner_id"`
	Name    string `json:"name" db:"name"`
	Slug    string `json:"slug" db:"slug"`

	Description  string `json:"description,omitempty" db:"description"`
	Address      string `json:"address" db:"address"`
	Neighborhood string `json:"neighborhood" db:"neighborhood"`

	// 联系方式
	Phone     string `json:"phone" db:"phone"`
	WhatsApp  string `json:"whatsapp,omitempty" db:"whatsapp"`
	Email     string `json:"email,omitempty" db:"email"`
	Website   string `json:"website,omitempty" db:"website"`
	Facebook  string `json:"facebook,omitempty" db:"facebook"`
	Instagram string `json:"instagram,omitempty" db:"instagram"`
	TikTok    string `json:"tiktok,omitempty" db:"tiktok"`

	// 图片（对象存储 URL）
	Logo       string `json:"logo,omitempty" db:"logo"`
	CoverImage string `json:"cover_image,omitempty" db:"cover_image"`

	// 支付方式
	AcceptsCash     bool `json:"accepts_cash" db:"accepts_cash"`
	AcceptsTransfer bool `json:"accepts_transfer" db:"accepts_transfer"`
	AcceptsCard     bool `json:"accepts_card" db:"accepts_card"`

	// 认证状态
	Status                BusinessStatus `json:"status" db:"status"`
	ConfirmationsCount    int            `json:"confirmations_count" db:"confirmations_count"`
	RequiredConfirmations int            `json:"required_confirmations" db:"required_confirmations"`

	// WooCategoryID 商品目录中的分类 ID，首次发布商品时创建
	WooCategoryID *int64 `json:"woo_category_id,omitempty" db:"woo_category_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BusinessVerification 社区确认票
type BusinessVerification struct {
	ID         string    `json:"id" db:"id"`
	BusinessID string    `json:"business_id" db:"business_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// BusinessFilter 商家列表过滤条件
type BusinessFilter struct {
	OwnerID string
	Status  BusinessStatus
	Limit   int
	Offset  int
}

// BusinessUpdate 商家可编辑字段（nil 表示不修改）
type BusinessUpdate struct {
	Description     *string `json:"description,omitempty"`
	Address         *string `json:"address,omitempty"`
	Neighborhood    *string `json:"neighborhood,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	WhatsApp        *string `json:"whatsapp,omitempty"`
	Email           *string `json:"email,omitempty"`
	Website         *string `json:"website,omitempty"`
	Facebook        *string `json:"facebook,omitempty"`
	Instagram       *string `json:"instagram,omitempty"`
	TikTok          *string `json:"tiktok,omitempty"`
	Logo            *string `json:"logo,omitempty"`
	CoverImage      *string `json:"cover_image,omitempty"`
	AcceptsCash     *bool   `json:"accepts_cash,omitempty"`
	AcceptsTransfer *bool   `json:"accepts_transfer,omitempty"`
	AcceptsCard     *bool   `json:"accepts_card,omitempty"`
}

// Apply 将修改应用到商家
func (u *BusinessUpdate) Apply(b *Business) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&b.Description, u.Description)
	setString(&b.Address, u.Address)
	setString(&b.Neighborhood, u.Neighborhood)
	setString(&b.Phone, u.Phone)
	setString(&b.WhatsApp, u.WhatsApp)
	setString(&b.Email, u.Email)
	setString(&b.Website, u.Website)
	setString(&b.Facebook, u.Facebook)
	setString(&b.Instagram, u.Instagram)
	setString(&b.TikTok, u.TikTok)
	setString(&b.Logo, u.Logo)
	setString(&b.CoverImage, u.CoverImage)
	setBool(&b.AcceptsCash, u.AcceptsCash)
	setBool(&b.AcceptsTransfer, u.AcceptsTransfer)
	setBool(&b.AcceptsCard, u.AcceptsCard)
}
