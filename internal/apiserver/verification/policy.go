package verification

import (
	"olapp/internal/shared/model"
)

// Actor 发起操作的身份
type Actor struct {
	ID          string
	Email       string
	Role        model.UserRole
	IsSuperUser bool
}

// Authenticated nil 或空 ID 视为未登录
func (a *Actor) Authenticated() bool {
	return a != nil && a.ID != ""
}

// CanDecide 只有超级用户可以直接审批或驳回
func CanDecide(a *Actor) bool {
	return a.Authenticated() && a.IsSuperUser
}

// CanConfirm 已登录且不是商家本人
func CanConfirm(a *Actor, b *model.Business) bool {
	return a.Authenticated() && b != nil && a.ID != b.OwnerID
}

// CanOwnAnother 普通用户最多拥有一个商家，超级用户不受限
func CanOwnAnother(a *Actor, owned int) bool {
	if !a.Authenticated() {
		return false
	}
	return a.IsSuperUser || owned == 0
}

// CanEdit 商家本人或超级用户
func CanEdit(a *Actor, b *model.Business) bool {
	if !a.Authenticated() || b == nil {
		return false
	}
	return a.IsSuperUser || a.ID == b.OwnerID
}

// CanManageCatalog 商家角色或管理员可以上架商品
func CanManageCatalog(a *Actor) bool {
	if !a.Authenticated() {
		return false
	}
	return a.IsSuperUser || a.Role == model.UserRoleBusiness || a.Role == model.UserRoleAdmin
}
