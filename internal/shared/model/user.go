package model

import "time"

// UserRole 用户角色
type UserRole string

const (
	UserRoleCustomer UserRole = "CUSTOMER"
	UserRoleBusiness UserRole = "BUSINESS"
	UserRoleAdmin    UserRole = "ADMIN"
)

// Valid 是否为合法角色
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleCustomer, UserRoleBusiness, UserRoleAdmin:
		return true
	}
	return false
}

// User 用户
//
// 首次认证访问时创建（sync-on-login），之后仅在身份信息变化时更新 name/avatar，
// 从不删除。IsSuperUser 决定是否可以审批商家。
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"` // never expose in JSON
	Role         UserRole  `json:"role" db:"role"`
	IsSuperUser  bool      `json:"is_super_user" db:"is_super_user"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	Avatar       string    `json:"avatar,omitempty" db:"avatar"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
