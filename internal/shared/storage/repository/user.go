package repository

import (
	"context"
	"database/sql"
	"time"

	"olapp/internal/shared/model"
)

const userColumns = `id, email, name, password_hash, role, is_super_user, phone, avatar, created_at, updated_at`

func scanUser(scanner rowScanner) (*model.User, error) {
	u := &model.User{}
	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.IsSuperUser, &u.Phone, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser 创建用户，邮箱重复返回 ErrDuplicate
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`),
		user.ID, user.Email, user.Name, user.PasswordHash, user.Role,
		user.IsSuperUser, user.Phone, user.Avatar, user.CreatedAt, user.UpdatedAt,
	)
	return s.mapWriteErr("create user", err)
}

// GetUserByEmail 通过邮箱查找用户
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+userColumns+` FROM users WHERE email = $1`), email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// GetUserByID 通过 ID 查找用户
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+userColumns+` FROM users WHERE id = $1`), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// UpdateUserProfile 更新用户名称和头像（身份同步）
func (s *Store) UpdateUserProfile(ctx context.Context, id, name, avatar string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE users SET name = $1, avatar = $2, updated_at = $3 WHERE id = $4`),
		name, avatar, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(res, "update user profile")
}

// UpdateUserPassword 更新用户密码
func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`),
		passwordHash, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(res, "update user password")
}

// PromoteSuperUser 将用户提升为超级用户（同时赋予 ADMIN 角色）
func (s *Store) PromoteSuperUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE users SET is_super_user = $1, role = $2, updated_at = $3 WHERE id = $4`),
		true, model.UserRoleAdmin, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(res, "promote super user")
}
