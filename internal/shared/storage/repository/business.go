// Package repository Business 相关的存储操作
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"olapp/internal/shared/model"
	"olapp/internal/shared/storage/dbutil"
)

const businessColumns = `id, owner_id, name, slug, description, address, neighborhood,
	phone, whatsapp, email, website, facebook, instagram, tiktok, logo, cover_image,
	accepts_cash, accepts_transfer, accepts_card,
	status, confirmations_count, required_confirmations, woo_category_id, created_at, updated_at`

func scanBusiness(scanner rowScanner) (*model.Business, error) {
	b := &model.Business{}
	var wooCategoryID sql.NullInt64
	err := scanner.Scan(
		&b.ID, &b.OwnerID, &b.Name, &b.Slug, &b.Description, &b.Address, &b.Neighborhood,
		&b.Phone, &b.WhatsApp, &b.Email, &b.Website, &b.Facebook, &b.Instagram, &b.TikTok,
		&b.Logo, &b.CoverImage,
		&b.AcceptsCash, &b.AcceptsTransfer, &b.AcceptsCard,
		&b.Status, &b.ConfirmationsCount, &b.RequiredConfirmations, &wooCategoryID,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if wooCategoryID.Valid {
		id := wooCategoryID.Int64
		b.WooCategoryID = &id
	}
	return b, nil
}

// CreateBusiness 创建商家，slug 重复返回 ErrDuplicate
func (s *Store) CreateBusiness(ctx context.Context, b *model.Business) error {
	query := s.rebind(`
		INSERT INTO businesses (` + businessColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23, $24, $25)`)
	_, err := s.db.ExecContext(ctx, query,
		b.ID, b.OwnerID, b.Name, b.Slug, b.Description, b.Address, b.Neighborhood,
		b.Phone, b.WhatsApp, b.Email, b.Website, b.Facebook, b.Instagram, b.TikTok,
		b.Logo, b.CoverImage,
		b.AcceptsCash, b.AcceptsTransfer, b.AcceptsCard,
		b.Status, b.ConfirmationsCount, b.RequiredConfirmations, b.WooCategoryID,
		b.CreatedAt, b.UpdatedAt)
	return s.mapWriteErr("create business", err)
}

// GetBusiness 获取商家，不存在返回 nil, nil
func (s *Store) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	b, err := scanBusiness(s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+businessColumns+` FROM businesses WHERE id = $1`), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// GetBusinessBySlug 通过 slug 获取商家
func (s *Store) GetBusinessBySlug(ctx context.Context, slug string) (*model.Business, error) {
	b, err := scanBusiness(s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+businessColumns+` FROM businesses WHERE slug = $1`), slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// ListBusinesses 列出商家，按创建时间倒序
func (s *Store) ListBusinesses(ctx context.Context, filter model.BusinessFilter) ([]*model.Business, error) {
	var conditions []string
	var args []interface{}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query, args := dbutil.BuildDynamicQuery(s.dialect,
		`SELECT `+businessColumns+` FROM businesses`, conditions, args)
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	businesses := []*model.Business{}
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

// CountBusinessesByOwner 统计用户名下的商家数量
func (s *Store) CountBusinessesByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(1) FROM businesses WHERE owner_id = $1`), ownerID).Scan(&count)
	return count, err
}

// UpdateBusiness 更新商家资料字段
//
// 不修改 status、confirmations_count、required_confirmations、slug：
// 这些字段只能由认证流程改变。
func (s *Store) UpdateBusiness(ctx context.Context, b *model.Business) error {
	b.UpdatedAt = time.Now()
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE businesses SET description = $1, address = $2, neighborhood = $3,
			phone = $4, whatsapp = $5, email = $6, website = $7, facebook = $8,
			instagram = $9, tiktok = $10, logo = $11, cover_image = $12,
			accepts_cash = $13, accepts_transfer = $14, accepts_card = $15, updated_at = $16
		WHERE id = $17`),
		b.Description, b.Address, b.Neighborhood,
		b.Phone, b.WhatsApp, b.Email, b.Website, b.Facebook,
		b.Instagram, b.TikTok, b.Logo, b.CoverImage,
		b.AcceptsCash, b.AcceptsTransfer, b.AcceptsCard, b.UpdatedAt,
		b.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, "update business")
}

// UpdateBusinessStatus 无条件设置商家状态（管理员决定）
func (s *Store) UpdateBusinessStatus(ctx context.Context, id string, status model.BusinessStatus) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE businesses SET status = $1, updated_at = $2 WHERE id = $3`),
		status, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(res, "update business status")
}

// SetBusinessWooCategory 记录商家在商品目录中的分类 ID
func (s *Store) SetBusinessWooCategory(ctx context.Context, id string, categoryID int64) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE businesses SET woo_category_id = $1, updated_at = $2 WHERE id = $3`),
		categoryID, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(res, "set business category")
}
