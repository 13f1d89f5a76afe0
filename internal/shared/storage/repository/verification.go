// Package repository BusinessVerification 相关的存储操作
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"olapp/internal/shared/model"
	"olapp/internal/shared/storagetypes"
)

// HasVerification 判断用户是否已为商家投过确认票
func (s *Store) HasVerification(ctx context.Context, businessID, userID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(1) FROM business_verifications WHERE business_id = $1 AND user_id = $2`),
		businessID, userID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountVerifications 统计商家的确认票数
func (s *Store) CountVerifications(ctx context.Context, businessID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(1) FROM business_verifications WHERE business_id = $1`),
		businessID).Scan(&count)
	return count, err
}

// ListVerifications 列出商家的确认票（按时间正序）
func (s *Store) ListVerifications(ctx context.Context, businessID string) ([]*model.BusinessVerification, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, business_id, user_id, created_at FROM business_verifications
			WHERE business_id = $1 ORDER BY created_at ASC`), businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	verifications := []*model.BusinessVerification{}
	for rows.Next() {
		v := &model.BusinessVerification{}
		if err := rows.Scan(&v.ID, &v.BusinessID, &v.UserID, &v.CreatedAt); err != nil {
			return nil, err
		}
		verifications = append(verifications, v)
	}
	return verifications, rows.Err()
}

// RecordConfirmation 记录一次确认投票并重新评估商家状态
//
// 事务步骤：
//  1. 锁定商家行（PostgreSQL FOR UPDATE；SQLite 由写事务串行化）
//  2. INSERT ... ON CONFLICT DO NOTHING 写入确认票，0 行表示重复投票
//  3. 重新统计票数
//  4. 商家仍为 PENDING 时更新计数，达到阈值则置为 VERIFIED；终态商家只记票不改状态
//
// 同一商家的并发投票在第 1 步排队，因此计数不会丢失，
// 状态转换最多发生一次。
func (s *Store) RecordConfirmation(ctx context.Context, v *model.BusinessVerification) (*storagetypes.ConfirmationResult, error) {
	start := time.Now()
	result, err := s.recordConfirmation(ctx, v)
	s.logQuery("record_confirmation", "business_verifications", start, err)
	return result, err
}

func (s *Store) recordConfirmation(ctx context.Context, v *model.BusinessVerification) (*storagetypes.ConfirmationResult, error) {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result := &storagetypes.ConfirmationResult{}
	lockQuery := `SELECT status, required_confirmations FROM businesses WHERE id = $1 ` + s.dialect.ForUpdateClause()
	err = tx.QueryRowContext(ctx, s.rebind(lockQuery), v.BusinessID).
		Scan(&result.PreviousStatus, &result.Required)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("record confirmation: %w", storagetypes.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock business: %w", err)
	}
	result.Status = result.PreviousStatus

	res, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO business_verifications (id, business_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (business_id, user_id) DO NOTHING`),
		v.ID, v.BusinessID, v.UserID, v.CreatedAt)
	if err != nil {
		return nil, s.mapWriteErr("insert verification", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	result.Inserted = inserted > 0

	if err := tx.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(1) FROM business_verifications WHERE business_id = $1`),
		v.BusinessID).Scan(&result.Count); err != nil {
		return nil, fmt.Errorf("count verifications: %w", err)
	}

	if !result.Inserted {
		return result, tx.Commit()
	}

	if result.PreviousStatus == model.BusinessStatusPending {
		if result.Count >= result.Required {
			result.Status = model.BusinessStatusVerified
		}
		// status = 'PENDING' 条件保证不会覆盖同一时刻的管理员决定
		_, err = tx.ExecContext(ctx, s.rebind(`
			UPDATE businesses SET status = $1, confirmations_count = $2, updated_at = $3
			WHERE id = $4 AND status = $5`),
			result.Status, result.Count, time.Now(), v.BusinessID, model.BusinessStatusPending)
		if err != nil {
			return nil, fmt.Errorf("update business after confirmation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}
