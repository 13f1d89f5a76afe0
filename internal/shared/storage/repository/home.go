// Package repository HomePageContent 相关的存储操作
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"olapp/internal/shared/model"
)

const homeColumns = `id, hero_title, hero_subtitle, hero_cta_text, hero_cta_link, logo_url, is_active, created_at, updated_at`

// GetActiveHomeContent 获取当前生效的首页内容（含轮播项和推荐分类），不存在返回 nil, nil
func (s *Store) GetActiveHomeContent(ctx context.Context) (*model.HomePageContent, error) {
	c := &model.HomePageContent{}
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+homeColumns+` FROM home_page_contents
		WHERE is_active = $1 ORDER BY updated_at DESC LIMIT 1`), true).
		Scan(&c.ID, &c.HeroTitle, &c.HeroSubtitle, &c.HeroCtaText, &c.HeroCtaLink,
			&c.LogoURL, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if c.SliderItems, err = s.listSliderItems(ctx, c.ID); err != nil {
		return nil, err
	}
	if c.FeaturedCategories, err = s.listFeaturedCategories(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) listSliderItems(ctx context.Context, contentID string) ([]*model.SliderItem, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, content_id, title, description, image_url, link, button_text, sort_order, is_active
		FROM slider_items WHERE content_id = $1 ORDER BY sort_order ASC`), contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*model.SliderItem{}
	for rows.Next() {
		it := &model.SliderItem{}
		if err := rows.Scan(&it.ID, &it.ContentID, &it.Title, &it.Description, &it.ImageURL,
			&it.Link, &it.ButtonText, &it.Order, &it.IsActive); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) listFeaturedCategories(ctx context.Context, contentID string) ([]*model.FeaturedCategory, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, content_id, woo_category_id, name, slug, icon, sort_order
		FROM featured_categories WHERE content_id = $1 ORDER BY sort_order ASC`), contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []*model.FeaturedCategory{}
	for rows.Next() {
		fc := &model.FeaturedCategory{}
		if err := rows.Scan(&fc.ID, &fc.ContentID, &fc.WooCategoryID, &fc.Name, &fc.Slug,
			&fc.Icon, &fc.Order); err != nil {
			return nil, err
		}
		cats = append(cats, fc)
	}
	return cats, rows.Err()
}

// SaveHomeContent 保存首页内容
//
// 存在生效记录时更新 hero 字段，否则新建一条生效记录；
// 轮播项和推荐分类整体替换。
func (s *Store) SaveHomeContent(ctx context.Context, content *model.HomePageContent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	var existingID string
	err = tx.QueryRowContext(ctx, s.rebind(`
		SELECT id FROM home_page_contents WHERE is_active = $1 ORDER BY updated_at DESC LIMIT 1`), true).
		Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		if content.ID == "" {
			content.ID = "home-" + uuid.NewString()
		}
		content.CreatedAt = now
		content.IsActive = true
		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO home_page_contents (`+homeColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
			content.ID, content.HeroTitle, content.HeroSubtitle, content.HeroCtaText,
			content.HeroCtaLink, content.LogoURL, true, now, now); err != nil {
			return fmt.Errorf("insert home content: %w", err)
		}
	case err != nil:
		return err
	default:
		content.ID = existingID
		content.IsActive = true
		if _, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE home_page_contents SET hero_title = $1, hero_subtitle = $2,
				hero_cta_text = $3, hero_cta_link = $4, updated_at = $5
			WHERE id = $6`),
			content.HeroTitle, content.HeroSubtitle, content.HeroCtaText, content.HeroCtaLink,
			now, content.ID); err != nil {
			return fmt.Errorf("update home content: %w", err)
		}
	}
	content.UpdatedAt = now

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM slider_items WHERE content_id = $1`), content.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM featured_categories WHERE content_id = $1`), content.ID); err != nil {
		return err
	}

	for i, it := range content.SliderItems {
		if it.ID == "" {
			it.ID = "slide-" + uuid.NewString()
		}
		it.ContentID = content.ID
		if it.Order == 0 {
			it.Order = i
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO slider_items (id, content_id, title, description, image_url, link, button_text, sort_order, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
			it.ID, it.ContentID, it.Title, it.Description, it.ImageURL, it.Link, it.ButtonText,
			it.Order, it.IsActive); err != nil {
			return fmt.Errorf("insert slider item: %w", err)
		}
	}

	for i, fc := range content.FeaturedCategories {
		if fc.ID == "" {
			fc.ID = "feat-" + uuid.NewString()
		}
		fc.ContentID = content.ID
		if fc.Order == 0 {
			fc.Order = i
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO featured_categories (id, content_id, woo_category_id, name, slug, icon, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`),
			fc.ID, fc.ContentID, fc.WooCategoryID, fc.Name, fc.Slug, fc.Icon, fc.Order); err != nil {
			return fmt.Errorf("insert featured category: %w", err)
		}
	}

	return tx.Commit()
}

// SetHomeLogo 设置首页 logo，没有生效记录时创建一条空内容
func (s *Store) SetHomeLogo(ctx context.Context, logoURL string) (*model.HomePageContent, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE home_page_contents SET logo_url = $1, updated_at = $2 WHERE is_active = $3`),
		logoURL, now, true)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.db.ExecContext(ctx, s.rebind(`
			INSERT INTO home_page_contents (`+homeColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
			"home-"+uuid.NewString(), "", "", "", "", logoURL, true, now, now); err != nil {
			return nil, fmt.Errorf("insert home content: %w", err)
		}
	}
	return s.GetActiveHomeContent(ctx)
}
