package model

import "time"

// HomePageContent 首页内容（同一时间只有一条 IsActive 记录）
type HomePageContent struct {
	ID                 string              `json:"id" db:"id"`
	HeroTitle          string              `json:"hero_title" db:"hero_title"`
	HeroSubtitle       string              `json:"hero_subtitle" db:"hero_subtitle"`
	HeroCtaText        string              `json:"hero_cta_text" db:"hero_cta_text"`
	HeroCtaLink        string              `json:"hero_cta_link" db:"hero_cta_link"`
	LogoURL            string              `json:"logo_url,omitempty" db:"logo_url"`
	IsActive           bool                `json:"is_active" db:"is_active"`
	SliderItems        []*SliderItem       `json:"slider_items"`
	FeaturedCategories []*FeaturedCategory `json:"featured_categories"`
	CreatedAt          time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" db:"updated_at"`
}

// SliderItem 首页轮播项
type SliderItem struct {
	ID          string `json:"id" db:"id"`
	ContentID   string `json:"-" db:"content_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description,omitempty" db:"description"`
	ImageURL    string `json:"image_url" db:"image_url"`
	Link        string `json:"link,omitempty" db:"link"`
	ButtonText  string `json:"button_text,omitempty" db:"button_text"`
	Order       int    `json:"order" db:"sort_order"`
	IsActive    bool   `json:"is_active" db:"is_active"`
}

// FeaturedCategory 首页推荐分类
type FeaturedCategory struct {
	ID            string `json:"id" db:"id"`
	ContentID     string `json:"-" db:"content_id"`
	WooCategoryID int64  `json:"woo_category_id" db:"woo_category_id"`
	Name          string `json:"name" db:"name"`
	Slug          string `json:"slug" db:"slug"`
	Icon          string `json:"icon,omitempty" db:"icon"`
	Order         int    `json:"order" db:"sort_order"`
}
