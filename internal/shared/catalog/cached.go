package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"olapp/internal/shared/cache"
)

// Cached 为分类查询加缓存的 Catalog 装饰器
//
// 只缓存 ListCategories；创建分类后整体失效。商品列表不缓存。
type Cached struct {
	next  Catalog
	cache cache.CatalogCache
	ttl   time.Duration
}

// NewCached 创建带缓存的 Catalog
func NewCached(next Catalog, c cache.CatalogCache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = cache.TTLCatalog
	}
	return &Cached{next: next, cache: c, ttl: ttl}
}

func categoryKey(q CategoryQuery) string {
	parent := "any"
	if q.Parent != nil {
		parent = fmt.Sprintf("%d", *q.Parent)
	}
	return fmt.Sprintf("%sparent=%s:empty=%t:slug=%s", cache.KeyCatalogCategories, parent, q.IncludeEmpty, q.Slug)
}

func (c *Cached) ListCategories(ctx context.Context, q CategoryQuery) ([]*Category, error) {
	key := categoryKey(q)
	if data, err := c.cache.Get(ctx, key); err == nil {
		var cats []*Category
		if err := json.Unmarshal(data, &cats); err == nil {
			return cats, nil
		}
	}

	cats, err := c.next.ListCategories(ctx, q)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(cats); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			log.Printf("[catalog] cache set failed: %v", err)
		}
	}
	return cats, nil
}

func (c *Cached) CreateCategory(ctx context.Context, nc NewCategory) (*Category, error) {
	cat, err := c.next.CreateCategory(ctx, nc)
	if err != nil {
		return nil, err
	}
	if err := c.cache.DeletePrefix(ctx, cache.KeyCatalogCategories); err != nil {
		log.Printf("[catalog] cache invalidate failed: %v", err)
	}
	return cat, nil
}

func (c *Cached) CreateProduct(ctx context.Context, p NewProduct) (*Product, error) {
	return c.next.CreateProduct(ctx, p)
}

func (c *Cached) ListProducts(ctx context.Context, q ProductQuery) ([]*Product, error) {
	return c.next.ListProducts(ctx, q)
}

var _ Catalog = (*Cached)(nil)
